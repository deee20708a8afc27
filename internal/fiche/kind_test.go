package fiche

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFieldKind(t *testing.T) {
	tests := map[string]FieldKind{
		"":               KindText,
		"TEXT":           KindText,
		" number ":       KindNumber,
		"date":           KindDate,
		"time":           KindTime,
		"datetime":       KindDateTime,
		"datetime-local": KindDateTime,
		"textarea":       KindTextarea,
		"select":         KindSelect,
		"multiselect":    KindMultiSelect,
		"multi-select":   KindMultiSelect,
		"radio":          KindRadio,
		"gps":            KindGPS,
		"photo":          KindPhoto,
		"barcode":        KindText,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParseFieldKind(raw), "raw %q", raw)
	}
}

func TestFieldKind_Collect(t *testing.T) {
	tests := []struct {
		kind   FieldKind
		inputs []string
		want   string
	}{
		{KindText, []string{" brut ", "ignoré"}, " brut "},
		{KindTextarea, nil, ""},
		{KindNumber, []string{"12"}, "12"},
		{KindSelect, []string{"", " gaz "}, "gaz"},
		{KindRadio, []string{"oui"}, "oui"},
		{KindRadio, nil, ""},
		{KindMultiSelect, []string{"Feu", " ", "Explosion"}, "Feu, Explosion"},
		{KindGPS, []string{"48, 2"}, ""},
		{KindPhoto, []string{"img.jpg"}, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Collect(tt.inputs))
		})
	}
}

func TestFieldKind_Traits(t *testing.T) {
	for _, k := range AllKinds {
		assert.NotEmpty(t, k.InputType(), "kind %s", k)
		assert.Equal(t, k == KindSelect || k == KindMultiSelect || k == KindRadio, k.HasOptions(), "kind %s", k)
		assert.Equal(t, k != KindPhoto, k.HoldsText(), "kind %s", k)
	}
	assert.Equal(t, "datetime-local", KindDateTime.InputType())
	assert.Equal(t, "select-multiple", KindMultiSelect.InputType())
	assert.Equal(t, "file", KindPhoto.InputType())
}
