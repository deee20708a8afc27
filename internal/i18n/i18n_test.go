package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestNew_MatchesLanguage(t *testing.T) {
	tests := map[string]string{
		"fr":      "fr",
		"fr-CA":   "fr",
		"en":      "en",
		"en-GB":   "en",
		"de":      "fr",
		"":        "fr",
		"!!bogus": "fr",
	}
	for tag, want := range tests {
		assert.Equal(t, want, New(tag).Lang(), "tag %q", tag)
	}
}

func TestT(t *testing.T) {
	assert.Equal(t, "Réinitialiser", New("fr").T(Reset))
	assert.Equal(t, "Reset", New("en").T(Reset))
	assert.Equal(t, "(paid version)", New("en").T(PaidVersion))
	assert.Equal(t, "no.such.key", New("en").T("no.such.key"))
}

func TestDictionariesHaveSameKeys(t *testing.T) {
	fr := dict[language.French]
	en := dict[language.English]
	assert.Len(t, en, len(fr))
	for k := range fr {
		assert.Contains(t, en, k)
	}
	assert.Len(t, Keys(), len(fr))
}

func TestFromAcceptLanguage(t *testing.T) {
	fallback := New("fr")
	tests := map[string]string{
		"":                        "fr",
		"en-US,en;q=0.9":          "en",
		"de-DE,fr;q=0.5":          "fr",
		"fr-BE, en;q=0.8":         "fr",
		"ja":                      "fr",
		"not a ; valid == header": "fr",
	}
	for header, want := range tests {
		assert.Equal(t, want, FromAcceptLanguage(header, fallback).Lang(), "header %q", header)
	}
	assert.Same(t, fallback, FromAcceptLanguage("", fallback))
}
