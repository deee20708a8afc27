package fiche

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Substitution(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   map[string]string
		want     string
	}{
		{"missing value", "Hello {{name}}!", map[string]string{}, "Hello !"},
		{"nil values", "Hello {{name}}!", nil, "Hello !"},
		{"round trip", "avant {{x}} après", map[string]string{"x": "V"}, "avant V après"},
		{"repeated", "{{x}}-{{ x }}-{{X}}", map[string]string{"x": "V"}, "V-V-V"},
		{"alias key", "ONU {{ UN }}", map[string]string{"code_onu": "1017"}, "ONU 1017"},
		{"accented key", "{{Numéro Lot}}", map[string]string{"numero_lot": "L-7"}, "L-7"},
		{"blank value", "[{{x}}]", map[string]string{"x": "   "}, "[]"},
		{"value kept verbatim", "[{{x}}]", map[string]string{"x": " a "}, "[ a ]"},
		{"single braces untouched", "{x} {{x}}", map[string]string{"x": "1"}, "{x} 1"},
		{"empty template", "", map[string]string{"x": "1"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Fiche{PromptTemplate: tt.template}
			got := Compile(f, tt.values)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Compile(f, tt.values), "compile must be idempotent")
		})
	}
}

func TestCompile_NilFiche(t *testing.T) {
	assert.Empty(t, Compile(nil, map[string]string{"x": "1"}))
}

func TestCompile_Sections(t *testing.T) {
	f := &Fiche{
		Category:       "Chimie",
		Title:          "Fuite",
		Version:        "2",
		Objective:      "Sécuriser",
		References:     []string{"A", "B"},
		PromptTemplate: "Produit {{produit}}\n",
		Fields: []FieldDescriptor{
			{ID: "produit", Label: "Produit"},
			{ID: "lieu", Label: "Lieu"},
			notesField(),
		},
	}
	values := map[string]string{
		"produit":      "chlore",
		NotesFieldID:   " vent fort ",
		"non_declared": "x",
	}

	want := "Produit chlore\n\n" +
		"# Fiche: Fuite (2) – Catégorie: Chimie\n\n" +
		"# Références: A, B\n\n" +
		"# Objectif: Sécuriser\n\n" +
		"# Notes de l'opérateur\nvent fort"
	assert.Equal(t, want, Compile(f, values))

	withEntries := CompileWith(f, values, CompileOptions{IncludeEntries: true})
	wantEntries := "Produit chlore\n\n" +
		"# Fiche: Fuite (2) – Catégorie: Chimie\n\n" +
		"# Références: A, B\n\n" +
		"# Objectif: Sécuriser\n\n" +
		"# Données saisies\n- Produit: chlore\n\n" +
		"# Notes de l'opérateur\nvent fort"
	assert.Equal(t, wantEntries, withEntries)
}

func TestCompile_PartialHeader(t *testing.T) {
	tests := []struct {
		name string
		f    Fiche
		want string
	}{
		{"title only", Fiche{Title: "Fuite"}, "# Fiche: Fuite"},
		{"version only", Fiche{Version: "3"}, "# Fiche: (3)"},
		{"category only", Fiche{Category: "Bio"}, "# Fiche: – Catégorie: Bio"},
		{"nothing", Fiche{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.f
			assert.Equal(t, tt.want, Compile(&f, nil))
		})
	}
}

func TestCompile_EndToEnd(t *testing.T) {
	f, err := Normalize(fuitePayload)
	require.NoError(t, err)

	got := Compile(f, map[string]string{"code_onu": "1017", "lieu": "Quai 3"})
	assert.Contains(t, got, "Produit 1017 à Quai 3")
	assert.Contains(t, got, "# Fiche: Fuite de chlore (2.1) – Catégorie: Chimie")
	assert.NotContains(t, got, "{{")
}

func TestCanonicalValues_ExactKeyWins(t *testing.T) {
	got := canonicalValues(map[string]string{"UN": "alias", "code_onu": "exact", "onu": "other"})
	assert.Equal(t, map[string]string{"code_onu": "exact"}, got)

	got = canonicalValues(map[string]string{"onu": "b", "UN": "a"})
	assert.Equal(t, "a", got["code_onu"], "sorted order picks UN before onu")
}
