package fiche

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScores_NumberMap(t *testing.T) {
	entries := ParseScores(json.RawMessage(`{"Chatgpt": 3, "Claude": 1, "Gemini": 2}`))

	targets := Actionable(entries, DefaultMinScore)
	require.Len(t, targets, 2)
	assert.Equal(t, "Chatgpt", targets[0].Name)
	assert.Equal(t, TierHigh, targets[0].Tier)
	assert.Equal(t, "Gemini", targets[1].Name)
	assert.Equal(t, TierCaution, targets[1].Tier)
}

func TestParseScores_ObjectMapKeepsSourceOrder(t *testing.T) {
	raw := json.RawMessage(`{
		"Zeta": {"score": 3, "label": "Zeta Pro", "paid": true, "url": "https://z.example/?q=%q%", "client_uri": "zeta://ask?q=%q%"},
		"Alpha": {"score": "2"},
		"Mid": 2.7,
		"Broken": {"label": "no score"},
		"Alpha": {"score": 1}
	}`)

	want := []ScoreEntry{
		{Name: "Zeta", Label: "Zeta Pro", Score: 3, Paid: true, URL: "https://z.example/?q=%q%", ClientURI: "zeta://ask?q=%q%"},
		{Name: "Alpha", Score: 1},
		{Name: "Mid", Score: 2},
		{Name: "Broken", Label: "no score"},
	}
	if diff := cmp.Diff(want, ParseScores(raw)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParseScores_LegacyString(t *testing.T) {
	entries := ParseScores(json.RawMessage(`"Chatgpt: 3, Claude: 1€"`))

	want := []ScoreEntry{
		{Name: "Chatgpt", Score: 3},
		{Name: "Claude", Score: 3, Paid: true},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	targets := Actionable(entries, DefaultMinScore)
	require.Len(t, targets, 2)
	assert.Equal(t, TierHigh, targets[1].Tier)
	assert.True(t, targets[1].Paid)
}

func TestParseScores_LegacyStringThroughNormalize(t *testing.T) {
	f, err := Normalize(`{"ia": "Mistral: 2; Gemini: 0\nPerplexity: €\nLe Chat: 3"}`)
	require.NoError(t, err)

	want := []ScoreEntry{
		{Name: "Mistral", Score: 2},
		{Name: "Gemini", Score: 0},
		{Name: "Perplexity", Score: 3, Paid: true},
		{Name: "Le Chat", Score: 3},
	}
	if diff := cmp.Diff(want, f.AIScores); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParseScores_Unsupported(t *testing.T) {
	for _, raw := range []string{"", "null", "[1, 2]", "3", "true", "{broken"} {
		assert.Empty(t, ParseScores(json.RawMessage(raw)), "raw %q", raw)
	}
}

func TestParseScoreToken(t *testing.T) {
	tests := []struct {
		tok   string
		score int
		paid  bool
	}{
		{"3", 3, false},
		{" 2 ", 2, false},
		{"2.9", 2, false},
		{"€", 3, true},
		{"1€", 3, true},
		{"$", 3, true},
		{"2$", 3, true},
		{"£ 2", 3, true},
		{"2/3", 2, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			score, paid := parseScoreToken(tt.tok)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.paid, paid)
		})
	}
}

func TestParseScoreString_SkipsBlankItems(t *testing.T) {
	entries := ParseScoreString(",, :3 ; Grok\n\r\nCopilot: 2")
	want := []ScoreEntry{
		{Name: "Grok"},
		{Name: "Copilot", Score: 2},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{json.Number("4"), 4, true},
		{json.Number("2.5"), 2, true},
		{float64(3), 3, true},
		{7, 7, true},
		{" 5 ", 5, true},
		{"x", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := toInt(tt.in)
		assert.Equal(t, tt.ok, ok, "in %v", tt.in)
		assert.Equal(t, tt.want, got, "in %v", tt.in)
	}
}
