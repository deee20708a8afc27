package ui

import (
	"strings"
	"testing"

	"qrprompt/internal/fiche"

	"github.com/stretchr/testify/assert"
)

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, DetectTheme().IsDark)

	t.Setenv("COLORFGBG", "0;15")
	t.Setenv("QRPROMPT_DARK_MODE", "")
	assert.False(t, DetectTheme().IsDark)

	t.Setenv("QRPROMPT_DARK_MODE", "1")
	assert.True(t, DetectTheme().IsDark)
}

func TestTargetStyle(t *testing.T) {
	s := NewStyles(LightTheme())

	high := fiche.Target{Tier: fiche.TierHigh}
	caution := fiche.Target{Tier: fiche.TierCaution}
	paid := fiche.Target{ScoreEntry: fiche.ScoreEntry{Paid: true}, Tier: fiche.TierHigh}

	assert.Equal(t, s.TierHigh.GetForeground(), s.TargetStyle(high).GetForeground())
	assert.Equal(t, s.TierWarn.GetForeground(), s.TargetStyle(caution).GetForeground())
	assert.Equal(t, s.TierPaid.GetForeground(), s.TargetStyle(paid).GetForeground())
}

func TestTable(t *testing.T) {
	table := NewTable("Champs", "id", "kind")
	assert.Empty(t, table.View(DefaultStyles()))

	table.AddRow("code_onu", "text")
	table.AddRow("risques")
	view := table.View(DefaultStyles())

	assert.Contains(t, view, "Champs")
	assert.Contains(t, view, "code_onu")
	assert.Contains(t, view, "risques")
	assert.Equal(t, 5, strings.Count(view, "\n"))
}
