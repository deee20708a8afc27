package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qrprompt/internal/browser"
	"qrprompt/internal/fiche"
	"qrprompt/internal/i18n"
	"qrprompt/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPayload = `{
  "categorie": "Chimie",
  "titre_fiche": "Fuite de chlore",
  "version": "1",
  "prompt": "Produit {{UN}} au {{lieu}}. Risques: {{risques}}. Position: {{position}}",
  "fields": [
    {"id": "UN"},
    {"id": "lieu"},
    {"id": "risques", "type": "multiselect", "options": ["Feu", "Toxique"]},
    {"id": "position", "type": "gps"},
    {"id": "cliche", "type": "photo"}
  ],
  "ia_cotation": {"Chatgpt": 3, "Claude": 1, "Gemini": {"score": 2, "url": "https://g.example/?q=%q%"}}
}`

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+y":
		return tea.KeyMsg{Type: tea.KeyCtrlY}
	case "ctrl+e":
		return tea.KeyMsg{Type: tea.KeyCtrlE}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newForm(t *testing.T, opts Options) (Model, *session.Controller) {
	t.Helper()
	ctrl := session.NewController(session.DefaultConfig())
	require.NoError(t, ctrl.Scan(testPayload))
	opts.Controller = ctrl
	if opts.Translator == nil {
		opts.Translator = i18n.New("en")
	}
	return New(opts), ctrl
}

func TestNew_StartsOnScanWithoutFiche(t *testing.T) {
	m := New(Options{Translator: i18n.New("en")})
	assert.Equal(t, modeScan, m.mode)
	assert.Contains(t, m.View(), "Paste the QR code content")
	assert.Contains(t, m.View(), "No fiche loaded")
}

func TestScan_LoadsForm(t *testing.T) {
	m := New(Options{Translator: i18n.New("en")})

	msg := m.scanCmd(testPayload)()
	m, _ = update(t, m, msg)

	assert.Equal(t, modeForm, m.mode)
	require.Len(t, m.controls, 6)
	assert.Equal(t, "code_onu", m.controls[0].field.ID)
	assert.Len(t, m.targets, 2)
	assert.Contains(t, m.View(), "Chimie – Fuite de chlore – 1")
}

func TestScan_InvalidPayloadShowsError(t *testing.T) {
	m := New(Options{Translator: i18n.New("en")})

	m, _ = update(t, m, m.scanCmd("{nope")())
	assert.Equal(t, modeScan, m.mode)
	assert.Equal(t, "Invalid QR code content.", m.err)

	m, _ = update(t, m, m.scanCmd("  ")())
	assert.Equal(t, "No code found.", m.err)
}

func TestScan_StaleResultIsDropped(t *testing.T) {
	ctrl := session.NewController(session.DefaultConfig())
	m := New(Options{Controller: ctrl})

	older, err := ctrl.Prepare(testPayload)
	require.NoError(t, err)
	newer, err := ctrl.Prepare(`{"titre": "Autre", "prompt": "Age: {{age}}"}`)
	require.NoError(t, err)

	m, _ = update(t, m, scannedMsg{pending: newer})
	m, _ = update(t, m, scannedMsg{pending: older})

	assert.Equal(t, "Autre", ctrl.Fiche().Title)
	require.Len(t, m.controls, 2)
	assert.Equal(t, "age", m.controls[0].field.ID)
}

func TestTyping_UpdatesValueAndPrompt(t *testing.T) {
	m, ctrl := newForm(t, Options{})

	m, _ = update(t, m, key("1017"))
	assert.Equal(t, "1017", ctrl.Values()["code_onu"])
	assert.True(t, strings.HasPrefix(m.Prompt(), "Produit 1017 au ."), m.Prompt())
}

func TestMultiselect_TogglesOptions(t *testing.T) {
	m, ctrl := newForm(t, Options{})

	m, _ = update(t, m, key("tab"))
	m, _ = update(t, m, key("tab"))
	require.Equal(t, "risques", m.controls[m.focus].field.ID)

	m, _ = update(t, m, key(" "))
	m, _ = update(t, m, key("right"))
	m, _ = update(t, m, key(" "))
	assert.Equal(t, "Feu, Toxique", ctrl.Values()["risques"])

	m, _ = update(t, m, key(" "))
	assert.Equal(t, "Feu", ctrl.Values()["risques"])
}

func TestGPS_UsesConfiguredFix(t *testing.T) {
	fix := fiche.GPSFix{Latitude: 48.85, Longitude: 2.35, Accuracy: 9.7}
	m, ctrl := newForm(t, Options{GPS: &fix})

	for i := 0; i < 3; i++ {
		m, _ = update(t, m, key("tab"))
	}
	require.Equal(t, fiche.KindGPS, m.controls[m.focus].field.Kind)

	m, _ = update(t, m, key("g"))
	assert.Equal(t, "48.85, 2.35 (±10 m)", ctrl.Values()["position"])
	assert.Empty(t, m.err)
}

func TestGPS_WithoutSourceReportsFailure(t *testing.T) {
	m, ctrl := newForm(t, Options{})
	for i := 0; i < 3; i++ {
		m, _ = update(t, m, key("tab"))
	}
	m, _ = update(t, m, key("g"))
	assert.NotEmpty(t, m.err)
	assert.Empty(t, ctrl.Values()["position"])
}

func TestPhoto_AttachesFile(t *testing.T) {
	m, ctrl := newForm(t, Options{})
	path := filepath.Join(t.TempDir(), "quai.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	for i := 0; i < 4; i++ {
		m, _ = update(t, m, key("tab"))
	}
	require.Equal(t, fiche.KindPhoto, m.controls[m.focus].field.Kind)

	m, _ = update(t, m, key(path))
	m, _ = update(t, m, key("enter"))
	require.Len(t, ctrl.Photos(), 1)
	assert.Equal(t, "quai.jpg", ctrl.Photos()[0].Filename)
	assert.Empty(t, m.err)
}

func TestTargets_OpenThroughOpener(t *testing.T) {
	rec := &browser.Recorder{}
	m, ctrl := newForm(t, Options{Opener: rec})
	require.NoError(t, ctrl.SetValue("lieu", "Quai 3"))

	m, _ = update(t, m, key("shift+tab"))
	require.Equal(t, len(m.controls), m.focus)
	assert.Contains(t, m.View(), "Gemini")

	m, _ = update(t, m, key("right"))
	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	url, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "https://g.example/?q="+fiche.EncodePrompt(ctrl.Compile()), url)
	assert.Equal(t, "Opening Gemini", m.status)
}

func TestReset_ReturnsToScan(t *testing.T) {
	m, ctrl := newForm(t, Options{})

	m, _ = update(t, m, key("ctrl+r"))
	assert.Equal(t, modeScan, m.mode)
	assert.Nil(t, ctrl.Fiche())
	assert.Empty(t, m.controls)
}

func TestCopyPrompt(t *testing.T) {
	var copied string
	orig := clipboardWriteAll
	clipboardWriteAll = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { clipboardWriteAll = orig })

	m, ctrl := newForm(t, Options{})
	m, _ = update(t, m, key("ctrl+y"))
	assert.Equal(t, ctrl.Compile(), copied)
	assert.Equal(t, "Prompt copied!", m.status)
}

func TestBundleExport(t *testing.T) {
	dir := t.TempDir()
	m, _ := newForm(t, Options{BundleDir: dir})

	m, cmd := update(t, m, key("ctrl+e"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	require.Empty(t, m.err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".zip"))
}
