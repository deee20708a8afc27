package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"qrprompt/internal/browser"
	"qrprompt/internal/bundle"
	"qrprompt/internal/fiche"
	"qrprompt/internal/i18n"
	"qrprompt/internal/session"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

const (
	defaultWidth   = 80
	previewHeight  = 12
	openTimeout    = 30 * time.Second
	maxPhotoBytes  = 32 << 20
	controlPadding = 4
)

// Options configures the form.
type Options struct {
	Controller *session.Controller
	Translator *i18n.Translator
	Opener     browser.Opener

	// GPS is the fix applied by the g key. Nil means no position source.
	GPS *fiche.GPSFix

	// BundleDir receives archives written with ctrl+e.
	BundleDir string

	Styles *Styles
}

type mode int

const (
	modeScan mode = iota
	modeForm
)

type scannedMsg struct {
	pending *session.Pending
	err     error
}

type openedMsg struct {
	target string
	url    string
	err    error
}

type bundledMsg struct {
	path string
	err  error
}

// Model is the bubbletea model of the interactive form.
type Model struct {
	ctrl      *session.Controller
	tr        *i18n.Translator
	opener    browser.Opener
	gps       *fiche.GPSFix
	bundleDir string

	styles   Styles
	renderer *glamour.TermRenderer
	preview  viewport.Model
	width    int

	mode     mode
	scan     textinput.Model
	controls []control
	targets  []fiche.Target
	focus    int // index into controls; len(controls) is the target row
	target   int

	status string
	err    string
}

// New builds the form. When the controller already holds a fiche the form
// opens on it, otherwise on the scan input.
func New(opts Options) Model {
	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}
	tr := opts.Translator
	if tr == nil {
		tr = i18n.New("fr")
	}
	ctrl := opts.Controller
	if ctrl == nil {
		ctrl = session.NewController(session.DefaultConfig())
	}

	scan := textinput.New()
	scan.Placeholder = `{"titre": "...", "prompt": "..."}`
	scan.CharLimit = 0
	scan.Width = defaultWidth - controlPadding

	m := Model{
		ctrl:      ctrl,
		tr:        tr,
		opener:    opts.Opener,
		gps:       opts.GPS,
		bundleDir: opts.BundleDir,
		styles:    styles,
		preview:   viewport.New(defaultWidth, previewHeight),
		width:     defaultWidth,
		scan:      scan,
	}
	m.renderer = newRenderer(styles, defaultWidth)

	if ctrl.Fiche() != nil {
		m = m.loadFiche()
	} else {
		m.scan.Focus()
	}
	return m
}

func newRenderer(styles Styles, width int) *glamour.TermRenderer {
	style := "light"
	if styles.Theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(max(width-controlPadding, 20)),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.mode == modeScan {
		return textinput.Blink
	}
	return nil
}

// Prompt is the currently compiled prompt.
func (m Model) Prompt() string {
	return m.ctrl.Compile()
}

// loadFiche rebuilds the controls from the controller state.
func (m Model) loadFiche() Model {
	values := m.ctrl.Values()
	fields := m.ctrl.Fields()

	m.controls = make([]control, 0, len(fields))
	for _, fd := range fields {
		m.controls = append(m.controls, newControl(fd, values[fd.ID], m.width-controlPadding))
	}
	m.targets = m.ctrl.Targets()
	m.target = 0
	m.focus = 0
	m.mode = modeForm
	m.scan.Blur()
	m.scan.SetValue("")
	if len(m.controls) > 0 {
		m.controls[0].focus()
	}
	return m.refresh()
}

// refresh re-renders the prompt preview.
func (m Model) refresh() Model {
	prompt := m.ctrl.Compile()
	content := prompt
	if m.renderer != nil && prompt != "" {
		if out, err := m.renderer.Render(prompt); err == nil {
			content = out
		}
	}
	m.preview.SetContent(content)
	return m
}

func (m Model) reset() (Model, tea.Cmd) {
	m.ctrl.Reset()
	m.controls = nil
	m.targets = nil
	m.focus = 0
	m.mode = modeScan
	m.status = ""
	m.err = ""
	m = m.refresh()
	cmd := m.scan.Focus()
	return m, cmd
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.preview.Width = msg.Width
		m.preview.Height = max(msg.Height/3, 3)
		m.scan.Width = msg.Width - controlPadding
		m.renderer = newRenderer(m.styles, msg.Width)
		return m.refresh(), nil

	case scannedMsg:
		if msg.err != nil {
			key := i18n.InvalidPayload
			if errors.Is(msg.err, fiche.ErrEmptyScan) {
				key = i18n.EmptyScan
			}
			m.err = m.tr.T(key)
			return m, nil
		}
		if !m.ctrl.Commit(msg.pending) {
			// a newer scan or a reset already won
			return m, nil
		}
		m.err = ""
		m.status = ""
		return m.loadFiche(), nil

	case openedMsg:
		switch {
		case msg.err != nil:
			m.err = msg.err.Error()
		case m.opener == nil:
			m.err = ""
			m.status = msg.url
		default:
			m.err = ""
			m.status = m.tr.T(i18n.TargetOpened) + msg.target
		}
		return m, nil

	case bundledMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
		} else {
			m.err = ""
			m.status = m.tr.T(i18n.ZipReady) + " " + msg.path
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "ctrl+r":
		return m.reset()
	}

	if m.mode == modeScan {
		if msg.Type == tea.KeyEnter {
			return m, m.scanCmd(m.scan.Value())
		}
		var cmd tea.Cmd
		m.scan, cmd = m.scan.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+y":
		if err := clipboardWriteAll(m.ctrl.Compile()); err != nil {
			m.err = err.Error()
		} else {
			m.err = ""
			m.status = m.tr.T(i18n.PromptCopied)
		}
		return m, nil
	case "ctrl+e":
		return m, m.bundleCmd()
	case "tab":
		return m.moveFocus(1)
	case "shift+tab":
		return m.moveFocus(-1)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	if m.focus >= len(m.controls) {
		return m.handleTargetKey(msg)
	}

	c := &m.controls[m.focus]
	if c.field.Kind != fiche.KindTextarea {
		switch msg.String() {
		case "up":
			return m.moveFocus(-1)
		case "down":
			return m.moveFocus(1)
		}
	}

	switch c.field.Kind {
	case fiche.KindSelect, fiche.KindRadio, fiche.KindMultiSelect:
		switch msg.String() {
		case "left", "h":
			c.move(-1)
		case "right", "l":
			c.move(1)
		case " ", "enter":
			c.pick()
			m.setInputs(c.field.ID, c.inputs())
		}
		return m.refresh(), nil

	case fiche.KindGPS:
		switch msg.String() {
		case "g", "enter":
			return m.acquireGPS(), nil
		}
		return m, nil

	case fiche.KindPhoto:
		if msg.Type == tea.KeyEnter {
			return m.attachPhoto(c), nil
		}
		return m, c.updateText(msg)

	case fiche.KindText, fiche.KindNumber, fiche.KindDate, fiche.KindTime,
		fiche.KindDateTime, fiche.KindTextarea:
		if msg.Type == tea.KeyEnter && c.field.Kind != fiche.KindTextarea {
			return m.moveFocus(1)
		}
		before := c.text()
		cmd := c.updateText(msg)
		if after := c.text(); after != before {
			m.setInputs(c.field.ID, []string{after})
			m = m.refresh()
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) handleTargetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		return m.moveFocus(-1)
	case "left", "h":
		if len(m.targets) > 0 {
			m.target = (m.target - 1 + len(m.targets)) % len(m.targets)
		}
	case "right", "l":
		if len(m.targets) > 0 {
			m.target = (m.target + 1) % len(m.targets)
		}
	case "g":
		return m.acquireGPS(), nil
	case "enter":
		if len(m.targets) > 0 {
			return m, m.openCmd(m.targets[m.target].Name)
		}
	}
	return m, nil
}

func (m Model) moveFocus(delta int) (tea.Model, tea.Cmd) {
	n := len(m.controls) + 1
	if m.focus < len(m.controls) {
		m.controls[m.focus].blur()
	}
	m.focus = ((m.focus+delta)%n + n) % n
	var cmd tea.Cmd
	if m.focus < len(m.controls) {
		cmd = m.controls[m.focus].focus()
	}
	return m, cmd
}

func (m *Model) setInputs(id string, inputs []string) {
	if err := m.ctrl.SetFieldInputs(id, inputs); err != nil {
		m.err = err.Error()
		return
	}
	m.err = ""
}

func (m Model) acquireGPS() Model {
	if m.gps == nil {
		m.err = m.tr.T(i18n.GeolocFail) + m.tr.T(i18n.GPSNotAcquired)
		return m
	}
	value, err := m.ctrl.SetGPS(*m.gps)
	if err != nil {
		m.err = err.Error()
		return m
	}
	m.err = ""
	m.status = value
	return m.refresh()
}

func (m Model) attachPhoto(c *control) Model {
	path := strings.TrimSpace(c.input.Value())
	if path == "" {
		return m
	}
	info, err := os.Stat(path)
	if err != nil {
		m.err = err.Error()
		return m
	}
	if info.Size() > maxPhotoBytes {
		m.err = fmt.Sprintf("%s: file too large", path)
		return m
	}
	data, err := os.ReadFile(path)
	if err != nil {
		m.err = err.Error()
		return m
	}
	photo := fiche.Photo{
		FieldID:  c.field.ID,
		Filename: filepath.Base(path),
		Data:     data,
	}
	if err := m.ctrl.AttachPhoto(photo); err != nil {
		m.err = err.Error()
		return m
	}
	m.err = ""
	m.status = photo.Filename
	c.input.SetValue("")
	return m
}

func (m Model) scanCmd(raw string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		p, err := ctrl.Prepare(raw)
		return scannedMsg{pending: p, err: err}
	}
}

func (m Model) openCmd(name string) tea.Cmd {
	ctrl, opener := m.ctrl, m.opener
	return func() tea.Msg {
		act, err := ctrl.Activate(name)
		if err != nil {
			return openedMsg{target: name, err: err}
		}
		label := act.Target.DisplayLabel()
		if opener == nil {
			return openedMsg{target: label, url: act.URL}
		}
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		return openedMsg{target: label, url: act.URL, err: opener.Open(ctx, act.URL)}
	}
}

func (m Model) bundleCmd() tea.Cmd {
	ctrl, dir := m.ctrl, m.bundleDir
	if dir == "" {
		dir = "."
	}
	return func() tea.Msg {
		contents, err := ctrl.BundleContents()
		if err != nil {
			return bundledMsg{err: err}
		}
		path, err := bundle.WriteFile(dir, contents)
		return bundledMsg{path: path, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	s := m.styles
	var sb strings.Builder

	sb.WriteString(s.Header.Render("qrprompt"))
	sb.WriteString(" ")
	if f := m.ctrl.Fiche(); f != nil {
		sb.WriteString(s.Subtitle.Render(fiche.MetaLine(f)))
	} else {
		sb.WriteString(s.Subtitle.Render(m.tr.T(i18n.MetaPlaceholder)))
	}
	sb.WriteString("\n\n")

	if m.mode == modeScan {
		sb.WriteString(s.Muted.Render(m.tr.T(i18n.ScanHint)))
		sb.WriteString("\n")
		sb.WriteString(m.scan.View())
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.formView())
	}

	if m.err != "" {
		sb.WriteString("\n" + s.Error.Render(m.err) + "\n")
	} else if m.status != "" {
		sb.WriteString("\n" + s.Status.Render(m.status) + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(s.Footer.Render(m.help()))
	return sb.String()
}

func (m Model) formView() string {
	s := m.styles
	var sb strings.Builder
	values := m.ctrl.Values()
	photos := make(map[string]string)
	for _, p := range m.ctrl.Photos() {
		photos[p.FieldID] = p.Filename
	}

	for i := range m.controls {
		c := &m.controls[i]
		value := values[c.field.ID]
		if c.field.Kind == fiche.KindPhoto {
			value = photos[c.field.ID]
		}
		sb.WriteString(c.view(s, i == m.focus, value, m.tr.T(i18n.GPSNotAcquired)))
		sb.WriteString("\n\n")
	}

	if info := fiche.InfoText(m.ctrl.Fiche()); info != "" {
		sb.WriteString(s.Label.Render(m.tr.T(i18n.MoreInfo)))
		sb.WriteString("\n" + s.Body.Render(info) + "\n\n")
	}

	sb.WriteString(m.targetsView())
	sb.WriteString("\n")
	sb.WriteString(s.RenderDivider(m.width))
	sb.WriteString("\n")
	sb.WriteString(s.Preview.Width(max(m.width-2, 10)).Render(m.preview.View()))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) targetsView() string {
	s := m.styles
	if len(m.targets) == 0 {
		return s.Muted.Render(m.tr.T(i18n.NoTargets))
	}
	buttons := make([]string, 0, len(m.targets))
	for i, t := range m.targets {
		label := t.DisplayLabel()
		if t.Paid {
			label += " " + m.tr.T(i18n.PaidVersion)
		}
		style := s.TargetStyle(t)
		if m.focus == len(m.controls) && i == m.target {
			style = style.Inherit(s.ActiveBtn)
		}
		buttons = append(buttons, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

func (m Model) help() string {
	if m.mode == modeScan {
		return "enter: scan • ctrl+r: " + m.tr.T(i18n.Reset) + " • esc: quit"
	}
	return strings.Join([]string{
		"tab: next",
		"←/→: choose",
		"space: pick",
		"g: " + m.tr.T(i18n.AcquirePos),
		"ctrl+y: " + m.tr.T(i18n.CopyPrompt),
		"ctrl+e: " + m.tr.T(i18n.CreateZip),
		"ctrl+r: " + m.tr.T(i18n.Reset),
		"esc: quit",
	}, " • ")
}
