package ui

import (
	"fmt"
	"strings"

	"qrprompt/internal/fiche"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// control is the editing widget of one field. Which members are used
// depends on the field kind.
type control struct {
	field fiche.FieldDescriptor

	input textinput.Model // text-like kinds and the photo path
	area  textarea.Model  // textarea

	cursor int          // choice kinds
	picked map[int]bool // select, radio and multiselect
}

func newControl(fd fiche.FieldDescriptor, value string, width int) control {
	c := control{field: fd, picked: make(map[int]bool)}

	switch fd.Kind {
	case fiche.KindTextarea:
		c.area = textarea.New()
		c.area.ShowLineNumbers = false
		c.area.SetHeight(max(fd.Rows, 1))
		c.area.SetWidth(width)
		c.area.SetValue(value)
		c.area.Blur()
	case fiche.KindSelect, fiche.KindRadio, fiche.KindMultiSelect:
		selected := strings.Split(value, fiche.MultiValueSeparator)
		for i, opt := range fd.Options {
			for _, s := range selected {
				if s != "" && s == opt.Value {
					c.picked[i] = true
				}
			}
		}
	case fiche.KindGPS:
	case fiche.KindPhoto:
		c.input = textinput.New()
		c.input.Placeholder = "/path/to/photo.jpg"
		c.input.Width = width
	case fiche.KindText, fiche.KindNumber, fiche.KindDate, fiche.KindTime, fiche.KindDateTime:
		c.input = textinput.New()
		c.input.Placeholder = placeholderFor(fd.Kind)
		c.input.Width = width
		c.input.SetValue(value)
	}
	return c
}

func placeholderFor(k fiche.FieldKind) string {
	switch k {
	case fiche.KindNumber:
		return "0"
	case fiche.KindDate:
		return "AAAA-MM-JJ"
	case fiche.KindTime:
		return "HH:MM"
	case fiche.KindDateTime:
		return "AAAA-MM-JJTHH:MM"
	default:
		return ""
	}
}

func (c *control) focus() tea.Cmd {
	switch c.field.Kind {
	case fiche.KindTextarea:
		return c.area.Focus()
	case fiche.KindText, fiche.KindNumber, fiche.KindDate, fiche.KindTime,
		fiche.KindDateTime, fiche.KindPhoto:
		return c.input.Focus()
	}
	return nil
}

func (c *control) blur() {
	switch c.field.Kind {
	case fiche.KindTextarea:
		c.area.Blur()
	case fiche.KindText, fiche.KindNumber, fiche.KindDate, fiche.KindTime,
		fiche.KindDateTime, fiche.KindPhoto:
		c.input.Blur()
	}
}

// text is the current content of the text widget.
func (c *control) text() string {
	if c.field.Kind == fiche.KindTextarea {
		return c.area.Value()
	}
	return c.input.Value()
}

// updateText forwards msg to the text widget.
func (c *control) updateText(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if c.field.Kind == fiche.KindTextarea {
		c.area, cmd = c.area.Update(msg)
	} else {
		c.input, cmd = c.input.Update(msg)
	}
	return cmd
}

// move shifts the option cursor, wrapping around.
func (c *control) move(delta int) {
	n := len(c.field.Options)
	if n == 0 {
		return
	}
	c.cursor = ((c.cursor+delta)%n + n) % n
}

// pick selects the option under the cursor. Single-choice kinds replace the
// selection, multiselect toggles.
func (c *control) pick() {
	if len(c.field.Options) == 0 {
		return
	}
	if c.field.Kind == fiche.KindMultiSelect {
		c.picked[c.cursor] = !c.picked[c.cursor]
		return
	}
	c.picked = map[int]bool{c.cursor: true}
}

// inputs lists the picked option values in option order.
func (c *control) inputs() []string {
	var out []string
	for i, opt := range c.field.Options {
		if c.picked[i] {
			out = append(out, opt.Value)
		}
	}
	return out
}

// view renders the label and widget. hint is shown by gps controls that
// have no fix yet.
func (c *control) view(s Styles, focused bool, value, hint string) string {
	var sb strings.Builder

	label := s.Label
	if focused {
		label = s.Focused
	}
	sb.WriteString(label.Render(c.field.Label))
	if c.field.Required {
		sb.WriteString(s.Required.Render(" *"))
	}
	sb.WriteString("\n")

	switch c.field.Kind {
	case fiche.KindTextarea:
		sb.WriteString(c.area.View())
	case fiche.KindSelect, fiche.KindRadio, fiche.KindMultiSelect:
		sb.WriteString(c.optionsView(s, focused))
	case fiche.KindGPS:
		if value == "" {
			sb.WriteString(s.Muted.Render("[g] " + hint))
		} else {
			sb.WriteString(s.Body.Render(value))
		}
	case fiche.KindPhoto:
		sb.WriteString(c.input.View())
		if value != "" {
			sb.WriteString(" " + s.Selected.Render(value))
		}
	case fiche.KindText, fiche.KindNumber, fiche.KindDate, fiche.KindTime, fiche.KindDateTime:
		sb.WriteString(c.input.View())
	}
	return sb.String()
}

func (c *control) optionsView(s Styles, focused bool) string {
	if len(c.field.Options) == 0 {
		return s.Muted.Render("–")
	}
	box := "(%s) %s"
	if c.field.Kind == fiche.KindMultiSelect {
		box = "[%s] %s"
	}

	parts := make([]string, 0, len(c.field.Options))
	for i, opt := range c.field.Options {
		mark := " "
		if c.picked[i] {
			mark = "x"
		}
		item := fmt.Sprintf(box, mark, opt.Label)
		style := s.Body
		switch {
		case focused && i == c.cursor:
			style = s.Focused
		case c.picked[i]:
			style = s.Selected
		}
		parts = append(parts, style.Render(item))
	}
	return strings.Join(parts, "  ")
}
