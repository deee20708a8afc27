package fiche

import (
	"regexp"
	"strings"
	"unicode"

	"qrprompt/internal/logging"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NotesFieldID is the permanent free-text operator notes field.
const NotesFieldID = "notes_operateur"

const notesFieldLabel = "Notes de l'opérateur"

const defaultTextareaRows = 3

// Option is one choice of a select, multiselect or radio field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDescriptor is the canonical description of one input control.
type FieldDescriptor struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required,omitempty"`
	Options  []Option  `json:"options"`
	Rows     int       `json:"rows,omitempty"`
}

// aliases folds the different spellings of the same hazmat field onto one id.
var aliases = map[string]string{
	"un":          "code_onu",
	"onu":         "code_onu",
	"no_onu":      "code_onu",
	"numero_onu":  "code_onu",
	"cd":          "code_danger_adr",
	"kemler":      "code_danger_adr",
	"code_danger": "code_danger_adr",
	"cas":         "num_cas",
	"no_cas":      "num_cas",
	"numero_cas":  "num_cas",
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)
)

var (
	idKeys       = []string{"id", "name", "key", "nom"}
	labelKeys    = []string{"label", "libelle", "titre", "name"}
	kindKeys     = []string{"type", "kind"}
	requiredKeys = []string{"required", "obligatoire", "requis"}
	optionKeys   = []string{"options", "choix"}
)

// foldAccents strips combining marks after NFKD decomposition, so "Numéro"
// and "Numero" produce the same id.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CanonicalID normalizes a raw field identifier: accents folded, lower-cased,
// trimmed, whitespace runs collapsed to "_", then resolved through the alias
// table.
func CanonicalID(raw string) string {
	id := strings.ToLower(strings.TrimSpace(foldAccents(raw)))
	id = whitespaceRun.ReplaceAllString(id, "_")
	if alias, ok := aliases[id]; ok {
		return alias
	}
	return id
}

// DefaultLabel derives a display label from a raw id: "num_lot" -> "NUM LOT".
func DefaultLabel(rawID string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(rawID)), "_", " ")
}

// ResolveFields extracts the field descriptors from a parsed payload object.
// When the payload declares no fields but carries a template, one text field
// is synthesized per distinct placeholder. The notes field is always last.
func ResolveFields(obj map[string]any, template string) []FieldDescriptor {
	timer := logging.StartTimer(logging.CategoryFields, "ResolveFields")
	defer timer.Stop()

	var fields []FieldDescriptor
	index := make(map[string]int)

	for _, entry := range firstArray(obj, fieldListKeys) {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		fd, ok := resolveField(m)
		if !ok || fd.ID == NotesFieldID {
			continue
		}
		if at, seen := index[fd.ID]; seen {
			logging.Get(logging.CategoryFields).Debugw("field id collision, last definition wins", "id", fd.ID)
			fields[at] = fd
			continue
		}
		index[fd.ID] = len(fields)
		fields = append(fields, fd)
	}

	if len(fields) == 0 && strings.TrimSpace(template) != "" {
		fields = fieldsFromTemplate(template)
	}

	return append(fields, notesField())
}

func resolveField(m map[string]any) (FieldDescriptor, bool) {
	rawID := firstString(m, idKeys, true)
	label := firstString(m, labelKeys, true)
	if rawID == "" {
		rawID = label
	}
	id := CanonicalID(rawID)
	if id == "" {
		return FieldDescriptor{}, false
	}
	if label == "" {
		label = DefaultLabel(rawID)
	}

	kind := ParseFieldKind(firstString(m, kindKeys, true))
	fd := FieldDescriptor{
		ID:       id,
		Label:    label,
		Kind:     kind,
		Required: isRequired(m),
		Options:  []Option{},
	}
	if kind.HasOptions() {
		fd.Options = parseOptions(firstArray(m, optionKeys))
	}
	if kind == KindTextarea {
		fd.Rows = defaultTextareaRows
		if rows, ok := m["rows"]; ok {
			if n, ok := toInt(rows); ok && n > 0 {
				fd.Rows = n
			}
		}
	}
	return fd, true
}

// isRequired accepts boolean true or the "O" (oui) marker.
func isRequired(m map[string]any) bool {
	for _, k := range requiredKeys {
		switch v := m[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if strings.EqualFold(strings.TrimSpace(v), "O") {
				return true
			}
		}
	}
	return false
}

func parseOptions(arr []any) []Option {
	opts := make([]Option, 0, len(arr))
	for _, raw := range arr {
		switch v := raw.(type) {
		case map[string]any:
			value := firstString(v, []string{"value", "valeur", "id"}, true)
			label := firstString(v, []string{"label", "libelle"}, true)
			if value == "" {
				value = label
			}
			if value == "" {
				continue
			}
			if label == "" {
				label = value
			}
			opts = append(opts, Option{Value: value, Label: label})
		default:
			if s := strings.TrimSpace(scalarString(v)); s != "" {
				opts = append(opts, Option{Value: s, Label: s})
			}
		}
	}
	return opts
}

// Placeholders lists the distinct placeholder names of a template in
// first-occurrence order, as written (trimmed).
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		name := strings.TrimSpace(m[1])
		id := CanonicalID(name)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		names = append(names, name)
	}
	return names
}

func fieldsFromTemplate(template string) []FieldDescriptor {
	var fields []FieldDescriptor
	for _, name := range Placeholders(template) {
		id := CanonicalID(name)
		if id == NotesFieldID {
			continue
		}
		fields = append(fields, FieldDescriptor{
			ID:      id,
			Label:   DefaultLabel(name),
			Kind:    KindText,
			Options: []Option{},
		})
	}
	logging.Get(logging.CategoryFields).Debugw("synthesized fields from template", "count", len(fields))
	return fields
}

func notesField() FieldDescriptor {
	return FieldDescriptor{
		ID:      NotesFieldID,
		Label:   notesFieldLabel,
		Kind:    KindTextarea,
		Options: []Option{},
		Rows:    defaultTextareaRows,
	}
}

// FindField returns the descriptor with the given canonical id.
func FindField(fields []FieldDescriptor, id string) (FieldDescriptor, bool) {
	id = CanonicalID(id)
	for _, fd := range fields {
		if fd.ID == id {
			return fd, true
		}
	}
	return FieldDescriptor{}, false
}
