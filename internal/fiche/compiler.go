package fiche

import (
	"fmt"
	"sort"
	"strings"

	"qrprompt/internal/logging"
)

// CompileOptions tunes the optional sections of a compiled prompt.
type CompileOptions struct {
	// IncludeEntries appends a "# Données saisies" block listing every
	// filled field.
	IncludeEntries bool
}

// Compile builds the prompt for f from the operator's values.
func Compile(f *Fiche, values map[string]string) string {
	return CompileWith(f, values, CompileOptions{})
}

// CompileWith is Compile with explicit options.
//
// Placeholders resolve through CanonicalID; missing or blank values become
// "". The substituted template comes first, followed by the header,
// references, objective, optional entries block and operator notes, each
// separated by a blank line and omitted when empty. The result is a pure
// function of its inputs.
func CompileWith(f *Fiche, values map[string]string, opts CompileOptions) string {
	if f == nil {
		return ""
	}
	timer := logging.StartTimer(logging.CategoryCompile, "Compile")
	defer timer.Stop()

	vals := canonicalValues(values)

	body := placeholderRe.ReplaceAllStringFunc(f.PromptTemplate, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		v := vals[CanonicalID(sub[1])]
		if strings.TrimSpace(v) == "" {
			return ""
		}
		return v
	})

	sections := []string{
		strings.TrimSpace(body),
		headerLine(f),
	}
	if len(f.References) > 0 {
		sections = append(sections, "# Références: "+strings.Join(f.References, ", "))
	}
	if f.Objective != "" {
		sections = append(sections, "# Objectif: "+f.Objective)
	}
	if opts.IncludeEntries {
		sections = append(sections, entriesBlock(f.Fields, vals))
	}
	if notes := strings.TrimSpace(vals[NotesFieldID]); notes != "" {
		sections = append(sections, "# "+notesFieldLabel+"\n"+notes)
	}

	kept := sections[:0]
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n"))
}

// canonicalValues re-keys values by canonical id. A key that is already
// canonical wins over aliases of it; among aliases the first in sorted order
// wins, so the result does not depend on map iteration.
func canonicalValues(values map[string]string) map[string]string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(values))
	exact := make(map[string]bool, len(values))
	for _, k := range keys {
		id := CanonicalID(k)
		switch {
		case id == k:
			out[id] = values[k]
			exact[id] = true
		case !exact[id]:
			if _, set := out[id]; !set {
				out[id] = values[k]
			}
		}
	}
	return out
}

func headerLine(f *Fiche) string {
	if f.Title == "" && f.Version == "" && f.Category == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("# Fiche:")
	if f.Title != "" {
		b.WriteString(" " + f.Title)
	}
	if f.Version != "" {
		fmt.Fprintf(&b, " (%s)", f.Version)
	}
	if f.Category != "" {
		b.WriteString(" – Catégorie: " + f.Category)
	}
	return b.String()
}

func entriesBlock(fields []FieldDescriptor, vals map[string]string) string {
	var lines []string
	for _, fd := range fields {
		if fd.ID == NotesFieldID {
			continue
		}
		v := strings.TrimSpace(vals[fd.ID])
		if v == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", fd.Label, v))
	}
	if len(lines) == 0 {
		return ""
	}
	return "# Données saisies\n" + strings.Join(lines, "\n")
}
