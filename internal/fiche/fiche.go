// Package fiche interprets QR "fiche" payloads: it normalizes the loosely
// schemed JSON into a Fiche, resolves the dynamic field schema, holds the
// operator's values, compiles the final prompt and derives the AI targets
// offered for it.
//
// Everything here is a synchronous transformation over in-memory data.
// Session ownership (replace on scan, clear on reset) lives in
// internal/session.
package fiche

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"qrprompt/internal/logging"
)

// DataURIPrefix marks a base64 encoded JSON payload.
const DataURIPrefix = "data:application/json"

// Fiche is the normalized procedure card decoded from a scan.
// It is never mutated after Normalize returns.
type Fiche struct {
	Category       string            `json:"category,omitempty"`
	Title          string            `json:"title,omitempty"`
	Version        string            `json:"version,omitempty"`
	Objective      string            `json:"objective,omitempty"`
	References     []string          `json:"references,omitempty"`
	FollowUp       string            `json:"follow_up,omitempty"`
	PromptTemplate string            `json:"prompt_template,omitempty"`
	Fields         []FieldDescriptor `json:"fields"`
	AIScores       []ScoreEntry      `json:"ai_scores,omitempty"`
}

// Clone returns a copy that shares no slices with f. Options of each field
// are copied too.
func (f *Fiche) Clone() *Fiche {
	if f == nil {
		return nil
	}
	out := *f
	out.References = slices.Clone(f.References)
	out.AIScores = slices.Clone(f.AIScores)
	out.Fields = slices.Clone(f.Fields)
	for i := range out.Fields {
		out.Fields[i].Options = slices.Clone(out.Fields[i].Options)
	}
	return &out
}

// Candidate keys per attribute, highest priority first. Payloads written by
// different generations of the card editor use different names for the same
// thing.
var (
	categoryKeys  = []string{"categorie", "category", "cat"}
	titleKeys     = []string{"titre_fiche", "titre", "nom_fiche", "title"}
	versionKeys   = []string{"version", "v"}
	objectiveKeys = []string{"objectif", "objective"}
	referenceKeys = []string{"references_bibliographiques", "refs", "references"}
	followUpKeys  = []string{"infos_complementaires", "commentaires"}
	templateKeys  = []string{"prompt", "promptTemplate", "p"}
	scoreKeys     = []string{"ia_cotation", "ia", "ai_scores"}
	fieldListKeys = []string{"champs_entree", "fields", "champs", "inputs"}
)

// Normalize decodes a raw scan into a Fiche. The raw string is either plain
// JSON text or a data:application/json URI carrying base64 JSON.
func Normalize(raw string) (*Fiche, error) {
	timer := logging.StartTimer(logging.CategoryScan, "Normalize")
	defer timer.Stop()

	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, ErrEmptyScan
	}

	data, err := decodeScan(s)
	if err != nil {
		return nil, err
	}

	obj, members, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	template := firstString(obj, templateKeys, false)
	f := &Fiche{
		Category:       firstString(obj, categoryKeys, true),
		Title:          firstString(obj, titleKeys, true),
		Version:        firstString(obj, versionKeys, true),
		Objective:      firstString(obj, objectiveKeys, true),
		References:     stringList(firstArray(obj, referenceKeys)),
		FollowUp:       firstString(obj, followUpKeys, true),
		PromptTemplate: template,
		Fields:         ResolveFields(obj, template),
		AIScores:       ParseScores(firstRaw(members, scoreKeys)),
	}

	logging.Get(logging.CategoryScan).Debugw("payload normalized",
		"title", f.Title,
		"version", f.Version,
		"fields", len(f.Fields),
		"scores", len(f.AIScores),
	)
	return f, nil
}

func decodeScan(s string) ([]byte, error) {
	if len(s) < len(DataURIPrefix) || !strings.EqualFold(s[:len(DataURIPrefix)], DataURIPrefix) {
		return []byte(s), nil
	}
	_, payload, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("%w: data URI without payload", ErrInvalidPayload)
	}
	payload = strings.Join(strings.Fields(payload), "")
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if decoded, err := enc.DecodeString(payload); err == nil {
			return decoded, nil
		}
	}
	return nil, fmt.Errorf("%w: malformed base64", ErrInvalidPayload)
}

// parseObject decodes a JSON object twice: once generically (numbers kept as
// json.Number) and once as raw members so order-sensitive attributes can
// walk their source text.
func parseObject(data []byte) (map[string]any, map[string]json.RawMessage, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, fmt.Errorf("%w: trailing data after JSON value", ErrInvalidPayload)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("%w: top-level value is not an object", ErrInvalidPayload)
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return obj, members, nil
}

// scalarString renders strings and numbers; everything else is "".
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return formatFloat(x)
	}
	return ""
}

func firstString(obj map[string]any, keys []string, trim bool) string {
	for _, k := range keys {
		s := scalarString(obj[k])
		if strings.TrimSpace(s) == "" {
			continue
		}
		if trim {
			return strings.TrimSpace(s)
		}
		return s
	}
	return ""
}

func firstArray(obj map[string]any, keys []string) []any {
	for _, k := range keys {
		if arr, ok := obj[k].([]any); ok {
			return arr
		}
	}
	return nil
}

// firstRaw returns the first member that is neither null nor a blank string.
func firstRaw(members map[string]json.RawMessage, keys []string) json.RawMessage {
	for _, k := range keys {
		raw, ok := members[k]
		if !ok || blankRaw(raw) {
			continue
		}
		return raw
	}
	return nil
}

func blankRaw(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return true
	}
	if raw[0] != '"' {
		return false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return strings.TrimSpace(s) == ""
}

func stringList(arr []any) []string {
	var out []string
	for _, v := range arr {
		if s := strings.TrimSpace(scalarString(v)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

const metaPlaceholder = "–"

// MetaLine is the one-line display header "{category} – {title} – {version}".
func MetaLine(f *Fiche) string {
	var cat, title, version string
	if f != nil {
		cat, title, version = f.Category, f.Title, f.Version
	}
	return strings.Join([]string{orDash(cat), orDash(title), orDash(version)}, " – ")
}

func orDash(s string) string {
	if s == "" {
		return metaPlaceholder
	}
	return s
}

// InfoText is the "additional information" panel: objective, references and
// the payload's free-text follow-up, in that order.
func InfoText(f *Fiche) string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	if f.Objective != "" {
		fmt.Fprintf(&b, "Objectif: %s\n", f.Objective)
	}
	if len(f.References) > 0 {
		fmt.Fprintf(&b, "Références: %s\n", strings.Join(f.References, ", "))
	}
	b.WriteString(f.FollowUp)
	return strings.TrimSpace(b.String())
}
