package fiche

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"qrprompt/internal/logging"
)

// ScoreEntry is one AI target as rated by the fiche author. Score is
// expected in 0..3; Paid marks a target that needs a paid plan.
type ScoreEntry struct {
	Name      string `json:"name"`
	Label     string `json:"label,omitempty"`
	Score     int    `json:"score"`
	Paid      bool   `json:"paid,omitempty"`
	URL       string `json:"url,omitempty"`
	ClientURI string `json:"client_uri,omitempty"`
}

// DisplayLabel is the label to show on a target button.
func (e ScoreEntry) DisplayLabel() string {
	if e.Label != "" {
		return e.Label
	}
	return e.Name
}

// currencyMarkers flag a paid target in the legacy string form.
const currencyMarkers = "€$£"

var scoreDigits = regexp.MustCompile(`-?\d+`)

// ParseScores normalizes the scoring table of a payload into entries in
// source order. The table is either an object (name to number, or name to
// {score, label, paid, url, client_uri}) or the legacy delimited string
// "Name: 3, Other: 2€". Anything else yields no entries.
func ParseScores(raw json.RawMessage) []ScoreEntry {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	var entries []ScoreEntry
	switch raw[0] {
	case '{':
		entries = parseScoreObject(raw)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			entries = ParseScoreString(s)
		}
	}

	logging.Get(logging.CategoryTargets).Debugw("scores parsed", "entries", len(entries))
	return entries
}

// parseScoreObject walks the object token by token so entries keep the order
// they were written in. A repeated name keeps its first position and takes
// the later value.
func parseScoreObject(raw json.RawMessage) []ScoreEntry {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	var entries []ScoreEntry
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		name, ok := tok.(string)
		if !ok {
			break
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			break
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		entry := scoreFromValue(name, value)
		if at, seen := index[name]; seen {
			entries[at] = entry
			continue
		}
		index[name] = len(entries)
		entries = append(entries, entry)
	}
	return entries
}

func scoreFromValue(name string, value json.RawMessage) ScoreEntry {
	entry := ScoreEntry{Name: name}

	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return entry
	}

	switch x := v.(type) {
	case map[string]any:
		entry.Score, entry.Paid = scoreOf(x["score"])
		entry.Label = strings.TrimSpace(scalarString(x["label"]))
		if paid, ok := x["paid"]; ok {
			entry.Paid = entry.Paid || truthy(paid)
		}
		entry.URL = strings.TrimSpace(scalarString(x["url"]))
		entry.ClientURI = strings.TrimSpace(scalarString(x["client_uri"]))
	default:
		entry.Score, entry.Paid = scoreOf(x)
	}
	return entry
}

// scoreOf converts a decoded score value. Strings go through the same token
// parser as the legacy form so "2€" and "3" work inside objects too.
func scoreOf(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return parseScoreToken(s)
	}
	n, ok := toInt(v)
	if !ok {
		return 0, false
	}
	return n, false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		return s == "true" || s == "o" || s == "oui" || s == "yes" || s == "1"
	case json.Number:
		n, err := x.Float64()
		return err == nil && n != 0
	}
	return false
}

// ParseScoreString parses the legacy "Name: score" list. Items are separated
// by commas, semicolons or newlines; the name ends at the last colon.
func ParseScoreString(s string) []ScoreEntry {
	items := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})

	var entries []ScoreEntry
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, token := item, ""
		if i := strings.LastIndex(item, ":"); i >= 0 {
			name, token = strings.TrimSpace(item[:i]), item[i+1:]
		}
		if name == "" {
			continue
		}
		score, paid := parseScoreToken(token)
		entries = append(entries, ScoreEntry{Name: name, Score: score, Paid: paid})
	}
	return entries
}

// parseScoreToken reads one score. A currency marker stands for a paid
// target rated 3 whatever digits sit next to it. No digits means 0.
func parseScoreToken(tok string) (int, bool) {
	tok = strings.TrimSpace(tok)
	if strings.ContainsAny(tok, currencyMarkers) {
		return 3, true
	}
	if n, err := strconv.ParseFloat(tok, 64); err == nil {
		return clampInt(n), false
	}
	m := scoreDigits.FindString(tok)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, false
}

// toInt accepts the numeric shapes a decoded payload can carry. Fractions
// are truncated toward zero.
func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return clampInt(f), true
	case float64:
		return clampInt(x), true
	case int:
		return x, true
	case int64:
		return int(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return clampInt(f), true
	}
	return 0, false
}

func clampInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}
