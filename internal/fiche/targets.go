package fiche

import (
	"net/url"
	"sort"
	"strings"
)

// Tier is the actionability class of a target.
type Tier string

const (
	TierHigh    Tier = "high"
	TierCaution Tier = "caution"
	TierHidden  Tier = "hidden"
)

// DefaultMinScore is the lowest score offered as a target. Scores of 1 and
// below mean the target is not reliable enough for the fiche.
const DefaultMinScore = 2

// TierOf classifies a score: 3 is high, anything else above 1 is caution.
func TierOf(score int) Tier {
	switch {
	case score == 3:
		return TierHigh
	case score > 1:
		return TierCaution
	default:
		return TierHidden
	}
}

// Target is an actionable score entry.
type Target struct {
	ScoreEntry
	Tier Tier `json:"tier"`
}

// Actionable filters entries down to those with score >= minScore, keeping
// source order. minScore is never allowed below DefaultMinScore.
func Actionable(entries []ScoreEntry, minScore int) []Target {
	if minScore < DefaultMinScore {
		minScore = DefaultMinScore
	}
	targets := make([]Target, 0, len(entries))
	for _, e := range entries {
		if e.Score < minScore {
			continue
		}
		targets = append(targets, Target{ScoreEntry: e, Tier: TierOf(e.Score)})
	}
	return targets
}

// FindTarget looks a target up by name, case-insensitively.
func FindTarget(targets []Target, name string) (Target, bool) {
	for _, t := range targets {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			return t, true
		}
	}
	return Target{}, false
}

// PromptToken is replaced by the encoded prompt in URL templates.
const PromptToken = "%q%"

// DefaultTargetURL is used when neither the entry nor the catalog knows the
// target.
const DefaultTargetURL = "https://chat.openai.com/?q=%q%"

var builtinTargets = map[string]string{
	"chatgpt":    "https://chat.openai.com/?q=%q%",
	"claude":     "https://claude.ai/new?q=%q%",
	"gemini":     "https://gemini.google.com/app?q=%q%",
	"mistral":    "https://chat.mistral.ai/chat?q=%q%",
	"lechat":     "https://chat.mistral.ai/chat?q=%q%",
	"perplexity": "https://www.perplexity.ai/search?q=%q%",
	"copilot":    "https://copilot.microsoft.com/?q=%q%",
	"deepseek":   "https://chat.deepseek.com/?q=%q%",
	"grok":       "https://grok.com/?q=%q%",
}

// Catalog maps target names to URL templates.
type Catalog struct {
	templates  map[string]string
	defaultURL string
}

// NewCatalog builds a catalog from the built-in targets plus overrides.
// An empty defaultURL keeps DefaultTargetURL.
func NewCatalog(overrides map[string]string, defaultURL string) *Catalog {
	c := &Catalog{
		templates:  make(map[string]string, len(builtinTargets)+len(overrides)),
		defaultURL: DefaultTargetURL,
	}
	for name, tmpl := range builtinTargets {
		c.templates[name] = tmpl
	}
	for name, tmpl := range overrides {
		key := catalogKey(name)
		if key == "" || strings.TrimSpace(tmpl) == "" {
			continue
		}
		c.templates[key] = strings.TrimSpace(tmpl)
	}
	if u := strings.TrimSpace(defaultURL); u != "" {
		c.defaultURL = u
	}
	return c
}

// catalogKey folds "Le Chat", "le-chat" and "LeChat" onto "lechat".
func catalogKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// Lookup returns the catalog template for a target name.
func (c *Catalog) Lookup(name string) (string, bool) {
	tmpl, ok := c.templates[catalogKey(name)]
	return tmpl, ok
}

// Names lists the catalog keys in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultURL is the fallback template.
func (c *Catalog) DefaultURL() string {
	return c.defaultURL
}

// Materialize builds the URL that opens entry with prompt. The entry's own
// template wins when it carries the prompt token, then the catalog entry for
// its name, then the default template.
func (c *Catalog) Materialize(entry ScoreEntry, prompt string) string {
	tmpl := c.defaultURL
	if strings.Contains(entry.URL, PromptToken) {
		tmpl = entry.URL
	} else if t, ok := c.Lookup(entry.Name); ok {
		tmpl = t
	}
	return fill(tmpl, prompt)
}

// MaterializeClient builds the optional native-client deep link. It is ""
// when the entry declares none.
func (c *Catalog) MaterializeClient(entry ScoreEntry, prompt string) string {
	if entry.ClientURI == "" {
		return ""
	}
	return fill(entry.ClientURI, prompt)
}

func fill(tmpl, prompt string) string {
	return strings.ReplaceAll(tmpl, PromptToken, EncodePrompt(prompt))
}

// EncodePrompt percent-encodes a prompt as a URI component, spaces as %20.
func EncodePrompt(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
