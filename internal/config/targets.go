package config

import (
	"fmt"
	"strings"

	"qrprompt/internal/fiche"
)

// TargetsConfig configures which AI targets are offered and where they open.
type TargetsConfig struct {
	// MinScore is the lowest score offered; values below 2 are raised to 2
	MinScore int `yaml:"min_score"`

	// Catalog adds or overrides URL templates by target name
	Catalog map[string]string `yaml:"catalog,omitempty"`

	// DefaultURL is used for targets absent from the catalog
	DefaultURL string `yaml:"default_url"`
}

// EffectiveMinScore returns MinScore clamped to the visibility floor.
func (c TargetsConfig) EffectiveMinScore() int {
	if c.MinScore < fiche.DefaultMinScore {
		return fiche.DefaultMinScore
	}
	return c.MinScore
}

// BuildCatalog returns the built-in catalog with this section's overrides.
func (c TargetsConfig) BuildCatalog() *fiche.Catalog {
	return fiche.NewCatalog(c.Catalog, c.DefaultURL)
}

func (c TargetsConfig) validate() error {
	for name, tmpl := range c.Catalog {
		if !strings.Contains(tmpl, fiche.PromptToken) {
			return fmt.Errorf("targets.catalog.%s: template must contain %s", name, fiche.PromptToken)
		}
	}
	if c.DefaultURL != "" && !strings.Contains(c.DefaultURL, fiche.PromptToken) {
		return fmt.Errorf("targets.default_url must contain %s", fiche.PromptToken)
	}
	return nil
}
