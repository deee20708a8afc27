// Package main implements the qrprompt CLI: one-shot commands over a scanned
// fiche, the interactive form and the HTTP server.
package main

import (
	"fmt"
	"os"

	"qrprompt/internal/browser"
	"qrprompt/internal/config"
	"qrprompt/internal/i18n"
	"qrprompt/internal/logging"
	"qrprompt/internal/session"

	"github.com/spf13/cobra"
)

// app carries the state shared by every command of one invocation.
type app struct {
	cfgPath string
	verbose bool
	lang    string

	cfg *config.Config
	tr  *i18n.Translator

	// newOpener builds the URL opener; tests swap it for a recorder.
	newOpener func(browser.Config) (browser.Opener, error)
}

func newApp() *app {
	return &app{
		cfg:       config.DefaultConfig(),
		tr:        i18n.New("fr"),
		newOpener: browser.New,
	}
}

// setup loads the configuration and initializes logging.
func (a *app) setup() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.lang != "" {
		cfg.Language = a.lang
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.Initialize(cfg.Logging.Options()); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	a.cfg = cfg
	a.tr = i18n.New(cfg.Language)
	logging.Get(logging.CategoryBoot).Debugw("configuration loaded", "path", a.cfgPath, "language", a.tr.Lang())
	return nil
}

// sessionConfig maps the configuration onto controller policy.
func (a *app) sessionConfig() session.Config {
	return sessionConfigFor(a.cfg)
}

func sessionConfigFor(cfg *config.Config) session.Config {
	return session.Config{
		MinScore: cfg.Targets.EffectiveMinScore(),
		Catalog:  cfg.Targets.BuildCatalog(),
		Compile:  cfg.Compile.Options(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	var iflags interactiveFlags
	root := &cobra.Command{
		Use:   "qrprompt",
		Short: "Turn a scanned QR fiche into a ready-to-send AI prompt",
		Long: `qrprompt reads the JSON payload of a QR code fiche, asks for the
values its fields declare, compiles the prompt and opens it in one of the AI
assistants the fiche recommends.

Run without arguments to start the interactive form.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, a, &iflags)
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", config.DefaultPath, "Configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.lang, "lang", "", "Message language (fr, en)")
	iflags.bind(root)

	root.AddCommand(
		newInspectCmd(a),
		newCompileCmd(a),
		newTargetsCmd(a),
		newOpenCmd(a),
		newBundleCmd(a),
		newServeCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
