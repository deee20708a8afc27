package main

import (
	"fmt"

	"qrprompt/cmd/qrprompt/ui"
	"qrprompt/internal/fiche"
	"qrprompt/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type interactiveFlags struct {
	scan     string
	lat, lon float64
	acc      float64
}

func (f *interactiveFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scan, "scan", "", "Payload to load at start (literal, @file or -)")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Latitude applied by the g key")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "Longitude applied by the g key")
	cmd.Flags().Float64Var(&f.acc, "acc", 0, "Accuracy in metres applied by the g key")
}

// gps returns the fix given on the command line, nil when neither
// coordinate was set.
func (f *interactiveFlags) gps(cmd *cobra.Command) *fiche.GPSFix {
	if !cmd.Flags().Changed("lat") && !cmd.Flags().Changed("lon") {
		return nil
	}
	return &fiche.GPSFix{Latitude: f.lat, Longitude: f.lon, Accuracy: f.acc}
}

// runInteractive starts the terminal form.
func runInteractive(cmd *cobra.Command, a *app, f *interactiveFlags) error {
	// the alternate screen owns the terminal; only file logging survives
	if a.cfg.Logging.File == "" {
		opts := a.cfg.Logging.Options()
		opts.Disabled = true
		if err := logging.Initialize(opts); err != nil {
			return err
		}
	}

	ctrl := newController(a)
	if f.scan != "" {
		raw, err := readPayload([]string{f.scan}, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if err := ctrl.Scan(raw); err != nil {
			return fmt.Errorf("%s: %w", a.tr.T(scanErrorKey(err)), err)
		}
	}

	model := ui.New(ui.Options{
		Controller: ctrl,
		Translator: a.tr,
		Opener:     openerFor(a),
		GPS:        f.gps(cmd),
		BundleDir:  a.cfg.Bundle.OutputDir,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive form: %w", err)
	}
	return nil
}
