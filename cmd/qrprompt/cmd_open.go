package main

import (
	"context"
	"fmt"
	"time"

	"qrprompt/internal/browser"
	"qrprompt/internal/i18n"
	"qrprompt/internal/logging"

	"github.com/spf13/cobra"
)

const openTimeout = 30 * time.Second

func newOpenCmd(a *app) *cobra.Command {
	var (
		vf     valueFlags
		target string
		dryRun bool
		client bool
	)
	cmd := &cobra.Command{
		Use:   "open [payload|@file|-]",
		Short: "Open the compiled prompt in a recommended AI assistant",
		Long: `Compiles the prompt and opens the URL of the chosen target.
Without --target the highest-ranked target of the fiche is used.

Example:
  qrprompt open @fiche.json --target chatgpt --set onu=1017`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := loadSession(cmd, a, args)
			if err != nil {
				return err
			}
			if err := vf.apply(ctrl); err != nil {
				return err
			}

			name := target
			if name == "" {
				targets := ctrl.Targets()
				if len(targets) == 0 {
					return fmt.Errorf("%s", a.tr.T(i18n.NoTargets))
				}
				name = targets[0].Name
			}
			act, err := ctrl.Activate(name)
			if err != nil {
				return fmt.Errorf("%s%s: %w", a.tr.T(i18n.UnknownTarget), name, err)
			}

			url := act.URL
			if client && act.ClientURI != "" {
				url = act.ClientURI
			}
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			}

			opener, err := a.newOpener(a.cfg.Browser)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), openTimeout)
			defer cancel()
			if err := opener.Open(ctx, url); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.tr.T(i18n.TargetOpened)+act.Target.DisplayLabel())
			return nil
		},
	}
	vf.bind(cmd)
	cmd.Flags().StringVarP(&target, "target", "t", "", "Target name (default: first recommended)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the URL instead of opening it")
	cmd.Flags().BoolVar(&client, "client", false, "Prefer the target's app deep link when it has one")
	return cmd
}

// openerFor returns the opener for the interactive form, or nil when it
// cannot be built.
func openerFor(a *app) browser.Opener {
	o, err := a.newOpener(a.cfg.Browser)
	if err != nil {
		logging.Get(logging.CategoryBrowser).Warnw("no browser opener", "error", err)
		return nil
	}
	return o
}
