package main

import (
	"fmt"
	"strconv"
	"strings"

	"qrprompt/cmd/qrprompt/ui"
	"qrprompt/internal/fiche"
	"qrprompt/internal/i18n"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [payload|@file|-]",
		Short: "Show the meta line, fields and recommended targets of a fiche",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := loadSession(cmd, a, args)
			if err != nil {
				return err
			}
			styles := ui.DefaultStyles()
			out := cmd.OutOrStdout()
			f := ctrl.Fiche()

			fmt.Fprintln(out, styles.Title.Render(fiche.MetaLine(f)))
			if f.Objective != "" {
				fmt.Fprintln(out, styles.Subtitle.Render(f.Objective))
			}
			fmt.Fprintln(out)

			fields := ui.NewTable("Fields", "id", "kind", "label", "required", "options")
			for _, fd := range ctrl.Fields() {
				opts := make([]string, 0, len(fd.Options))
				for _, o := range fd.Options {
					opts = append(opts, o.Value)
				}
				fields.AddRow(fd.ID, string(fd.Kind), fd.Label, strconv.FormatBool(fd.Required), strings.Join(opts, ", "))
			}
			fmt.Fprint(out, fields.View(styles))

			if info := fiche.InfoText(f); info != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, styles.Label.Render(a.tr.T(i18n.MoreInfo)))
				fmt.Fprintln(out, info)
			}

			fmt.Fprintln(out)
			printTargets(a, cmd, ctrl.Targets(), nil)
			return nil
		},
	}
}

func newCompileCmd(a *app) *cobra.Command {
	var (
		vf      valueFlags
		render  bool
		entries bool
	)
	cmd := &cobra.Command{
		Use:   "compile [payload|@file|-]",
		Short: "Print the compiled prompt",
		Long: `Compiles the prompt of a fiche with the given field values.

Example:
  qrprompt compile @fiche.json --set onu=1017 --set lieu="Quai 3" --gps 48.85,2.35,10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if entries {
				a.cfg.Compile.IncludeEntries = true
			}
			ctrl, err := loadSession(cmd, a, args)
			if err != nil {
				return err
			}
			if err := vf.apply(ctrl); err != nil {
				return err
			}
			prompt := ctrl.Compile()

			if render {
				r, err := glamour.NewTermRenderer(
					glamour.WithAutoStyle(),
					glamour.WithWordWrap(100),
				)
				if err != nil {
					return fmt.Errorf("failed to create renderer: %w", err)
				}
				out, err := r.Render(prompt)
				if err != nil {
					return fmt.Errorf("failed to render prompt: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return nil
		},
	}
	vf.bind(cmd)
	cmd.Flags().BoolVar(&render, "render", false, "Render the prompt as markdown")
	cmd.Flags().BoolVar(&entries, "entries", false, "Append the block of entered values")
	return cmd
}

func newTargetsCmd(a *app) *cobra.Command {
	var vf valueFlags
	cmd := &cobra.Command{
		Use:   "targets [payload|@file|-]",
		Short: "List the AI assistants recommended by a fiche with their URLs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := loadSession(cmd, a, args)
			if err != nil {
				return err
			}
			if err := vf.apply(ctrl); err != nil {
				return err
			}
			urls := make(map[string]string)
			for _, t := range ctrl.Targets() {
				act, err := ctrl.Activate(t.Name)
				if err != nil {
					return err
				}
				urls[t.Name] = act.URL
			}
			printTargets(a, cmd, ctrl.Targets(), urls)
			return nil
		},
	}
	vf.bind(cmd)
	return cmd
}

// printTargets lists targets, with their URL when urls is non-nil.
func printTargets(a *app, cmd *cobra.Command, targets []fiche.Target, urls map[string]string) {
	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()
	if len(targets) == 0 {
		fmt.Fprintln(out, styles.Muted.Render(a.tr.T(i18n.NoTargets)))
		return
	}

	headers := []string{"name", "label", "score", "tier", "paid"}
	if urls != nil {
		headers = append(headers, "url")
	}
	table := ui.NewTable("Targets", headers...)
	for _, t := range targets {
		label := t.DisplayLabel()
		if t.Paid {
			label += " " + a.tr.T(i18n.PaidVersion)
		}
		row := []string{t.Name, label, strconv.Itoa(t.Score), string(t.Tier), strconv.FormatBool(t.Paid)}
		if urls != nil {
			row = append(row, urls[t.Name])
		}
		table.AddRow(row...)
	}
	fmt.Fprint(out, table.View(styles))
}
