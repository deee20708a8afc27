package main

import (
	"fmt"
	"os"
	"path/filepath"

	"qrprompt/internal/bundle"
	"qrprompt/internal/fiche"
	"qrprompt/internal/i18n"

	"github.com/spf13/cobra"
)

func newBundleCmd(a *app) *cobra.Command {
	var (
		vf     valueFlags
		photos []string
		output string
	)
	cmd := &cobra.Command{
		Use:   "bundle [payload|@file|-]",
		Short: "Write the compiled prompt and photos to a zip archive",
		Long: `Packs prompt.txt, the attached photos and a manifest into a zip.

Example:
  qrprompt bundle @fiche.json --set onu=1017 --photo cliche=./quai.jpg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := loadSession(cmd, a, args)
			if err != nil {
				return err
			}
			if err := vf.apply(ctrl); err != nil {
				return err
			}
			for _, p := range photos {
				id, path, err := parseAssignment(p)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read photo: %w", err)
				}
				if err := ctrl.AttachPhoto(fiche.Photo{
					FieldID:  id,
					Filename: filepath.Base(path),
					Data:     data,
				}); err != nil {
					return fmt.Errorf("--photo %s: %w", id, err)
				}
			}

			contents, err := ctrl.BundleContents()
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path, err = bundle.WriteFile(a.cfg.Bundle.OutputDir, contents)
			} else {
				err = bundle.WriteTo(path, contents)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.tr.T(i18n.ZipReady)+" "+path)
			return nil
		},
	}
	vf.bind(cmd)
	cmd.Flags().StringArrayVar(&photos, "photo", nil, "Photo as field_id=path (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (default: generated name in bundle.output_dir)")
	return cmd
}
