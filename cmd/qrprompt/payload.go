package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"qrprompt/internal/fiche"
	"qrprompt/internal/i18n"
	"qrprompt/internal/session"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// readPayload resolves the payload argument: "-" or nothing reads stdin,
// "@path" reads a file, anything else is the payload itself.
func readPayload(args []string, stdin io.Reader) (string, error) {
	arg := "-"
	if len(args) > 0 {
		arg = args[0]
	}
	switch {
	case arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", fmt.Errorf("read payload: %w", err)
		}
		return string(data), nil
	default:
		return arg, nil
	}
}

// parseAssignment splits "id=value". The value may contain '='.
func parseAssignment(s string) (string, string, error) {
	id, value, ok := strings.Cut(s, "=")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return "", "", fmt.Errorf("expected id=value, got %q", s)
	}
	return id, value, nil
}

// parseGPS reads "lat,lon[,accuracy]".
func parseGPS(s string) (fiche.GPSFix, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return fiche.GPSFix{}, fmt.Errorf("expected lat,lon[,accuracy], got %q", s)
	}
	nums := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fiche.GPSFix{}, fmt.Errorf("invalid gps component %q: %w", p, err)
		}
		nums[i] = v
	}
	if nums[0] < -90 || nums[0] > 90 || nums[1] < -180 || nums[1] > 180 {
		return fiche.GPSFix{}, fmt.Errorf("gps position out of range: %q", s)
	}
	return fiche.GPSFix{Latitude: nums[0], Longitude: nums[1], Accuracy: nums[2]}, nil
}

// valueFlags are the value-setting flags shared by compile, open and bundle.
type valueFlags struct {
	set    []string
	values string
	notes  string
	gps    string
}

func (f *valueFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.set, "set", "s", nil, "Field value as id=value (repeatable)")
	cmd.Flags().StringVar(&f.values, "values", "", "YAML file mapping field ids to values or lists")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Operator notes")
	cmd.Flags().StringVar(&f.gps, "gps", "", "GPS fix as lat,lon[,accuracy]")
}

// apply writes the flags into ctrl: the values file first, then --set,
// then notes and GPS.
func (f *valueFlags) apply(ctrl *session.Controller) error {
	if f.values != "" {
		data, err := os.ReadFile(f.values)
		if err != nil {
			return fmt.Errorf("read values: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parse values: %w", err)
		}
		ids := make([]string, 0, len(raw))
		for id := range raw {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if err := setAny(ctrl, id, raw[id]); err != nil {
				return err
			}
		}
	}

	for _, s := range f.set {
		id, value, err := parseAssignment(s)
		if err != nil {
			return err
		}
		if err := ctrl.SetValue(id, value); err != nil {
			return fmt.Errorf("--set %s: %w", id, err)
		}
	}

	if f.notes != "" {
		if err := ctrl.SetValue(fiche.NotesFieldID, f.notes); err != nil {
			return fmt.Errorf("--notes: %w", err)
		}
	}

	if f.gps != "" {
		fix, err := parseGPS(f.gps)
		if err != nil {
			return err
		}
		if _, err := ctrl.SetGPS(fix); err != nil {
			return fmt.Errorf("--gps: %w", err)
		}
	}
	return nil
}

func setAny(ctrl *session.Controller, id string, v any) error {
	var err error
	switch val := v.(type) {
	case []any:
		inputs := make([]string, 0, len(val))
		for _, item := range val {
			inputs = append(inputs, fmt.Sprint(item))
		}
		err = ctrl.SetFieldInputs(id, inputs)
	case nil:
		err = ctrl.SetValue(id, "")
	default:
		err = ctrl.SetValue(id, fmt.Sprint(val))
	}
	if err != nil {
		return fmt.Errorf("values %s: %w", id, err)
	}
	return nil
}

func newController(a *app) *session.Controller {
	return session.NewController(a.sessionConfig())
}

// loadSession scans the payload named by args into a new controller.
func loadSession(cmd *cobra.Command, a *app, args []string) (*session.Controller, error) {
	raw, err := readPayload(args, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	ctrl := newController(a)
	if err := ctrl.Scan(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", a.tr.T(scanErrorKey(err)), err)
	}
	return ctrl, nil
}

func scanErrorKey(err error) string {
	if errors.Is(err, fiche.ErrEmptyScan) {
		return i18n.EmptyScan
	}
	return i18n.InvalidPayload
}
