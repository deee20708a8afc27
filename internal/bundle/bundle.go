// Package bundle exports a compiled prompt and its photos as a zip archive.
package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"qrprompt/internal/fiche"
	"qrprompt/internal/logging"

	"gopkg.in/yaml.v3"
)

const (
	PromptFile   = "prompt.txt"
	ManifestFile = "manifest.yaml"
	PhotoDir     = "photos"
)

// Manifest describes one exported session.
type Manifest struct {
	SessionID string            `yaml:"session_id"`
	Meta      string            `yaml:"meta"`
	Title     string            `yaml:"title,omitempty"`
	Version   string            `yaml:"version,omitempty"`
	Category  string            `yaml:"category,omitempty"`
	CreatedAt time.Time         `yaml:"created_at"`
	Values    map[string]string `yaml:"values,omitempty"`
	Photos    []PhotoEntry      `yaml:"photos,omitempty"`
}

// PhotoEntry is the manifest line for an archived photo.
type PhotoEntry struct {
	FieldID     string `yaml:"field_id"`
	Path        string `yaml:"path"`
	ContentType string `yaml:"content_type,omitempty"`
	Size        int    `yaml:"size"`
}

// Contents is what goes into an archive.
type Contents struct {
	SessionID string
	Fiche     *fiche.Fiche
	Prompt    string
	Values    map[string]string
	Photos    []fiche.Photo
	CreatedAt time.Time
}

// FileName is the archive name for a session:
// bundle_prompt_pieces_jointes_{first 8 chars of the id}.zip.
func FileName(sessionID string) string {
	short := strings.ReplaceAll(sessionID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	if short == "" {
		short = "session"
	}
	return "bundle_prompt_pieces_jointes_" + short + ".zip"
}

// PhotoPath is the archive path of a photo.
func PhotoPath(p fiche.Photo) string {
	name := sanitize(filepath.Base(p.Filename))
	if name == "" || name == "." {
		name = "photo"
	}
	return path.Join(PhotoDir, sanitize(p.FieldID)+"_"+name)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

// Write streams the archive to w.
func Write(w io.Writer, c Contents) (*Manifest, error) {
	timer := logging.StartTimer(logging.CategoryBundle, "Write")
	defer timer.Stop()

	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	m := &Manifest{
		SessionID: c.SessionID,
		Meta:      fiche.MetaLine(c.Fiche),
		CreatedAt: created.UTC().Truncate(time.Second),
		Values:    c.Values,
	}
	if c.Fiche != nil {
		m.Title, m.Version, m.Category = c.Fiche.Title, c.Fiche.Version, c.Fiche.Category
	}

	zw := zip.NewWriter(w)
	if err := writeFile(zw, PromptFile, []byte(c.Prompt), created); err != nil {
		return nil, err
	}

	for _, p := range c.Photos {
		entry := PhotoEntry{
			FieldID:     p.FieldID,
			Path:        PhotoPath(p),
			ContentType: p.ContentType,
			Size:        len(p.Data),
		}
		if err := writeFile(zw, entry.Path, p.Data, created); err != nil {
			return nil, err
		}
		m.Photos = append(m.Photos, entry)
	}

	manifest, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := writeFile(zw, ManifestFile, manifest, created); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	logging.Get(logging.CategoryBundle).Infow("bundle written",
		"session", c.SessionID,
		"photos", len(m.Photos),
		"prompt_bytes", len(c.Prompt),
	)
	return m, nil
}

func writeFile(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// WriteFile writes the archive into dir under FileName and returns its path.
func WriteFile(dir string, c Contents) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create bundle directory: %w", err)
	}
	out := filepath.Join(dir, FileName(c.SessionID))
	return out, WriteTo(out, c)
}

// WriteTo writes the archive to an explicit path.
func WriteTo(out string, c Contents) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	if _, err := Write(f, c); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	return f.Close()
}
