package bundle

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"qrprompt/internal/fiche"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = b
	}
	return files
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "bundle_prompt_pieces_jointes_1b4e28ba.zip", FileName("1b4e28ba-2fa1-11d2-883f-0016d3cca427"))
	assert.Equal(t, "bundle_prompt_pieces_jointes_abc.zip", FileName("abc"))
	assert.Equal(t, "bundle_prompt_pieces_jointes_session.zip", FileName(""))
}

func TestPhotoPath(t *testing.T) {
	assert.Equal(t, "photos/cliche_a.jpg", PhotoPath(fiche.Photo{FieldID: "cliche", Filename: "a.jpg"}))
	assert.Equal(t, "photos/cliche_b.png", PhotoPath(fiche.Photo{FieldID: "cliche", Filename: "../../etc/b.png"}))
	assert.Equal(t, "photos/cliche_photo", PhotoPath(fiche.Photo{FieldID: "cliche"}))
}

func TestWrite(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	c := Contents{
		SessionID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
		Fiche:     &fiche.Fiche{Category: "Chimie", Title: "Fuite", Version: "2"},
		Prompt:    "Produit chlore",
		Values:    map[string]string{"produit": "chlore"},
		Photos: []fiche.Photo{
			{FieldID: "cliche", Filename: "quai.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
		},
		CreatedAt: created,
	}

	var buf bytes.Buffer
	m, err := Write(&buf, c)
	require.NoError(t, err)
	assert.Equal(t, "Chimie – Fuite – 2", m.Meta)
	require.Len(t, m.Photos, 1)
	assert.Equal(t, 2, m.Photos[0].Size)

	files := readZip(t, buf.Bytes())
	require.Len(t, files, 3)
	assert.Equal(t, "Produit chlore", string(files[PromptFile]))
	assert.Equal(t, []byte{0xff, 0xd8}, files["photos/cliche_quai.jpg"])

	var got Manifest
	require.NoError(t, yaml.Unmarshal(files[ManifestFile], &got))
	assert.Equal(t, c.SessionID, got.SessionID)
	assert.Equal(t, "Fuite", got.Title)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "photos/cliche_quai.jpg", got.Photos[0].Path)
	assert.Equal(t, "chlore", got.Values["produit"])
}

func TestWrite_NoFicheNoPhotos(t *testing.T) {
	var buf bytes.Buffer
	m, err := Write(&buf, Contents{Prompt: ""})
	require.NoError(t, err)
	assert.Equal(t, "– – – – –", m.Meta)

	files := readZip(t, buf.Bytes())
	assert.Len(t, files, 2)
	assert.Contains(t, files, PromptFile)
	assert.Contains(t, files, ManifestFile)
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	out, err := WriteFile(dir, Contents{SessionID: "abcdef0123", Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bundle_prompt_pieces_jointes_abcdef01.zip"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "x", string(readZip(t, data)[PromptFile]))
}
