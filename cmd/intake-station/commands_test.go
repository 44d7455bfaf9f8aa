package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdesk/internal/catalog"
	"regdesk/internal/common/config"
	"regdesk/internal/common/errors"
	"regdesk/internal/intake"
	"regdesk/internal/models"
)

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"y\n":    true,
		"YES\n":  true,
		" y \n":  true,
		"n\n":    false,
		"\n":     false,
		"":       false,
		"sure\n": false,
	}
	for input, want := range tests {
		var out bytes.Buffer
		assert.Equal(t, want, confirm(strings.NewReader(input), &out), "input %q", input)
		assert.Equal(t, "Submit? [y/N] ", out.String())
	}
}

func TestPrintReview(t *testing.T) {
	d := intake.Draft{
		FullName:   "Asha Devi",
		Village:    "Rampur",
		DistrictID: "Khurda",
		BlockID:    "Jatni",
		Category:   "Farmer",
		Mobile:     "9876543210",
		NationalID: "123456789012",
		Photo:      &models.Photo{Filename: "asha.png", Data: make([]byte, 10)},
	}
	var out bytes.Buffer
	printReview(&out, d)

	s := out.String()
	assert.Contains(t, s, "Name:     Asha Devi")
	assert.Contains(t, s, "Block:    Jatni")
	assert.Contains(t, s, "Photo:    asha.png (10 bytes)")
}

func TestReadPhoto(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	path := filepath.Join(t.TempDir(), "face.png")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	p, err := readPhoto(path)
	require.NoError(t, err)
	assert.Equal(t, "face.png", p.Filename)
	assert.Equal(t, "image/png", p.ContentType)
	assert.Equal(t, len(png), p.Size())

	_, err = readPhoto(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}

func TestPrintCatalog(t *testing.T) {
	var out bytes.Buffer
	printCatalog(catalog.Default(), &out)
	assert.Contains(t, out.String(), "Khurda\n  Balianta\n")
	assert.Contains(t, out.String(), "categories:\n  General\n")
}

func TestNewApp_CatalogWithoutSessionStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.StationID = "desk-01"
	cfg.Logging.Level = "error"
	cfg.Session.Backend = "redis"
	cfg.Database.Redis.Address = "127.0.0.1:1"

	a, err := newAppFromConfig(cfg)
	require.NoError(t, err)
	defer a.Close()
	a.connectAttempts = 1

	var out bytes.Buffer
	printCatalog(a.catalog, &out)
	assert.Contains(t, out.String(), "Khurda\n")
	assert.Nil(t, a.redis)
	assert.Nil(t, a.sessions)

	_, err = a.sessionManager(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionStore))

	n, err := a.notifications(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestApp_SessionManagerIsReused(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.StationID = "desk-01"
	cfg.Logging.Level = "error"
	cfg.Session.Backend = "file"
	cfg.Session.FilePath = filepath.Join(t.TempDir(), "session.json")

	a, err := newAppFromConfig(cfg)
	require.NoError(t, err)
	defer a.Close()

	first, err := a.sessionManager(context.Background())
	require.NoError(t, err)
	second, err := a.sessionManager(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = a.gateway(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionMissing))
	_, err = a.workerGateway(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionMissing))
}
