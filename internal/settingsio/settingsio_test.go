package settingsio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twinfm/internal/settings"
)

func TestSkinUpsertCreatesFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mc", "ini")
	require.NoError(t, PersistSkin(path, "dracula"))

	got, err := LoadSkin(path)
	require.NoError(t, err)
	assert.Equal(t, "dracula", got)
}

func TestSkinUpsertRewritesExistingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mc", "ini")
	require.NoError(t, PersistSkin(path, "first"))
	require.NoError(t, PersistSkin(path, "second"))

	got, err := LoadSkin(path)
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, countOccurrences(string(raw), "skin"), "rewrite must not duplicate the key")
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}

func TestRenderLoadRoundTrip(t *testing.T) {
	s := settings.Default()
	s.Configuration.Hotlist = []string{"/tmp", "/var"}
	s.Appearance.Skin = "solarized"
	s.PanelOptions.ShowHiddenFiles = true

	data, err := Render(s)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rc", "settings.ini")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp", "/var"}, loaded.Configuration.Hotlist)
	assert.Equal(t, "solarized", loaded.Appearance.Skin)
	assert.True(t, loaded.PanelOptions.ShowHiddenFiles)
}

func TestAbsentRepeatedKeyClearsDefaultList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rc", "settings.ini")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	// [configuration] section present, but no hotlist/panelize_preset keys.
	require.NoError(t, os.WriteFile(path, []byte("[configuration]\n"), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, loaded.Configuration.Hotlist)
	assert.Empty(t, loaded.Configuration.PanelizePresets)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "nope", "settings.ini"))
	require.NoError(t, err)
	assert.Equal(t, settings.Default(), loaded)
}

func TestBooleanAcceptedForms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rc", "settings.ini")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("[confirmation]\nconfirm_delete=no\nconfirm_exit=1\n"), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.False(t, loaded.Confirmation.ConfirmDelete)
	assert.True(t, loaded.Confirmation.ConfirmExit)
}
