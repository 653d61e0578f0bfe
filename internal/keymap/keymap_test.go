package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

func TestParseChordModifiers(t *testing.T) {
	c, err := ParseChord("ctrl-alt-x")
	require.NoError(t, err)
	assert.True(t, c.Ctrl)
	assert.True(t, c.Alt)
	assert.False(t, c.Shift)
	assert.Equal(t, "x", c.Key)
}

func TestParseChordNamedKeys(t *testing.T) {
	c, err := ParseChord("F5")
	require.NoError(t, err)
	assert.Equal(t, "f5", c.Key)

	_, err = ParseChord("ctrl-notakey")
	assert.Error(t, err)
}

// Testable property 10: keymap round-trip.
func TestResolveRoundTrip(t *testing.T) {
	cfg := ini.Empty()
	sec, _ := cfg.NewSection("filemanager")
	sec.Key("MoveUp").SetValue("up; k")
	sec.Key("Copy").SetValue("f5")
	sec.Key("BogusAction").SetValue("f9")
	sec.Key("Rename").SetValue("not-a-real-key")

	r, report, err := Load(cfg)
	require.NoError(t, err)

	cmd, ok := r.Resolve(FileManager, Chord{Key: "up"})
	require.True(t, ok)
	assert.Equal(t, KeyCommand("MoveUp"), cmd)

	cmd, ok = r.Resolve(FileManager, Chord{Key: "k"})
	require.True(t, ok)
	assert.Equal(t, KeyCommand("MoveUp"), cmd)

	cmd, ok = r.Resolve(FileManager, Chord{Key: "f5"})
	require.True(t, ok)
	assert.Equal(t, KeyCommand("Copy"), cmd)

	assert.Contains(t, report.UnknownActions, "BogusAction")
	assert.Contains(t, report.UnparseableChords, "not-a-real-key")

	_, ok = r.Resolve(FileManager, Chord{Key: "f9"})
	assert.False(t, ok, "unknown action must not be resolvable")
}

func TestSectionAliases(t *testing.T) {
	cfg := ini.Empty()
	sec, _ := cfg.NewSection("panel")
	sec.Key("MoveDown").SetValue("down")

	r, _, err := Load(cfg)
	require.NoError(t, err)

	_, ok := r.Resolve(FileManager, Chord{Key: "down"})
	assert.True(t, ok, "panel should alias to FileManager")
}

func TestUnrecognizedSectionContributesNothing(t *testing.T) {
	cfg := ini.Empty()
	sec, _ := cfg.NewSection("totally_unknown")
	sec.Key("MoveUp").SetValue("up")

	r, _, err := Load(cfg)
	require.NoError(t, err)
	_, ok := r.Resolve(FileManager, Chord{Key: "up"})
	assert.False(t, ok)
}
