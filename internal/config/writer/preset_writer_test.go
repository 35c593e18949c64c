package writer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewPresetWriter(filepath.Join(dir, "presets.yaml"))

	cfg, err := w.Read()
	require.NoError(t, err)
	assert.Empty(t, cfg.Presets)

	byName := true
	p := Preset{Title: "Agents", Series: []string{"a1", "a2"}, Metric: "return", Start: "2024-01-01", ColorByName: &byName}
	require.NoError(t, w.Create("weekly", p))
	assert.ErrorIs(t, w.Create("weekly", p), ErrPresetExists)

	got, err := w.Get("weekly")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p.Title = "Agents v2"
	require.NoError(t, w.Update("weekly", p))
	got, _ = w.Get("weekly")
	assert.Equal(t, "Agents v2", got.Title)

	names, all, err := w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"weekly"}, names)
	assert.Len(t, all, 1)

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	require.NoError(t, w.Delete("weekly"))
	_, err = w.Get("weekly")
	assert.True(t, errors.Is(err, ErrPresetNotFound))
	assert.ErrorIs(t, w.Delete("weekly"), ErrPresetNotFound)
}

func TestPresetValidation(t *testing.T) {
	w := NewPresetWriter(filepath.Join(t.TempDir(), "presets.yaml"))
	cases := map[string]struct {
		name   string
		preset Preset
	}{
		"empty name":     {"", Preset{Series: []string{"a"}}},
		"bad name":       {"a b", Preset{Series: []string{"a"}}},
		"no series":      {"x", Preset{}},
		"blank series":   {"x", Preset{Series: []string{""}}},
		"bad metric":     {"x", Preset{Series: []string{"a"}, Metric: "rsi"}},
		"bad date":       {"x", Preset{Series: []string{"a"}, Start: "2024/01/01"}},
		"reversed range": {"x", Preset{Series: []string{"a"}, Start: "2024-02-01", End: "2024-01-01"}},
	}
	for label, tc := range cases {
		t.Run(label, func(t *testing.T) {
			assert.Error(t, w.Create(tc.name, tc.preset))
		})
	}
	assert.ErrorIs(t, w.Update("missing", Preset{Series: []string{"a"}}), ErrPresetNotFound)
}

func TestPresetReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presets: [oops"), 0o644))
	_, err := NewPresetWriter(path).Read()
	assert.Error(t, err)
}
