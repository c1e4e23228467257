package roster

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r := New(" Francesco BAGNAIA ", "", "  ", "Jorge MARTIN")
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "Francesco BAGNAIA", r.At(0))
	assert.True(t, r.Contains("Jorge MARTIN"))
	assert.False(t, r.Contains("John DOE"))
}

func TestNamesIsCopy(t *testing.T) {
	r := New("A B", "C D")
	names := r.Names()
	names[0] = "changed"
	assert.Equal(t, "A B", r.At(0))
}

func TestDefaultHasNoDuplicates(t *testing.T) {
	r := Default()
	seen := map[string]bool{}
	for _, n := range r.Names() {
		assert.False(t, seen[n], n)
		seen[n] = true
	}
	assert.Positive(t, r.Len())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		jsonPath string
		want     []string
	}{
		{
			name:    "yaml list",
			file:    "r.yaml",
			content: "- Francesco BAGNAIA\n- Jorge MARTIN\n",
			want:    []string{"Francesco BAGNAIA", "Jorge MARTIN"},
		},
		{
			name:    "yaml map",
			file:    "r.yml",
			content: "riders:\n  - Marc MARQUEZ\n",
			want:    []string{"Marc MARQUEZ"},
		},
		{
			name:    "json array",
			file:    "r.json",
			content: `["Alex RINS", "Joan MIR"]`,
			want:    []string{"Alex RINS", "Joan MIR"},
		},
		{
			name:     "json path",
			file:     "entries.json",
			content:  `{"riders":[{"number":93,"name":"Marc MARQUEZ"},{"number":1,"name":"Francesco BAGNAIA"}]}`,
			jsonPath: "$.riders[*].name",
			want:     []string{"Marc MARQUEZ", "Francesco BAGNAIA"},
		},
		{
			name:    "text",
			file:    "riders.txt",
			content: "# 2023\nBrad BINDER\n\n  Jack MILLER  \n",
			want:    []string{"Brad BINDER", "Jack MILLER"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := LoadFile(writeFile(t, tt.file, tt.content), tt.jsonPath)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Names())
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err)

	_, err = LoadFile(writeFile(t, "empty.txt", "# nothing\n"), "")
	require.ErrorIs(t, err, ErrNoNames)

	_, err = LoadFile(writeFile(t, "numbers.json", `[1,2]`), "")
	require.Error(t, err)

	_, err = LoadFile(writeFile(t, "broken.json", `{"riders":`), "")
	require.Error(t, err)
}

func TestWatcherReloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := writeFile(t, "riders.txt", "Brad BINDER\n")
	notify := make(chan struct{}, 1)
	w, err := NewWatcher(ctx, p, WithReloadNotify(notify))
	require.NoError(t, err)
	assert.Equal(t, []string{"Brad BINDER"}, w.Current().Names())

	require.NoError(t, os.WriteFile(p, []byte("Brad BINDER\nJack MILLER\n"), 0o600))
	select {
	case <-notify:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within timeout")
	}
	assert.Eventually(t, func() bool {
		return w.Current().Len() == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherKeepsRosterOnBrokenFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := writeFile(t, "riders.txt", "Brad BINDER\n")
	w, err := NewWatcher(ctx, p)
	require.NoError(t, err)

	w.path = filepath.Join(t.TempDir(), "gone.txt")
	w.reload()
	assert.Equal(t, []string{"Brad BINDER"}, w.Current().Names())
}

func TestNewWatcherFailsOnMissingFile(t *testing.T) {
	_, err := NewWatcher(context.Background(), filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
