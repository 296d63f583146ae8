package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/uigen/providers/observability/observabilitytest"
)

func writeCatalog(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, sampleYAML)

	reloaded := make(chan *Catalog, 4)
	recorder := observabilitytest.New()
	w, err := Watch(path,
		WithDebounce(10*time.Millisecond),
		WithWatchObserver(recorder),
		OnReload(func(c *Catalog) { reloaded <- c }),
	)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, "1.2.0", w.Version())
	assert.True(t, w.IsValidType("btn"))
	assert.False(t, w.IsValidType("Carousel"))

	writeCatalog(t, path, "version: 1.3.0\ncomponents:\n  - name: Carousel\n")

	select {
	case c := <-reloaded:
		assert.Equal(t, "1.3.0", c.Version())
	case <-time.After(3 * time.Second):
		t.Fatal("catalog was not reloaded")
	}

	assert.Same(t, w.Current(), w.Current())
	assert.Equal(t, "1.3.0", w.Version())
	assert.True(t, w.IsValidType("carousel"))
	assert.False(t, w.IsValidType("Button"))
	assert.Contains(t, w.Describe(), "**Carousel**")
	assert.True(t, recorder.HasMessage("catalog reloaded"))
}

func TestWatch_KeepsPreviousOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, sampleYAML)

	recorder := observabilitytest.New()
	w, err := Watch(path, WithDebounce(10*time.Millisecond), WithWatchObserver(recorder))
	require.NoError(t, err)
	defer w.Close()

	writeCatalog(t, path, "version: [broken")

	require.Eventually(t, func() bool {
		return recorder.HasMessage("catalog reload failed, keeping previous version")
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "1.2.0", w.Version())
	assert.True(t, w.IsValidType("Button"))
}

func TestWatch_InitialLoadError(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, sampleYAML)

	w, err := Watch(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
