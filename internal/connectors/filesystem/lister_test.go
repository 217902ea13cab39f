package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/mirador/internal/core/domain"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew_RejectsMissingDirectory(t *testing.T) {
	_, err := New(Config{Root: filepath.Join(t.TempDir(), "nope")})
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestList_WalksTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha")
	writeFile(t, root, "sub/b.md", "bravo")
	writeFile(t, root, ".hidden", "skip me")
	writeFile(t, root, ".git/config", "skip me too")

	lister, err := New(Config{Root: root})
	require.NoError(t, err)
	defer lister.Close()

	docs, err := lister.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byID := make(map[string]domain.RemoteDocument)
	for _, d := range docs {
		byID[d.ID] = d
	}

	a, ok := byID["a.txt"]
	require.True(t, ok)
	assert.Equal(t, "a.txt", a.Name)
	assert.Equal(t, "text/plain", a.MIMEType)
	assert.EqualValues(t, 5, a.Size)
	assert.NotEmpty(t, a.ContentHash)
	assert.False(t, a.ModifiedTime.IsZero())

	b, ok := byID["sub/b.md"]
	require.True(t, ok)
	assert.Equal(t, "b.md", b.Name)
}

func TestList_ContentHashTracksContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "version one")

	lister, err := New(Config{Root: root})
	require.NoError(t, err)
	defer lister.Close()

	first, err := lister.List(context.Background())
	require.NoError(t, err)

	writeFile(t, root, "a.txt", "version two")
	second, err := lister.List(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first[0].ContentHash, second[0].ContentHash)
}

func TestFetch_ReadsContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sub/b.txt", "bravo")

	lister, err := New(Config{Root: root})
	require.NoError(t, err)
	defer lister.Close()

	content, err := lister.Fetch(context.Background(), domain.RemoteDocument{ID: "sub/b.txt"})
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(content))
}

func TestFetch_RejectsEscapingIDs(t *testing.T) {
	root := t.TempDir()
	lister, err := New(Config{Root: root})
	require.NoError(t, err)
	defer lister.Close()

	_, err = lister.Fetch(context.Background(), domain.RemoteDocument{ID: "../../etc/passwd"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWatch_SignalsOnChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha")

	lister, err := New(Config{Root: root})
	require.NoError(t, err)
	defer lister.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals, err := lister.Watch(ctx)
	require.NoError(t, err)

	writeFile(t, root, "a.txt", "changed")

	select {
	case <-signals:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change signal")
	}
}
