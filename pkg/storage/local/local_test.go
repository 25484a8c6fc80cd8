package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

func TestStoreRejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), logger.NewNop())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		_, err := s.Store(context.Background(), strings.NewReader("x"), key)
		require.Error(t, err, "key %q", key)
	}
}

func TestStoreDoesNotOverwrite(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), logger.NewNop())
	require.NoError(t, err)

	_, err = s.Store(context.Background(), strings.NewReader("one"), "k.pdf")
	require.NoError(t, err)
	_, err = s.Store(context.Background(), strings.NewReader("two"), "k.pdf")
	require.Error(t, err)
}

func TestGetMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), logger.NewNop())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "missing.pdf")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCleanupBefore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, logger.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Store(ctx, strings.NewReader("old"), "old.pdf")
	require.NoError(t, err)
	_, err = s.Store(ctx, strings.NewReader("new"), "new.pdf")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.pdf"), past, past))

	require.NoError(t, s.CleanupBefore(ctx, time.Now().Add(-time.Hour)))
	require.NoFileExists(t, filepath.Join(dir, "old.pdf"))
	require.FileExists(t, filepath.Join(dir, "new.pdf"))
}
