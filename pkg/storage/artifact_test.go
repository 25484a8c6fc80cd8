package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/storage/local"
)

func newTestStore(t *testing.T, maxSize int64) (*ArtifactStore, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := local.NewLocalStorage(dir, logger.NewNop())
	require.NoError(t, err)
	return NewArtifactStore(backend, maxSize, logger.NewNop()), dir
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":             "report.pdf",
		"../../etc/passwd":       "passwd",
		`C:\Users\me\lab 1.pdf`:  "lab_1.pdf",
		"blood test (june).pdf":  "blood_test__june_.pdf",
		"":                       "document",
		"..":                     "document",
		"résumé.pdf":             "r_sum_.pdf",
		"a/b/c/x;rm -rf.pdf":     "x_rm_-rf.pdf",
	}
	for in, want := range cases {
		require.Equal(t, want, SanitizeName(in), "input %q", in)
	}

	long := strings.Repeat("a", 300) + ".pdf"
	got := SanitizeName(long)
	require.Len(t, got, maxNameLen)
	require.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestPutOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, dir := newTestStore(t, 1024)

	art, err := store.Put(ctx, []byte("%PDF-1.4 body"), "../lab.pdf", PrefixSimple)
	require.NoError(t, err)
	require.Equal(t, "../lab.pdf", art.OriginalName)
	require.Equal(t, int64(13), art.SizeBytes)
	require.Equal(t, PrefixSimple+"_"+art.ID+"_lab.pdf", art.StoragePath)
	require.FileExists(t, filepath.Join(dir, art.StoragePath))

	rc, err := store.Open(ctx, art)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "%PDF-1.4 body", string(body))

	require.NoError(t, store.Delete(ctx, art))
	require.NoFileExists(t, filepath.Join(dir, art.StoragePath))
	require.NoError(t, store.Delete(ctx, art), "delete must be idempotent")
	require.NoError(t, store.Delete(ctx, nil))
}

func TestPutRejectsOversizeBeforeWriting(t *testing.T) {
	store, dir := newTestStore(t, 8)

	_, err := store.Put(context.Background(), make([]byte, 9), "big.pdf", "")
	require.ErrorIs(t, err, ErrArtifactTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPutKeysAreUnique(t *testing.T) {
	store, _ := newTestStore(t, 1024)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		art, err := store.Put(context.Background(), []byte("x"), "same.pdf", "")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(art.StoragePath, PrefixComprehensive+"_"))
		require.False(t, seen[art.StoragePath])
		seen[art.StoragePath] = true
	}
}
