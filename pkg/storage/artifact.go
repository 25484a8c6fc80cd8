package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

// ErrArtifactTooLarge is returned by Put when content exceeds the size limit. Nothing is written.
var ErrArtifactTooLarge = errors.New("artifact exceeds size limit")

const (
	PrefixComprehensive = "blood_test_report"
	PrefixSimple        = "simple_analysis"

	maxNameLen = 128
)

var unsafeChars = regexp.MustCompile(`[^\w\-.]`)

// ArtifactStore writes transient uploads under collision-resistant keys.
type ArtifactStore struct {
	backend Storage
	maxSize int64
	logger  logger.Logger
}

func NewArtifactStore(backend Storage, maxSize int64, log logger.Logger) *ArtifactStore {
	return &ArtifactStore{backend: backend, maxSize: maxSize, logger: log}
}

// Backend returns the underlying storage.
func (a *ArtifactStore) Backend() Storage {
	return a.backend
}

// Put stores content as <prefix>_<uuid>_<sanitized name>.
func (a *ArtifactStore) Put(ctx context.Context, content []byte, suggestedName, prefix string) (*models.UploadedArtifact, error) {
	if int64(len(content)) > a.maxSize {
		return nil, ErrArtifactTooLarge
	}
	if prefix == "" {
		prefix = PrefixComprehensive
	}

	id := uuid.NewString()
	key := fmt.Sprintf("%s_%s_%s", prefix, id, SanitizeName(suggestedName))

	stored, err := a.backend.Store(ctx, bytes.NewReader(content), key)
	if err != nil {
		return nil, fmt.Errorf("failed to store artifact: %w", err)
	}

	return &models.UploadedArtifact{
		ID:           id,
		StoragePath:  stored,
		OriginalName: suggestedName,
		SizeBytes:    int64(len(content)),
	}, nil
}

// Open returns a reader over a stored artifact.
func (a *ArtifactStore) Open(ctx context.Context, artifact *models.UploadedArtifact) (io.ReadCloser, error) {
	return a.backend.Get(ctx, artifact.StoragePath)
}

// Delete removes the artifact. It is safe to call more than once.
func (a *ArtifactStore) Delete(ctx context.Context, artifact *models.UploadedArtifact) error {
	if artifact == nil {
		return nil
	}
	return a.backend.Delete(ctx, artifact.StoragePath)
}

// SanitizeName strips path components and replaces characters outside [A-Za-z0-9_.-].
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	if strings.Trim(name, ".") == "" {
		name = "document"
	}
	if len(name) > maxNameLen {
		name = name[len(name)-maxNameLen:]
	}
	return name
}
