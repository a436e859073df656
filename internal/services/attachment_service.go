package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// suffixLen is the length of the derived name suffix. Long enough to be
// traceable back to the record number during debugging, short enough to
// keep file names manageable.
const suffixLen = 12

// RemoteStore persists an attachment outside the local filesystem and
// returns a retrieval URL. Implemented by the gitstore and miniostore
// clients.
type RemoteStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// AttachmentServiceProvider defines the interface for attachment services.
type AttachmentServiceProvider interface {
	StoredName(declaredName, assocID string) string
	SaveLocal(name string, data []byte) error
	SaveRemote(ctx context.Context, name string, data []byte, contentType string) (string, error)
	DeleteLocal(relPath string) error
}

// AttachmentService ingests uploaded files. Names are collision
// resistant: a fresh UUID per upload plus an optional keyed-hash suffix
// derived from the associated record number.
type AttachmentService struct {
	publicDir string
	uploadDir string
	hmacKey   []byte
	remote    RemoteStore
}

// NewAttachmentService creates a new AttachmentService. remote may be
// nil when no remote backend is configured.
func NewAttachmentService(publicDir, uploadDir string, hmacKey []byte, remote RemoteStore) *AttachmentService {
	return &AttachmentService{
		publicDir: publicDir,
		uploadDir: uploadDir,
		hmacKey:   hmacKey,
		remote:    remote,
	}
}

// StoredName derives the storage name for an upload:
// <uuid>-<suffix><original extension>. The suffix is an HMAC of the
// associated identifier, so repeated uploads for the same record share
// it without exposing the identifier, while the UUID keeps every stored
// name distinct.
func (s *AttachmentService) StoredName(declaredName, assocID string) string {
	name := uuid.New().String()
	if assocID != "" {
		name += "-" + s.suffixFor(assocID)
	}
	return name + strings.ToLower(filepath.Ext(declaredName))
}

// suffixFor computes the keyed one-way suffix for an identifier,
// filtered to alphanumeric characters and truncated.
func (s *AttachmentService) suffixFor(id string) string {
	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write([]byte(id))
	encoded := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	var b strings.Builder
	for _, r := range encoded {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == suffixLen {
			break
		}
	}
	return b.String()
}

// SaveLocal writes the bytes beneath the upload directory.
func (s *AttachmentService) SaveLocal(name string, data []byte) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write attachment: %w", err)
	}
	return nil
}

// SaveRemote writes the bytes to the configured remote backend and
// returns the retrieval URL.
func (s *AttachmentService) SaveRemote(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if s.remote == nil {
		return "", fmt.Errorf("no remote attachment backend configured")
	}
	return s.remote.Save(ctx, name, data, contentType)
}

// DeleteLocal removes a file referenced by a path relative to the
// public directory. A missing file is success: the delete is
// idempotent. Paths escaping the public directory are rejected.
func (s *AttachmentService) DeleteLocal(relPath string) error {
	if relPath == "" {
		return fmt.Errorf("file path is required")
	}
	// Anchor the path before cleaning so ".." segments cannot climb out.
	cleaned := filepath.Clean("/" + filepath.FromSlash(relPath))
	full := filepath.Join(s.publicDir, cleaned)

	err := os.Remove(full)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}
