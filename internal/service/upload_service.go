package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"leadflow/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BlobStore is the file-storage collaborator holding evidence bytes
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}

var allowedEvidenceTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type UploadEvidenceResponse struct {
	ScreenshotPath string `json:"screenshot_path"`
	ScreenshotHash string `json:"screenshot_hash"`
	ContentType    string `json:"content_type"`
	Size           int    `json:"size"`
}

// UploadService stores evidence blobs. Dedup runs at submission, not here.
type UploadService interface {
	Upload(ctx context.Context, actor Actor, categoryID, filename string, data []byte) (UploadEvidenceResponse, error)
	Open(ctx context.Context, actor Actor, key string) (io.ReadCloser, string, error)
}

type uploadService struct {
	store  BlobStore
	logger *zap.Logger
}

func NewUploadService(store BlobStore, logger *zap.Logger) UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &uploadService{store: store, logger: logger}
}

// evidenceKey is evidence/<categoryID>/<hash><ext>
func evidenceKey(categoryID uuid.UUID, hash, ext string) string {
	return fmt.Sprintf("evidence/%s/%s%s", categoryID, hash, ext)
}

func (s *uploadService) Upload(ctx context.Context, actor Actor, rawCategoryID, filename string, data []byte) (UploadEvidenceResponse, error) {
	categoryID, err := parseID(rawCategoryID, "category_id")
	if err != nil {
		return UploadEvidenceResponse{}, err
	}
	if !actor.HasCategory(categoryID) {
		return UploadEvidenceResponse{}, ErrCategoryNotAssigned
	}
	if len(data) == 0 {
		return UploadEvidenceResponse{}, fmt.Errorf("%w: empty file", ErrValidation)
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedEvidenceTypes[contentType]
	if !ok {
		return UploadEvidenceResponse{}, fmt.Errorf("%w: unsupported evidence type %s", ErrValidation, contentType)
	}

	hash, err := HashEvidence(bytes.NewReader(data))
	if err != nil {
		return UploadEvidenceResponse{}, err
	}

	key := evidenceKey(categoryID, hash, ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return UploadEvidenceResponse{}, fmt.Errorf("failed to store evidence: %w", err)
	}

	s.logger.Info("evidence uploaded",
		zap.String("key", key),
		zap.String("filename", path.Base(filename)),
		zap.String("user_id", actor.UserID.String()),
		zap.Int("size", len(data)),
	)
	return UploadEvidenceResponse{
		ScreenshotPath: key,
		ScreenshotHash: hash,
		ContentType:    contentType,
		Size:           len(data),
	}, nil
}

// Open streams an evidence object. Admins read any key; everyone else only
// keys under their assigned categories.
func (s *uploadService) Open(ctx context.Context, actor Actor, key string) (io.ReadCloser, string, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[0] != "evidence" || strings.Contains(key, "..") {
		return nil, "", fmt.Errorf("%w: invalid evidence key", ErrValidation)
	}
	categoryID, err := parseID(parts[1], "evidence key")
	if err != nil {
		return nil, "", err
	}
	if actor.Role != model.RoleAdmin && !actor.HasCategory(categoryID) {
		return nil, "", ErrCategoryNotAssigned
	}
	return s.store.Get(ctx, key)
}
