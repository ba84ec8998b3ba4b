package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"docvault/internal/config"
	"docvault/internal/identifier"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

var (
	ErrMissingFile          = errors.New("no file was uploaded")
	ErrInvalidType          = errors.New("invalid file type")
	ErrSizeExceeded         = errors.New("file size too large")
	ErrNotFound             = errors.New("document not found")
	ErrMissingBlob          = errors.New("document content is missing")
	ErrMetadataInsertFailed = errors.New("metadata insert failed")
)

const (
	// maxIDAttempts bounds retries after a content identifier collision.
	maxIDAttempts = 5
	// maxNameAttempts bounds retries after a stored-name collision.
	maxNameAttempts = 3
)

// UploadInput describes one uploaded file part.
type UploadInput struct {
	Reader       io.Reader
	OriginalName string
	MimeType     string
	// Size is the declared size in bytes; zero or negative means unknown.
	Size int64
}

// Resolved is a document ready for delivery.
type Resolved struct {
	Document    *model.Document
	ContentType string
	Size        int64
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates the file, writes the blob, then registers its metadata
	// under a freshly generated content identifier.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// List returns every document, newest upload first.
	List(ctx context.Context) ([]model.Document, error)

	// Get returns a single document by its content identifier.
	Get(ctx context.Context, uuid string) (*model.Document, error)

	// Resolve looks a document up and confirms its blob is still present.
	Resolve(ctx context.Context, uuid string) (*Resolved, error)
}

// Option customizes a document service.
type Option func(*documentService)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *documentService) { s.log = log }
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(g identifier.Generator) Option {
	return func(s *documentService) { s.ids = g }
}

// WithMaxUploadSize overrides the upload ceiling.
func WithMaxUploadSize(n int64) Option {
	return func(s *documentService) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithMetrics enables upload counters.
func WithMetrics(m *Metrics) Option {
	return func(s *documentService) { s.metrics = m }
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store     storage.Storage
	repo      repository.DocumentRepository
	ids       identifier.Generator
	log       zerolog.Logger
	metrics   *Metrics
	maxUpload int64
	now       func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts ...Option) DocumentService {
	s := &documentService{
		store:     store,
		repo:      repo,
		ids:       identifier.NewUUIDGenerator(),
		log:       zerolog.Nop(),
		maxUpload: config.MaxUploadBytes,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	doc, err := s.upload(ctx, in)
	s.metrics.observeUpload(err)
	return doc, err
}

func (s *documentService) upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if in.Reader == nil {
		return nil, ErrMissingFile
	}
	if !IsAllowedMimeType(in.MimeType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, in.MimeType)
	}
	if in.Size > s.maxUpload {
		return nil, fmt.Errorf("%w: declared %d bytes", ErrSizeExceeded, in.Size)
	}

	obj, name, err := s.writeBlob(ctx, in)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		Filename:     name,
		OriginalName: in.OriginalName,
		StoragePath:  obj.Key,
		Size:         obj.Size,
		MimeType:     in.MimeType,
	}
	stored, err := s.insertWithFreshID(ctx, doc)
	if err != nil {
		s.discardBlob(ctx, obj.Key, err)
		return nil, fmt.Errorf("%w: %v", ErrMetadataInsertFailed, err)
	}

	s.log.Info().
		Str("uuid", stored.UUID).
		Str("filename", stored.Filename).
		Int64("size", stored.Size).
		Str("mimetype", stored.MimeType).
		Msg("document_uploaded")
	return stored, nil
}

// writeBlob streams the upload into storage under a unique name, enforcing
// the size ceiling while bytes flow.
func (s *documentService) writeBlob(ctx context.Context, in UploadInput) (storage.ObjectInfo, string, error) {
	putSize := int64(-1)
	if in.Size > 0 {
		putSize = in.Size
	}
	opts := storage.PutObjectOptions{
		Size:        putSize,
		ContentType: in.MimeType,
		Metadata:    map[string]string{"original-filename": url.PathEscape(in.OriginalName)},
	}
	r := newSizeLimitReader(in.Reader, s.maxUpload)

	var lastErr error
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := UniqueFilename(in.OriginalName, s.now())
		obj, err := s.store.Put(ctx, name, r, opts)
		if err == nil {
			return obj, name, nil
		}
		if errors.Is(err, ErrSizeExceeded) || r.exceeded() {
			return storage.ObjectInfo{}, "", fmt.Errorf("%w: limit is %d bytes", ErrSizeExceeded, s.maxUpload)
		}
		// a name collision is detected before any byte is consumed
		if !errors.Is(err, fs.ErrExist) {
			return storage.ObjectInfo{}, "", fmt.Errorf("write blob: %w", err)
		}
		lastErr = err
	}
	return storage.ObjectInfo{}, "", fmt.Errorf("write blob: %w", lastErr)
}

// insertWithFreshID assigns a content identifier and inserts the record,
// drawing a new identifier whenever the store reports a collision.
func (s *documentService) insertWithFreshID(ctx context.Context, doc *model.Document) (*model.Document, error) {
	var lastErr error
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		doc.UUID = s.ids.Generate()
		stored, err := s.repo.Insert(ctx, doc)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, repository.ErrDuplicateIdentifier) {
			return nil, err
		}
		s.log.Warn().Str("uuid", doc.UUID).Int("attempt", attempt).Msg("id_collision_retry")
		lastErr = err
	}
	return nil, fmt.Errorf("no unique identifier after %d attempts: %v", maxIDAttempts, lastErr)
}

// discardBlob removes a blob whose metadata could not be recorded. A failed
// removal leaves an orphan, which is logged for manual cleanup.
func (s *documentService) discardBlob(ctx context.Context, key string, cause error) {
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Error().
			Err(err).
			Str("insert_error", cause.Error()).
			Str("file_path", key).
			Msg("orphan_blob")
		return
	}
	s.log.Warn().Err(cause).Str("file_path", key).Msg("blob_discarded")
}

func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	return s.repo.ListAll(ctx)
}

func (s *documentService) Get(ctx context.Context, uuid string) (*model.Document, error) {
	id, ok := identifier.Normalize(uuid)
	if !ok {
		return nil, ErrNotFound
	}
	doc, err := s.repo.FindByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Resolve(ctx context.Context, uuid string) (*Resolved, error) {
	doc, err := s.Get(ctx, uuid)
	if err != nil {
		return nil, err
	}
	info, err := s.store.Stat(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMissingBlob, uuid)
		}
		return nil, fmt.Errorf("stat blob: %w", err)
	}
	return &Resolved{
		Document:    doc,
		ContentType: ContentTypeFor(doc.OriginalName),
		Size:        info.Size,
	}, nil
}
