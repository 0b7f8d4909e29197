package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/storage/gcs"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

const sniffLen = 3072

type objectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (*gcs.Object, error)
	Delete(ctx context.Context, key string) error
}

type repository interface {
	Create(ctx context.Context, row *models.ArtworkFile) error
}

// Vectorizer converts raster artwork to SVG.
type Vectorizer interface {
	Vectorize(ctx context.Context, data []byte, contentType string) ([]byte, error)
}

// File is an uploaded part as received from the client.
type File struct {
	FileName string
	Body     io.Reader
}

// UploadInput describes a design upload for a session.
type UploadInput struct {
	SessionID string
	UserID    *uuid.UUID
	Location  enums.PrintLocation
	Source    enums.ArtworkSource
	File      File
}

// Options tunes upload limits and storage layout.
type Options struct {
	MaxBytes        int64
	TempPrefix      string
	MockupPrefix    string
	MockupMaxWidth  int
	MockupMaxHeight int
}

// Service stores artwork files and records them.
type Service struct {
	storage    objectStorage
	repo       repository
	vectorizer Vectorizer
	opts       Options
	logg       *logger.Logger
}

func NewService(storage objectStorage, repo repository, vectorizer Vectorizer, opts Options, logg *logger.Logger) (*Service, error) {
	if storage == nil {
		return nil, fmt.Errorf("object storage required")
	}
	if repo == nil {
		return nil, fmt.Errorf("artwork repository required")
	}
	if opts.MaxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if opts.TempPrefix == "" || opts.MockupPrefix == "" {
		return nil, fmt.Errorf("storage prefixes required")
	}
	if opts.MockupMaxWidth <= 0 || opts.MockupMaxHeight <= 0 {
		return nil, fmt.Errorf("mockup bounds must be positive")
	}
	return &Service{storage: storage, repo: repo, vectorizer: vectorizer, opts: opts, logg: logg}, nil
}

// Upload validates a design file, stores it under the session's temporary
// prefix and returns the record to keep in the session. Vectorization runs
// when a vectorizer is configured; its failure does not fail the upload.
func (s *Service) Upload(ctx context.Context, input UploadInput) (types.ArtworkRecord, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return types.ArtworkRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if !input.Location.IsValid() {
		return types.ArtworkRecord{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid print location %q", input.Location))
	}
	data, mimeType, err := s.read(input.File, designMimeTypes)
	if err != nil {
		return types.ArtworkRecord{}, err
	}

	source := input.Source
	if source == "" {
		source = enums.ArtworkSourceUpload
	}
	id := uuid.New()
	fileName := input.File.FileName
	if strings.TrimSpace(fileName) == "" {
		fileName = string(input.Location) + extensionFor(mimeType)
	}
	key := objectKey(s.opts.TempPrefix, input.SessionID, id, fileName)

	obj, err := s.storage.Upload(ctx, key, mimeType, bytes.NewReader(data))
	if err != nil {
		return types.ArtworkRecord{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload artwork")
	}

	width, height := dimensions(data)
	row := &models.ArtworkFile{
		ID:          id,
		SessionID:   input.SessionID,
		UserID:      input.UserID,
		Location:    input.Location,
		Source:      source,
		Status:      enums.ArtworkStatusTemporary,
		FileName:    fileName,
		ContentType: mimeType,
		ByteSize:    int64(len(data)),
		ObjectKey:   obj.Key,
		FileURL:     obj.URL,
		PixelWidth:  width,
		PixelHeight: height,
	}

	record := types.ArtworkRecord{
		ArtworkID:   &id,
		Location:    input.Location,
		FileName:    fileName,
		ByteSize:    row.ByteSize,
		ContentType: mimeType,
		FileURL:     obj.URL,
		ObjectKey:   obj.Key,
		PixelWidth:  width,
		PixelHeight: height,
	}
	if url := s.vectorize(ctx, input.SessionID, id, data, mimeType); url != "" {
		record.VectorizedURL = url
		row.VectorizedURL = &url
	}

	if err := s.repo.Create(ctx, row); err != nil {
		_ = s.storage.Delete(ctx, obj.Key)
		return types.ArtworkRecord{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist artwork row")
	}
	return record, nil
}

// UploadMockup resizes a campaign preview to fit the configured bounds and
// stores it as PNG. It returns the public URL.
func (s *Service) UploadMockup(ctx context.Context, scope string, color string, file File) (string, error) {
	data, _, err := s.read(file, mockupMimeTypes)
	if err != nil {
		return "", err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "mockup image could not be decoded")
	}
	if img.Bounds().Dx() > s.opts.MockupMaxWidth || img.Bounds().Dy() > s.opts.MockupMaxHeight {
		img = imaging.Fit(img, s.opts.MockupMaxWidth, s.opts.MockupMaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode mockup")
	}

	id := uuid.New()
	key := objectKey(s.opts.MockupPrefix, scope, id, color+".png")
	size := int64(buf.Len())
	obj, err := s.storage.Upload(ctx, key, "image/png", &buf)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload mockup")
	}

	bounds := img.Bounds()
	row := &models.ArtworkFile{
		ID:          id,
		SessionID:   scope,
		Source:      enums.ArtworkSourceMockup,
		Status:      enums.ArtworkStatusAttached,
		FileName:    color + ".png",
		ContentType: "image/png",
		ByteSize:    size,
		ObjectKey:   obj.Key,
		FileURL:     obj.URL,
		PixelWidth:  bounds.Dx(),
		PixelHeight: bounds.Dy(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		_ = s.storage.Delete(ctx, obj.Key)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist mockup row")
	}
	return obj.URL, nil
}

func (s *Service) read(file File, allowed []string) ([]byte, string, error) {
	if file.Body == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	data, err := io.ReadAll(io.LimitReader(file.Body, s.opts.MaxBytes+1))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.opts.MaxBytes {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file must be at most %d MB", s.opts.MaxBytes/(1024*1024)))
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	mimeType := detectMime(head)
	if !isAllowed(allowed, mimeType) {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file must be %s", allowedDescription(allowed)))
	}
	return data, mimeType, nil
}

func (s *Service) vectorize(ctx context.Context, scope string, id uuid.UUID, data []byte, mimeType string) string {
	if s.vectorizer == nil || !strings.HasPrefix(mimeType, "image/") || mimeType == "image/svg+xml" {
		return ""
	}
	svg, err := s.vectorizer.Vectorize(ctx, data, mimeType)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("vectorize artwork %s: %v", id, err))
		}
		return ""
	}
	key := vectorKey(s.opts.TempPrefix, scope, id)
	obj, err := s.storage.Upload(ctx, key, "image/svg+xml", bytes.NewReader(svg))
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("upload vectorized artwork %s: %v", id, err))
		}
		return ""
	}
	return obj.URL
}

func vectorKey(prefix, scope string, id uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s.svg", strings.Trim(prefix, "/"), scope, id)
}

// StorageKeys lists every object written for row, including the SVG produced
// by vectorization.
func StorageKeys(row models.ArtworkFile, tempPrefix string) []string {
	keys := []string{row.ObjectKey}
	if row.VectorizedURL != nil && *row.VectorizedURL != "" {
		keys = append(keys, vectorKey(tempPrefix, row.SessionID, row.ID))
	}
	return keys
}

// dimensions decodes only the image header. Vector formats report zero.
func dimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
