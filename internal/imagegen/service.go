package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

const (
	maxPromptRunes     = 1000
	maxSourceBytes     = 25 << 20
	MaxReferenceImages = 4
)

type artworkUploader interface {
	Upload(ctx context.Context, input artwork.UploadInput) (types.ArtworkRecord, error)
}

type rateLimiter interface {
	Allow(ctx context.Context, sessionID string) error
}

// Request identifies the session and print location a generated image is for.
type Request struct {
	SessionID string
	UserID    *uuid.UUID
	Location  enums.PrintLocation
}

type ServiceParams struct {
	Generator         Generator
	BackgroundRemover BackgroundRemover
	Artwork           artworkUploader
	Limiter           rateLimiter
	Logger            *logger.Logger
}

// Service runs provider calls for a session and stores the results as
// generated artwork.
type Service struct {
	generator Generator
	remover   BackgroundRemover
	artwork   artworkUploader
	limiter   rateLimiter
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Generator == nil {
		return nil, fmt.Errorf("image generator required")
	}
	if params.Artwork == nil {
		return nil, fmt.Errorf("artwork uploader required")
	}
	return &Service{
		generator: params.Generator,
		remover:   params.BackgroundRemover,
		artwork:   params.Artwork,
		limiter:   params.Limiter,
		logg:      params.Logger,
	}, nil
}

// Generate renders artwork from a prompt and optional reference images and
// stores it for the request's location.
func (s *Service) Generate(ctx context.Context, req Request, prompt string, refs []ReferenceImage) (types.ArtworkRecord, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return types.ArtworkRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "prompt is required")
	}
	if utf8.RuneCountInString(prompt) > maxPromptRunes {
		return types.ArtworkRecord{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("prompt must be at most %d characters", maxPromptRunes))
	}
	refs, err := checkReferences(refs)
	if err != nil {
		return types.ArtworkRecord{}, err
	}
	if err := s.checkRequest(ctx, req); err != nil {
		return types.ArtworkRecord{}, err
	}

	data, err := s.generator.Generate(ctx, prompt, refs)
	if err != nil {
		return types.ArtworkRecord{}, asDependency(err, "generate image")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithSessionID(ctx, req.SessionID), fmt.Sprintf("generated artwork for %s", req.Location))
	}
	return s.store(ctx, req, "generated", data)
}

// RemoveBackground strips the background of an uploaded image and stores the
// result as generated artwork for the location.
func (s *Service) RemoveBackground(ctx context.Context, req Request, file artwork.File) (types.ArtworkRecord, error) {
	if s.remover == nil {
		return types.ArtworkRecord{}, pkgerrors.New(pkgerrors.CodeDependency, "background removal is not available")
	}
	if file.Body == nil {
		return types.ArtworkRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if err := s.checkRequest(ctx, req); err != nil {
		return types.ArtworkRecord{}, err
	}

	data, err := io.ReadAll(io.LimitReader(file.Body, maxSourceBytes+1))
	if err != nil {
		return types.ArtworkRecord{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return types.ArtworkRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if len(data) > maxSourceBytes {
		return types.ArtworkRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "file is too large")
	}
	contentType, ok := sniffImage(data)
	if !ok {
		return types.ArtworkRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "background removal needs a PNG, JPEG or WEBP image")
	}

	out, err := s.remover.RemoveBackground(ctx, data, contentType)
	if err != nil {
		return types.ArtworkRecord{}, asDependency(err, "remove background")
	}
	name := "nobg"
	if base := strings.TrimSpace(file.FileName); base != "" {
		name = strings.TrimSuffix(base, extensionOf(base)) + "-nobg"
	}
	return s.store(ctx, req, name, out)
}

// checkReferences bounds the reference images and replaces client supplied
// content types with sniffed ones.
func checkReferences(refs []ReferenceImage) ([]ReferenceImage, error) {
	if len(refs) > MaxReferenceImages {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d reference images are allowed", MaxReferenceImages))
	}
	out := make([]ReferenceImage, 0, len(refs))
	for i, ref := range refs {
		field := fmt.Sprintf("reference_images[%d]", i)
		switch {
		case len(ref.Data) == 0:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is empty")
		case len(ref.Data) > maxSourceBytes:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is too large")
		}
		contentType, ok := sniffImage(ref.Data)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a PNG, JPEG or WEBP image")
		}
		out = append(out, ReferenceImage{ContentType: contentType, Data: ref.Data})
	}
	return out, nil
}

func sniffImage(data []byte) (string, bool) {
	mtype := mimetype.Detect(data)
	for _, allowed := range []string{"image/png", "image/jpeg", "image/webp"} {
		if mtype.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}

func (s *Service) checkRequest(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.SessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if !req.Location.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid print location %q", req.Location))
	}
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Allow(ctx, req.SessionID)
}

func (s *Service) store(ctx context.Context, req Request, name string, data []byte) (types.ArtworkRecord, error) {
	return s.artwork.Upload(ctx, artwork.UploadInput{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Location:  req.Location,
		Source:    enums.ArtworkSourceGenerated,
		File: artwork.File{
			FileName: fmt.Sprintf("%s-%s.png", req.Location, name),
			Body:     bytes.NewReader(data),
		},
	})
}

// asDependency keeps typed provider errors (rate limits in particular) and
// wraps anything else as a dependency failure.
func asDependency(err error, msg string) error {
	return pkgerrors.Classify(err, pkgerrors.CodeDependency, msg)
}

func extensionOf(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[idx:]
	}
	return ""
}
