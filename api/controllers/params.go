package controllers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/teeforge-backend/api/middleware"
	"github.com/angelmondragon/teeforge-backend/api/validators"
	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
)

func sessionIDFromRequest(r *http.Request) (string, error) {
	id := middleware.SessionIDFromContext(r.Context())
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "X-Session-Id header required")
	}
	return id, nil
}

// userIDFromRequest returns the signed-in user, or nil for anonymous callers.
func userIDFromRequest(r *http.Request) (*uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user id")
	}
	return &id, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name)
	}
	return id, nil
}

func locationParam(r *http.Request) (enums.PrintLocation, error) {
	return parseLocation(chi.URLParam(r, "location"))
}

func parseLocation(raw string) (enums.PrintLocation, error) {
	loc := enums.PrintLocation(strings.TrimSpace(raw))
	if !loc.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid print location %q", raw))
	}
	return loc, nil
}

// openedFiles holds multipart files that must be closed after the handler
// is done with them.
type openedFiles struct {
	closers []multipart.File
}

func (o *openedFiles) open(header *multipart.FileHeader) (artwork.File, error) {
	f, err := header.Open()
	if err != nil {
		return artwork.File{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload "+header.Filename)
	}
	o.closers = append(o.closers, f)
	return artwork.File{FileName: header.Filename, Body: f}, nil
}

func (o *openedFiles) Close() error {
	var errs error
	for _, f := range o.closers {
		errs = multierr.Append(errs, f.Close())
	}
	o.closers = nil
	return errs
}

// artworkFiles opens every artwork_<location> part of the request.
func artworkFiles(r *http.Request, opened *openedFiles) (map[enums.PrintLocation]artwork.File, error) {
	out := map[enums.PrintLocation]artwork.File{}
	for suffix, header := range validators.FormFiles(r, "artwork_") {
		loc, err := parseLocation(suffix)
		if err != nil {
			return nil, err
		}
		file, err := opened.open(header)
		if err != nil {
			return nil, err
		}
		out[loc] = file
	}
	return out, nil
}

// mockupFiles opens every mockup_<color> part of the request.
func mockupFiles(r *http.Request, opened *openedFiles) (map[string]artwork.File, error) {
	out := map[string]artwork.File{}
	for color, header := range validators.FormFiles(r, "mockup_") {
		file, err := opened.open(header)
		if err != nil {
			return nil, err
		}
		out[color] = file
	}
	return out, nil
}
