package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	"github.com/angelmondragon/teeforge-backend/api/validators"
	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/internal/imagegen"
	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

type ImageService interface {
	Generate(ctx context.Context, req imagegen.Request, prompt string, refs []imagegen.ReferenceImage) (types.ArtworkRecord, error)
	RemoveBackground(ctx context.Context, req imagegen.Request, file artwork.File) (types.ArtworkRecord, error)
}

// ArtworkDeps groups what the generated-artwork handlers need. Results are
// stored on the session at the requested location.
type ArtworkDeps struct {
	Sessions       SessionService
	Gates          SessionGates
	Images         ImageService
	MaxUploadBytes int64
	Logger         *logger.Logger
}

func (d ArtworkDeps) request(r *http.Request, rawLocation string) (imagegen.Request, error) {
	if d.Sessions == nil || d.Gates == nil || d.Images == nil {
		return imagegen.Request{}, pkgerrors.New(pkgerrors.CodeInternal, "image service unavailable")
	}
	sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		return imagegen.Request{}, err
	}
	userID, err := userIDFromRequest(r)
	if err != nil {
		return imagegen.Request{}, err
	}
	loc, err := parseLocation(rawLocation)
	if err != nil {
		return imagegen.Request{}, err
	}
	return imagegen.Request{SessionID: sessionID, UserID: userID, Location: loc}, nil
}

func (d ArtworkDeps) attach(w http.ResponseWriter, r *http.Request, req imagegen.Request, record types.ArtworkRecord) {
	st, err := d.Sessions.Mutate(r.Context(), req.SessionID, func(st *orderconfig.State) error {
		return st.SetArtwork(req.Location, record)
	})
	if err != nil {
		responses.WriteError(r.Context(), d.Logger, w, err)
		return
	}
	SessionDeps{Gates: d.Gates}.writeView(w, http.StatusOK, st)
}

type generateRequest struct {
	Location        string   `json:"location" validate:"required"`
	Prompt          string   `json:"prompt" validate:"required,max=1000"`
	ReferenceImages []string `json:"reference_images,omitempty" validate:"max=4,dive,required,datauri"`
}

func (p generateRequest) references() ([]imagegen.ReferenceImage, error) {
	refs := make([]imagegen.ReferenceImage, 0, len(p.ReferenceImages))
	for i, raw := range p.ReferenceImages {
		contentType, data, err := validators.DecodeDataURI(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("reference_images[%d] is not a valid image", i))
		}
		refs = append(refs, imagegen.ReferenceImage{ContentType: contentType, Data: data})
	}
	return refs, nil
}

// GenerateArtwork renders an image from a text prompt, optionally guided by
// up to four base64 data URI reference images.
func GenerateArtwork(d ArtworkDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.MaxUploadBytes > 0 {
			// base64 inflates payloads by a third
			r.Body = http.MaxBytesReader(w, r.Body, d.MaxUploadBytes*imagegen.MaxReferenceImages*4/3)
		}
		var payload generateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		refs, err := payload.references()
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		req, err := d.request(r, payload.Location)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		record, err := d.Images.Generate(r.Context(), req, payload.Prompt, refs)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.attach(w, r, req, record)
	}
}

// RemoveArtworkBackground strips the background from the uploaded "file" part.
func RemoveArtworkBackground(d ArtworkDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !validators.IsMultipart(r) {
			responses.WriteError(r.Context(), d.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "multipart upload required"))
			return
		}
		if err := validators.ParseMultipart(w, r, d.MaxUploadBytes); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		req, err := d.request(r, r.FormValue("location"))
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		header, ok := validators.FormFiles(r, "")["file"]
		if !ok {
			responses.WriteError(r.Context(), d.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "file part required"))
			return
		}
		opened := &openedFiles{}
		defer opened.Close()
		file, err := opened.open(header)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		record, err := d.Images.RemoveBackground(r.Context(), req, file)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.attach(w, r, req, record)
	}
}
