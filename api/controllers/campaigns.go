package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	"github.com/angelmondragon/teeforge-backend/api/validators"
	"github.com/angelmondragon/teeforge-backend/internal/campaigns"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

type CampaignService interface {
	Create(ctx context.Context, sessionID string, input campaigns.CreateInput) (*campaigns.CreateResult, error)
	GetBySlug(ctx context.Context, slug string) (*campaigns.CampaignDTO, error)
}

// campaignInput reads the page fields from either a multipart form, which may
// also carry mockup_<color> previews, or a JSON body.
func campaignInput(w http.ResponseWriter, r *http.Request, maxBytes int64, opened *openedFiles) (campaigns.CreateInput, error) {
	if !validators.IsMultipart(r) {
		var payload campaignFieldsRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				return campaigns.CreateInput{}, err
			}
		}
		return campaigns.CreateInput{
			Name:           validators.SanitizeString(payload.Name, maxFieldLen),
			Deadline:       payload.Deadline,
			PaymentStyle:   payload.PaymentStyle,
			OrganizerName:  validators.SanitizeString(payload.OrganizerName, maxFieldLen),
			OrganizerEmail: strings.ToLower(validators.SanitizeString(payload.OrganizerEmail, maxFieldLen)),
			OrganizerPhone: validators.SanitizeString(payload.OrganizerPhone, maxFieldLen),
		}, nil
	}

	if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
		return campaigns.CreateInput{}, err
	}
	input := campaigns.CreateInput{
		Name:           validators.FormValue(r, "name", maxFieldLen),
		PaymentStyle:   enums.PaymentStyle(validators.FormValue(r, "payment_style", 32)),
		OrganizerName:  validators.FormValue(r, "organizer_name", maxFieldLen),
		OrganizerEmail: strings.ToLower(validators.FormValue(r, "organizer_email", maxFieldLen)),
		OrganizerPhone: validators.FormValue(r, "organizer_phone", maxFieldLen),
	}
	if input.PaymentStyle != "" && !input.PaymentStyle.IsValid() {
		return campaigns.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment_style")
	}
	if raw := validators.FormValue(r, "deadline", 64); raw != "" {
		deadline, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return campaigns.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "deadline must be an RFC 3339 timestamp")
		}
		input.Deadline = &deadline
	}
	mockups, err := mockupFiles(r, opened)
	if err != nil {
		return campaigns.CreateInput{}, err
	}
	input.Mockups = mockups
	return input, nil
}

// CreateCampaign publishes the session's configuration as a campaign page.
func CreateCampaign(svc CampaignService, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		opened := &openedFiles{}
		defer opened.Close()
		input, err := campaignInput(w, r, maxUploadBytes, opened)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func GetCampaign(svc CampaignService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}
		slug := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "slug")))
		if slug == "" || len(slug) > 120 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid campaign slug"))
			return
		}
		campaign, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, campaign)
	}
}
