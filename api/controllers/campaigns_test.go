package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/teeforge-backend/internal/campaigns"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
)

type stubCampaigns struct {
	input   campaigns.CreateInput
	mockups map[string]string
}

func (s *stubCampaigns) Create(ctx context.Context, sessionID string, input campaigns.CreateInput) (*campaigns.CreateResult, error) {
	s.input = input
	s.mockups = map[string]string{}
	for color, f := range input.Mockups {
		data, err := io.ReadAll(f.Body)
		if err != nil {
			return nil, err
		}
		s.mockups[color] = string(data)
	}
	return &campaigns.CreateResult{ID: uuid.New(), Slug: "spring-league", URL: "https://teeforge.com/c/spring-league"}, nil
}

func (s *stubCampaigns) GetBySlug(ctx context.Context, slug string) (*campaigns.CampaignDTO, error) {
	if slug != "spring-league" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}
	return &campaigns.CampaignDTO{}, nil
}

func TestCreateCampaignFromMultipart(t *testing.T) {
	svc := &stubCampaigns{}
	body, contentType := multipartBody(t, map[string]string{
		"name":            "Spring League",
		"payment_style":   "everyone_pays",
		"deadline":        "2026-11-01T17:00:00Z",
		"organizer_email": "Coach@Example.com",
	}, map[string][]byte{"mockup_Black": []byte("black-preview")})
	req := withSession(httptest.NewRequest(http.MethodPost, "/campaigns", body), "s1")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	CreateCampaign(svc, 1<<20, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "Spring League", svc.input.Name)
	require.Equal(t, enums.PaymentStyleEveryonePays, svc.input.PaymentStyle)
	require.Equal(t, "coach@example.com", svc.input.OrganizerEmail)
	require.NotNil(t, svc.input.Deadline)
	require.Equal(t, "black-preview", svc.mockups["Black"])
}

func TestCreateCampaignFromJSON(t *testing.T) {
	svc := &stubCampaigns{}
	req := withSession(httptest.NewRequest(http.MethodPost, "/campaigns",
		strings.NewReader(`{"name":"Team Tees","payment_style":"organizer_pays"}`)), "s1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	CreateCampaign(svc, 1<<20, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, enums.PaymentStyleOrganizerPays, svc.input.PaymentStyle)
}

func TestCreateCampaignRejectsBadPaymentStyle(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{"payment_style": "split"}, nil)
	req := withSession(httptest.NewRequest(http.MethodPost, "/campaigns", body), "s1")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	CreateCampaign(&stubCampaigns{}, 1<<20, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCampaign(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/campaigns/{slug}", GetCampaign(&stubCampaigns{}, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campaigns/Spring-League", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campaigns/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
