package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	"github.com/angelmondragon/teeforge-backend/internal/garments"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

type GarmentCatalog interface {
	List(ctx context.Context) ([]models.Garment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Garment, error)
}

// ListGarments returns the active catalog.
func ListGarments(svc GarmentCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "garment catalog unavailable"))
			return
		}
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]garments.GarmentDTO, 0, len(rows))
		for _, g := range rows {
			out = append(out, garments.NewGarmentDTO(g))
		}
		responses.WriteSuccess(w, out)
	}
}

func GetGarment(svc GarmentCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "garment catalog unavailable"))
			return
		}
		id, err := uuidParam(r, "garmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		g, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, garments.NewGarmentDTO(*g))
	}
}
