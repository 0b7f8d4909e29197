package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	"github.com/angelmondragon/teeforge-backend/api/validators"
	"github.com/angelmondragon/teeforge-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

type CheckoutService interface {
	Submit(ctx context.Context, sessionID string, input checkout.SubmitInput) (*checkout.SubmitResult, error)
	CreateOrder(ctx context.Context, sessionID string, input checkout.SubmitInput) (*checkout.OrderRequestResult, error)
	Confirmation(ctx context.Context, paymentIntentID string) (*checkout.Confirmation, error)
}

// checkoutInput collects artwork_<location> parts when the body is multipart.
// A JSON or empty body submits with the artwork already on the session.
func checkoutInput(w http.ResponseWriter, r *http.Request, maxBytes int64, opened *openedFiles) (checkout.SubmitInput, error) {
	if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
		return checkout.SubmitInput{}, err
	}
	files, err := artworkFiles(r, opened)
	if err != nil {
		return checkout.SubmitInput{}, err
	}
	return checkout.SubmitInput{Files: files}, nil
}

// Checkout freezes the session into a pending order and opens the deposit
// payment intent.
func Checkout(svc CheckoutService, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		opened := &openedFiles{}
		defer opened.Close()
		input, err := checkoutInput(w, r, maxUploadBytes, opened)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Submit(r.Context(), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CreateOrderRequest records an order without collecting a deposit.
func CreateOrderRequest(svc CheckoutService, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		opened := &openedFiles{}
		defer opened.Close()
		input, err := checkoutInput(w, r, maxUploadBytes, opened)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateOrder(r.Context(), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func CheckoutConfirmation(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		intentID := strings.TrimSpace(chi.URLParam(r, "paymentIntentId"))
		if intentID == "" || len(intentID) > 255 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment intent id"))
			return
		}
		result, err := svc.Confirmation(r.Context(), intentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
