package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/api/middleware"
	"github.com/angelmondragon/teeforge-backend/api/responses"
	"github.com/angelmondragon/teeforge-backend/api/validators"
	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/internal/wizard"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

const maxFieldLen = 200

type SessionService interface {
	Create(ctx context.Context, userID *uuid.UUID) (*orderconfig.State, error)
	Get(ctx context.Context, sessionID string) (*orderconfig.State, error)
	Mutate(ctx context.Context, sessionID string, fn func(*orderconfig.State) error) (*orderconfig.State, error)
	Reset(ctx context.Context, sessionID string) (*orderconfig.State, error)
	Resume(ctx context.Context, sessionID string, userID uuid.UUID) (*orderconfig.State, error)
}

type SessionGates interface {
	Evaluate(st *orderconfig.State, attached ...enums.PrintLocation) wizard.Progress
	RefreshQuote(ctx context.Context, st *orderconfig.State) error
	ApplyDiscountCode(ctx context.Context, st *orderconfig.State, code string) (bool, error)
	MinimumQuantity() int
}

type ArtworkUploader interface {
	Upload(ctx context.Context, input artwork.UploadInput) (types.ArtworkRecord, error)
}

// SessionDeps groups what the session handlers need.
type SessionDeps struct {
	Sessions       SessionService
	Gates          SessionGates
	Garments       GarmentCatalog
	Artwork        ArtworkUploader
	MaxUploadBytes int64
	Logger         *logger.Logger
}

func (d SessionDeps) ready() error {
	if d.Sessions == nil || d.Gates == nil || d.Garments == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable")
	}
	return nil
}

func (d SessionDeps) writeView(w http.ResponseWriter, status int, st *orderconfig.State) {
	middleware.SetSessionHeader(w, st.SessionID)
	responses.WriteSuccessStatus(w, status, newSessionView(st, d.Gates))
}

// mutate runs fn against the request's session and renders the result.
func (d SessionDeps) mutate(w http.ResponseWriter, r *http.Request, fn func(*orderconfig.State) error) {
	if err := d.ready(); err != nil {
		responses.WriteError(r.Context(), d.Logger, w, err)
		return
	}
	sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		responses.WriteError(r.Context(), d.Logger, w, err)
		return
	}
	st, err := d.Sessions.Mutate(r.Context(), sessionID, fn)
	if err != nil {
		responses.WriteError(r.Context(), d.Logger, w, err)
		return
	}
	d.writeView(w, http.StatusOK, st)
}

// refreshed wraps a mutation so the live quote follows it.
func (d SessionDeps) refreshed(ctx context.Context, fn func(*orderconfig.State) error) func(*orderconfig.State) error {
	return func(st *orderconfig.State) error {
		if err := fn(st); err != nil {
			return err
		}
		return d.Gates.RefreshQuote(ctx, st)
	}
}

// CreateSession starts a configuration session, bound to the caller when signed in.
func CreateSession(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.ready(); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		st, err := d.Sessions.Create(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.writeView(w, http.StatusCreated, st)
	}
}

func GetSession(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.ready(); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		st, err := d.Sessions.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.writeView(w, http.StatusOK, st)
	}
}

func ResetSession(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.ready(); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		st, err := d.Sessions.Reset(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.writeView(w, http.StatusOK, st)
	}
}

// ResumeSession loads the signed-in user's saved draft into the session.
func ResumeSession(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.ready(); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if userID == nil {
			responses.WriteError(r.Context(), d.Logger, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to resume a draft"))
			return
		}
		st, err := d.Sessions.Resume(r.Context(), sessionID, *userID)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.writeView(w, http.StatusOK, st)
	}
}

type garmentRequest struct {
	GarmentID uuid.UUID `json:"garment_id" validate:"required"`
}

// lookupGarment confirms the garment exists before it enters a session.
func (d SessionDeps) lookupGarment(ctx context.Context, id uuid.UUID) error {
	_, err := d.Garments.Get(ctx, id)
	return err
}

func SetSessionGarment(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload garmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if err := d.ready(); err == nil {
			if err := d.lookupGarment(r.Context(), payload.GarmentID); err != nil {
				responses.WriteError(r.Context(), d.Logger, w, err)
				return
			}
		}
		d.mutate(w, r, d.refreshed(r.Context(), func(st *orderconfig.State) error {
			st.SetGarment(payload.GarmentID)
			return nil
		}))
	}
}

func AddSessionGarment(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload garmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if err := d.ready(); err == nil {
			if err := d.lookupGarment(r.Context(), payload.GarmentID); err != nil {
				responses.WriteError(r.Context(), d.Logger, w, err)
				return
			}
		}
		d.mutate(w, r, d.refreshed(r.Context(), func(st *orderconfig.State) error {
			st.AddGarment(payload.GarmentID)
			return nil
		}))
	}
}

func RemoveSessionGarment(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "garmentId")
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.mutate(w, r, d.refreshed(r.Context(), func(st *orderconfig.State) error {
			st.RemoveGarment(id)
			return nil
		}))
	}
}

type colorRequest struct {
	Color string `json:"color" validate:"required,max=64"`
}

// AddSessionColor selects a color the garment is offered in.
func AddSessionColor(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "garmentId")
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		var payload colorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		color := strings.TrimSpace(payload.Color)
		if err := d.ready(); err == nil {
			g, err := d.Garments.Get(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), d.Logger, w, err)
				return
			}
			if !g.HasColor(color) {
				responses.WriteError(r.Context(), d.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "color is not offered for this garment").
					WithDetails(map[string]any{"color": color, "available": g.Colors}))
				return
			}
		}
		d.mutate(w, r, func(st *orderconfig.State) error {
			return st.AddColor(id, color)
		})
	}
}

func RemoveSessionColor(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "garmentId")
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		color := strings.TrimSpace(chi.URLParam(r, "color"))
		if color == "" {
			responses.WriteError(r.Context(), d.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "color required"))
			return
		}
		d.mutate(w, r, d.refreshed(r.Context(), func(st *orderconfig.State) error {
			return st.RemoveColor(id, color)
		}))
	}
}

type quantityRequest struct {
	GarmentID uuid.UUID                 `json:"garment_id" validate:"required"`
	Color     string                    `json:"color" validate:"required,max=64"`
	Size      string                    `json:"size" validate:"required,max=16"`
	Quantity  orderconfig.QuantityInput `json:"quantity"`
}

func SetSessionQuantity(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.mutate(w, r, d.refreshed(r.Context(), func(st *orderconfig.State) error {
			return st.SetQuantity(payload.GarmentID, payload.Color, payload.Size, payload.Quantity)
		}))
	}
}

type mergeQuantitiesRequest struct {
	GarmentID  uuid.UUID                                       `json:"garment_id" validate:"required"`
	Quantities map[string]map[string]orderconfig.QuantityInput `json:"quantities" validate:"required"`
}

func MergeSessionQuantities(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload mergeQuantitiesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.mutate(w, r, d.refreshed(r.Context(), func(st *orderconfig.State) error {
			return st.MergeQuantities(payload.GarmentID, payload.Quantities)
		}))
	}
}

type printLocationRequest struct {
	Enabled   bool `json:"enabled"`
	NumColors int  `json:"num_colors" validate:"gte=0,max=4"`
}

func SetSessionPrintLocation(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := locationParam(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		var payload printLocationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.mutate(w, r, d.refreshed(r.Context(), func(st *orderconfig.State) error {
			return st.SetPrintLocation(loc, payload.Enabled, payload.NumColors)
		}))
	}
}

// UploadSessionArtwork stores the multipart "file" part as the artwork for a
// location.
func UploadSessionArtwork(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.ready(); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if d.Artwork == nil {
			responses.WriteError(r.Context(), d.Logger, w, pkgerrors.New(pkgerrors.CodeInternal, "artwork storage unavailable"))
			return
		}
		loc, err := locationParam(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		// nothing reaches storage for a session that does not exist
		if _, err := d.Sessions.Get(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if !validators.IsMultipart(r) {
			responses.WriteError(r.Context(), d.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "multipart upload required"))
			return
		}
		if err := validators.ParseMultipart(w, r, d.MaxUploadBytes); err != nil {
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
		record, err := d.Artwork.Upload(r.Context(), artwork.UploadInput{
			SessionID: sessionID,
			UserID:    userID,
			Location:  loc,
			Source:    enums.ArtworkSourceUpload,
			File:      file,
		})
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.mutate(w, r, func(st *orderconfig.State) error {
			return st.SetArtwork(loc, record)
		})
	}
}

type transformRequest struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale" validate:"gt=0"`
	Rotation float64 `json:"rotation"`
}

func SetSessionArtworkTransform(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := locationParam(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		var payload transformRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.mutate(w, r, func(st *orderconfig.State) error {
			return st.SetArtworkTransform(loc, types.ArtworkTransform{
				X:        payload.X,
				Y:        payload.Y,
				Scale:    payload.Scale,
				Rotation: payload.Rotation,
			})
		})
	}
}

func RemoveSessionArtwork(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := locationParam(r)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.mutate(w, r, func(st *orderconfig.State) error {
			st.RemoveArtwork(loc)
			return nil
		})
	}
}

type addressRequest struct {
	Line1      string `json:"line1" validate:"max=200"`
	Line2      string `json:"line2,omitempty" validate:"max=200"`
	City       string `json:"city" validate:"max=100"`
	State      string `json:"state" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Country    string `json:"country,omitempty" validate:"max=2"`
}

type customerRequest struct {
	Name             string         `json:"customer_name" validate:"max=200"`
	Email            string         `json:"email" validate:"omitempty,email,max=254"`
	Phone            string         `json:"phone" validate:"max=40"`
	OrganizationName string         `json:"organization_name,omitempty" validate:"max=200"`
	NeedByDate       string         `json:"need_by_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ShippingAddress  addressRequest `json:"shipping_address"`
}

func (c customerRequest) info() types.CustomerInfo {
	return types.CustomerInfo{
		Name:             validators.SanitizeString(c.Name, maxFieldLen),
		Email:            strings.ToLower(validators.SanitizeString(c.Email, maxFieldLen)),
		Phone:            validators.SanitizeString(c.Phone, maxFieldLen),
		OrganizationName: validators.SanitizeString(c.OrganizationName, maxFieldLen),
		NeedByDate:       validators.SanitizeString(c.NeedByDate, maxFieldLen),
		ShippingAddress: types.ShippingAddress{
			Line1:      validators.SanitizeString(c.ShippingAddress.Line1, maxFieldLen),
			Line2:      validators.SanitizeString(c.ShippingAddress.Line2, maxFieldLen),
			City:       validators.SanitizeString(c.ShippingAddress.City, maxFieldLen),
			State:      validators.SanitizeString(c.ShippingAddress.State, maxFieldLen),
			PostalCode: validators.SanitizeString(c.ShippingAddress.PostalCode, maxFieldLen),
			Country:    strings.ToUpper(validators.SanitizeString(c.ShippingAddress.Country, 2)),
		},
	}
}

// SetSessionCustomer replaces the contact and shipping fields. Completeness
// is enforced by the checkout gate, not here.
func SetSessionCustomer(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload customerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		info := payload.info()
		d.mutate(w, r, func(st *orderconfig.State) error {
			st.SetCustomer(info)
			return nil
		})
	}
}

type discountRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// SetSessionDiscount applies a code to the live quote. A code that does not
// apply leaves the session unchanged.
func SetSessionDiscount(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.mutate(w, r, func(st *orderconfig.State) error {
			if st.Quote == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "add at least the minimum quantity before applying a discount")
			}
			applied, err := d.Gates.ApplyDiscountCode(r.Context(), st, payload.Code)
			if err != nil {
				return err
			}
			if !applied {
				return pkgerrors.New(pkgerrors.CodeValidation, "discount code does not apply to this order").
					WithDetails(map[string]any{"code": payload.Code})
			}
			return nil
		})
	}
}

func ClearSessionDiscount(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.mutate(w, r, func(st *orderconfig.State) error {
			st.ClearDiscount()
			return nil
		})
	}
}

type campaignFieldsRequest struct {
	Name           string             `json:"name" validate:"max=120"`
	Deadline       *time.Time         `json:"deadline,omitempty"`
	PaymentStyle   enums.PaymentStyle `json:"payment_style,omitempty" validate:"omitempty,enum"`
	OrganizerName  string             `json:"organizer_name" validate:"max=200"`
	OrganizerEmail string             `json:"organizer_email" validate:"omitempty,email,max=254"`
	OrganizerPhone string             `json:"organizer_phone" validate:"max=40"`
}

func SetSessionCampaign(d SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload campaignFieldsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		fields := orderconfig.CampaignFields{
			Name:           validators.SanitizeString(payload.Name, maxFieldLen),
			Deadline:       payload.Deadline,
			PaymentStyle:   payload.PaymentStyle,
			OrganizerName:  validators.SanitizeString(payload.OrganizerName, maxFieldLen),
			OrganizerEmail: strings.ToLower(validators.SanitizeString(payload.OrganizerEmail, maxFieldLen)),
			OrganizerPhone: validators.SanitizeString(payload.OrganizerPhone, maxFieldLen),
		}
		d.mutate(w, r, func(st *orderconfig.State) error {
			st.SetCampaign(fields)
			return nil
		})
	}
}
