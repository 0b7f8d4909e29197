package campaigns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/pkg/db"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

const (
	slugConstraint = "ux_campaigns_slug"
	slugAttempts   = 3
)

var fieldValidator = validator.New()

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type repository interface {
	Create(ctx context.Context, tx *gorm.DB, campaign *models.Campaign) error
	FindBySlug(ctx context.Context, slug string) (*models.Campaign, error)
}

type sessionStore interface {
	Get(ctx context.Context, sessionID string) (*orderconfig.State, error)
	Reset(ctx context.Context, sessionID string) (*orderconfig.State, error)
}

type garmentLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Garment, error)
}

type campaignPricer interface {
	CampaignPrice(ctx context.Context, garmentID uuid.UUID, quantity int, printConfig types.PrintConfig) (decimal.Decimal, error)
	MinimumQuantity() int
}

type mockupUploader interface {
	UploadMockup(ctx context.Context, scope string, color string, file artwork.File) (string, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateInput carries the campaign page fields and per-color mockup
// previews. Blank fields fall back to what the session collected.
type CreateInput struct {
	Name           string
	Deadline       *time.Time
	PaymentStyle   enums.PaymentStyle
	OrganizerName  string
	OrganizerEmail string
	OrganizerPhone string
	Mockups        map[string]artwork.File
}

// CreateResult points the organizer at the new page.
type CreateResult struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
	URL  string    `json:"url"`
}

type ServiceParams struct {
	Tx        txRunner
	Repo      repository
	Sessions  sessionStore
	Garments  garmentLookup
	Pricing   campaignPricer
	Mockups   mockupUploader
	Outbox    outboxEmitter
	PublicURL string
	Logger    *logger.Logger
}

type Service struct {
	tx        txRunner
	repo      repository
	sessions  sessionStore
	garments  garmentLookup
	pricing   campaignPricer
	mockups   mockupUploader
	outbox    outboxEmitter
	publicURL string
	logg      *logger.Logger
	now       func() time.Time
	slug      func(name string) string
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Repo == nil:
		return nil, fmt.Errorf("campaign repository required")
	case params.Sessions == nil:
		return nil, fmt.Errorf("session store required")
	case params.Garments == nil:
		return nil, fmt.Errorf("garment lookup required")
	case params.Pricing == nil:
		return nil, fmt.Errorf("pricing service required")
	case params.Mockups == nil:
		return nil, fmt.Errorf("mockup uploader required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{
		tx:        params.Tx,
		repo:      params.Repo,
		sessions:  params.Sessions,
		garments:  params.Garments,
		pricing:   params.Pricing,
		mockups:   params.Mockups,
		outbox:    params.Outbox,
		publicURL: strings.TrimRight(params.PublicURL, "/"),
		logg:      params.Logger,
		now:       time.Now,
		slug:      newSlug,
	}, nil
}

// Create publishes the session's configuration as a campaign page and resets
// the session.
func (s *Service) Create(ctx context.Context, sessionID string, input CreateInput) (*CreateResult, error) {
	st, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fields := mergeFields(st.Campaign, input)
	if problems := s.validate(st, fields); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign is incomplete").
			WithDetails(map[string]any{"fields": problems})
	}

	garments, err := s.priceGarments(ctx, st)
	if err != nil {
		return nil, err
	}

	campaign := &models.Campaign{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(fields.Name),
		Deadline:       fields.Deadline.UTC(),
		PaymentStyle:   fields.PaymentStyle,
		Status:         enums.CampaignStatusActive,
		OrganizerName:  strings.TrimSpace(fields.OrganizerName),
		OrganizerEmail: strings.TrimSpace(fields.OrganizerEmail),
		OrganizerPhone: strings.TrimSpace(fields.OrganizerPhone),
		UserID:         st.UserID,
		PrintConfig:    st.PrintConfig.Clone(),
	}
	for _, loc := range st.EnabledLocations() {
		campaign.ArtworkData = append(campaign.ArtworkData, st.Artwork[loc])
	}

	if err := s.attachMockups(ctx, campaign.ID, garments, input.Mockups); err != nil {
		return nil, err
	}
	campaign.Garments = garments

	if err := s.persist(ctx, campaign); err != nil {
		return nil, err
	}

	if _, err := s.sessions.Reset(ctx, sessionID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("reset session after campaign create: %v", err))
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "campaign_slug", campaign.Slug), "campaign created")
	}
	return &CreateResult{ID: campaign.ID, Slug: campaign.Slug, URL: s.pageURL(campaign.Slug)}, nil
}

// GetBySlug loads an active or closed campaign page.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*CampaignDTO, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	campaign, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	return NewCampaignDTO(campaign, s.pageURL(campaign.Slug), s.now()), nil
}

// persist inserts the campaign and its event, retrying with a fresh slug when
// the generated one is taken.
func (s *Service) persist(ctx context.Context, campaign *models.Campaign) error {
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		campaign.Slug = s.slug(campaign.Name)
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.Create(ctx, tx, campaign); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCampaignCreated,
				AggregateType: enums.AggregateCampaign,
				AggregateID:   campaign.ID,
				Actor:         &outbox.ActorRef{UserID: campaign.UserID},
				Data: payloads.CampaignCreatedEvent{
					CampaignID:     campaign.ID,
					Slug:           campaign.Slug,
					Name:           campaign.Name,
					Deadline:       campaign.Deadline,
					PaymentStyle:   campaign.PaymentStyle,
					OrganizerEmail: campaign.OrganizerEmail,
					GarmentCount:   len(campaign.Garments),
				},
			})
		})
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, slugConstraint) {
			break
		}
	}
	return pkgerrors.Classify(err, pkgerrors.CodeDependency, "create campaign")
}

func (s *Service) priceGarments(ctx context.Context, st *orderconfig.State) ([]models.CampaignGarment, error) {
	quantity := st.TotalQuantity()
	if quantity <= 0 {
		quantity = s.pricing.MinimumQuantity()
	}
	out := make([]models.CampaignGarment, 0, len(st.Garments))
	for _, id := range st.GarmentIDs() {
		garment, err := s.garments.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		price, err := s.pricing.CampaignPrice(ctx, id, quantity, st.PrintConfig)
		if err != nil {
			return nil, err
		}
		out = append(out, models.CampaignGarment{
			GarmentID:     id,
			Name:          garment.Name,
			Colors:        st.GarmentColors(id),
			PricePerShirt: price,
		})
	}
	return out, nil
}

// attachMockups stores one preview per color and links it to every garment
// offered in that color.
func (s *Service) attachMockups(ctx context.Context, campaignID uuid.UUID, garments []models.CampaignGarment, files map[string]artwork.File) error {
	for color, file := range files {
		if file.Body == nil {
			continue
		}
		url, err := s.mockups.UploadMockup(ctx, campaignID.String(), color, file)
		if err != nil {
			return err
		}
		for i := range garments {
			for _, c := range garments[i].Colors {
				if c != color {
					continue
				}
				if garments[i].MockupURLs == nil {
					garments[i].MockupURLs = map[string]string{}
				}
				garments[i].MockupURLs[color] = url
			}
		}
	}
	return nil
}

func (s *Service) validate(st *orderconfig.State, fields orderconfig.CampaignFields) map[string]string {
	problems := map[string]string{}
	if strings.TrimSpace(fields.Name) == "" {
		problems["name"] = "Campaign name is required"
	}
	switch {
	case fields.Deadline == nil:
		problems["deadline"] = "Deadline is required"
	case !fields.Deadline.After(s.now()):
		problems["deadline"] = "Deadline must be in the future"
	}
	if !fields.PaymentStyle.IsValid() {
		problems["payment_style"] = "Choose who pays: organizer_pays or everyone_pays"
	}
	if strings.TrimSpace(fields.OrganizerName) == "" {
		problems["organizer_name"] = "Organizer name is required"
	}
	if err := fieldValidator.Var(strings.TrimSpace(fields.OrganizerEmail), "required,email,max=254"); err != nil {
		problems["organizer_email"] = "A valid organizer email is required"
	}
	if len(st.Garments) == 0 {
		problems["garments"] = "Select at least one garment"
	}
	for _, id := range st.Garments {
		if len(st.GarmentColors(id)) == 0 {
			problems["colors"] = "Every garment needs at least one color"
			break
		}
	}
	enabled := st.EnabledLocations()
	if len(enabled) == 0 {
		problems["print_config"] = "Enable at least one print location"
	}
	for _, loc := range enabled {
		if rec, ok := st.Artwork[loc]; !ok || !rec.Persisted() {
			problems["artwork."+string(loc)] = fmt.Sprintf("Upload artwork for %s", strings.ReplaceAll(string(loc), "_", " "))
		}
	}
	return problems
}

func (s *Service) pageURL(slug string) string {
	return s.publicURL + "/campaigns/" + slug
}

func mergeFields(saved orderconfig.CampaignFields, input CreateInput) orderconfig.CampaignFields {
	out := saved
	if strings.TrimSpace(input.Name) != "" {
		out.Name = input.Name
	}
	if input.Deadline != nil {
		out.Deadline = input.Deadline
	}
	if input.PaymentStyle != "" {
		out.PaymentStyle = input.PaymentStyle
	}
	if strings.TrimSpace(input.OrganizerName) != "" {
		out.OrganizerName = input.OrganizerName
	}
	if strings.TrimSpace(input.OrganizerEmail) != "" {
		out.OrganizerEmail = input.OrganizerEmail
	}
	if strings.TrimSpace(input.OrganizerPhone) != "" {
		out.OrganizerPhone = input.OrganizerPhone
	}
	return out
}
