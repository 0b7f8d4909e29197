package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

type intentAPI interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	Retrieve(ctx context.Context, id string, params *stripe.PaymentIntentRetrieveParams) (*stripe.PaymentIntent, error)
	Cancel(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// Client wraps Stripe's API client plus env-specific metadata.
type Client struct {
	api           *stripe.Client
	intents       intentAPI
	environment   string
	signingSecret string
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	api := stripe.NewClient(apiKey)
	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:           api,
		intents:       api.V1PaymentIntents,
		environment:   env,
		signingSecret: signingSecret,
	}, nil
}

// API returns the underlying Stripe API client.
func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}

// PaymentIntentInput describes a deposit charge.
type PaymentIntentInput struct {
	AmountCents    int64
	Currency       string
	ReceiptEmail   string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

// PaymentIntent is the subset of Stripe's intent the checkout flow needs.
type PaymentIntent struct {
	ID             string
	ClientSecret   string
	Status         string
	AmountCents    int64
	Metadata       map[string]string
	FailureMessage string
}

// CreatePaymentIntent opens an intent with automatic payment methods enabled.
func (c *Client) CreatePaymentIntent(ctx context.Context, input PaymentIntentInput) (*PaymentIntent, error) {
	if c == nil || c.intents == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if input.AmountCents <= 0 {
		return nil, errors.New("payment intent amount must be positive")
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(input.AmountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: input.Metadata,
	}
	if input.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(input.ReceiptEmail)
	}
	if input.Description != "" {
		params.Description = stripe.String(input.Description)
	}
	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}
	pi, err := c.intents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if c == nil || c.intents == nil {
		return nil, errors.New("stripe client not initialized")
	}
	pi, err := c.intents.Retrieve(ctx, id, &stripe.PaymentIntentRetrieveParams{})
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", id, err)
	}
	return fromStripe(pi), nil
}

// CancelPaymentIntent cancels an unpaid intent. Intents that are already
// canceled are not an error.
func (c *Client) CancelPaymentIntent(ctx context.Context, id string) error {
	if c == nil || c.intents == nil {
		return errors.New("stripe client not initialized")
	}
	_, err := c.intents.Cancel(ctx, id, &stripe.PaymentIntentCancelParams{})
	if err == nil {
		return nil
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState {
		return nil
	}
	return fmt.Errorf("cancel payment intent %s: %w", id, err)
}

// PaymentIntentFromEvent decodes the intent carried by a payment_intent.* webhook.
func PaymentIntentFromEvent(event *stripe.Event) (*PaymentIntent, error) {
	if event == nil || event.Data == nil {
		return nil, errors.New("stripe event data required")
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	if pi.ID == "" {
		return nil, errors.New("payment intent id missing")
	}
	return fromStripe(&pi), nil
}

// ToCents converts a decimal dollar amount to integer cents, rounding half
// away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func fromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	if pi == nil {
		return nil
	}
	out := &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Metadata:     pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		out.FailureMessage = pi.LastPaymentError.Msg
	}
	return out
}
