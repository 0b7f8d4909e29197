package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/teeforge-backend/api/middleware"
	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/internal/wizard"
	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

type stubSessions struct {
	states map[string]*orderconfig.State
}

func newStubSessions() *stubSessions {
	return &stubSessions{states: map[string]*orderconfig.State{}}
}

func (s *stubSessions) seed(id string) *orderconfig.State {
	st := orderconfig.NewState(id)
	s.states[id] = st
	return st
}

func (s *stubSessions) Create(ctx context.Context, userID *uuid.UUID) (*orderconfig.State, error) {
	st := s.seed(uuid.NewString())
	st.UserID = userID
	return st, nil
}

func (s *stubSessions) Get(ctx context.Context, id string) (*orderconfig.State, error) {
	st, ok := s.states[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	return st, nil
}

func (s *stubSessions) Mutate(ctx context.Context, id string, fn func(*orderconfig.State) error) (*orderconfig.State, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *stubSessions) Reset(ctx context.Context, id string) (*orderconfig.State, error) {
	return s.Mutate(ctx, id, func(st *orderconfig.State) error {
		st.Reset()
		return nil
	})
}

func (s *stubSessions) Resume(ctx context.Context, id string, userID uuid.UUID) (*orderconfig.State, error) {
	return s.Mutate(ctx, id, func(st *orderconfig.State) error {
		st.UserID = &userID
		return nil
	})
}

type stubGates struct {
	refreshes int
	applies   bool
}

func (g *stubGates) Evaluate(st *orderconfig.State, attached ...enums.PrintLocation) wizard.Progress {
	return wizard.Evaluate(st, g.MinimumQuantity(), attached...)
}

func (g *stubGates) RefreshQuote(ctx context.Context, st *orderconfig.State) error {
	g.refreshes++
	return nil
}

func (g *stubGates) ApplyDiscountCode(ctx context.Context, st *orderconfig.State, code string) (bool, error) {
	if !g.applies {
		return false, nil
	}
	st.SetDiscount(types.AppliedDiscount{Code: code})
	return true, nil
}

func (g *stubGates) MinimumQuantity() int { return 24 }

type stubCatalog struct {
	garments map[uuid.UUID]models.Garment
}

func newStubCatalog(colors ...string) (*stubCatalog, uuid.UUID) {
	id := uuid.New()
	return &stubCatalog{garments: map[uuid.UUID]models.Garment{
		id: {ID: id, Name: "Heavyweight Tee", Colors: pq.StringArray(colors), Sizes: pq.StringArray{"S", "M", "L"}},
	}}, id
}

func (c *stubCatalog) List(ctx context.Context) ([]models.Garment, error) {
	out := make([]models.Garment, 0, len(c.garments))
	for _, g := range c.garments {
		out = append(out, g)
	}
	return out, nil
}

func (c *stubCatalog) Get(ctx context.Context, id uuid.UUID) (*models.Garment, error) {
	g, ok := c.garments[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "garment not found")
	}
	return &g, nil
}

// withSession attaches the session id the way the session middleware does.
func withSession(r *http.Request, id string) *http.Request {
	return r.WithContext(middleware.WithSessionID(r.Context(), id))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return string(envelope.Error.Code)
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}
