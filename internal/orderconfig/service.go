package orderconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

type sessionRepository interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, st *State) error
	Delete(ctx context.Context, sessionID string) error
}

type draftReader interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.OrderDraft, error)
}

type draftScheduler interface {
	Prime(userID uuid.UUID, snapshot []byte)
	Schedule(userID uuid.UUID, snapshot []byte)
}

// Service loads a session, applies one named mutation and writes it back.
type Service struct {
	sessions sessionRepository
	drafts   draftReader
	saver    draftScheduler
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams groups the session service dependencies.
type ServiceParams struct {
	Sessions sessionRepository
	Drafts   draftReader
	Saver    draftScheduler
	Logger   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Sessions == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if params.Drafts == nil {
		return nil, fmt.Errorf("draft repository required")
	}
	if params.Saver == nil {
		return nil, fmt.Errorf("draft saver required")
	}
	return &Service{
		sessions: params.Sessions,
		drafts:   params.Drafts,
		saver:    params.Saver,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

// Create starts a new session, bound to userID when the caller is signed in.
func (s *Service) Create(ctx context.Context, userID *uuid.UUID) (*State, error) {
	st := NewState(uuid.NewString())
	st.UserID = userID
	st.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (*State, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return s.sessions.Load(ctx, sessionID)
}

// Mutate applies fn to the session and persists the result. When fn fails
// nothing is written. Signed-in sessions schedule a debounced draft save.
func (s *Service) Mutate(ctx context.Context, sessionID string, fn func(*State) error) (*State, error) {
	st, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	st.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, err
	}
	s.scheduleDraft(ctx, st)
	return st, nil
}

// Reset clears the session configuration in place.
func (s *Service) Reset(ctx context.Context, sessionID string) (*State, error) {
	return s.Mutate(ctx, sessionID, func(st *State) error {
		st.Reset()
		return nil
	})
}

// Resume loads userID's saved draft into the session and primes the saver so
// the restored state is not immediately written back.
func (s *Service) Resume(ctx context.Context, sessionID string, userID uuid.UUID) (*State, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to resume a draft")
	}
	row, err := s.drafts.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no saved draft")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft")
	}

	st, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := st.Restore(row.Snapshot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore draft")
	}
	st.UserID = &userID
	st.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, err
	}

	snapshot, err := st.Snapshot()
	if err == nil {
		s.saver.Prime(userID, snapshot)
	}
	return st, nil
}

// Discard removes the session entirely.
func (s *Service) Discard(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

func (s *Service) scheduleDraft(ctx context.Context, st *State) {
	if st.UserID == nil {
		return
	}
	snapshot, err := st.Snapshot()
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "encode draft snapshot", err)
		}
		return
	}
	s.saver.Schedule(*st.UserID, snapshot)
}
