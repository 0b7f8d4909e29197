package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/metrics"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

type outcome string

const (
	outcomePublished    outcome = "published"
	outcomeRetry        outcome = "retry"
	outcomeDeadLettered outcome = "dead_lettered"
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	Stop()
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type publisherFactory func(topic string) publisher

type ServiceParams struct {
	Config           config.OutboxConfig
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	DLQRepository    dlqRepository
	Registry         registryResolver
	Metrics          *metrics.OutboxMetrics
	PublisherFactory publisherFactory
}

// Service drains outbox_events to Pub/Sub. Each batch is claimed inside one
// transaction so concurrent publishers skip rows another instance holds.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	pubsub       pubSubClient
	repo         outboxRepository
	dlq          dlqRepository
	registry     registryResolver
	metrics      *metrics.OutboxMetrics
	newPublisher publisherFactory
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration

	mu         sync.Mutex
	publishers map[string]publisher
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) publisher {
			p := params.PubSub.Publisher(topic)
			if p == nil {
				return nil
			}
			return &gcpPublisher{p: p}
		}
	}

	cfg := params.Config
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	poll := time.Duration(cfg.PollIntervalMS) * time.Millisecond
	if poll <= 0 {
		poll = defaultPollInterval
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		pubsub:       params.PubSub,
		repo:         params.Repository,
		dlq:          params.DLQRepository,
		registry:     params.Registry,
		metrics:      params.Metrics,
		newPublisher: factory,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: poll,
		publishers:   map[string]publisher{},
	}, nil
}

// Run polls until ctx is canceled. Empty batches wait one poll interval;
// failed batches back off exponentially up to maxBackoff.
func (s *Service) Run(ctx context.Context) error {
	defer s.stopPublishers()

	for name, ping := range map[string]func(context.Context) error{
		"database": s.db.Ping,
		"pubsub":   s.pubsub.Ping,
	} {
		if err := ping(ctx); err != nil {
			s.logg.Error(ctx, name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}

	wait := s.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		processed, err := s.processBatch(ctx)
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox batch failed", err)
			wait = min(wait*2, maxBackoff)
		case processed > 0:
			wait = s.pollInterval
			continue
		default:
			wait = s.pollInterval
		}
		if err := sleep(ctx, wait+jitter()); err != nil {
			return err
		}
	}
}

// processBatch publishes one claimed batch and returns how many rows it saw.
func (s *Service) processBatch(ctx context.Context) (int, error) {
	count := 0
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		count = len(events)
		for _, event := range events {
			result, err := s.handle(ctx, tx, event)
			if err != nil {
				return err
			}
			s.metrics.Inc(string(event.EventType), string(result))
		}
		return nil
	})
	return count, err
}

// handle publishes a single row and records the result on it. The returned
// error is reserved for bookkeeping failures that must abort the batch.
func (s *Service) handle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (outcome, error) {
	fields := map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"aggregate_id":  event.AggregateID.String(),
		"attempt_count": event.AttemptCount,
	}

	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonUnroutable, err, fields)
	}
	fields["topic"] = resolved.Descriptor.Topic
	fields["event_id"] = resolved.Envelope.EventID

	pubErr := s.publish(ctx, event, resolved)
	if pubErr == nil {
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return "", fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.logg.Debug(s.logg.WithFields(ctx, fields), "outbox event published")
		return outcomePublished, nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(pubErr, &nonRetry) {
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, pubErr, fields)
	}
	if event.AttemptCount+1 >= s.maxAttempts {
		terminal := fmt.Errorf("max publish attempts reached: %w", pubErr)
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts, terminal, fields)
	}

	fields["error"] = pubErr.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox publish failed, will retry")
	if err := s.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return "", fmt.Errorf("mark failed %s: %w", event.ID, err)
	}
	return outcomeRetry, nil
}

func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) error {
	fields["error_reason"] = reason
	fields["error"] = cause.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox event moved to dlq")

	if err := s.dlq.InsertTx(tx, event.DeadLetter(reason, cause, time.Now())); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publisherFor(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}

	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"occurred_at":    resolved.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned no result for topic %s", topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

func (s *Service) publisherFor(topic string) publisher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.publishers[topic]; ok {
		return p
	}
	p := s.newPublisher(topic)
	if p != nil {
		s.publishers[topic] = p
	}
	return p
}

func (s *Service) stopPublishers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic, p := range s.publishers {
		p.Stop()
		delete(s.publishers, topic)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func jitter() time.Duration {
	return rand.N(jitterWindow)
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return g.p.Publish(ctx, msg)
}

func (g *gcpPublisher) Stop() { g.p.Stop() }
