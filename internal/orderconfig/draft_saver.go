package orderconfig

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

const draftSaveTimeout = 10 * time.Second

type draftWriter interface {
	Upsert(ctx context.Context, userID uuid.UUID, snapshot []byte) error
}

// DraftSaver writes draft snapshots on a trailing-edge debounce per user.
// Saves run detached from the request; failures are logged and published on
// Errors, never returned to the caller that scheduled them.
type DraftSaver struct {
	store draftWriter
	delay time.Duration
	logg  *logger.Logger

	mu        sync.Mutex
	timers    map[uuid.UUID]*time.Timer
	baselines map[uuid.UUID][]byte
	errs      chan error
	closed    bool
	wg        sync.WaitGroup
}

func NewDraftSaver(store draftWriter, delay time.Duration, logg *logger.Logger) (*DraftSaver, error) {
	if store == nil {
		return nil, fmt.Errorf("draft store required")
	}
	if delay <= 0 {
		return nil, fmt.Errorf("draft debounce must be positive")
	}
	return &DraftSaver{
		store:     store,
		delay:     delay,
		logg:      logg,
		timers:    map[uuid.UUID]*time.Timer{},
		baselines: map[uuid.UUID][]byte{},
		errs:      make(chan error, 16),
	}, nil
}

// Errors reports failed saves. The channel is buffered and drops on overflow.
func (d *DraftSaver) Errors() <-chan error {
	return d.errs
}

// Prime records snapshot as already persisted so an identical follow-up is
// not written back.
func (d *DraftSaver) Prime(userID uuid.UUID, snapshot []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.baselines[userID] = bytes.Clone(snapshot)
}

// Schedule restarts the user's debounce timer with the latest snapshot.
func (d *DraftSaver) Schedule(userID uuid.UUID, snapshot []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	if t, ok := d.timers[userID]; ok {
		t.Stop()
		delete(d.timers, userID)
	}
	if base, ok := d.baselines[userID]; ok && bytes.Equal(base, snapshot) {
		return
	}

	snap := bytes.Clone(snapshot)
	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timers[userID] != timer {
			d.mu.Unlock()
			return
		}
		delete(d.timers, userID)
		d.wg.Add(1)
		d.mu.Unlock()

		defer d.wg.Done()
		d.save(userID, snap)
	})
	d.timers[userID] = timer
}

// Pending reports whether a save is waiting on its timer for userID.
func (d *DraftSaver) Pending(userID uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[userID]
	return ok
}

// Close cancels pending timers and waits for in-flight saves.
func (d *DraftSaver) Close() {
	d.mu.Lock()
	d.closed = true
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *DraftSaver) save(userID uuid.UUID, snapshot []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), draftSaveTimeout)
	defer cancel()

	if err := d.store.Upsert(ctx, userID, snapshot); err != nil {
		err = fmt.Errorf("save draft for user %s: %w", userID, err)
		if d.logg != nil {
			d.logg.Error(d.logg.WithUserID(ctx, userID.String()), "draft save failed", err)
		}
		select {
		case d.errs <- err:
		default:
		}
		return
	}

	d.mu.Lock()
	d.baselines[userID] = snapshot
	d.mu.Unlock()
}
