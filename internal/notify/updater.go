package notify

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// View applies visual state to a notification's control.
type View interface {
	ApplyRead(ctx context.Context, id string, a Appearance) error
}

// Binder installs one click listener per notification control on a live
// page. Each listener suppresses the default navigation and reports the
// control's notification id to handler.
type Binder interface {
	BindControls(ctx context.Context, handler func(id string)) (stop func() error, err error)
}

// Updater drives the Unread -> Read transition for notifications.
type Updater struct {
	marker Marker
	view   View
	logger *zap.Logger
	dedup  bool

	mu       sync.Mutex
	inFlight map[string]int
	states   map[string]State
	wg       sync.WaitGroup
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithDedupInFlight drops a trigger while a request for the same id is
// still pending. Off by default: rapid triggers each send their own request.
func WithDedupInFlight(enabled bool) UpdaterOption {
	return func(u *Updater) { u.dedup = enabled }
}

// WithUpdaterLogger sets the diagnostic logger.
func WithUpdaterLogger(logger *zap.Logger) UpdaterOption {
	return func(u *Updater) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUpdater creates an updater. view may be nil when there is nothing to
// redraw.
func NewUpdater(marker Marker, view View, opts ...UpdaterOption) *Updater {
	u := &Updater{
		marker:   marker,
		view:     view,
		logger:   zap.NewNop(),
		inFlight: make(map[string]int),
		states:   make(map[string]State),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// State returns the last confirmed state of a notification.
func (u *Updater) State(id string) State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.states[id]
}

// InFlight returns the number of requests awaiting a response for id.
func (u *Updater) InFlight(id string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inFlight[id]
}

// Trigger handles one user action. It blocks until the server answers and
// only then touches the view.
func (u *Updater) Trigger(ctx context.Context, id string) Result {
	id = strings.TrimSpace(id)
	if id == "" {
		u.logger.Error("notification control has no id")
		return faulted(id, "", 0, ErrMissingID)
	}

	if !u.begin(id) {
		u.logger.Debug("mark-read already pending, trigger dropped", zap.String("notification", id))
		return faulted(id, "", 0, ErrInFlight)
	}
	res := u.marker.MarkRead(ctx, id)
	u.end(id)

	log := u.logger.With(zap.String("notification", id), zap.String("request_id", res.RequestID))
	if !res.OK() {
		log.Error("mark-read failed", zap.Int("status", res.Status), zap.Error(res.Err))
		return res
	}

	u.mu.Lock()
	already := u.states[id] == Read
	u.states[id] = Read
	u.mu.Unlock()
	if already {
		log.Debug("notification was already read")
	}

	if u.view != nil {
		if err := u.view.ApplyRead(ctx, id, ReadAppearance); err != nil {
			log.Warn("notification read but view not updated", zap.Error(err))
		}
	}
	log.Info("notification marked read", zap.Int("status", res.Status))
	return res
}

func (u *Updater) begin(id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.dedup && u.inFlight[id] > 0 {
		return false
	}
	u.inFlight[id]++
	return true
}

func (u *Updater) end(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inFlight[id]--
	if u.inFlight[id] <= 0 {
		delete(u.inFlight, id)
	}
}

// Install binds every notification control on a live page. Each click runs
// Trigger on its own goroutine, so a second click before the first response
// sends a second request unless dedup is enabled.
func (u *Updater) Install(ctx context.Context, b Binder) (stop func() error, err error) {
	return b.BindControls(ctx, func(id string) {
		u.wg.Add(1)
		go func() {
			defer u.wg.Done()
			u.Trigger(ctx, id)
		}()
	})
}

// Wait blocks until every trigger dispatched by Install has finished.
func (u *Updater) Wait() {
	u.wg.Wait()
}
