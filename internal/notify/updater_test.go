package notify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// gatedMarker blocks every MarkRead until release is closed.
type gatedMarker struct {
	release chan struct{}
	status  int

	mu    sync.Mutex
	calls []string
}

func newGatedMarker(status int) *gatedMarker {
	return &gatedMarker{release: make(chan struct{}), status: status}
}

func (m *gatedMarker) MarkRead(ctx context.Context, id string) Result {
	m.mu.Lock()
	m.calls = append(m.calls, id)
	m.mu.Unlock()
	select {
	case <-m.release:
	case <-ctx.Done():
		return faulted(id, "", 0, ctx.Err())
	}
	if m.status >= 200 && m.status < 300 {
		return succeeded(id, "req", m.status)
	}
	return faulted(id, "req", m.status, &StatusError{Code: m.status})
}

func (m *gatedMarker) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type recordingView struct {
	mu      sync.Mutex
	applied map[string]Appearance
	err     error
}

func (v *recordingView) ApplyRead(_ context.Context, id string, a Appearance) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.applied == nil {
		v.applied = map[string]Appearance{}
	}
	v.applied[id] = a
	return v.err
}

func (v *recordingView) get(id string) (Appearance, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	a, ok := v.applied[id]
	return a, ok
}

func released(status int) *gatedMarker {
	m := newGatedMarker(status)
	close(m.release)
	return m
}

func TestTrigger_SuccessAppliesReadAppearance(t *testing.T) {
	view := &recordingView{}
	u := NewUpdater(released(http.StatusOK), view, WithUpdaterLogger(zaptest.NewLogger(t)))

	res := u.Trigger(context.Background(), "42")

	require.True(t, res.OK())
	assert.Equal(t, Read, u.State("42"))
	a, ok := view.get("42")
	require.True(t, ok)
	assert.Equal(t, ReadAppearance, a)
	assert.Equal(t, Appearance{Opacity: "0.5", Label: "Read", RemoveClass: "btn-outline-primary", AddClass: "btn-outline-secondary", Disable: true}, a)
}

func TestTrigger_FailureLeavesViewUntouched(t *testing.T) {
	view := &recordingView{}
	u := NewUpdater(released(http.StatusInternalServerError), view, WithUpdaterLogger(zaptest.NewLogger(t)))

	res := u.Trigger(context.Background(), "42")

	assert.Equal(t, Fault, res.Outcome)
	assert.Equal(t, Unread, u.State("42"))
	_, ok := view.get("42")
	assert.False(t, ok)
}

func TestTrigger_NoVisualChangeBeforeResponse(t *testing.T) {
	m := newGatedMarker(http.StatusOK)
	view := &recordingView{}
	u := NewUpdater(m, view)

	done := make(chan Result, 1)
	go func() { done <- u.Trigger(context.Background(), "42") }()

	require.Eventually(t, func() bool { return u.InFlight("42") == 1 }, time.Second, 5*time.Millisecond)
	_, applied := view.get("42")
	assert.False(t, applied, "view changed while request pending")
	assert.Equal(t, Unread, u.State("42"))

	close(m.release)
	res := <-done
	assert.True(t, res.OK())
	_, applied = view.get("42")
	assert.True(t, applied)
	assert.Zero(t, u.InFlight("42"))
}

func TestTrigger_RapidTriggersSendTwoRequests(t *testing.T) {
	m := newGatedMarker(http.StatusOK)
	u := NewUpdater(m, &recordingView{})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.Trigger(context.Background(), "42")
		}()
	}
	require.Eventually(t, func() bool { return m.callCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, u.InFlight("42"))
	close(m.release)
	wg.Wait()
	assert.Equal(t, Read, u.State("42"))
}

func TestTrigger_DedupDropsSecondTrigger(t *testing.T) {
	m := newGatedMarker(http.StatusOK)
	u := NewUpdater(m, &recordingView{}, WithDedupInFlight(true))

	done := make(chan Result, 1)
	go func() { done <- u.Trigger(context.Background(), "42") }()
	require.Eventually(t, func() bool { return u.InFlight("42") == 1 }, time.Second, 5*time.Millisecond)

	second := u.Trigger(context.Background(), "42")
	assert.ErrorIs(t, second.Err, ErrInFlight)

	close(m.release)
	assert.True(t, (<-done).OK())
	assert.Equal(t, 1, m.callCount())

	third := u.Trigger(context.Background(), "42")
	assert.True(t, third.OK(), "a finished request no longer blocks new triggers")
}

func TestTrigger_EmptyID(t *testing.T) {
	m := released(http.StatusOK)
	u := NewUpdater(m, nil)
	res := u.Trigger(context.Background(), "")
	assert.ErrorIs(t, res.Err, ErrMissingID)
	assert.Zero(t, m.callCount())
}

func TestTrigger_ViewErrorKeepsSuccess(t *testing.T) {
	view := &recordingView{err: errors.New("control gone")}
	u := NewUpdater(released(http.StatusOK), view, WithUpdaterLogger(zaptest.NewLogger(t)))

	res := u.Trigger(context.Background(), "42")
	assert.True(t, res.OK())
	assert.Equal(t, Read, u.State("42"))
}

func TestTrigger_AlreadyReadStillSendsRequest(t *testing.T) {
	m := released(http.StatusOK)
	u := NewUpdater(m, nil)

	require.True(t, u.Trigger(context.Background(), "42").OK())
	require.True(t, u.Trigger(context.Background(), "42").OK())
	assert.Equal(t, 2, m.callCount())
}

type fakeBinder struct {
	ids     []string
	stopped bool
}

func (b *fakeBinder) BindControls(_ context.Context, handler func(string)) (func() error, error) {
	for _, id := range b.ids {
		handler(id)
	}
	return func() error { b.stopped = true; return nil }, nil
}

func TestInstall_DispatchesEachClick(t *testing.T) {
	m := released(http.StatusOK)
	view := &recordingView{}
	u := NewUpdater(m, view)
	b := &fakeBinder{ids: []string{"42", "43", "42"}}

	stop, err := u.Install(context.Background(), b)
	require.NoError(t, err)
	u.Wait()

	assert.Equal(t, 3, m.callCount())
	assert.Equal(t, Read, u.State("42"))
	assert.Equal(t, Read, u.State("43"))
	require.NoError(t, stop())
	assert.True(t, b.stopped)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unread", Unread.String())
	assert.Equal(t, "read", Read.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "fault", Fault.String())
}
