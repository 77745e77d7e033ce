package tendril_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/effects/fetch"
)

type editor struct {
	Text   string   `json:"text"`
	Status string   `json:"status"`
	Items  []string `json:"items"`
}

func updateText(state editor, payload any) (editor, []domain.Effect[editor]) {
	text, _ := payload.(string)
	state.Text = text
	return state, nil
}

const saveEndpoint = "http://localhost:9999/save"

func noteSaved(state editor, _ any) (editor, []domain.Effect[editor]) {
	state.Status = "idle"
	return state, nil
}

func submit(state editor, _ any) (editor, []domain.Effect[editor]) {
	body := []byte(state.Text)
	state.Text = ""
	state.Status = "saving"
	return state, []domain.Effect[editor]{
		fetch.Post(saveEndpoint, body, noteSaved),
	}
}

func TestUpdateText_PureTransition(t *testing.T) {
	app, err := tendril.New(editor{Status: "idle"})
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.Dispatch(updateText, "hello"))

	assert.Equal(t, "hello", app.State().Text)
	assert.Equal(t, "idle", app.State().Status)
}

func TestAction_Deterministic(t *testing.T) {
	state := editor{Text: "hi", Status: "idle", Items: []string{}}

	first, _ := submit(state, "1234")
	second, _ := submit(state, "1234")

	assert.Equal(t, first, second)
}

func TestSubmit_DeclaresSaveEffect(t *testing.T) {
	state := editor{Text: "hi", Status: "idle", Items: []string{}}

	next, effects := submit(state, "1234")

	assert.Equal(t, "", next.Text)
	assert.Equal(t, "saving", next.Status)
	assert.Empty(t, next.Items)

	require.Len(t, effects, 1)
	cfg, ok := effects[0].Data.(fetch.Config[editor])
	require.True(t, ok)
	assert.Equal(t, saveEndpoint, cfg.URL)
	assert.Equal(t, http.MethodPost, cfg.Method)
}

// pushSource is a fake push-event resource with an explicit close
// indicator, driven manually by tests.
type pushSource struct {
	events chan map[string]any
	closed atomic.Bool
}

func newPushSource() *pushSource {
	return &pushSource{events: make(chan map[string]any, 4)}
}

func (p *pushSource) emit(event map[string]any) {
	p.events <- event
}

type feed struct {
	Received []map[string]any
}

func record(state feed, payload any) (feed, []domain.Effect[feed]) {
	event, _ := payload.(map[string]any)
	state.Received = append(state.Received, event)
	return state, nil
}

func (p *pushSource) subscription(action domain.Action[feed]) domain.Subscription[feed] {
	runner := func(ctx context.Context, dispatch domain.Dispatch[feed], data any) (domain.StopFunc, error) {
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case event := <-p.events:
					select {
					case <-done:
						return
					default:
					}
					_ = dispatch(action, event)
				}
			}
		}()
		stop := func() {
			close(done)
			p.closed.Store(true)
		}
		return stop, nil
	}
	return domain.Subscription[feed]{Runner: runner, Data: map[string]any{"url": "push://feed", "action": "record"}}
}

func TestPushSource_EmitDispatchesExactlyOnce(t *testing.T) {
	source := newPushSource()
	subscribed := true

	app, err := tendril.New(feed{},
		tendril.WithSubscriptions[feed](func(feed) []domain.Subscription[feed] {
			if !subscribed {
				return nil
			}
			return []domain.Subscription[feed]{source.subscription(record)}
		}),
	)
	require.NoError(t, err)
	defer app.Close()

	source.emit(map[string]any{"data": "x"})

	require.Eventually(t, func() bool {
		return len(app.State().Received) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, map[string]any{"data": "x"}, app.State().Received[0])

	// No duplicate delivery.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, app.State().Received, 1)
}

func TestPushSource_EmitAfterUnsubscribeNeverDispatches(t *testing.T) {
	source := newPushSource()
	subscribed := true

	app, err := tendril.New(feed{},
		tendril.WithSubscriptions[feed](func(feed) []domain.Subscription[feed] {
			if !subscribed {
				return nil
			}
			return []domain.Subscription[feed]{source.subscription(record)}
		}),
	)
	require.NoError(t, err)
	defer app.Close()

	// Any dispatch re-declares subscriptions; with the flag off the
	// runtime reconciles the subscription away.
	subscribed = false
	require.NoError(t, app.Dispatch(func(s feed, _ any) (feed, []domain.Effect[feed]) { return s, nil }, nil))

	require.Eventually(t, source.closed.Load, 2*time.Second, 10*time.Millisecond)

	source.emit(map[string]any{"data": "late"})
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, app.State().Received)
	assert.True(t, source.closed.Load())
}

func TestWithRestore_LoadsSnapshot(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "editor", []byte(`{"text":"restored","status":"idle","items":[]}`)))

	app, err := tendril.New(editor{},
		tendril.WithSnapshotStore[editor](store, "editor"),
		tendril.WithRestore[editor](),
	)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "restored", app.State().Text)
}

func TestClose_StopsEverything(t *testing.T) {
	app, err := tendril.New(editor{})
	require.NoError(t, err)

	require.NoError(t, app.Close())
	require.NoError(t, app.Close())

	err = app.Dispatch(updateText, "after close")
	assert.ErrorIs(t, err, domain.ErrClosed)
}
