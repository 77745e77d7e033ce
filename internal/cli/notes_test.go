package cli

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril/pkg/effects/fetch"
)

func TestUpdateText(t *testing.T) {
	actions := NewNotesActions("http://localhost/save")

	next, effects := actions.UpdateText(NewNotes(), "hello")

	assert.Equal(t, "hello", next.Text)
	assert.Equal(t, "idle", next.Status)
	assert.Empty(t, effects)
}

func TestSubmit_ReturnsSaveEffect(t *testing.T) {
	actions := NewNotesActions("http://localhost/save")
	state := Notes{Text: "hi", Status: "idle", Items: []string{}}

	next, effects := actions.Submit(state, "1234")

	assert.Equal(t, "", next.Text)
	assert.Equal(t, "saving", next.Status)
	assert.Empty(t, next.Items)

	require.Len(t, effects, 1)
	cfg, ok := effects[0].Data.(fetch.Config[Notes])
	require.True(t, ok)
	assert.Equal(t, "http://localhost/save", cfg.URL)
	assert.Equal(t, http.MethodPost, cfg.Method)
}

func TestSubmit_EmptyTextIsNoop(t *testing.T) {
	actions := NewNotesActions("http://localhost/save")

	next, effects := actions.Submit(NewNotes(), nil)

	assert.Equal(t, "idle", next.Status)
	assert.Empty(t, effects)
}

func TestSaved_AppendsItemOnSuccess(t *testing.T) {
	actions := NewNotesActions("http://localhost/save")
	state := Notes{Status: "saving", Pending: "hi", Items: []string{}}

	next, _ := actions.Saved(state, fetch.Result{Status: 200})

	assert.Equal(t, "idle", next.Status)
	assert.Equal(t, []string{"hi"}, next.Items)
	assert.Empty(t, next.Pending)
}

func TestSaved_RestoresTextOnFailure(t *testing.T) {
	actions := NewNotesActions("http://localhost/save")
	state := Notes{Status: "saving", Pending: "hi", Items: []string{}}

	next, _ := actions.Saved(state, fetch.Result{Err: "connection refused"})

	assert.Equal(t, "error", next.Status)
	assert.Equal(t, "hi", next.Text)
	assert.Empty(t, next.Items)
}

func TestNewNotesApp_SubmitRoundTrip(t *testing.T) {
	saved := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		saved <- r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.SaveURL = srv.URL

	app, reg, closeStore, err := NewNotesApp(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer closeStore()
	defer app.Close()

	require.NoError(t, reg.Dispatch(app.Dispatcher(), "update-text", "hello"))
	require.NoError(t, reg.Dispatch(app.Dispatcher(), "submit", nil))

	select {
	case method := <-saved:
		assert.Equal(t, http.MethodPost, method)
	case <-time.After(2 * time.Second):
		t.Fatal("save request never arrived")
	}

	require.Eventually(t, func() bool {
		return app.State().Status == "idle" && len(app.State().Items) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"hello"}, app.State().Items)
}
