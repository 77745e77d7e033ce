package fetch_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/effects/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type model struct {
	Items  []any
	Status string
	Err    string
}

type recorder struct {
	mu    sync.Mutex
	state model
	done  chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 4)} }

func (r *recorder) dispatch(action domain.Action[model], payload any) error {
	r.mu.Lock()
	r.state, _ = action(r.state, payload)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T) model {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch dispatch")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func gotItems(s model, payload any) (model, []domain.Effect[model]) {
	res := payload.(fetch.Result)
	if res.Err != "" {
		s.Err = res.Err
		s.Status = "error"
		return s, nil
	}
	if items, ok := res.Data.([]any); ok {
		s.Items = items
	}
	s.Status = "loaded"
	return s, nil
}

func TestGet_ParsesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["a","b"]`))
	}))
	defer srv.Close()

	rec := newRecorder()
	eff := fetch.Get(srv.URL, gotItems)
	require.NoError(t, eff.Runner(rec.dispatch, eff.Data))

	state := rec.wait(t)
	assert.Equal(t, "loaded", state.Status)
	assert.Equal(t, []any{"a", "b"}, state.Items)
}

func TestRequest_PlucksPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"items":["x"]}}`))
	}))
	defer srv.Close()

	rec := newRecorder()
	eff := fetch.Request(fetch.Config[model]{
		URL:    srv.URL,
		Path:   "result.items",
		Action: gotItems,
	})
	require.NoError(t, eff.Runner(rec.dispatch, eff.Data))

	state := rec.wait(t)
	assert.Equal(t, []any{"x"}, state.Items)
}

func TestPost_SendsBody(t *testing.T) {
	var gotBody string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(b)
		gotBody, gotMethod = string(b), r.Method
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rec := newRecorder()
	eff := fetch.Post(srv.URL, []byte(`{"text":"hi"}`), gotItems)
	require.NoError(t, eff.Runner(rec.dispatch, eff.Data))
	rec.wait(t)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, `{"text":"hi"}`, gotBody)
}

func TestRequest_NetworkErrorBecomesPayload(t *testing.T) {
	rec := newRecorder()
	eff := fetch.Get("http://127.0.0.1:1/unreachable", gotItems)
	require.NoError(t, eff.Runner(rec.dispatch, eff.Data), "network failures must not surface to the dispatcher")

	state := rec.wait(t)
	assert.Equal(t, "error", state.Status)
	assert.NotEmpty(t, state.Err)
}

func TestRequest_Validation(t *testing.T) {
	rec := newRecorder()

	eff := fetch.Get("", gotItems)
	assert.Error(t, eff.Runner(rec.dispatch, eff.Data), "empty url is a programming error")

	eff = fetch.Get[model]("http://example.com", nil)
	assert.Error(t, eff.Runner(rec.dispatch, eff.Data), "nil action is a programming error")
}
