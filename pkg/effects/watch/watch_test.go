package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/effects/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type project struct{ Changes []watch.Change }

type recorder struct {
	mu    sync.Mutex
	state project
	done  chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 16)} }

func (r *recorder) dispatch(action domain.Action[project], payload any) error {
	r.mu.Lock()
	r.state, _ = action(r.state, payload)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recorder) changes() []watch.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]watch.Change(nil), r.state.Changes...)
}

func fileChanged(s project, payload any) (project, []domain.Effect[project]) {
	s.Changes = append(s.Changes, payload.(watch.Change))
	return s, nil
}

func TestDir_DispatchesOnWrite(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()

	sub := watch.Dir(dir, fileChanged)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop, err := sub.Runner(ctx, rec.dispatch, sub.Data)
	require.NoError(t, err)
	defer stop()

	path := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no change dispatched")
	}

	changes := rec.changes()
	require.NotEmpty(t, changes)
	assert.Equal(t, path, changes[0].Path)
}

func TestDir_Validation(t *testing.T) {
	rec := newRecorder()
	ctx := context.Background()

	sub := watch.Dir("", fileChanged)
	_, err := sub.Runner(ctx, rec.dispatch, sub.Data)
	assert.Error(t, err)

	sub = watch.Dir[project](t.TempDir(), nil)
	_, err = sub.Runner(ctx, rec.dispatch, sub.Data)
	assert.Error(t, err)

	sub = watch.Dir("/does/not/exist", fileChanged)
	_, err = sub.Runner(ctx, rec.dispatch, sub.Data)
	assert.Error(t, err)
}
