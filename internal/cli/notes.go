package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/effects/fetch"
	"github.com/aretw0/tendril/pkg/registry"
)

// Notes is the state of the demo notes app served by the tendril
// command: a text input, a status flag and the list of saved items.
type Notes struct {
	Text    string   `json:"text"`
	Status  string   `json:"status"`
	Items   []string `json:"items"`
	Pending string   `json:"pending,omitempty"`
}

// NewNotes returns the initial demo state.
func NewNotes() Notes {
	return Notes{Status: "idle", Items: []string{}}
}

// NotesActions bundles the demo actions. Submit posts the current text
// to the save endpoint, so the action set is built around a URL.
type NotesActions struct {
	saveURL string
}

// NewNotesActions creates the action set for the given save endpoint.
func NewNotesActions(saveURL string) *NotesActions {
	return &NotesActions{saveURL: saveURL}
}

// UpdateText replaces the text input with the payload.
func (na *NotesActions) UpdateText(state Notes, payload any) (Notes, []domain.Effect[Notes]) {
	text, _ := payload.(string)
	state.Text = text
	return state, nil
}

// Submit clears the input, marks the state as saving and returns one
// effect that posts the text to the save endpoint. Submitting empty
// text is a no-op.
func (na *NotesActions) Submit(state Notes, payload any) (Notes, []domain.Effect[Notes]) {
	if state.Text == "" {
		return state, nil
	}
	text := state.Text
	state.Pending = text
	state.Text = ""
	state.Status = "saving"
	return state, []domain.Effect[Notes]{
		fetch.Post(na.saveURL, []byte(text), na.Saved),
	}
}

// Saved settles a pending save. On success the pending text joins the
// items; on failure the status flips to error and the text returns to
// the input so nothing is lost.
func (na *NotesActions) Saved(state Notes, payload any) (Notes, []domain.Effect[Notes]) {
	result, ok := payload.(fetch.Result)
	if !ok || result.Err != "" || result.Status >= 300 {
		state.Text = state.Pending
		state.Pending = ""
		state.Status = "error"
		return state, nil
	}
	state.Items = append(state.Items, state.Pending)
	state.Pending = ""
	state.Status = "idle"
	return state, nil
}

// Clear resets the demo state.
func (na *NotesActions) Clear(state Notes, payload any) (Notes, []domain.Effect[Notes]) {
	return NewNotes(), nil
}

// Register exposes the actions by name for HTTP and MCP hosts.
func (na *NotesActions) Register(r *registry.Registry[Notes]) {
	r.Register("update-text", na.UpdateText)
	r.Register("submit", na.Submit)
	r.Register("clear", na.Clear)
}

// NewNotesApp assembles the demo app from config: store, actions and
// registry. Extra options let the host attach a renderer or hooks. The
// caller owns the returned app and the store close function.
func NewNotesApp(cfg Config, logger *slog.Logger, extra ...tendril.Option[Notes]) (*tendril.App[Notes], *registry.Registry[Notes], func() error, error) {
	store, closeStore, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	actions := NewNotesActions(cfg.SaveURL)
	reg := registry.New[Notes]()
	actions.Register(reg)

	opts := []tendril.Option[Notes]{
		tendril.WithName[Notes](cfg.Name),
		tendril.WithLogger[Notes](logger),
		tendril.WithSnapshotStore[Notes](store, "notes"),
		tendril.WithRestore[Notes](),
	}
	opts = append(opts, extra...)

	app, err := tendril.New(NewNotes(), opts...)
	if err != nil {
		closeStore()
		return nil, nil, nil, err
	}
	return app, reg, closeStore, nil
}
