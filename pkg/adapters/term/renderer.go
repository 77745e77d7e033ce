// Package term renders committed state to a terminal.
//
// The host supplies a projection from state to markdown; each commit is
// rendered with glamour and written to the configured writer. When the
// writer is not a TTY the markdown is emitted as-is, so output stays
// readable when piped to a file.
package term

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWrap = 80

// Renderer writes a markdown projection of the state after every commit.
// It implements ports.Renderer for any state type.
type Renderer[S any] struct {
	project func(S) string
	out     io.Writer

	mu     sync.Mutex
	render func(string) (string, error)
}

// Option configures a Renderer.
type Option func(*options)

type options struct {
	out   io.Writer
	width int
}

// WithOutput redirects rendered output. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithWrap overrides the word-wrap width. By default the width is taken
// from the terminal, falling back to 80 columns.
func WithWrap(width int) Option {
	return func(o *options) { o.width = width }
}

// NewRenderer builds a terminal renderer around a state projection.
func NewRenderer[S any](project func(S) string, opts ...Option) *Renderer[S] {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer[S]{project: project, out: o.out}

	if f, ok := o.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width := o.width
		if width <= 0 {
			if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
				width = w
			} else {
				width = defaultWrap
			}
		}
		gr, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
			glamour.WithColorProfile(termenv.ColorProfile()),
		)
		if err == nil {
			r.render = gr.Render
		}
	}
	if r.render == nil {
		// Not a terminal, or glamour failed to initialize.
		r.render = func(markdown string) (string, error) { return markdown + "\n", nil }
	}
	return r
}

// Render projects the state to markdown and writes it out.
func (r *Renderer[S]) Render(_ context.Context, state S) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out, err := r.render(r.project(state))
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	if _, err := io.WriteString(r.out, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
