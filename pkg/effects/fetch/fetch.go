// Package fetch provides the one-shot HTTP request effect. The request
// runs on its own goroutine; the configured action is dispatched with a
// Result once the response (or failure) is in. Network failures never
// surface to the dispatcher: they arrive as Result.Err, to be folded
// into the state like any other payload.
package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/tidwall/gjson"
)

// Config describes one HTTP request effect.
type Config[S any] struct {
	URL    string
	Method string // Defaults to GET.
	Body   []byte
	Header http.Header

	// Path optionally plucks a value out of a JSON response body
	// (gjson syntax, e.g. "items.#.id") before dispatch.
	Path string

	// Action is dispatched with the Result.
	Action domain.Action[S]

	// Client overrides http.DefaultClient. Tests inject one backed by
	// a stub transport.
	Client *http.Client
}

// Result is the payload the action receives.
type Result struct {
	Status int    `json:"status"`
	Data   any    `json:"data,omitempty"` // Parsed JSON body (or plucked value).
	Body   []byte `json:"-"`              // Raw body, for non-JSON responses.
	Err    string `json:"err,omitempty"`
}

// Request declares the effect for a full Config.
func Request[S any](cfg Config[S]) domain.Effect[S] {
	return domain.Effect[S]{Runner: run[S], Data: cfg}
}

// Get declares a GET effect.
func Get[S any](url string, action domain.Action[S]) domain.Effect[S] {
	return Request(Config[S]{URL: url, Action: action})
}

// Post declares a POST effect with a JSON body.
func Post[S any](url string, body []byte, action domain.Action[S]) domain.Effect[S] {
	return Request(Config[S]{URL: url, Method: http.MethodPost, Body: body, Action: action})
}

func run[S any](dispatch domain.Dispatch[S], data any) error {
	cfg := data.(Config[S])
	if cfg.URL == "" {
		return errors.New("fetch: empty url")
	}
	if cfg.Action == nil {
		return errors.New("fetch: nil action")
	}

	go func() {
		_ = dispatch(cfg.Action, resolve(cfg))
	}()
	return nil
}

func resolve[S any](cfg Config[S]) Result {
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}

	var body io.Reader
	if cfg.Body != nil {
		body = bytes.NewReader(cfg.Body)
	}
	req, err := http.NewRequest(method, cfg.URL, body)
	if err != nil {
		return Result{Err: err.Error()}
	}
	for k, vs := range cfg.Header {
		req.Header[k] = vs
	}
	if cfg.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Err: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: resp.StatusCode, Err: err.Error()}
	}

	result := Result{Status: resp.StatusCode, Body: raw}
	switch {
	case cfg.Path != "":
		result.Data = gjson.GetBytes(raw, cfg.Path).Value()
	case strings.Contains(resp.Header.Get("Content-Type"), "json"):
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			result.Err = err.Error()
		} else {
			result.Data = parsed
		}
	}
	return result
}
