package sse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// connectHTTP is the default Connect: a GET with Accept:
// text/event-stream, parsed line-by-line per the SSE wire format.
func connectHTTP(ctx context.Context, url string) (Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("sse: unexpected status %d", resp.StatusCode)
	}

	src := &httpSource{
		body:   resp.Body,
		events: make(chan Event, 8),
		done:   make(chan struct{}),
	}
	go src.read()
	return src, nil
}

type httpSource struct {
	body   io.ReadCloser
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *httpSource) Events() <-chan Event { return s.events }

func (s *httpSource) Close() error {
	var err error
	s.once.Do(func() {
		// Closing the body unblocks the read loop, which then closes
		// the events channel; done unblocks a send in flight.
		close(s.done)
		err = s.body.Close()
	})
	return err
}

// read parses the stream: "event:", "data:" and "id:" fields accumulate
// until a blank line emits the event. Comment lines (":") are ignored.
func (s *httpSource) read() {
	defer close(s.events)
	defer s.Close()

	var ev Event
	var data []string
	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 || ev.Name != "" || ev.ID != "" {
				ev.Data = strings.Join(data, "\n")
				select {
				case s.events <- ev:
				case <-s.done:
					return
				}
			}
			ev = Event{}
			data = nil
		case strings.HasPrefix(line, ":"):
			// Comment / keep-alive.
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, "id:"):
			ev.ID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		}
	}
}
