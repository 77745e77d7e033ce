// Package mqtt provides a broker-topic subscription backed by the
// Eclipse Paho client. Each declared descriptor owns one client
// connection; stopping the subscription unsubscribes and disconnects.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/tendril/pkg/domain"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// Message is the payload dispatched for each received publication.
type Message struct {
	Topic   string `json:"topic"`
	Payload []byte `json:"payload"`
}

// Config describes one broker-topic subscription.
type Config[S any] struct {
	Broker   string // e.g. "tcp://localhost:1883"
	ClientID string
	Topic    string
	QOS      byte

	// Action is dispatched with a Message per publication.
	Action domain.Action[S]

	// OnError, if set, is dispatched with the error text when the
	// connection or topic subscription fails. Without it the failure
	// is only logged.
	OnError domain.Action[S]

	// NewClient overrides paho.NewClient; tests inject one returning a
	// fake client.
	NewClient func(*paho.ClientOptions) paho.Client
}

// Subscribe declares the subscription for a Config.
func Subscribe[S any](cfg Config[S]) domain.Subscription[S] {
	return domain.Subscription[S]{Runner: run[S], Data: cfg}
}

func run[S any](ctx context.Context, dispatch domain.Dispatch[S], data any) (domain.StopFunc, error) {
	cfg := data.(Config[S])
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: empty broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt: empty topic")
	}
	if cfg.Action == nil {
		return nil, errors.New("mqtt: nil action")
	}
	newClient := cfg.NewClient
	if newClient == nil {
		newClient = paho.NewClient
	}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	client := newClient(opts)

	// Broker I/O happens off the reconciliation path.
	go func() {
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			fail(ctx, dispatch, cfg, fmt.Errorf("connect: %w", token.Error()))
			return
		}
		handler := func(_ paho.Client, msg paho.Message) {
			if ctx.Err() != nil {
				return
			}
			_ = dispatch(cfg.Action, Message{Topic: msg.Topic(), Payload: msg.Payload()})
		}
		if token := client.Subscribe(cfg.Topic, cfg.QOS, handler); token.Wait() && token.Error() != nil {
			fail(ctx, dispatch, cfg, fmt.Errorf("subscribe %s: %w", cfg.Topic, token.Error()))
			return
		}

		<-ctx.Done()
		_ = client.Unsubscribe(cfg.Topic)
		client.Disconnect(250)
	}()

	return nil, nil
}

func fail[S any](ctx context.Context, dispatch domain.Dispatch[S], cfg Config[S], err error) {
	if ctx.Err() != nil {
		return
	}
	if cfg.OnError != nil {
		_ = dispatch(cfg.OnError, err.Error())
		return
	}
	slog.Warn("mqtt subscription failed", "broker", cfg.Broker, "topic", cfg.Topic, "error", err)
}
