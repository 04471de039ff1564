package broker

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
)

// subscriberBuffer is how many undelivered messages a subscriber may hold.
const subscriberBuffer = 16

var tracer = otel.Tracer("broker")

// ErrClosed is returned when publishing or subscribing on a closed broker.
var ErrClosed = errors.New("broker closed")

// Broker fans published messages out to every subscriber of a channel.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns a channel of messages and a function that ends the
	// subscription. The message channel is closed when the subscription ends,
	// when ctx is done, or when the broker drops a subscriber that falls behind.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
	Close() error
}
