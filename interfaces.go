package dashd

import (
	"context"

	"github.com/jd3nn1s/dashd/esplink"
)

// SerialLink is the opened serial connection to the sensor node.
type SerialLink interface {
	Close() error
	Start(context.Context, esplink.Callbacks) error
	Stats() esplink.Stats
}

// NotificationSource yields complete wireless notification payloads. BLE
// discovery, session setup and delimiting are the transport's problem;
// each callback invocation carries exactly one payload.
type NotificationSource interface {
	Close() error
	Start(ctx context.Context, payload func([]byte)) error
}

// NotificationSourceFactory opens a NotificationSource, called again on
// every reconnect.
type NotificationSourceFactory func() (NotificationSource, error)
