// Package esplink speaks the framed TLV protocol of the ESP32 sensor
// node: checksummed frames of sensor entries sent over a UART at whatever
// cadence the firmware chooses. The decoder assumes nothing about chunk
// boundaries or arrival rate.
package esplink

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

const DefaultBaudRate = 115200

// Callbacks are invoked from the read loop, one frame at a time, in
// stream order.
type Callbacks struct {
	Frame func(Frame)
}

// Port is the subset of the serial port used by the connection.
type Port interface {
	Read(p []byte) (int, error)
	Close() error
}

// to allow testing
var openPort = func(portName string, baudRate int) (Port, error) {
	return serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}

type Connection struct {
	port    Port
	decoder *Decoder
}

func Connect(portName string, baudRate int) (*Connection, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	port, err := openPort(portName, baudRate)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open serial port %s", portName)
	}
	return &Connection{
		port:    port,
		decoder: NewDecoder(),
	}, nil
}

func (c *Connection) Close() error {
	if c.port == nil {
		return nil
	}
	return c.port.Close()
}

// Stats reports decode counters since the connection was opened.
func (c *Connection) Stats() Stats {
	return c.decoder.Stats()
}

// Start reads the port until an error or context cancellation. Corrupt
// frames never end the loop; only transport failures do.
func (c *Connection) Start(ctx context.Context, cb Callbacks) error {
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			if err := c.port.Close(); err != nil {
				log.WithField("err", err).Warn("unable to close serial port after context")
			}
		case <-stopped:
		}
	}()

	buf := make([]byte, 256)
	for {
		n, err := c.port.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "serial read")
		}
		if n == 0 {
			return errors.New("serial port closed")
		}
		for _, frame := range c.decoder.Push(buf[:n]) {
			if cb.Frame != nil {
				cb.Frame(frame)
			}
		}
	}
}
