package dashd

import (
	"bufio"
	"context"
	"net"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// to allow testing
var controlListen = func(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// ControlServer accepts newline-delimited text commands on a local
// listener and applies them to the aggregator. It is fire-and-forget: no
// replies are sent, bad lines are logged and skipped, and the connection
// stays open. Intended for diagnostic tools and the `dashd send` command.
type ControlServer struct {
	agg *Aggregator
	ln  net.Listener
}

func NewControlServer(agg *Aggregator, addr string) (*ControlServer, error) {
	ln, err := controlListen(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to listen on %s", addr)
	}
	log.WithField("addr", ln.Addr().String()).Info("control channel listening")
	return &ControlServer{agg: agg, ln: ln}, nil
}

// Addr returns the bound listener address.
func (s *ControlServer) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *ControlServer) Close() error {
	return s.ln.Close()
}

// Serve accepts connections until the listener closes or the context is
// cancelled.
func (s *ControlServer) Serve(ctx context.Context) error {
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			if err := s.ln.Close(); err != nil {
				log.WithField("err", err).Warn("unable to close control listener after context")
			}
		case <-stopped:
		}
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "control accept")
		}
		go s.handleConn(conn)
	}
}

func (s *ControlServer) handleConn(conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			log.WithField("err", err).Debug("control connection close")
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		s.handleLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.WithField("err", err).Debug("control connection read")
	}
}

// handleLine applies one `command argument` line. Unknown commands and
// malformed arguments only reject that line.
func (s *ControlServer) handleLine(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	if len(fields) != 2 {
		log.WithField("line", line).Warn("control: malformed command")
		return
	}

	command, argument := fields[0], fields[1]
	switch command {
	case "set_mode":
		mode, err := ParseDriveMode(argument)
		if err != nil {
			log.WithField("err", err).Warn("control: rejected command")
			return
		}
		s.agg.SetDriveMode(mode)
		log.WithField("mode", mode.String()).Info("drive mode changed")
	case "set_scheme":
		scheme, err := ParseColorScheme(argument)
		if err != nil {
			log.WithField("err", err).Warn("control: rejected command")
			return
		}
		s.agg.SetColorScheme(scheme)
		log.WithField("scheme", scheme.String()).Info("color scheme changed")
	default:
		log.WithField("command", command).Warn("control: unknown command")
	}
}

func runControl(ctx context.Context, agg *Aggregator, addr string) error {
	srv, err := NewControlServer(agg, addr)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
