package dashd

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startControlServer(t *testing.T) (*Aggregator, net.Addr, func()) {
	t.Helper()
	agg := NewAggregator()
	srv, err := NewControlServer(agg, "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		_ = srv.Serve(ctx)
		wg.Done()
	}()

	return agg, srv.Addr(), func() {
		cancel()
		wg.Wait()
	}
}

func sendCommands(t *testing.T, addr net.Addr, lines ...string) {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()
	for _, line := range lines {
		_, err = fmt.Fprintf(conn, "%s\n", line)
		require.NoError(t, err)
	}
}

func TestControlSetModeAndScheme(t *testing.T) {
	agg, addr, stop := startControlServer(t)
	defer stop()

	sendCommands(t, addr, "set_mode Track", "set_scheme Light")

	assert.Eventually(t, func() bool {
		snap := agg.Snapshot(time.Now())
		return snap.DriveMode == ModeTrack && snap.ColorScheme == SchemeLight
	}, time.Second, 5*time.Millisecond)
}

func TestControlRejectsBadArgument(t *testing.T) {
	agg, addr, stop := startControlServer(t)
	defer stop()

	// the bad command must not crash the listener nor change state;
	// the following valid command proves the connection survived
	sendCommands(t, addr, "set_mode Sideways", "set_scheme Light")

	assert.Eventually(t, func() bool {
		return agg.Snapshot(time.Now()).ColorScheme == SchemeLight
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, ModeRoad, agg.Snapshot(time.Now()).DriveMode)
}

func TestControlIgnoresUnknownCommandsAndNoise(t *testing.T) {
	agg, addr, stop := startControlServer(t)
	defer stop()

	sendCommands(t, addr,
		"",
		"reboot",
		"set_mode",
		"set_mode Track trailing",
		"set_mode Track",
	)

	assert.Eventually(t, func() bool {
		return agg.Snapshot(time.Now()).DriveMode == ModeTrack
	}, time.Second, 5*time.Millisecond)
}

func TestControlConcurrentConnections(t *testing.T) {
	agg, addr, stop := startControlServer(t)
	defer stop()

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sendCommands(t, addr, "set_mode Track")
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		return agg.Snapshot(time.Now()).DriveMode == ModeTrack
	}, time.Second, 5*time.Millisecond)
}

func TestControlHandleLineDirect(t *testing.T) {
	agg := NewAggregator()
	srv := &ControlServer{agg: agg}

	srv.handleLine("set_scheme Dark")
	srv.handleLine("set_mode Track")
	srv.handleLine("set_mode Road")

	snap := agg.Snapshot(time.Now())
	assert.Equal(t, ModeRoad, snap.DriveMode)
	assert.Equal(t, SchemeDark, snap.ColorScheme)
}
