// Package devserver provides the pieces of the development server: port
// selection with fallback, the hot-reload websocket hub and the source
// watcher that drives it.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"syscall"
)

// ErrPortInUse is returned when the configured port is taken and strict
// port mode forbids falling back to another one.
var ErrPortInUse = errors.New("port already in use")

// ListenConfig describes where to bind.
type ListenConfig struct {
	Host string
	Port int

	// StrictPort disables falling back to the next port when Port is busy.
	StrictPort bool

	// MaxAttempts bounds how many consecutive ports are tried. Values below
	// one are treated as one.
	MaxAttempts int

	Logger *slog.Logger
}

// Listen binds a TCP listener on Host:Port. When the port is occupied and
// StrictPort is false it tries Port+1, Port+2, ... and returns the first
// listener it obtains. Port 0 lets the kernel choose.
func Listen(ctx context.Context, cfg ListenConfig) (net.Listener, error) {
	var lc net.ListenConfig

	attempts := cfg.MaxAttempts
	if attempts < 1 || cfg.StrictPort || cfg.Port == 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		port := cfg.Port + i
		if port > 65535 {
			break
		}

		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err == nil {
			if i > 0 && cfg.Logger != nil {
				cfg.Logger.Warn("port in use, using alternate port",
					"requested", cfg.Port,
					"port", port,
				)
			}
			return ln, nil
		}

		if !isAddrInUse(err) {
			return nil, fmt.Errorf("listen on %s: %w", addr, err)
		}
		lastErr = err

		if cfg.StrictPort {
			return nil, fmt.Errorf("%w: %s: %w", ErrPortInUse, addr, err)
		}
	}

	return nil, fmt.Errorf("%w: no free port in %d..%d: %w",
		ErrPortInUse, cfg.Port, min(cfg.Port+attempts-1, 65535), lastErr)
}

// Port returns the TCP port ln is bound to.
func Port(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
