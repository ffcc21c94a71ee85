package net

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
)

// Dial opens the client side of a connection and starts its I/O goroutines.
// The returned session has ID 0; the server assigns ids on its own side.
func Dial(ctx context.Context, addr string, cfg SessionConfig, log *zap.Logger) (*Session, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	sess := NewSession(conn, 0, cfg, log)
	sess.Start()
	return sess, nil
}
