//go:build windows

package player

import (
	"context"
	"net"
	"time"

	"gopkg.in/natefinch/npipe.v2"
)

func dial(ctx context.Context, socketPath string) (net.Conn, error) {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	conn, err := npipe.DialTimeout(socketPath, timeout)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
