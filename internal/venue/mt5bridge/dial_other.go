//go:build !windows

package mt5bridge

import (
	"context"
	"net"
)

// Outside Windows a "pipe" is a unix domain socket, which is what the
// bridge uses when the terminal runs under Wine.
func dialPipe(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}
