package mt5bridge

import (
	"context"
	"net"
)

func dial(ctx context.Context, network, address string) (net.Conn, error) {
	if network == "pipe" {
		return dialPipe(ctx, address)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", address)
}
