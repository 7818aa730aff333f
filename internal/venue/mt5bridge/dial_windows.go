//go:build windows

package mt5bridge

import (
	"context"
	"net"
	"strings"

	"github.com/Microsoft/go-winio"
)

const pipePrefix = `\\.\pipe\`

func dialPipe(ctx context.Context, name string) (net.Conn, error) {
	if !strings.HasPrefix(name, pipePrefix) {
		name = pipePrefix + name
	}
	return winio.DialPipeContext(ctx, name)
}
