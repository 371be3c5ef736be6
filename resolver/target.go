// Package resolver turns dial destinations into concrete addresses. The
// connection manager re-resolves between redial attempts so a backend set
// that changed during backoff is picked up without restarting the client.
package resolver

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Target is a parsed dial destination.
type Target struct {
	// Network is "tcp" or "unix".
	Network string
	// Addr is host:port for tcp, the socket path for unix.
	Addr string
}

// HostPort builds a tcp target.
func HostPort(host string, port int) Target {
	return Target{Network: "tcp", Addr: net.JoinHostPort(host, strconv.Itoa(port))}
}

// Unix builds a unix-domain-socket target.
func Unix(path string) Target {
	return Target{Network: "unix", Addr: path}
}

// Parse accepts "host:port" and "unix://path" forms.
func Parse(s string) (Target, error) {
	if path, ok := strings.CutPrefix(s, "unix://"); ok {
		if path == "" {
			return Target{}, fmt.Errorf("resolver: empty unix socket path in %q", s)
		}
		return Unix(path), nil
	}

	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return Target{}, fmt.Errorf("resolver: invalid target %q: %w", s, err)
	}
	if port == "" {
		return Target{}, fmt.Errorf("resolver: missing port in %q", s)
	}
	return Target{Network: "tcp", Addr: net.JoinHostPort(host, port)}, nil
}

func (t Target) String() string {
	if t.Network == "unix" {
		return "unix://" + t.Addr
	}
	return t.Addr
}
