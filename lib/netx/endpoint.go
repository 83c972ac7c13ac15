// Package netx holds small networking helpers shared by the server and the
// client, most notably the endpoint notation parser.
package netx

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Endpoint Parsing
// --------------------------------------------------------------------------

// ParseEndpoint splits an endpoint string into the network and address
// arguments expected by net.Listen and net.Dial.
//
// Supported forms:
//   - "tcp://host:port" -> ("tcp", "host:port")
//   - "unix:///path/to.sock" -> ("unix", "/path/to.sock")
//   - "host:port" (no scheme) -> ("tcp", "host:port")
func ParseEndpoint(endpoint string) (network, address string, err error) {
	scheme, rest, found := strings.Cut(endpoint, "://")
	if !found {
		if endpoint == "" {
			return "", "", fmt.Errorf("empty endpoint")
		}
		return "tcp", endpoint, nil
	}

	switch scheme {
	case "tcp":
		if rest == "" {
			return "", "", fmt.Errorf("missing address in endpoint %q", endpoint)
		}
		return "tcp", rest, nil
	case "unix":
		if rest == "" {
			return "", "", fmt.Errorf("missing socket path in endpoint %q", endpoint)
		}
		return "unix", rest, nil
	default:
		return "", "", fmt.Errorf("unsupported scheme %q in endpoint %q (expected tcp or unix)", scheme, endpoint)
	}
}
