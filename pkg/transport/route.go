package transport

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrUnsupportedScheme is returned for URIs a sender cannot handle
var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

// Route identifies the target of an HTTP connection
type Route struct {
	Scheme string
	Host   string
	Port   int
	Secure bool
}

// ParseRoute derives a route from an http or https URL. A missing port is
// replaced by the scheme default.
func ParseRoute(rawURL string) (Route, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Route{}, fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	return RouteForURL(u)
}

// RouteForURL derives a route from a parsed URL
func RouteForURL(u *url.URL) (Route, error) {
	scheme := strings.ToLower(u.Scheme)
	var defaultPort int
	switch scheme {
	case "http":
		defaultPort = 80
	case "https":
		defaultPort = 443
	default:
		return Route{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Route{}, fmt.Errorf("URL %q has no host", u.String())
	}

	port := defaultPort
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return Route{}, fmt.Errorf("URL %q has invalid port %q", u.String(), p)
		}
		port = n
	}

	return Route{
		Scheme: scheme,
		Host:   host,
		Port:   port,
		Secure: scheme == "https",
	}, nil
}

// Key returns host:port, the identity used for per-route limits
func (r Route) Key() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

func (r Route) String() string {
	return r.Scheme + "://" + r.Key()
}
