package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

var ErrUnknownScheme = errors.New("unknown proxy scheme")

// ProxyAddress is an opaque host:port string. It is not validated up front,
// malformed values surface as probe failures.
type ProxyAddress string

func (address ProxyAddress) String() string {
	return string(address)
}

// Host returns the host part of the address, or the whole address when it
// has no port.
func (address ProxyAddress) Host() string {
	host, _, err := net.SplitHostPort(string(address))
	if err != nil {
		return string(address)
	}
	return host
}

type ProxyScheme uint8

const (
	SchemeHTTP ProxyScheme = iota
	SchemeSocks4
	SchemeSocks5
)

var schemeNames = map[ProxyScheme]string{
	SchemeHTTP:   "http",
	SchemeSocks4: "socks4",
	SchemeSocks5: "socks5",
}

func ParseScheme(name string) (ProxyScheme, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for scheme, schemeName := range schemeNames {
		if schemeName == normalized {
			return scheme, nil
		}
	}
	return SchemeHTTP, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

func (scheme ProxyScheme) String() string {
	if name, ok := schemeNames[scheme]; ok {
		return name
	}
	return fmt.Sprintf("scheme(%d)", uint8(scheme))
}

// ProxyURL combines the scheme with an address into the connection string
// handed to the transport, e.g. socks5://1.2.3.4:1080.
func (scheme ProxyScheme) ProxyURL(address ProxyAddress) *url.URL {
	return &url.URL{
		Scheme: scheme.String(),
		Host:   address.String(),
	}
}

// SchemeNames lists the accepted scheme names in a stable order.
func SchemeNames() []string {
	return []string{
		schemeNames[SchemeHTTP],
		schemeNames[SchemeSocks4],
		schemeNames[SchemeSocks5],
	}
}

// RunConfiguration is fixed for the duration of a run.
type RunConfiguration struct {
	TargetURL     string
	Scheme        ProxyScheme
	Timeout       time.Duration
	MaxConcurrent int

	// StartRate caps how many probes may start per second. Zero means unlimited.
	StartRate float64
}
