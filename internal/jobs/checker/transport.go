package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"h12.io/socks"

	"proxycheck/internal/domain"
)

var errEmptyAddress = errors.New("empty proxy address")

// TransportFactory builds the round tripper used to reach the target through
// one proxy.
type TransportFactory func(address domain.ProxyAddress, scheme domain.ProxyScheme, timeout time.Duration) (http.RoundTripper, error)

func defaultTransportFactory(address domain.ProxyAddress, scheme domain.ProxyScheme, timeout time.Duration) (http.RoundTripper, error) {
	return CreateTransport(address, scheme, timeout)
}

// CreateTransport returns a single-use transport that routes every request
// through address using scheme. Keep-alives are disabled so nothing outlives
// the probe.
func CreateTransport(address domain.ProxyAddress, scheme domain.ProxyScheme, timeout time.Duration) (*http.Transport, error) {
	if strings.TrimSpace(address.String()) == "" {
		return nil, errEmptyAddress
	}
	if _, _, err := net.SplitHostPort(address.String()); err != nil {
		return nil, fmt.Errorf("invalid proxy address %q: %w", address, err)
	}

	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: -1,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		DisableKeepAlives:     true,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   0,
		IdleConnTimeout:       0,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	switch scheme {
	case domain.SchemeHTTP:
		transport.Proxy = http.ProxyURL(scheme.ProxyURL(address))

	case domain.SchemeSocks5:
		socksDialer, err := proxy.SOCKS5("tcp", address.String(), nil, dialer)
		if err != nil {
			return nil, err
		}
		if contextDialer, ok := socksDialer.(proxy.ContextDialer); ok {
			transport.DialContext = contextDialer.DialContext
		} else {
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialWithContext(ctx, func() (net.Conn, error) {
					return socksDialer.Dial(network, addr)
				})
			}
		}

	case domain.SchemeSocks4:
		proxyURI := scheme.ProxyURL(address).String() + "?timeout=" + timeout.String()
		socksDial := socks.Dial(proxyURI)
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialWithContext(ctx, func() (net.Conn, error) {
				return socksDial(network, addr)
			})
		}

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownScheme, scheme)
	}

	return transport, nil
}

// dialWithContext runs a dial that has no context support and gives up when
// ctx ends. A connection that arrives late is closed.
func dialWithContext(ctx context.Context, dial func() (net.Conn, error)) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}

	done := make(chan dialResult, 1)
	go func() {
		conn, err := dial()
		done <- dialResult{conn: conn, err: err}
	}()

	select {
	case result := <-done:
		return result.conn, result.err
	case <-ctx.Done():
		go func() {
			if result := <-done; result.conn != nil {
				_ = result.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
