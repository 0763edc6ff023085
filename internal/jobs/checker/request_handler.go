package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"proxycheck/internal/domain"
)

const maxResponseBodyLength = 4096

// Prober validates a single proxy. Implementations must not touch shared
// aggregation state, the outcome is handed back to the caller.
type Prober interface {
	Probe(ctx context.Context, address domain.ProxyAddress) domain.ProbeOutcome
}

type HTTPProber struct {
	config       domain.RunConfiguration
	newTransport TransportFactory
}

type ProberOption func(*HTTPProber)

// WithTransportFactory replaces the proxy transport, mostly for tests.
func WithTransportFactory(factory TransportFactory) ProberOption {
	return func(prober *HTTPProber) {
		if factory != nil {
			prober.newTransport = factory
		}
	}
}

func NewHTTPProber(config domain.RunConfiguration, opts ...ProberOption) *HTTPProber {
	prober := &HTTPProber{
		config:       config,
		newTransport: defaultTransportFactory,
	}
	for _, opt := range opts {
		opt(prober)
	}
	return prober
}

// Probe makes one GET request to the target through address. Only a 200
// answer within the timeout counts as success.
func (prober *HTTPProber) Probe(ctx context.Context, address domain.ProxyAddress) domain.ProbeOutcome {
	transport, err := prober.newTransport(address, prober.config.Scheme, prober.config.Timeout)
	if err != nil {
		return domain.Failure(address, domain.ReasonInvalidAddress, err)
	}
	if closer, ok := transport.(interface{ CloseIdleConnections() }); ok {
		defer closer.CloseIdleConnections()
	}

	requestCtx, cancel := context.WithTimeout(ctx, prober.config.Timeout)
	defer cancel()

	client := &http.Client{
		Transport: transport,
		Timeout:   prober.config.Timeout,
	}

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, prober.config.TargetURL, nil)
	if err != nil {
		return domain.Failure(address, domain.ReasonTransport, err)
	}
	req.Header.Set("Connection", "close")

	timeStart := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return domain.Failure(address, classifyError(ctx, err), err)
	}
	responseTime := time.Since(timeStart)
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyLength))

	if resp.StatusCode != http.StatusOK {
		return domain.Failure(address, domain.ReasonStatus, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	return domain.Success(address, responseTime)
}

// classifyError maps a request error to a failure reason. parent is the run
// context, a canceled run wins over whatever the transport reported.
func classifyError(parent context.Context, err error) domain.FailureReason {
	if parent.Err() != nil {
		return domain.ReasonCanceled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ReasonTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ReasonTimeout
	}

	return domain.ReasonTransport
}
