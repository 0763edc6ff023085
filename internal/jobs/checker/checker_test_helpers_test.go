package checker

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"proxycheck/internal/domain"
)

// stubRoute describes how the stub network answers for one proxy address.
type stubRoute struct {
	latency time.Duration
	status  int
	hang    bool
	err     error
}

// stubNetwork is a deterministic transport keyed by proxy address.
type stubNetwork struct {
	routes map[domain.ProxyAddress]stubRoute
}

func (network stubNetwork) factory(address domain.ProxyAddress, _ domain.ProxyScheme, _ time.Duration) (http.RoundTripper, error) {
	route, ok := network.routes[address]
	if !ok {
		route = stubRoute{err: errors.New("connection refused")}
	}
	return stubRoundTripper{route: route}, nil
}

type stubRoundTripper struct {
	route stubRoute
}

func (rt stubRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if rt.route.hang {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}
	if rt.route.err != nil {
		return nil, rt.route.err
	}

	select {
	case <-time.After(rt.route.latency):
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}

	status := rt.route.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(`{"origin":"203.0.113.5"}`)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// countingProber tracks how many probes run at the same time.
type countingProber struct {
	delay    time.Duration
	fail     map[domain.ProxyAddress]bool
	active   atomic.Int64
	peak     atomic.Int64
	mu       sync.Mutex
	observed []domain.ProxyAddress
}

func (prober *countingProber) Probe(ctx context.Context, address domain.ProxyAddress) domain.ProbeOutcome {
	current := prober.active.Add(1)
	defer prober.active.Add(-1)
	for {
		peak := prober.peak.Load()
		if current <= peak || prober.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	prober.mu.Lock()
	prober.observed = append(prober.observed, address)
	prober.mu.Unlock()

	select {
	case <-time.After(prober.delay):
	case <-ctx.Done():
		return domain.Failure(address, domain.ReasonCanceled, ctx.Err())
	}

	if prober.fail[address] {
		return domain.Failure(address, domain.ReasonTransport, errors.New("stub failure"))
	}
	return domain.Success(address, prober.delay)
}

type recordingObserver struct {
	mu        sync.Mutex
	progress  []int
	totals    []int
	successes []domain.ProxyAddress
}

func (observer *recordingObserver) OnProgress(completed, total int) {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	observer.progress = append(observer.progress, completed)
	observer.totals = append(observer.totals, total)
}

func (observer *recordingObserver) OnSuccess(address domain.ProxyAddress, _ time.Duration) {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	observer.successes = append(observer.successes, address)
}

func runConfig(maxConcurrent int, timeout time.Duration) domain.RunConfiguration {
	return domain.RunConfiguration{
		TargetURL:     "http://target.invalid/ip",
		Scheme:        domain.SchemeHTTP,
		Timeout:       timeout,
		MaxConcurrent: maxConcurrent,
	}
}

// newTargetServer answers like the judge endpoint with the given status.
func newTargetServer(t *testing.T, status int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"origin":"203.0.113.5"}`)
	}))
	t.Cleanup(server.Close)
	return server
}

// newForwardProxy is a minimal HTTP forward proxy for absolute-form requests.
func newForwardProxy(t *testing.T, delay time.Duration) domain.ProxyAddress {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		outbound := r.Clone(r.Context())
		outbound.RequestURI = ""
		resp, err := http.DefaultTransport.RoundTrip(outbound)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	}))
	t.Cleanup(server.Close)

	return domain.ProxyAddress(strings.TrimPrefix(server.URL, "http://"))
}

// closedAddress returns a loopback address nothing listens on.
func closedAddress(t *testing.T) domain.ProxyAddress {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	address := listener.Addr().String()
	_ = listener.Close()
	return domain.ProxyAddress(address)
}
