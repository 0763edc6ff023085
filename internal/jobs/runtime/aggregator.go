package runtime

import (
	"errors"
	"sync"
	"time"

	"github.com/VividCortex/ewma"

	"proxycheck/internal/domain"
)

var ErrFinalized = errors.New("aggregator: already finalized")

type State uint8

const (
	Collecting State = iota
	Finalized
)

func (state State) String() string {
	if state == Finalized {
		return "finalized"
	}
	return "collecting"
}

type SuccessFunc func(address domain.ProxyAddress, latency time.Duration)

// Aggregator accumulates the working proxies of one run. It is safe for
// concurrent use; once finalized it rejects further outcomes.
type Aggregator struct {
	mu        sync.Mutex
	state     State
	received  int
	results   domain.ResultSet
	latency   ewma.MovingAverage
	onSuccess SuccessFunc
}

func NewAggregator(onSuccess SuccessFunc) *Aggregator {
	return &Aggregator{
		latency:   ewma.NewMovingAverage(),
		onSuccess: onSuccess,
	}
}

// Add records one outcome. Successes are appended in arrival order and
// reported to the success observer, failures are only counted.
func (aggregator *Aggregator) Add(outcome domain.ProbeOutcome) error {
	aggregator.mu.Lock()
	if aggregator.state == Finalized {
		aggregator.mu.Unlock()
		return ErrFinalized
	}

	aggregator.received++
	if !outcome.OK {
		aggregator.mu.Unlock()
		return nil
	}

	aggregator.results = append(aggregator.results, outcome.Address)
	aggregator.latency.Add(float64(outcome.Latency))
	onSuccess := aggregator.onSuccess
	aggregator.mu.Unlock()

	if onSuccess != nil {
		onSuccess(outcome.Address, outcome.Latency)
	}
	return nil
}

// Finalize closes the aggregator and returns the result set. Repeated calls
// return the same contents.
func (aggregator *Aggregator) Finalize() domain.ResultSet {
	aggregator.mu.Lock()
	defer aggregator.mu.Unlock()

	aggregator.state = Finalized

	results := make(domain.ResultSet, len(aggregator.results))
	copy(results, aggregator.results)
	return results
}

func (aggregator *Aggregator) State() State {
	aggregator.mu.Lock()
	defer aggregator.mu.Unlock()
	return aggregator.state
}

func (aggregator *Aggregator) Received() int {
	aggregator.mu.Lock()
	defer aggregator.mu.Unlock()
	return aggregator.received
}

// AverageLatency is the moving average over successful probes, zero when
// none succeeded.
func (aggregator *Aggregator) AverageLatency() time.Duration {
	aggregator.mu.Lock()
	defer aggregator.mu.Unlock()

	if len(aggregator.results) == 0 {
		return 0
	}
	return time.Duration(aggregator.latency.Value())
}
