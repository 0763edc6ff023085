package checker

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"proxycheck/internal/domain"
	jobruntime "proxycheck/internal/jobs/runtime"
)

// Observer receives live run events. Both callbacks are invoked from a single
// goroutine, never concurrently.
type Observer interface {
	OnProgress(completed, total int)
	OnSuccess(address domain.ProxyAddress, latency time.Duration)
}

// ObserverFuncs adapts optional funcs to Observer.
type ObserverFuncs struct {
	Progress func(completed, total int)
	Success  func(address domain.ProxyAddress, latency time.Duration)
}

func (funcs ObserverFuncs) OnProgress(completed, total int) {
	if funcs.Progress != nil {
		funcs.Progress(completed, total)
	}
}

func (funcs ObserverFuncs) OnSuccess(address domain.ProxyAddress, latency time.Duration) {
	if funcs.Success != nil {
		funcs.Success(address, latency)
	}
}

// Report summarizes a finished run.
type Report struct {
	Results        domain.ResultSet
	Total          int
	Completed      int
	Succeeded      int
	Failures       map[domain.FailureReason]int
	AverageLatency time.Duration
	Elapsed        time.Duration
	Interrupted    bool
}

type Dispatcher struct {
	prober    Prober
	admission *Admission
	limiter   *rate.Limiter
	observer  Observer
	logger    *log.Logger
}

type DispatcherOption func(*Dispatcher)

func WithObserver(observer Observer) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		if observer != nil {
			dispatcher.observer = observer
		}
	}
}

func WithLogger(logger *log.Logger) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		if logger != nil {
			dispatcher.logger = logger
		}
	}
}

func NewDispatcher(config domain.RunConfiguration, prober Prober, opts ...DispatcherOption) (*Dispatcher, error) {
	admission, err := NewAdmission(config.MaxConcurrent)
	if err != nil {
		return nil, err
	}

	dispatcher := &Dispatcher{
		prober:    prober,
		admission: admission,
		observer:  ObserverFuncs{},
		logger:    log.Default(),
	}
	if config.StartRate > 0 {
		dispatcher.limiter = rate.NewLimiter(rate.Limit(config.StartRate), 1)
	}

	for _, opt := range opts {
		opt(dispatcher)
	}
	return dispatcher, nil
}

func (dispatcher *Dispatcher) Admission() *Admission {
	return dispatcher.admission
}

// Run probes every address once and blocks until all launched probes have
// reported. Cancelling ctx stops admitting new probes, aborts the ones in
// flight and returns whatever was collected so far.
func (dispatcher *Dispatcher) Run(ctx context.Context, addresses []domain.ProxyAddress) Report {
	timeStart := time.Now()
	total := len(addresses)

	report := Report{
		Total:    total,
		Failures: make(map[domain.FailureReason]int),
	}

	aggregator := jobruntime.NewAggregator(dispatcher.observer.OnSuccess)
	outcomes := make(chan domain.ProbeOutcome, dispatcher.admission.Capacity())
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		for outcome := range outcomes {
			if err := aggregator.Add(outcome); err != nil {
				dispatcher.logger.Error("Dropping proxy outcome", "proxy", outcome.Address, "error", err)
				continue
			}

			report.Completed++
			if outcome.OK {
				report.Succeeded++
			} else {
				report.Failures[outcome.Reason]++
				dispatcher.logger.Debug("Proxy check failed", "proxy", outcome.Address, "reason", outcome.Reason, "error", outcome.Err)
			}

			dispatcher.observer.OnProgress(report.Completed, total)
		}
	}()

	var group errgroup.Group
	for _, address := range addresses {
		if ctx.Err() != nil {
			break
		}
		if dispatcher.limiter != nil {
			if err := dispatcher.limiter.Wait(ctx); err != nil {
				break
			}
		}

		group.Go(func() error {
			release, err := dispatcher.admission.Acquire(ctx)
			if err != nil {
				return nil
			}
			defer release()

			outcomes <- dispatcher.prober.Probe(ctx, address)
			return nil
		})
	}

	_ = group.Wait()
	close(outcomes)
	<-collected

	report.Results = aggregator.Finalize()
	report.AverageLatency = aggregator.AverageLatency()
	report.Elapsed = time.Since(timeStart)
	report.Interrupted = ctx.Err() != nil

	return report
}
