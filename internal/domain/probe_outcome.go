package domain

import "time"

type FailureReason uint8

const (
	ReasonNone FailureReason = iota
	ReasonInvalidAddress
	ReasonTransport
	ReasonTimeout
	ReasonStatus
	ReasonCanceled
)

func (reason FailureReason) String() string {
	switch reason {
	case ReasonNone:
		return "none"
	case ReasonInvalidAddress:
		return "invalid_address"
	case ReasonTransport:
		return "transport"
	case ReasonTimeout:
		return "timeout"
	case ReasonStatus:
		return "status"
	case ReasonCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ProbeOutcome is the terminal result of one probe. Exactly one of the two
// shapes is populated: OK with a Latency, or !OK with a Reason.
type ProbeOutcome struct {
	Address ProxyAddress
	OK      bool
	Latency time.Duration
	Reason  FailureReason
	Err     error
}

func Success(address ProxyAddress, latency time.Duration) ProbeOutcome {
	if latency < 0 {
		latency = 0
	}
	return ProbeOutcome{Address: address, OK: true, Latency: latency}
}

func Failure(address ProxyAddress, reason FailureReason, err error) ProbeOutcome {
	return ProbeOutcome{Address: address, Reason: reason, Err: err}
}

func (outcome ProbeOutcome) LatencyMs() int64 {
	return outcome.Latency.Milliseconds()
}
