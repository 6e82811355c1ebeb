package rest

import "github.com/searchgate/searchgate/internal/api_server/versioning"

// Dispatch outcomes reported to an Observer.
const (
	OutcomeHandled          = "handled"
	OutcomeBadRequest       = "bad_request"
	OutcomeNoHandler        = "no_handler"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeOptions          = "options"
	OutcomeCors             = "cors"
	OutcomeFailed           = "failed"
	// OutcomeRateLimited is reported by the HTTP server for requests turned
	// away before they reach the controller.
	OutcomeRateLimited = "rate_limited"
)

// Recovery kinds reported to an Observer.
const (
	RecoveryHeader     = "header"
	RecoveryParameters = "parameters"
	RecoveryChannel    = "channel"
)

// Observer receives dispatch events, typically to export metrics.
type Observer interface {
	RequestDispatched(outcome string, version versioning.Version)
	RequestRecovered(kind string)
	ResponseSent(status int)
}

type noopObserver struct{}

func (noopObserver) RequestDispatched(string, versioning.Version) {}
func (noopObserver) RequestRecovered(string)                      {}
func (noopObserver) ResponseSent(int)                             {}
