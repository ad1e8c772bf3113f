package sanctions

import (
	"errors"
	"fmt"
)

// Kind classifies a failed API call into the closed taxonomy used across
// the screening flow. Every error returned by the client carries exactly
// one kind.
type Kind string

const (
	KindInvalidRequest     Kind = "invalid_request"
	KindInvalidCredential  Kind = "invalid_credential"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindRateLimited        Kind = "rate_limited"
	KindUpstreamFailure    Kind = "upstream_failure"
	KindNetworkUnreachable Kind = "network_unreachable"
	KindUnknownFailure     Kind = "unknown_failure"
)

// APIError is the error type returned for every failed upstream call.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("sanctions api: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("sanctions api: %s: %s", e.Kind, e.Message)
}

// KindOf extracts the taxonomy kind from err. Errors that did not originate
// from the client report KindUnknownFailure.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknownFailure
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsRetryable reports whether a request that failed with err is worth
// reissuing. Only rate limiting and network-level failures qualify.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindNetworkUnreachable:
		return true
	}
	return false
}

func kindForStatus(status int) Kind {
	switch status {
	case 400:
		return KindInvalidRequest
	case 401:
		return KindInvalidCredential
	case 403:
		return KindForbidden
	case 404:
		return KindNotFound
	case 429:
		return KindRateLimited
	case 500:
		return KindUpstreamFailure
	default:
		return KindUnknownFailure
	}
}
