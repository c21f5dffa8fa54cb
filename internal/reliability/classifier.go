package reliability

import (
	"context"
	"errors"
	"net"
)

// ErrNoResult marks a collaborator call that completed but found nothing,
// such as a geocode miss.
var ErrNoResult = errors.New("no result")

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// Classify maps a collaborator error to a low-cardinality metrics label.
// Nothing is retried; the label only tells transient failures apart from
// request or configuration problems.
func Classify(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, ErrNoResult) {
		return "no_result"
	}
	var sc httpStatusCoder
	if errors.As(err, &sc) {
		code := sc.HTTPStatusCode()
		switch {
		case code == 429:
			return "http_429"
		case code >= 500:
			return "http_5xx"
		case code >= 400:
			return "http_4xx"
		default:
			// 2xx carrying an application-level failure status.
			return "api_error"
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}
	return "error"
}
