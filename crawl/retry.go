package crawl

import (
	"net/http"

	"github.com/fwojciec/locmirror"
)

// DefaultRetryLimit is the number of retryable failures after which a
// Target is given up on.
const DefaultRetryLimit = 20

// classifyAttempt maps the raw result of one request to an outcome.
// Timeouts, connection resets, and HTTP 504 are retryable; any other
// transport error or HTTP status of 400 or above is fatal.
func classifyAttempt(resp *locmirror.Response, err error) (locmirror.Outcome, error) {
	if err != nil {
		switch locmirror.ErrorCode(err) {
		case locmirror.ETIMEOUT, locmirror.ECONNRESET:
			return locmirror.OutcomeRetryable, err
		default:
			return locmirror.OutcomeFatal, err
		}
	}

	if resp.StatusCode >= 400 {
		switch resp.StatusCode {
		case http.StatusGatewayTimeout:
			return locmirror.OutcomeRetryable, locmirror.Errorf(locmirror.ETIMEOUT, "HTTP %d", resp.StatusCode)
		case http.StatusNotFound, http.StatusGone:
			return locmirror.OutcomeFatal, locmirror.Errorf(locmirror.ENOTFOUND, "HTTP %d", resp.StatusCode)
		default:
			return locmirror.OutcomeFatal, locmirror.Errorf(locmirror.EINTERNAL, "HTTP %d", resp.StatusCode)
		}
	}

	return locmirror.OutcomeSuccess, nil
}
