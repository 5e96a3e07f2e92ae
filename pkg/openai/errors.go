package openai

import (
	goerrors "errors"
	"net/http"

	"commentary-ai/pkg/errors"

	"github.com/sashabaranov/go-openai"
)

// mapProviderError classifies provider failures so the retry policy can
// tell rate limits from transient faults from hard errors.
func mapProviderError(operation string, err error) error {
	var apiErr *openai.APIError
	if goerrors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return errors.Wrap(errors.CodeProviderRateLimited, operation+" rate limited", err)
		case apiErr.HTTPStatusCode >= 500:
			return errors.Wrap(errors.CodeProviderTransient, operation+" provider error", err)
		default:
			return errors.Wrap(errors.CodeProviderUnavailable, operation+" failed", err)
		}
	}
	// Network-level failures (timeouts, resets) are worth retrying.
	return errors.Wrap(errors.CodeProviderTransient, operation+" request failed", err)
}
