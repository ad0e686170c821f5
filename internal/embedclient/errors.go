// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package embedclient

import (
	"errors"
	"fmt"

	"github.com/northbound/knowledgehive/internal/domain"
)

// Retriable reports whether err represents a transient transport failure
// the retry loop should back off and try again for. Malformed responses and
// input validation errors are never retried.
func Retriable(err error) bool {
	return errors.Is(err, domain.ErrNetwork) ||
		errors.Is(err, domain.ErrServiceUnavailable) ||
		errors.Is(err, domain.ErrRateLimitExceeded)
}

func networkErr(cause error) error {
	return fmt.Errorf("%w: %v", domain.ErrNetwork, cause)
}

func apiErr(status int, body string) error {
	return fmt.Errorf("%w: status %d: %s", domain.ErrAPI, status, body)
}

func rateLimitErr(cause error) error {
	return fmt.Errorf("%w: %v", domain.ErrRateLimitExceeded, cause)
}

func serviceUnavailableErr(cause error) error {
	return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, cause)
}

func invalidInputErr(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}
