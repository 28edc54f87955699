package wibeee

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPayload = errors.New("malformed status payload")
	ErrMalformedTag     = errors.New("malformed status tag")
)

// ConfigError aborts platform setup. It is returned for invalid settings and
// when the first fetch against the device fails.
type ConfigError struct {
	Host string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("wibeee setup for host %q failed: %v", e.Host, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FetchError is returned when the status endpoint could not be read.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("unable to obtain any response from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
