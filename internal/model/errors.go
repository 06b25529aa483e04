package model

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidBaseToken  = errors.New("base token is not in pool")
	ErrInvalidRange      = errors.New("range percent must be finite and within [0, 100)")
	ErrPoolNotFound      = errors.New("pool not found")
	ErrTickFetchFailed   = errors.New("tick fetch failed")
	ErrPriceUnavailable  = errors.New("price unavailable")
	ErrVaultFetchFailed  = errors.New("vault fetch failed")
	ErrUnknownToken      = errors.New("unknown token")
	ErrInconsistentPool  = errors.New("inconsistent pool state")
	ErrTickWindowTooWide = errors.New("tick window too wide")
)

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SourceError is a failure attributed to one upstream collaborator.
type SourceError struct {
	Source string
	Target string
	Err    error
}

func (e SourceError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.Target, e.Err)
}

func (e SourceError) Unwrap() error {
	return e.Err
}

func (e SourceError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Source string `json:"source"`
		Target string `json:"target,omitempty"`
		Error  string `json:"error"`
	}{e.Source, e.Target, msg})
}

func (e *SourceError) UnmarshalJSON(data []byte) error {
	var raw struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Source = raw.Source
	e.Target = raw.Target
	e.Err = nil
	if raw.Error != "" {
		e.Err = errors.New(raw.Error)
	}
	return nil
}
