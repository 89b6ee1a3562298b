package common

import (
	"errors"
	"fmt"
)

// Kind classifies why a stage degraded.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfig is the only fatal kind; it stops the process before any stage runs.
	KindConfig
	KindTransport
	KindParse
	KindGraph
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	case KindGraph:
		return "graph"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// StageError is returned next to a degraded-but-usable result.
type StageError struct {
	Stage string
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Wrap tags err with a stage and kind. A nil err stays nil.
func Wrap(stage string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// KindOf reports the kind of the outermost StageError in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return KindUnknown, false
}

// IsKind is shorthand for KindOf(err) == kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
