package news

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindSourceUnavailable ErrorKind = iota + 1
	KindParseFailure
	KindTranslationFailure
	KindCacheCorruption
	KindDateAmbiguity
)

var (
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrParseFailure       = errors.New("parse failure")
	ErrTranslationFailure = errors.New("translation failure")
	ErrCacheCorruption    = errors.New("cache corruption")
	ErrDateAmbiguity      = errors.New("date ambiguity")
)

func (k ErrorKind) String() string {
	switch k {
	case KindSourceUnavailable:
		return "source_unavailable"
	case KindParseFailure:
		return "parse_failure"
	case KindTranslationFailure:
		return "translation_failure"
	case KindCacheCorruption:
		return "cache_corruption"
	case KindDateAmbiguity:
		return "date_ambiguity"
	}
	return "unknown"
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindSourceUnavailable:
		return ErrSourceUnavailable
	case KindParseFailure:
		return ErrParseFailure
	case KindTranslationFailure:
		return ErrTranslationFailure
	case KindCacheCorruption:
		return ErrCacheCorruption
	case KindDateAmbiguity:
		return ErrDateAmbiguity
	}
	return nil
}

// StageError is a recovered failure of one pipeline stage. None of them abort a run.
type StageError struct {
	Kind    ErrorKind
	Stage   string
	Subject string // source URL, CSV row, cache path...
	Err     error
}

func NewStageError(kind ErrorKind, stage, subject string, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Subject: subject, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (%s)", e.Stage, e.Kind, e.Subject)
	}
	return fmt.Sprintf("%s: %s (%s): %v", e.Stage, e.Kind, e.Subject, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause, so errors.Is matches either.
func (e *StageError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Report collects the stage errors of a run.
type Report struct {
	Errors []*StageError
}

func (r *Report) Add(err *StageError) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, err)
}

func (r *Report) Record(kind ErrorKind, stage, subject string, err error) {
	r.Add(NewStageError(kind, stage, subject, err))
}

func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
}

func (r *Report) Count(kind ErrorKind) int {
	n := 0
	for _, e := range r.Errors {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Report) Len() int {
	return len(r.Errors)
}

// Summary returns the number of errors per kind name.
func (r *Report) Summary() map[string]int {
	out := make(map[string]int)
	for _, e := range r.Errors {
		out[e.Kind.String()]++
	}
	return out
}
