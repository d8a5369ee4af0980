// Package patch turns raw patch text into host language sources: the
// lexer tokenizes the patch, the rewriter emits a parseable rule class,
// and the separator splits the rewritten source into the deletions and
// additions views.
package patch

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Severity grades a diagnostic.
type Severity int

const (
	SeverityWarn Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityWarn {
		return "warn"
	}
	return "error"
}

// Problem is one structured diagnostic raised while processing a patch.
type Problem struct {
	Severity Severity
	Message  string
	Line     int
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: line %d: %s", p.Severity, p.Line, p.Message)
}

// ProblemSink collects diagnostics. Warnings are logged and kept;
// errors are kept and make HasErrors true.
type ProblemSink struct {
	log      zerolog.Logger
	problems []Problem
}

// NewProblemSink creates a sink logging through the given logger.
func NewProblemSink(log zerolog.Logger) *ProblemSink {
	return &ProblemSink{log: log}
}

// Warnf records a warning.
func (s *ProblemSink) Warnf(line int, format string, args ...any) {
	p := Problem{Severity: SeverityWarn, Message: fmt.Sprintf(format, args...), Line: line}
	s.problems = append(s.problems, p)
	s.log.Warn().Int("line", line).Msg(p.Message)
}

// Errorf records an error.
func (s *ProblemSink) Errorf(line int, format string, args ...any) {
	p := Problem{Severity: SeverityError, Message: fmt.Sprintf(format, args...), Line: line}
	s.problems = append(s.problems, p)
	s.log.Error().Int("line", line).Msg(p.Message)
}

// Problems returns every collected diagnostic in order.
func (s *ProblemSink) Problems() []Problem {
	return append([]Problem{}, s.problems...)
}

// HasErrors reports whether any error-severity problem was collected.
func (s *ProblemSink) HasErrors() bool {
	for _, p := range s.problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}
