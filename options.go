package architext

import (
	"fmt"

	"github.com/fogfish/opts"
)

// ErrorPolicy decides what RenderLatest returns when providers fail to produce.
type ErrorPolicy uint8

const (
	// ErrorPolicyFail returns no messages, only the error.
	ErrorPolicyFail ErrorPolicy = iota
	// ErrorPolicySkipMessage drops every message a failed provider contributes
	// to and returns the rest together with the error.
	ErrorPolicySkipMessage
)

func (p ErrorPolicy) String() string {
	switch p {
	case ErrorPolicyFail:
		return "fail"
	case ErrorPolicySkipMessage:
		return "skip_message"
	default:
		return fmt.Sprintf("error_policy(%d)", uint8(p))
	}
}

// ParseErrorPolicy converts the String form back into an ErrorPolicy.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "", "fail":
		return ErrorPolicyFail, nil
	case "skip_message":
		return ErrorPolicySkipMessage, nil
	}
	return 0, fmt.Errorf("unknown error policy %q", s)
}

// Option configures Messages.
type Option = opts.Option[Messages]

var (
	// WithConcurrency bounds how many providers refresh at the same time. Zero or
	// less means no bound.
	WithConcurrency = opts.ForName[Messages, int]("concurrency")

	// WithErrorPolicy sets how RenderLatest reports failed providers.
	WithErrorPolicy = opts.ForName[Messages, ErrorPolicy]("policy")
)

// WithMergeAdjacent toggles folding an appended message into the last one when
// both have the same role. Tool messages are never folded.
func WithMergeAdjacent(merge bool) Option {
	return opts.Type[Messages](func(m *Messages) error {
		m.noMerge = !merge
		return nil
	})
}
