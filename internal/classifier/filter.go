package classifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FailurePolicy chooses what happens when the classifier gives no verdict.
type FailurePolicy string

const (
	// FailClosed rejects the message with an "unavailable" notice.
	FailClosed FailurePolicy = "closed"
	// FailOpen relays the message unchecked.
	FailOpen FailurePolicy = "open"
	// FailKeywords falls back to the local keyword classifier.
	FailKeywords FailurePolicy = "keywords"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(s); p {
	case FailClosed, FailOpen, FailKeywords:
		return p, nil
	case "":
		return FailClosed, nil
	default:
		return "", fmt.Errorf("unknown moderation failure policy %q", s)
	}
}

type Decision int

const (
	Allow Decision = iota
	Block
	Unavailable
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Block:
		return "block"
	default:
		return "unavailable"
	}
}

// Filter runs the primary classifier and applies the failure policy.
type Filter struct {
	primary  Classifier
	fallback Classifier
	policy   FailurePolicy
	logger   *zap.Logger
}

func NewFilter(primary, fallback Classifier, policy FailurePolicy, logger *zap.Logger) *Filter {
	if policy == "" {
		policy = FailClosed
	}
	return &Filter{
		primary:  primary,
		fallback: fallback,
		policy:   policy,
		logger:   logger,
	}
}

// Check classifies text. The returned Result is the primary classifier's.
func (f *Filter) Check(ctx context.Context, text string) (Decision, Result) {
	result := f.primary.Classify(ctx, text)
	if result.Status == StatusOK {
		if result.Verdict == Inappropriate {
			return Block, result
		}
		return Allow, result
	}

	switch f.policy {
	case FailOpen:
		f.logger.Warn("Moderation unavailable, relaying unchecked", zap.Error(result.Err))
		return Allow, result
	case FailKeywords:
		if f.fallback != nil {
			fb := f.fallback.Classify(ctx, text)
			f.logger.Warn("Moderation unavailable, used keyword fallback",
				zap.Error(result.Err),
				zap.String("verdict", fb.Verdict.String()))
			if fb.Status == StatusOK && fb.Verdict == Inappropriate {
				return Block, result
			}
			if fb.Status == StatusOK {
				return Allow, result
			}
		}
	}

	f.logger.Warn("Moderation unavailable, rejecting message", zap.Error(result.Err))
	return Unavailable, result
}
