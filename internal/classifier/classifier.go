// Package classifier decides whether message text may be relayed in a
// restricted channel.
package classifier

import (
	"context"
	"strings"
	"unicode"
)

type Verdict int

const (
	Appropriate Verdict = iota
	Inappropriate
)

func (v Verdict) String() string {
	if v == Inappropriate {
		return "inappropriate"
	}
	return "appropriate"
}

// Status tells whether the classifier actually produced a verdict.
type Status int

const (
	StatusOK Status = iota
	StatusTimeout
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimeout:
		return "timeout"
	default:
		return "failed"
	}
}

// Result is the outcome of one classification call. Verdict is meaningful
// only when Status is StatusOK.
type Result struct {
	Verdict Verdict
	Status  Status
	Err     error
}

type Classifier interface {
	Classify(ctx context.Context, text string) Result
}

// DefaultBlocklist feeds the keyword classifier when none is configured.
var DefaultBlocklist = []string{
	"connard", "connasse", "enculé", "salope", "salaud", "pute",
	"batard", "bâtard", "pd", "négro", "bougnoule", "youpin",
}

// KeywordClassifier flags text containing any blocklisted word.
type KeywordClassifier struct {
	words map[string]struct{}
}

func NewKeywordClassifier(blocklist []string) *KeywordClassifier {
	if len(blocklist) == 0 {
		blocklist = DefaultBlocklist
	}
	words := make(map[string]struct{}, len(blocklist))
	for _, w := range blocklist {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words[w] = struct{}{}
		}
	}
	return &KeywordClassifier{words: words}
}

func (c *KeywordClassifier) Classify(ctx context.Context, text string) Result {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if _, bad := c.words[tok]; bad {
			return Result{Verdict: Inappropriate, Status: StatusOK}
		}
	}
	return Result{Verdict: Appropriate, Status: StatusOK}
}
