// Package normalize rewrites web references (URLs, email addresses and bare
// domains) found in free text into phrases a text-to-speech voice can read
// naturally
package normalize

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// candidatePattern finds every token that might be a web reference. At a given
// position scheme URLs win over email-like tokens, which win over dotted hosts
var candidatePattern = regexp.MustCompile(
	`(?i)(?:https?|ftp)://[^\s<>"'` + "`" + `]+` +
		`|[a-z0-9._%+\-]+@[a-z0-9\-]+(?:\.[a-z0-9\-]+)*` +
		`|\b(?:[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?\.)+[a-z]{2,}(?::\d+)?(?:/[^\s<>"'` + "`" + `]*)?`)

// Ambiguity describes a token that looks like a web reference but could not be
// rewritten safely. The token is left in the output unchanged
type Ambiguity struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// Normalizer rewrites web references into speakable phrases
type Normalizer struct {
	recognizers []recognizer
	platforms   []Platform
	tlds        map[string]bool
	logger      *zap.Logger
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithPlatforms replaces the platform table used to name well-known sites
func WithPlatforms(platforms []Platform) Option {
	return func(n *Normalizer) {
		n.platforms = append([]Platform(nil), platforms...)
	}
}

// WithTLDs replaces the set of top-level domains accepted for hosts written
// without a scheme
func WithTLDs(tlds []string) Option {
	return func(n *Normalizer) {
		n.tlds = make(map[string]bool, len(tlds))
		for _, t := range tlds {
			n.tlds[strings.ToLower(t)] = true
		}
	}
}

// WithLogger sets the logger used to report ambiguous references
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// New creates a Normalizer with the default platform table and TLD set
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		platforms: append([]Platform(nil), DefaultPlatforms...),
		logger:    zap.NewNop(),
	}
	WithTLDs(DefaultTLDs)(n)
	for _, opt := range opts {
		opt(n)
	}
	n.recognizers = []recognizer{
		{kind: KindPlatform, match: n.matchPlatform},
		{kind: KindURL, match: n.matchURL},
		{kind: KindEmail, match: n.matchEmail},
		{kind: KindDomain, match: n.matchDomain},
	}
	return n
}

// Normalize returns text with every recognized web reference rewritten.
// Ambiguous references are left unchanged and logged as warnings
func (n *Normalizer) Normalize(text string) string {
	out, ambiguities := n.Rewrite(text)
	for _, a := range ambiguities {
		n.logger.Warn("left ambiguous reference unchanged",
			zap.String("token", a.Token),
			zap.Int("start", a.Start),
			zap.String("reason", a.Reason))
	}
	return out
}

// Rewrite is Normalize without logging: it returns the rewritten text together
// with the ambiguous references it skipped. Offsets refer to the input text
func (n *Normalizer) Rewrite(text string) (string, []Ambiguity) {
	matches := candidatePattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var (
		b           strings.Builder
		ambiguities []Ambiguity
		last        int
	)
	b.Grow(len(text) + len(text)/4)

	for _, m := range matches {
		start := m[0]
		token := trimCandidate(text[start:m[1]])
		if token == "" {
			continue
		}
		end := start + len(token)

		phrase, reason, ok := n.speak(token)
		if !ok {
			if hasEvidence(token) {
				ambiguities = append(ambiguities, Ambiguity{
					Start:  start,
					End:    end,
					Token:  token,
					Reason: reason,
				})
			}
			continue
		}

		b.WriteString(text[last:start])
		b.WriteString(phrase)
		last = end
	}
	b.WriteString(text[last:])

	return b.String(), ambiguities
}

// speak runs the recognizers in order and returns the first phrase produced
func (n *Normalizer) speak(token string) (string, string, bool) {
	ref, err := parseReference(token)
	if err != nil {
		return "", err.Error(), false
	}
	for _, r := range n.recognizers {
		if phrase, ok := r.match(ref); ok {
			return phrase, "", true
		}
	}
	return "", "no recognizer accepted the reference", false
}

// hasEvidence reports whether a token explicitly claims to be a reference
func hasEvidence(token string) bool {
	return strings.Contains(token, "://") || strings.Contains(token, "@")
}

// trimCandidate drops trailing sentence punctuation and closing brackets that
// have no opening partner inside the token
func trimCandidate(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		switch {
		case strings.IndexByte(".,;:!?'\"", last) >= 0:
			s = s[:len(s)-1]
		case last == ')' && strings.Count(s, "(") < strings.Count(s, ")"):
			s = s[:len(s)-1]
		case last == ']' && strings.Count(s, "[") < strings.Count(s, "]"):
			s = s[:len(s)-1]
		case last == '}' && strings.Count(s, "{") < strings.Count(s, "}"):
			s = s[:len(s)-1]
		default:
			return s
		}
	}
	return s
}
