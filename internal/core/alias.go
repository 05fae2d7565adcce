package core

import (
	"regexp"
	"strings"
)

// aliasPattern is the alphabet a connected-agent alias must match.
var aliasPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// agentNamePattern is the identifier alphabet the remote service accepts
// for agent names.
var agentNamePattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// NormalizeAlias maps an arbitrary reference string to the restricted
// alias alphabet accepted inside connected-agent tool entries.
//
// Rules:
//   - leading and trailing whitespace is trimmed first
//   - every run of characters outside [A-Za-z0-9_] collapses to one '_'
//   - a leading digit gets a '_' prefix
//   - the empty string normalizes to "_"
//
// The function is pure and total, and idempotent:
// NormalizeAlias(NormalizeAlias(x)) == NormalizeAlias(x) for any x.
func NormalizeAlias(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "_"
	}

	var b strings.Builder
	b.Grow(len(s) + 1)
	substituted := false
	for _, r := range s {
		valid := r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9')
		if valid {
			b.WriteRune(r)
			substituted = false
			continue
		}
		// Adjacent invalid characters collapse to a single underscore.
		if !substituted {
			b.WriteByte('_')
		}
		substituted = true
	}

	out := b.String()
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// ValidAlias reports whether s is already a well-formed alias.
func ValidAlias(s string) bool {
	return aliasPattern.MatchString(s)
}

// ValidateAgentName checks that an effective agent name (after prefix and
// suffix application) fits the remote service's identifier alphabet:
// letters, digits and hyphens only.
func ValidateAgentName(name string) error {
	if !agentNamePattern.MatchString(name) {
		return &ValidationError{
			Agent:  name,
			Reason: "only letters, numbers and hyphens are allowed in agent names",
		}
	}
	return nil
}
