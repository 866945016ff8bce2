package password

import (
	"fmt"
	"unicode"
)

// Policy is the canonical acceptance rule applied before a password is
// ever sent to the identity provider. One policy covers sign-up and
// password updates; historically these flows disagreed (6 characters in
// one place, 8 in another) and the stricter rule won.
type Policy struct {
	MinLength     int
	RequireLower  bool
	RequireUpper  bool
	RequireDigit  bool
	RequireSymbol bool
	RejectCommon  bool
}

// DefaultPolicy returns the canonical policy: 8+ characters, all four
// character classes, and not on the common-password blocklist.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:     8,
		RequireLower:  true,
		RequireUpper:  true,
		RequireDigit:  true,
		RequireSymbol: true,
		RejectCommon:  true,
	}
}

// Check returns the list of unmet requirements, empty when the password
// is acceptable. Messages are user-safe and deterministic.
func (p Policy) Check(pw string) []string {
	var issues []string

	if len(pw) < p.MinLength {
		issues = append(issues, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if p.RequireLower && !hasLower {
		issues = append(issues, "must contain a lowercase letter")
	}
	if p.RequireUpper && !hasUpper {
		issues = append(issues, "must contain an uppercase letter")
	}
	if p.RequireDigit && !hasDigit {
		issues = append(issues, "must contain a number")
	}
	if p.RequireSymbol && !hasSymbol {
		issues = append(issues, "must contain a symbol")
	}
	if p.RejectCommon && IsCommon(pw) {
		issues = append(issues, "is too common")
	}

	return issues
}
