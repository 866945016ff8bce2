package password

import (
	"strings"
	"unicode"
)

// Tier buckets a score into the five coarse strength levels shown to users.
type Tier uint8

const (
	// TierVeryWeak is score < 20.
	TierVeryWeak Tier = iota
	// TierWeak is score 20–39.
	TierWeak
	// TierFair is score 40–59.
	TierFair
	// TierStrong is score 60–79.
	TierStrong
	// TierVeryStrong is score >= 80.
	TierVeryStrong
)

func (t Tier) String() string {
	switch t {
	case TierVeryWeak:
		return "very-weak"
	case TierWeak:
		return "weak"
	case TierFair:
		return "fair"
	case TierStrong:
		return "strong"
	case TierVeryStrong:
		return "very-strong"
	default:
		return "unknown"
	}
}

// Strength is the result of scoring a password.
type Strength struct {
	Score       int
	Tier        Tier
	Suggestions []string
}

const maxSuggestions = 2

// Keyboard rows checked for lazy finger-walk substrings.
var keyboardRows = []string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"1234567890",
}

// Short dictionary of words that make any password containing them
// substantially weaker. Full credential-stuffing lists live server-side;
// this is a client-side coaching heuristic only.
var weakWords = []string{
	"password", "letmein", "welcome", "admin", "login",
	"dragon", "monkey", "master", "shadow", "qwerty",
	"iloveyou", "sunshine", "princess", "football", "baseball",
}

// Evaluate scores a password on a 0–100 scale. Length saturates at 16
// characters, each present character class adds a fixed contribution, a
// bonus rewards all four classes at 12+ characters, and repeated runs,
// sequential runs, keyboard walks, and dictionary words are penalized.
// The same input always yields the same score and suggestion list.
func Evaluate(pw string) Strength {
	score := lengthScore(len(pw))

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
	for _, present := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if present {
			score += 10
		}
	}

	allClasses := hasLower && hasUpper && hasDigit && hasSymbol
	if allClasses && len(pw) >= 12 {
		score += 10
	}

	lowered := strings.ToLower(pw)
	repeated := hasRepeatedRun(pw)
	sequential := hasAscendingDigitRun(pw) || hasAscendingAlphaRun(lowered)
	walked := hasKeyboardWalk(lowered)
	dictionary := containsWeakWord(lowered)

	if repeated {
		score -= 10
	}
	if sequential {
		score -= 10
	}
	if walked {
		score -= 10
	}
	if dictionary {
		score -= 15
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if pw == "" {
		score = 0
	}

	var suggestions []string
	add := func(s string) {
		if len(suggestions) < maxSuggestions {
			suggestions = append(suggestions, s)
		}
	}
	// Fixed priority order keeps output deterministic.
	if len(pw) < 12 {
		add("Use at least 12 characters")
	}
	if !hasLower {
		add("Add lowercase letters")
	}
	if !hasUpper {
		add("Add uppercase letters")
	}
	if !hasDigit {
		add("Add numbers")
	}
	if !hasSymbol {
		add("Add symbols")
	}
	if repeated || sequential || walked {
		add("Avoid repeated or sequential characters")
	}
	if dictionary {
		add("Avoid common words and patterns")
	}

	return Strength{
		Score:       score,
		Tier:        tierFor(score),
		Suggestions: suggestions,
	}
}

func tierFor(score int) Tier {
	switch {
	case score >= 80:
		return TierVeryStrong
	case score >= 60:
		return TierStrong
	case score >= 40:
		return TierFair
	case score >= 20:
		return TierWeak
	default:
		return TierVeryWeak
	}
}

// lengthScore saturates at 16 characters and falls off sharply below 8.
func lengthScore(n int) int {
	switch {
	case n >= 16:
		return 40
	case n >= 12:
		return 32
	case n >= 8:
		return 24
	default:
		return n * 2
	}
}

func hasRepeatedRun(pw string) bool {
	run := 1
	var prev rune
	for i, r := range pw {
		if i > 0 && r == prev {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

func hasAscendingDigitRun(pw string) bool {
	run := 1
	var prev rune
	for i, r := range pw {
		if i > 0 && unicode.IsDigit(r) && unicode.IsDigit(prev) && r == prev+1 {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

func hasAscendingAlphaRun(lowered string) bool {
	run := 1
	var prev rune
	for i, r := range lowered {
		if i > 0 && r >= 'a' && r <= 'z' && prev >= 'a' && prev <= 'z' && r == prev+1 {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

func hasKeyboardWalk(lowered string) bool {
	if len(lowered) < 4 {
		return false
	}
	for i := 0; i+4 <= len(lowered); i++ {
		window := lowered[i : i+4]
		for _, row := range keyboardRows {
			if strings.Contains(row, window) {
				return true
			}
		}
	}
	return false
}

func containsWeakWord(lowered string) bool {
	for _, w := range weakWords {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}
