package auth

import (
	"unicode"
	"unicode/utf8"
)

// StrengthResult scores a candidate password on a 0-6 scale from length
// and character-class diversity.
type StrengthResult struct {
	Score       int      `json:"score"`
	Label       string   `json:"label"`
	Suggestions []string `json:"suggestions"`
}

// Acceptable reports whether the password meets the minimum policy of
// satisfying at least 3 of the 6 scored requirements.
func (r StrengthResult) Acceptable() bool {
	return r.Score >= 3
}

// EvaluateStrength scores a password. One point each for length >= 8,
// length >= 12, and the presence of a lowercase letter, an uppercase
// letter, a digit, and a symbol.
func EvaluateStrength(password string) StrengthResult {
	if password == "" {
		return StrengthResult{Score: 0, Label: "Empty", Suggestions: []string{"Add a password"}}
	}

	score := 0
	var suggestions []string
	addCheck := func(ok bool, suggestion string) {
		if ok {
			score++
		} else {
			suggestions = append(suggestions, suggestion)
		}
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, ch := range password {
		switch {
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case !unicode.IsLetter(ch) && !unicode.IsNumber(ch):
			hasSymbol = true
		}
	}

	// Length is measured in characters, not bytes, so multi-byte input
	// is not over-credited.
	length := utf8.RuneCountInString(password)
	addCheck(length >= 8, "Use at least 8 characters")
	addCheck(length >= 12, "Use 12+ characters")
	addCheck(hasLower, "Add a lowercase letter")
	addCheck(hasUpper, "Add an uppercase letter")
	addCheck(hasDigit, "Add a digit")
	addCheck(hasSymbol, "Add a symbol")

	var label string
	switch {
	case score <= 2:
		label = "Weak"
	case score <= 4:
		label = "Fair"
	case score == 5:
		label = "Good"
	default:
		label = "Strong"
	}
	return StrengthResult{Score: score, Label: label, Suggestions: suggestions}
}
