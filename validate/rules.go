package validate

import (
	"context"
	"errors"
	"regexp"
	"time"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NotEmpty fails with msg when the value is empty.
func NotEmpty(msg string) Rule {
	failure := errors.New(msg)
	return func(ctx context.Context, value string, req *Request, chk *Checked) error {
		if value == "" {
			return failure
		}
		return nil
	}
}

// Length fails with msg when the value's rune count is outside [min, max].
func Length(min, max int, msg string) Rule {
	failure := errors.New(msg)
	return func(ctx context.Context, value string, req *Request, chk *Checked) error {
		n := len([]rune(value))
		if n < min || n > max {
			return failure
		}
		return nil
	}
}

// IsEmail fails with msg when the value is not a plausible email address.
func IsEmail(msg string) Rule {
	failure := errors.New(msg)
	return func(ctx context.Context, value string, req *Request, chk *Checked) error {
		if !emailPattern.MatchString(value) {
			return failure
		}
		return nil
	}
}

// StrongPassword fails with msg unless the value is at least 8 characters
// and contains a lowercase letter, an uppercase letter, a digit, and a
// symbol.
func StrongPassword(msg string) Rule {
	failure := errors.New(msg)
	return func(ctx context.Context, value string, req *Request, chk *Checked) error {
		runes := []rune(value)
		if len(runes) < 8 {
			return failure
		}
		var lower, upper, digit, symbol bool
		for _, r := range runes {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			case !unicode.IsSpace(r):
				symbol = true
			}
		}
		if !lower || !upper || !digit || !symbol {
			return failure
		}
		return nil
	}
}

// ISO8601 fails with msg when the value is neither an RFC 3339 timestamp
// nor a calendar date (2006-01-02).
func ISO8601(msg string) Rule {
	failure := errors.New(msg)
	return func(ctx context.Context, value string, req *Request, chk *Checked) error {
		if _, err := time.Parse(time.RFC3339, value); err == nil {
			return nil
		}
		if _, err := time.Parse(time.DateOnly, value); err == nil {
			return nil
		}
		return failure
	}
}

// Matches fails with msg when the value does not match re.
func Matches(re *regexp.Regexp, msg string) Rule {
	failure := errors.New(msg)
	return func(ctx context.Context, value string, req *Request, chk *Checked) error {
		if !re.MatchString(value) {
			return failure
		}
		return nil
	}
}

// EqualsField fails with msg when the value differs from the named sibling
// field read from the same request location.
func EqualsField(loc Location, name, msg string) Rule {
	failure := errors.New(msg)
	return func(ctx context.Context, value string, req *Request, chk *Checked) error {
		other, _ := req.Value(loc, name)
		if value != other {
			return failure
		}
		return nil
	}
}
