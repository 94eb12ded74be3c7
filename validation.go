package iso8583

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"
)

// Rule checks the value of one leaf field.
type Rule interface {
	Validate(f *Field) error
	Name() string
}

// Validator checks a message for mandatory fields and runs per-field
// rules. Configure it up front; Validate is safe for concurrent use.
type Validator struct {
	mu        sync.RWMutex
	mandatory []string
	rules     map[string][]Rule
}

func NewValidator() *Validator {
	return &Validator{rules: make(map[string][]Rule)}
}

// Require marks paths such as "3" or "127.2" as mandatory.
func (v *Validator) Require(paths ...string) *Validator {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mandatory = append(v.mandatory, paths...)
	return v
}

// AddRule attaches rules to the leaf at path. Rules run only when the
// field is present.
func (v *Validator) AddRule(path string, rules ...Rule) *Validator {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules[path] = append(v.rules[path], rules...)
	return v
}

// Validate returns every violation found in m joined into one error, or
// nil. Each violation is a *ValidationError.
func (v *Validator) Validate(m *Message) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var errs []error
	for _, path := range v.mandatory {
		if !m.HasFieldPath(path) {
			errs = append(errs, &ValidationError{Path: path, Rule: "mandatory", Message: "mandatory field missing"})
		}
	}

	paths := make([]string, 0, len(v.rules))
	for path := range v.rules {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		c := m.ComponentPath(path)
		if c == nil {
			continue
		}
		f, ok := c.(*Field)
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Rule: "leaf", Message: "not a leaf field"})
			continue
		}
		for _, rule := range v.rules[path] {
			if err := rule.Validate(f); err != nil {
				errs = append(errs, &ValidationError{Path: path, Rule: rule.Name(), Message: err.Error()})
			}
		}
	}
	return errors.Join(errs...)
}

// LengthRule bounds the value length. Zero disables a bound.
type LengthRule struct {
	MinLength   int
	MaxLength   int
	ExactLength int
}

func (r LengthRule) Name() string { return "length" }

func (r LengthRule) Validate(f *Field) error {
	n := f.Len()
	switch {
	case r.ExactLength > 0 && n != r.ExactLength:
		return fmt.Errorf("expected length %d, got %d", r.ExactLength, n)
	case r.MinLength > 0 && n < r.MinLength:
		return fmt.Errorf("length %d below minimum %d", n, r.MinLength)
	case r.MaxLength > 0 && n > r.MaxLength:
		return fmt.Errorf("length %d exceeds maximum %d", n, r.MaxLength)
	}
	return nil
}

// NumericRule accepts decimal digits only.
type NumericRule struct {
	AllowEmpty bool
}

func (r NumericRule) Name() string { return "numeric" }

func (r NumericRule) Validate(f *Field) error {
	data := f.Bytes()
	if len(data) == 0 && !r.AllowEmpty {
		return errors.New("empty value")
	}
	for i, b := range data {
		if b < '0' || b > '9' {
			return fmt.Errorf("non-numeric character at position %d", i)
		}
	}
	return nil
}

// AlphanumericRule accepts letters, digits and space, or any printable
// ASCII with AllowSpecial, or exactly the bytes of Charset when set.
type AlphanumericRule struct {
	AllowSpecial bool
	Charset      string
}

func (r AlphanumericRule) Name() string { return "alphanumeric" }

func (r AlphanumericRule) Validate(f *Field) error {
	for i, b := range f.Bytes() {
		if !r.allowed(b) {
			return fmt.Errorf("invalid character %q at position %d", b, i)
		}
	}
	return nil
}

func (r AlphanumericRule) allowed(b byte) bool {
	if r.Charset != "" {
		for i := 0; i < len(r.Charset); i++ {
			if r.Charset[i] == b {
				return true
			}
		}
		return false
	}
	if r.AllowSpecial {
		return b >= 0x20 && b < 0x7F
	}
	return b >= '0' && b <= '9' || b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b == ' '
}

// RegexRule matches the whole value against a pattern.
type RegexRule struct {
	re          *regexp.Regexp
	description string
}

// NewRegexRule compiles pattern. description, when set, replaces the
// default failure message.
func NewRegexRule(pattern, description string) (*RegexRule, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, err
	}
	return &RegexRule{re: re, description: description}, nil
}

func (r *RegexRule) Name() string { return "regex" }

func (r *RegexRule) Validate(f *Field) error {
	if r.re.Match(f.Bytes()) {
		return nil
	}
	if r.description != "" {
		return errors.New(r.description)
	}
	return fmt.Errorf("does not match pattern %s", r.re.String())
}

// RangeRule parses the value as a decimal integer and bounds it.
type RangeRule struct {
	Min int64
	Max int64
}

func (r RangeRule) Name() string { return "range" }

func (r RangeRule) Validate(f *Field) error {
	v, err := strconv.ParseInt(f.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("cannot parse as integer: %w", err)
	}
	if v < r.Min || v > r.Max {
		return fmt.Errorf("value %d outside [%d, %d]", v, r.Min, r.Max)
	}
	return nil
}

// CustomRule wraps a function.
type CustomRule struct {
	RuleName string
	Func     func(*Field) error
}

func (r CustomRule) Name() string { return r.RuleName }

func (r CustomRule) Validate(f *Field) error { return r.Func(f) }
