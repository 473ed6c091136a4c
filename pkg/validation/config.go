package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigValidator provides a fluent interface for validating configuration
// values. It collects all validation errors rather than failing on the
// first one.
type ConfigValidator struct {
	errors []error
	name   string // config struct name for error messages
}

// NewConfigValidator creates a new config validator with the given config name.
func NewConfigValidator(configName string) *ConfigValidator {
	return &ConfigValidator{
		name:   configName,
		errors: make([]error, 0),
	}
}

// Positive validates that an int field is positive (> 0).
func (cv *ConfigValidator) Positive(field string, value int) *ConfigValidator {
	if value <= 0 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %d must be positive", cv.name, field, value))
	}
	return cv
}

// NonNegative validates that an int field is non-negative (>= 0).
func (cv *ConfigValidator) NonNegative(field string, value int) *ConfigValidator {
	if value < 0 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %d must be non-negative", cv.name, field, value))
	}
	return cv
}

// PositiveFloat validates that a float field is positive (> 0).
func (cv *ConfigValidator) PositiveFloat(field string, value float64) *ConfigValidator {
	if value <= 0 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %f must be positive", cv.name, field, value))
	}
	return cv
}

// GreaterThanFloat validates that a float field strictly exceeds a bound.
func (cv *ConfigValidator) GreaterThanFloat(field string, value, bound float64) *ConfigValidator {
	if value <= bound {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %f must exceed %f", cv.name, field, value, bound))
	}
	return cv
}

// HalfOpenUnitFloat validates that a float field lies in [0, 1).
func (cv *ConfigValidator) HalfOpenUnitFloat(field string, value float64) *ConfigValidator {
	if value < 0 || value >= 1 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %f is outside [0, 1)", cv.name, field, value))
	}
	return cv
}

// RangeFloat validates that a float field is within the inclusive range.
func (cv *ConfigValidator) RangeFloat(field string, value, min, max float64) *ConfigValidator {
	if value < min || value > max {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %f is outside range [%f, %f]", cv.name, field, value, min, max))
	}
	return cv
}

// Check runs an arbitrary predicate with a custom message.
func (cv *ConfigValidator) Check(ok bool, field, msg string) *ConfigValidator {
	if !ok {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: %s", cv.name, field, msg))
	}
	return cv
}

// Err returns nil when every check passed, or a single error joining all
// collected failures.
func (cv *ConfigValidator) Err() error {
	if len(cv.errors) == 0 {
		return nil
	}
	msgs := make([]string, len(cv.errors))
	for i, err := range cv.errors {
		msgs[i] = err.Error()
	}
	return errors.New(strings.Join(msgs, "; "))
}
