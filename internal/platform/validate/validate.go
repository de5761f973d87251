// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// This package is used exclusively in the service layer, never in handlers or
// storage. It ensures that business logic only operates on semantically valid data.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/pkg/hexid"
)

var (
	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// Range fails if the value is outside the [min, max] range (inclusive).
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return v
}

// OneOf fails if the value is not in the allowed set of strings.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// DraftToken fails if the value is not a well-formed 32-hex-char draft token.
//
// # Security
//
// Malformed tokens must never reach storage lookups: they are treated as
// "not found" upstream, not as a server error.
func (v *Validator) DraftToken(field, value string) *Validator {
	if !hexid.IsToken(value) {
		v.add(field, "Must be a 32-character lowercase hex token")
	}
	return v
}

// PageID fails if the value is not a well-formed 24-hex-char page id.
func (v *Validator) PageID(field, value string) *Validator {
	if !hexid.IsPageID(value) {
		v.add(field, "Must be a 24-character lowercase hex page id")
	}
	return v
}

// PageIDList validates an ordered page id submission: count within
// [min, max], each entry well-formed, no duplicates.
func (v *Validator) PageIDList(field string, ids []string, min, max int) *Validator {
	if len(ids) < min || len(ids) > max {
		v.add(field, fmt.Sprintf("Must contain between %d and %d pages", min, max))
		return v
	}

	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if !hexid.IsPageID(id) {
			v.add(field, fmt.Sprintf("Entry %d is not a valid page id", i))
			return v
		}
		if seen[id] {
			v.add(field, fmt.Sprintf("Entry %d is a duplicate page id", i))
			return v
		}
		seen[id] = true
	}
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom("pages", pages < 1, "Must contain at least one page")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method; call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}
