// Package types provides type definitions for structured data used throughout the research agent.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Mode is the research request variant
type Mode string

const (
	// ModeOverview researches a single topic
	ModeOverview Mode = "overview"
	// ModeCompare researches two items side by side
	ModeCompare Mode = "compare"
	// ModeCustom is a free-form query resolved into overview or compare
	ModeCustom Mode = "custom"
)

// Depth controls the requested verbosity of the generated analysis
type Depth string

const (
	// DepthShort asks for a concise analysis
	DepthShort Depth = "short"
	// DepthMedium asks for a balanced analysis
	DepthMedium Depth = "medium"
	// DepthDetailed asks for a long-form analysis
	DepthDetailed Depth = "detailed"
)

// ParseMode converts a string into a Mode, rejecting unknown values
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeOverview, ModeCompare, ModeCustom:
		return m, nil
	default:
		return "", &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q (use overview, compare or custom)", s)}
	}
}

// ParseDepth converts a string into a Depth, rejecting unknown values
func ParseDepth(s string) (Depth, error) {
	switch d := Depth(strings.ToLower(strings.TrimSpace(s))); d {
	case DepthShort, DepthMedium, DepthDetailed:
		return d, nil
	default:
		return "", &ValidationError{Field: "depth", Message: fmt.Sprintf("unknown depth %q (use short, medium or detailed)", s)}
	}
}

// ResearchRequest is a single research job submitted by a caller.
// Exactly the fields required by Mode must be non-empty.
type ResearchRequest struct {
	Mode  Mode   `json:"mode" validate:"required,oneof=overview compare custom"`
	Topic string `json:"topic,omitempty" validate:"max=500,singleline"`
	ItemA string `json:"item_a,omitempty" validate:"max=200,singleline"`
	ItemB string `json:"item_b,omitempty" validate:"max=200,singleline"`
	Query string `json:"query,omitempty" validate:"max=500,singleline"`
	Depth Depth  `json:"depth" validate:"required,oneof=short medium detailed"`
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	// topics and items end up in a single Markdown heading line
	_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsControl) < 0
	})
	return v
}

// Validate checks field constraints and the per-mode required fields.
// All failures are reported as *ValidationError.
func (r *ResearchRequest) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		return fromValidatorError(err)
	}

	switch r.Mode {
	case ModeOverview:
		if strings.TrimSpace(r.Topic) == "" {
			return &ValidationError{Field: "topic", Message: "Topic cannot be empty"}
		}
	case ModeCompare:
		if strings.TrimSpace(r.ItemA) == "" {
			return &ValidationError{Field: "item_a", Message: "item_a cannot be empty"}
		}
		if strings.TrimSpace(r.ItemB) == "" {
			return &ValidationError{Field: "item_b", Message: "item_b cannot be empty"}
		}
	case ModeCustom:
		if strings.TrimSpace(r.Query) == "" {
			return &ValidationError{Field: "query", Message: "Query cannot be empty"}
		}
	}
	return nil
}

// vsSeparator matches the " vs " separator of comparison queries, case-insensitively
var vsSeparator = regexp.MustCompile(`(?i)\s+vs\.?\s+`)

// Resolve returns the concrete request a custom query stands for.
// "A vs B" becomes a compare request, anything else an overview of the query.
// Overview and compare requests are returned trimmed but otherwise unchanged.
func (r ResearchRequest) Resolve() (ResearchRequest, error) {
	r.Topic = strings.TrimSpace(r.Topic)
	r.ItemA = strings.TrimSpace(r.ItemA)
	r.ItemB = strings.TrimSpace(r.ItemB)
	r.Query = strings.TrimSpace(r.Query)

	if r.Mode != ModeCustom {
		return r, nil
	}

	if vsSeparator.MatchString(r.Query) {
		parts := vsSeparator.Split(r.Query, -1)
		if len(parts) != 2 {
			return r, &ValidationError{Field: "query", Message: "Invalid comparison query. Use format: 'item1 vs item2'"}
		}
		itemA, itemB := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if itemA == "" || itemB == "" {
			return r, &ValidationError{Field: "query", Message: "Both items must be non-empty for comparison"}
		}
		return ResearchRequest{Mode: ModeCompare, ItemA: itemA, ItemB: itemB, Depth: r.Depth}, nil
	}

	return ResearchRequest{Mode: ModeOverview, Topic: r.Query, Depth: r.Depth}, nil
}

// Objective returns the human-readable research objective
func (r ResearchRequest) Objective() string {
	switch r.Mode {
	case ModeOverview:
		return r.Topic
	case ModeCompare:
		return r.ItemA + " vs " + r.ItemB
	default:
		return r.Query
	}
}

// fromValidatorError turns the first validator field error into a ValidationError
func fromValidatorError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "request", Message: err.Error()}
	}

	fe := fieldErrs[0]
	field := jsonFieldName(fe.Field())
	var msg string
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "singleline":
		msg = field + " must be a single line without control characters"
	default:
		msg = fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
	return &ValidationError{Field: field, Message: msg}
}

// jsonFieldName maps Go struct field names to their JSON names
func jsonFieldName(field string) string {
	switch field {
	case "ItemA":
		return "item_a"
	case "ItemB":
		return "item_b"
	default:
		return strings.ToLower(field)
	}
}
