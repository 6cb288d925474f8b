package router

import (
	"fmt"
	"sort"
	"strings"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/routepath"
)

// =============================================================================
// Route Validation
// =============================================================================

// Validator checks compiled routes for conflicts.
type Validator struct {
	routes  []CompiledRoute
	dialect routepath.Dialect
	errors  []ValidationError
}

// ValidationError represents a route validation error.
type ValidationError struct {
	// Type is the error category
	Type ValidationErrorType

	// Message is the human-readable error message
	Message string

	// Files are the source files involved, sorted
	Files []string

	// Pattern is the shared URL pattern
	Pattern string

	// Details contains additional error-specific information
	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Coded returns the error as a registered routec error.
func (e ValidationError) Coded() *routecerrors.Error {
	err := routecerrors.New(e.Type.Code()).
		WithPattern(e.Pattern).
		WithFiles(e.Files...)
	if e.Type == ErrorDialectConflict {
		return err.WithDetail(e.Details).
			WithSuggestion("Rename one of these files, or use the chi or mux dialect")
	}
	return err.WithSuggestion("Rename or remove all but one of these files")
}

// ValidationErrorType categorizes validation errors.
type ValidationErrorType string

const (
	// ErrorDuplicateRoute indicates several files compile to routes that
	// match exactly the same URLs.
	// Example: posts/[id].go and posts/[slug].go both → /posts/:param
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"
)

// Code returns the registered error code for t.
func (t ValidationErrorType) Code() string {
	switch t {
	case ErrorDuplicateRoute:
		return "E104"
	case ErrorDialectConflict:
		return "E109"
	}
	return ""
}

// MultiValidationError wraps multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap exposes each error as a *routecerrors.Error.
func (e *MultiValidationError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ve := range e.Errors {
		errs[i] = ve.Coded()
	}
	return errs
}

// NewValidator creates a new route validator.
func NewValidator(routes []CompiledRoute) *Validator {
	return &Validator{routes: routes}
}

// Validate checks all routes for conflicts.
// Returns nil if all routes are valid, or a MultiValidationError with all errors.
func (v *Validator) Validate() error {
	v.errors = nil

	v.validateDuplicateRoutes()
	if v.dialect == routepath.DialectGin {
		v.validateGin()
	}

	if len(v.errors) > 0 {
		return &MultiValidationError{Errors: v.errors}
	}
	return nil
}

// validateDuplicateRoutes reports routes that share a conflict shape.
// users.go and users/index.go both compile to /users and are reported
// rather than merged.
func (v *Validator) validateDuplicateRoutes() {
	byShape := make(map[string][]string)
	for _, r := range v.routes {
		shape := ConflictShape(r.Segments)
		byShape[shape] = append(byShape[shape], r.File.RelPath)
	}

	shapes := make([]string, 0, len(byShape))
	for shape, files := range byShape {
		if len(files) > 1 {
			shapes = append(shapes, shape)
		}
	}
	sort.Strings(shapes)

	for _, shape := range shapes {
		files := byShape[shape]
		sort.Strings(files)
		v.errors = append(v.errors, ValidationError{
			Type:    ErrorDuplicateRoute,
			Message: fmt.Sprintf("Duplicate route pattern %s", shape),
			Pattern: shape,
			Files:   files,
			Details: fmt.Sprintf("Files: %s", strings.Join(files, ", ")),
		})
	}
}

// =============================================================================
// Specificity Ranking
// =============================================================================

// Rank sorts routes by their precomputed keys, most specific first:
//  1. all-static routes, then routes with a dynamic segment, then catch-alls
//  2. deeper routes before shallower ones of the same kind
//  3. lexical order of the pattern
//
// Keys are total over distinct patterns, so the result does not depend on
// input order.
func Rank(routes []CompiledRoute) {
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Key.Less(routes[j].Key)
	})
}

// ValidateAndRank validates routes and ranks them.
func ValidateAndRank(routes []CompiledRoute) ([]CompiledRoute, error) {
	if err := NewValidator(routes).Validate(); err != nil {
		return nil, err
	}
	Rank(routes)
	return routes, nil
}
