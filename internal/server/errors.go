package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/llm"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/search"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// ErrMalformedJSON indicates a request body that is not valid JSON
type ErrMalformedJSON struct {
	Err error
}

func (e *ErrMalformedJSON) Error() string {
	return fmt.Sprintf("invalid JSON body: %v", e.Err)
}

func (e *ErrMalformedJSON) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *types.ValidationError
		malformedErr  *ErrMalformedJSON
		searchErr     *search.UnavailableError
		llmErr        *llm.UnavailableError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &malformedErr):
		return http.StatusBadRequest
	case errors.As(err, &searchErr), errors.As(err, &llmErr):
		return http.StatusBadGateway
	default:
		// includes reports.Error persistence failures
		return http.StatusInternalServerError
	}
}

// Detail returns the client-facing message for err. Validation errors are
// reported without the pipeline stage prefix.
func Detail(err error) string {
	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	return err.Error()
}
