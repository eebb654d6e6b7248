package llm

import "fmt"

// UnavailableError reports that the LLM provider could not produce a usable response
type UnavailableError struct {
	Model string
	Cause error
}

func (e *UnavailableError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("llm unavailable: %v", e.Cause)
	}
	return fmt.Sprintf("llm unavailable (model %s): %v", e.Model, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}
