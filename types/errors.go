package types

import "fmt"

// StoreError provides structured error information for storage failures
type StoreError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewStoreError creates a new structured store error
func NewStoreError(code string, message string, details map[string]interface{}) *StoreError {
	return &StoreError{
		Code:    code,
		Message: message,
		Details: details,
	}
}
