// internal/common/errors/errors.go
// Package errors provides standardized error handling for the matching workers.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Matching engine errors. Unknown attributes and partial results are not in
// this list on purpose: both are legitimate values, carried as an outcome
// status and a response flag respectively, never as errors.
const (
	// ErrCodeSchemeDataInvalid marks a scheme whose criteria are malformed
	// (e.g. min above max). The scheme is excluded from the current call and
	// flagged for the scheme-management service.
	ErrCodeSchemeDataInvalid ErrorCode = "SCHEME_DATA_INVALID"
)

// Store / infrastructure errors.
const (
	ErrCodeProfileNotFound          ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeSchemeNotFound           ErrorCode = "SCHEME_NOT_FOUND"
	ErrCodeProfileStoreUnavailable  ErrorCode = "PROFILE_STORE_UNAVAILABLE"
	ErrCodeSchemeStoreUnavailable   ErrorCode = "SCHEME_STORE_UNAVAILABLE"
	ErrCodeCatalogValidationFailed  ErrorCode = "CATALOG_VALIDATION_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeFlagPublishFailed        ErrorCode = "FLAG_PUBLISH_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// IsInfrastructure reports whether the error means an input store was
// unreachable. This is the only class that propagates as a hard failure of a
// matching call; everything else degrades to a non-match or a partial result.
func (e *StandardError) IsInfrastructure() bool {
	switch e.Code {
	case ErrCodeProfileStoreUnavailable,
		ErrCodeSchemeStoreUnavailable,
		ErrCodeDatabaseConnectionFailed:
		return true
	}
	return false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ToBPMNError converts a StandardError for throwing to the workflow engine.
func (e *StandardError) ToBPMNError(retries int) *BPMNError {
	return &BPMNError{
		Code:           string(e.Code),
		Message:        e.Message,
		Details:        e.Details,
		Retryable:      e.Retryable,
		Retries:        retries,
		ErrorVariables: e.Metadata,
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewSchemeDataInvalidError creates a non-retryable scheme data error.
func NewSchemeDataInvalidError(schemeID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemeDataInvalid,
		Message:   "Scheme criteria are malformed, scheme excluded from matching",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"schemeId": schemeID},
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable profile lookup error.
func NewProfileNotFoundError(profileID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "Profile not found",
		Details:   fmt.Sprintf("profileId: %s", profileID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemeNotFoundError creates a non-retryable scheme lookup error.
func NewSchemeNotFoundError(schemeID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemeNotFound,
		Message:   "Scheme not found",
		Details:   fmt.Sprintf("schemeId: %s", schemeID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileStoreUnavailableError creates a retryable infrastructure error.
func NewProfileStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileStoreUnavailable,
		Message:   "Profile store unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemeStoreUnavailableError creates a retryable infrastructure error.
func NewSchemeStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemeStoreUnavailable,
		Message:   "Scheme store unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogValidationFailedError creates a non-retryable catalog ingest error.
func NewCatalogValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogValidationFailed,
		Message:   "Scheme catalog failed structural validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Store query execution error",
		Details:   fmt.Sprintf("store: %s, error: %s", store, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable catalog search error.
func NewSearchQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Catalog search query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFlagPublishFailedError creates a retryable publish error for scheme flags.
func NewFlagPublishFailedError(schemeID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFlagPublishFailed,
		Message:   "Failed to publish invalid-scheme flag",
		Details:   fmt.Sprintf("schemeId: %s, error: %s", schemeID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
