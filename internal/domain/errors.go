package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ConfigurationError is returned before any I/O when the store is misconfigured.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e ConfigurationError) Is(target error) bool {
	_, ok := target.(ConfigurationError)
	if ok {
		return true
	}
	_, ok = target.(*ConfigurationError)
	return ok
}

var ErrConfiguration = ConfigurationError{}

// ContractViolationError marks input the caller should never have sent,
// such as a record uri without a did authority.
type ContractViolationError struct {
	Reason string
}

func (e ContractViolationError) Error() string {
	return fmt.Sprintf("contract violation: %s", e.Reason)
}

func (e ContractViolationError) Is(target error) bool {
	_, ok := target.(ContractViolationError)
	if ok {
		return true
	}
	_, ok = target.(*ContractViolationError)
	return ok
}

var ErrContractViolation = ContractViolationError{}

// InvalidRecordError carries the verdict of a record that failed validation
// on a path that refuses invalid input.
type InvalidRecordError struct {
	Result ValidationResult
}

func (e InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record (%s): %s", e.Result.Code, e.Result.Message)
}

func (e InvalidRecordError) Is(target error) bool {
	_, ok := target.(InvalidRecordError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidRecordError)
	return ok
}

var ErrInvalidRecord = InvalidRecordError{}

var ErrInvalidCredentials = errors.New("invalid credentials")
