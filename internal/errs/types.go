package errs

import "fmt"

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

// ConfigurationError means required credentials or settings are missing or
// still hold placeholder values. Not retryable.
type ConfigurationError struct {
	ErrorMessage
}

// InvalidInputError is a caller bug (e.g. empty public token). Not retryable.
type InvalidInputError struct {
	ErrorMessage
}

// HTTPError carries a non-2xx status from the bank API.
type HTTPError struct {
	ErrorMessage
	Status int
}

// APIError carries the provider's error_message field.
type APIError struct {
	ErrorMessage
}

// ParseError means a 2xx response was missing required fields.
type ParseError struct {
	ErrorMessage
}

// InvalidAccessTokenError means no access token is stored; the user must
// relink before the operation can succeed.
type InvalidAccessTokenError struct {
	ErrorMessage
}

// SecretStoreError wraps a Secret Manager or KMS failure.
type SecretStoreError struct {
	ErrorMessage
	Cause error
}

// NetworkError wraps an underlying transport failure.
type NetworkError struct {
	ErrorMessage
	Cause error
}

// DatabaseError wraps a Firestore failure with the failed operation name.
type DatabaseError struct {
	ErrorMessage
	Operation string
}

// ExchangeTokenFailedError tags a public-token exchange failure with its cause.
type ExchangeTokenFailedError struct {
	ErrorMessage
	Cause error
}

// AccountFetchFailedError tags a live account-fetch failure with its cause.
type AccountFetchFailedError struct {
	ErrorMessage
	Cause error
}

// TransactionFetchFailedError tags a live transaction-fetch failure with its cause.
type TransactionFetchFailedError struct {
	ErrorMessage
	Cause error
}

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

type AlreadyExistsError struct {
	ErrorMessage
}

func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewInvalidInputError(message string) *InvalidInputError {
	return &InvalidInputError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewHTTPError(status int) *HTTPError {
	return &HTTPError{
		ErrorMessage: ErrorMessage{Message: fmt.Sprintf("bank API returned status %d", status)},
		Status:       status,
	}
}

func NewAPIError(message string) *APIError {
	return &APIError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewParseError(message string) *ParseError {
	return &ParseError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewInvalidAccessTokenError() *InvalidAccessTokenError {
	return &InvalidAccessTokenError{ErrorMessage: ErrorMessage{Message: "no access token stored; relink required"}}
}

func NewSecretStoreError(message string, cause error) *SecretStoreError {
	return &SecretStoreError{ErrorMessage: ErrorMessage{Message: message}, Cause: cause}
}

func NewNetworkError(message string, cause error) *NetworkError {
	return &NetworkError{ErrorMessage: ErrorMessage{Message: message}, Cause: cause}
}

func NewDatabaseError(operation, message string) *DatabaseError {
	return &DatabaseError{ErrorMessage: ErrorMessage{Message: message}, Operation: operation}
}

func NewExchangeTokenFailedError(cause error) *ExchangeTokenFailedError {
	return &ExchangeTokenFailedError{ErrorMessage: ErrorMessage{Message: "public token exchange failed: " + cause.Error()}, Cause: cause}
}

func NewAccountFetchFailedError(cause error) *AccountFetchFailedError {
	return &AccountFetchFailedError{ErrorMessage: ErrorMessage{Message: "account fetch failed: " + cause.Error()}, Cause: cause}
}

func NewTransactionFetchFailedError(cause error) *TransactionFetchFailedError {
	return &TransactionFetchFailedError{ErrorMessage: ErrorMessage{Message: "transaction fetch failed: " + cause.Error()}, Cause: cause}
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{ErrorMessage: ErrorMessage{Message: message}}
}

func (e *SecretStoreError) Unwrap() error             { return e.Cause }
func (e *NetworkError) Unwrap() error                 { return e.Cause }
func (e *ExchangeTokenFailedError) Unwrap() error     { return e.Cause }
func (e *AccountFetchFailedError) Unwrap() error      { return e.Cause }
func (e *TransactionFetchFailedError) Unwrap() error  { return e.Cause }
