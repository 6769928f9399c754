package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnknown        = errors.New("unknown error")
	// ErrStaleState сохраненное состояние изменилось между чтением и записью.
	ErrStaleState = errors.New("stale state")

	ErrValidation             = errors.New("validation failed")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrProductUnavailable     = errors.New("product unavailable")
	ErrUserInactive           = errors.New("user inactive")
	ErrPaymentNotRefundable   = errors.New("payment not refundable")
	ErrPaymentAlreadyApproved = errors.New("payment already approved")
	ErrPaymentAlreadyFailed   = errors.New("payment already failed")
	ErrPaymentNotApprovable   = errors.New("payment not approvable")
	ErrAmountMismatch         = errors.New("amount mismatch")
	ErrCancellationInProgress = errors.New("cancellation in progress")

	ErrProvider     = errors.New("payment provider error")
	ErrCollaborator = errors.New("collaborator error")
)

// InvalidTransitionError переход статуса, отсутствующий в таблице переходов.
type InvalidTransitionError struct {
	From OrderStatusType
	To   OrderStatusType
}

func NewInvalidTransitionError(from, to OrderStatusType) error {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ProviderError ошибка платежного провайдера. Code и Message - оригинальные значения из ответа провайдера,
// Status - http статус (0, если ответа не было).
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

const (
	ProviderCodeTimeout      = "TIMEOUT"
	ProviderCodeNetworkError = "NETWORK_ERROR"
)

func NewProviderError(status int, code, message string) *ProviderError {
	return &ProviderError{Status: status, Code: code, Message: message}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider error [%d %s]: %s", e.Status, e.Code, e.Message)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// IsTimeout провайдер не ответил за отведенное время, результат операции на его стороне неизвестен.
func (e *ProviderError) IsTimeout() bool {
	return e.Code == ProviderCodeTimeout
}

func AsProviderError(err error) (*ProviderError, bool) {
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

// CollaboratorError ошибка внешнего сервиса (каталог, пользователи, уведомления).
type CollaboratorError struct {
	Service string
	Op      string
	Err     error
}

func NewCollaboratorError(service, op string, err error) error {
	return &CollaboratorError{Service: service, Op: op, Err: err}
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Service, e.Op, e.Err.Error())
}

func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaborator
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
