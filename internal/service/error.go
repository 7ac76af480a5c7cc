package service

import "errors"

var (
	ErrUnsupportedProvider    = errors.New("UNSUPPORTED_PROVIDER")
	ErrSenderNotOwnedByTenant = errors.New("SENDER_NOT_OWNED_BY_TENANT")
	ErrProviderNotConfigured  = errors.New("PROVIDER_NOT_CONFIGURED")
	ErrValidationFailed       = errors.New("VALIDATION_FAILED")
	ErrTenantNotResolved      = errors.New("TENANT_NOT_RESOLVED")
	ErrDatabase               = errors.New("DATABASE_ERROR")
)

type Error struct {
	Code  string
	Cause error
}

func NewServiceError(code string, cause error) error {
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	return e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}
