package constants

const (
	ErrCodeUnsupportedProvider    = "UNSUPPORTED_PROVIDER"
	ErrCodeSenderNotOwnedByTenant = "SENDER_NOT_OWNED_BY_TENANT"
	ErrCodeProviderNotConfigured  = "PROVIDER_NOT_CONFIGURED"
	ErrCodeValidationFailed       = "VALIDATION_FAILED"
	ErrCodeTenantNotResolved      = "TENANT_NOT_RESOLVED"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeInternalError          = "INTERNAL_ERROR"
	ErrCodeInvalidRequestBody     = "INVALID_REQUEST_BODY"
)

const (
	ErrMsgUnsupportedProvider    = "provider is not supported"
	ErrMsgSenderNotOwnedByTenant = "sender does not belong to tenant"
	ErrMsgProviderNotConfigured  = "no active provider configured for tenant"
	ErrMsgValidationFailed       = "send request failed validation"
	ErrMsgTenantNotResolved      = "no tenant matches the callback identifiers"
	ErrMsgDatabaseError          = "database error"
	ErrMsgInternalError          = "Internal server error"
	ErrMsgInvalidRequestBody     = "failed to parse request body"
)

var errorMessages = map[string]string{
	ErrCodeUnsupportedProvider:    ErrMsgUnsupportedProvider,
	ErrCodeSenderNotOwnedByTenant: ErrMsgSenderNotOwnedByTenant,
	ErrCodeProviderNotConfigured:  ErrMsgProviderNotConfigured,
	ErrCodeValidationFailed:       ErrMsgValidationFailed,
	ErrCodeTenantNotResolved:      ErrMsgTenantNotResolved,
	ErrCodeDatabaseError:          ErrMsgDatabaseError,
	ErrCodeInternalError:          ErrMsgInternalError,
	ErrCodeInvalidRequestBody:     ErrMsgInvalidRequestBody,
}

func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return ErrMsgInternalError
}

func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeInvalidRequestBody, ErrCodeValidationFailed:
		return 400
	case ErrCodeSenderNotOwnedByTenant:
		return 403
	case ErrCodeTenantNotResolved, ErrCodeProviderNotConfigured:
		return 404
	case ErrCodeUnsupportedProvider:
		return 422
	case ErrCodeDatabaseError, ErrCodeInternalError:
		return 500
	default:
		return 500
	}
}
