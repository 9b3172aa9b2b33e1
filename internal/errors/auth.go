package errors

var (
	ErrInvalidToken = &DomainError{
		Kind:    KindUnauthenticated,
		Code:    "INVALID_TOKEN",
		Message: "invalid or expired token",
	}
	ErrInvalidCredentials = &DomainError{
		Kind:    KindUnauthenticated,
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid email or password",
	}
	ErrInvalidAPIKey = &DomainError{
		Kind:    KindUnauthenticated,
		Code:    "INVALID_API_KEY",
		Message: "invalid or missing api key",
	}
	ErrInactivePrincipal = &DomainError{
		Kind:    KindForbidden,
		Code:    "PRINCIPAL_INACTIVE",
		Message: "account is inactive",
	}
	ErrPermissionDenied = &DomainError{
		Kind:    KindForbidden,
		Code:    "PERMISSION_DENIED",
		Message: "insufficient permissions",
	}
	ErrRoleNotGrantable = &DomainError{
		Kind:    KindForbidden,
		Code:    "ROLE_NOT_GRANTABLE",
		Message: "you are not allowed to create an employee with this role",
	}
)

var (
	ErrOTPInvalid = &DomainError{
		Kind:    KindBadRequest,
		Code:    "OTP_INVALID",
		Message: "invalid or expired otp",
	}
	ErrOTPAttemptsExceeded = &DomainError{
		Kind:    KindBadRequest,
		Code:    "OTP_ATTEMPTS_EXCEEDED",
		Message: "too many invalid attempts, request a new otp",
	}
	ErrEmailNotVerified = &DomainError{
		Kind:    KindBadRequest,
		Code:    "EMAIL_NOT_VERIFIED",
		Message: "email has not been verified",
	}
	ErrResetTokenInvalid = &DomainError{
		Kind:    KindBadRequest,
		Code:    "RESET_TOKEN_INVALID",
		Message: "invalid or expired reset token",
	}
	ErrEmailRegistered = &DomainError{
		Kind:    KindBadRequest,
		Code:    "EMAIL_REGISTERED",
		Message: "email is already registered",
	}
	ErrEmailTaken = &DomainError{
		Kind:    KindConflict,
		Code:    "EMAIL_TAKEN",
		Message: "an account with this email already exists",
	}
	ErrAccountNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "no account found for this email",
	}
)
