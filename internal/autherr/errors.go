// Package autherr defines the sentinel errors the auth core returns across
// its boundary. Handlers match them with errors.Is and translate them to
// stable API error codes; anything not listed here is an infrastructure
// fault and gets wrapped in ErrInternal.
package autherr

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")

	ErrTokenMalformed    = errors.New("token is malformed")
	ErrSignatureInvalid  = errors.New("token signature is invalid")
	ErrAlgorithmMismatch = errors.New("token signing algorithm is not allowed")
	ErrTokenExpired      = errors.New("token has expired")

	ErrTokenNotFound    = errors.New("refresh token not found")
	ErrTokenInvalidated = errors.New("refresh token has been invalidated")
	ErrTokenAlreadyUsed = errors.New("refresh token has already been used")
	ErrJTIMismatch      = errors.New("refresh token does not match this access token")

	ErrOtpInvalidOrExpired = errors.New("invalid or expired OTP code")
	ErrDeliveryFailed      = errors.New("failed to deliver notification")

	ErrClientNotFound       = errors.New("client not found")
	ErrClientIDMismatch     = errors.New("client id mismatch")
	ErrClientSecretMismatch = errors.New("invalid client credentials")
	ErrCodeNotFound         = errors.New("authorization code not found")
	ErrCodeExpired          = errors.New("authorization code has expired")
	ErrCodeAlreadyUsed      = errors.New("authorization code has already been used")

	ErrInternal = errors.New("internal error")
)

// Code returns the stable API error code for a domain error. Unknown errors
// map to INTERNAL_ERROR so infrastructure details never leak to clients.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrUserNotFound):
		return "USER_NOT_FOUND"
	case errors.Is(err, ErrUserExists):
		return "USER_EXISTS"
	case errors.Is(err, ErrTokenMalformed):
		return "TOKEN_MALFORMED"
	case errors.Is(err, ErrSignatureInvalid):
		return "SIGNATURE_INVALID"
	case errors.Is(err, ErrAlgorithmMismatch):
		return "ALGORITHM_MISMATCH"
	case errors.Is(err, ErrTokenExpired):
		return "TOKEN_EXPIRED"
	case errors.Is(err, ErrTokenNotFound):
		return "TOKEN_NOT_FOUND"
	case errors.Is(err, ErrTokenInvalidated):
		return "TOKEN_INVALIDATED"
	case errors.Is(err, ErrTokenAlreadyUsed):
		return "TOKEN_ALREADY_USED"
	case errors.Is(err, ErrJTIMismatch):
		return "JTI_MISMATCH"
	case errors.Is(err, ErrOtpInvalidOrExpired):
		return "INVALID_OTP"
	case errors.Is(err, ErrDeliveryFailed):
		return "DELIVERY_FAILED"
	case errors.Is(err, ErrClientNotFound):
		return "CLIENT_NOT_FOUND"
	case errors.Is(err, ErrClientIDMismatch):
		return "CLIENT_ID_MISMATCH"
	case errors.Is(err, ErrClientSecretMismatch):
		return "CLIENT_SECRET_MISMATCH"
	case errors.Is(err, ErrCodeNotFound):
		return "CODE_NOT_FOUND"
	case errors.Is(err, ErrCodeExpired):
		return "CODE_EXPIRED"
	case errors.Is(err, ErrCodeAlreadyUsed):
		return "CODE_ALREADY_USED"
	default:
		return "INTERNAL_ERROR"
	}
}
