package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the service.
const (
	CodeConnectionFailure = "CONN_001"
	CodeInvalidRequest    = "REQ_001"
	CodeDuplicateUser     = "REQ_002"
	CodeDuplicateAddress  = "REQ_003"
	CodeWalletNotFound    = "REQ_004"
	CodeCryptoFailure     = "KEY_001"
	CodeDecryptionFailure = "KEY_002"
	CodeRPCFailure        = "RPC_001"
	CodeStorageFailure    = "STORE_001"
	CodeInternal          = "SYS_000"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// IsCode reports whether err is (or wraps) an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Message returns the client-safe message for err, or a generic fallback.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// ---- Startup & Connectivity (CONN) ----

func ErrConnectionFailure(err error) *AppError {
	return Wrap(CodeConnectionFailure, "Failed to connect to Ethereum node", http.StatusServiceUnavailable, err)
}

// ---- Request Validation & Lookup (REQ) ----

func Validation(message string) *AppError {
	return New(CodeInvalidRequest, message, http.StatusBadRequest)
}

func ErrDuplicateUser() *AppError {
	return New(CodeDuplicateUser, "Wallet already exists for this user", http.StatusConflict)
}

func ErrDuplicateAddress() *AppError {
	return New(CodeDuplicateAddress, "Wallet address already exists", http.StatusConflict)
}

func ErrWalletNotFound() *AppError {
	return New(CodeWalletNotFound, "Wallet not found", http.StatusNotFound)
}

// ---- Key Custody (KEY) ----

func ErrCryptoFailure(err error) *AppError {
	return Wrap(CodeCryptoFailure, "Key generation failed", http.StatusInternalServerError, err)
}

func ErrDecryptionFailure(err error) *AppError {
	return Wrap(CodeDecryptionFailure, "Private key decryption failed", http.StatusInternalServerError, err)
}

// ---- Chain RPC (RPC) ----

func ErrRPCFailure(err error) *AppError {
	return Wrap(CodeRPCFailure, "Chain RPC call failed", http.StatusBadGateway, err)
}

// ---- Persistence (STORE) ----

func ErrStorageFailure(err error) *AppError {
	return Wrap(CodeStorageFailure, "Storage operation failed", http.StatusInternalServerError, err)
}

// ---- System (SYS) ----

func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}
