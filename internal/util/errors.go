package util

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrContentNotFound    = errors.New("content not found")
	ErrQuizNotFound       = errors.New("quiz not found or not published")
	ErrUnknownModule      = errors.New("unknown module")
	ErrUnknownSection     = errors.New("unknown section")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrProgressConflict   = errors.New("progress was modified concurrently, retry the request")
	ErrTransactionFailed  = errors.New("progress update failed and was rolled back, retry the request")
)

// IsClientError 请求本身的问题，重试不会改变结果
func IsClientError(err error) bool {
	if _, ok := IsValidationError(err); ok {
		return true
	}
	for _, target := range []error{
		ErrUserNotFound, ErrEmailRegistered, ErrInvalidCredentials, ErrPermissionDenied,
		ErrContentNotFound, ErrQuizNotFound, ErrUnknownModule, ErrUnknownSection, ErrSuggestionNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 汇总请求中所有不合法的字段，一次性返回给客户端
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err 没有字段错误时返回 nil
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
