package e

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrUnknownStorageDriver = fmt.Errorf("unknown storage driver")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrValidation           = fmt.Errorf("validation failed")
	ErrInvalidID            = fmt.Errorf("invalid id")
	ErrSearchNameRequired   = fmt.Errorf("name query parameter is required")
	ErrNoFile               = fmt.Errorf("no CSV file uploaded")
	ErrEmptyCSV             = fmt.Errorf("CSV file is empty or invalid")
	ErrUnsupportedMediaType = fmt.Errorf("only CSV files are allowed")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")

	// 400 Conflict (уникальность)
	ErrProductAlreadyExists = fmt.Errorf("product with this name already exists")
	ErrUserAlreadyExists    = fmt.Errorf("user with this email or username already exists")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")
	ErrUserNotFound    = fmt.Errorf("user not found")

	// 401 / 403
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrMissingToken       = fmt.Errorf("access token required")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")

	// 500 Internal Server Error
	ErrCSVParse            = fmt.Errorf("error parsing CSV file")
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// FieldError описывает ошибку валидации конкретного поля запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError агрегирует ошибки валидации по полям.
// errors.Is(err, ErrValidation) возвращает true для любой ValidationError.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Add добавляет ошибку поля.
func (v *ValidationError) Add(field, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
}

// OrNil возвращает nil, если ошибок полей нет.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}

	return v
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AsValidation извлекает ValidationError из цепочки ошибок.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}

	return nil, false
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
