package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const maxJSONBodySize = 1 << 20

type ErrorResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Errors  []e.FieldError `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// ToHTTPResponse сопоставляет ошибку с HTTP-статусом и сообщением для клиента.
func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrValidation):
		return http.StatusBadRequest, e.ErrValidation.Error()
	case errors.Is(err, e.ErrStatusBadRequest),
		errors.Is(err, e.ErrExpectedMultipart),
		errors.Is(err, e.ErrInvalidID),
		errors.Is(err, e.ErrSearchNameRequired),
		errors.Is(err, e.ErrNoFile),
		errors.Is(err, e.ErrEmptyCSV),
		errors.Is(err, e.ErrUnsupportedMediaType),
		errors.Is(err, e.ErrFileTooLarge),
		errors.Is(err, e.ErrProductAlreadyExists),
		errors.Is(err, e.ErrUserAlreadyExists):
		return http.StatusBadRequest, sentinelMessage(err)
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrInvalidCredentials):
		return http.StatusUnauthorized, e.ErrInvalidCredentials.Error()
	case errors.Is(err, e.ErrMissingToken):
		return http.StatusUnauthorized, e.ErrMissingToken.Error()
	case errors.Is(err, e.ErrInvalidToken):
		return http.StatusForbidden, e.ErrInvalidToken.Error()
	case errors.Is(err, e.ErrCSVParse):
		return http.StatusInternalServerError, csvParseMessage(err)
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

// WriteError логирует ошибку (4xx — WARN, 5xx — ERROR) и пишет JSON-ответ.
func WriteError(w http.ResponseWriter, log logger.Logger, err error) {
	code, msg := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		log.Errorf(err, "%d %s", code, msg)
	} else {
		log.Warnf("%d %s: %v", code, msg, err)
	}

	resp := NewErrorResponse(code, msg)
	if verr, ok := e.AsValidation(err); ok {
		resp.Errors = verr.Fields
	}

	WriteSuccess(w, code, resp)
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sentinelMessage возвращает текст известной sentinel-ошибки без префиксов обертки.
func sentinelMessage(err error) string {
	for _, s := range []error{
		e.ErrStatusBadRequest, e.ErrExpectedMultipart, e.ErrInvalidID, e.ErrSearchNameRequired,
		e.ErrNoFile, e.ErrEmptyCSV, e.ErrUnsupportedMediaType, e.ErrFileTooLarge,
		e.ErrProductAlreadyExists, e.ErrUserAlreadyExists,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}

	return e.ErrStatusBadRequest.Error()
}

// csvParseMessage оставляет причину ошибки разбора, отрезая контекст вызова.
func csvParseMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, e.ErrCSVParse.Error()); i >= 0 {
		return msg[i:]
	}

	return e.ErrCSVParse.Error()
}

// parseID читает положительный {id} из пути.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(whereami.WhereAmI(), e.ErrInvalidID)
	}

	return id, nil
}

// decodeJSON читает тело запроса с ограничением размера. Неизвестные поля игнорируются.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if _, ok := e.AsValidation(err); ok {
			return err
		}
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	return nil
}

// flexInt принимает число или строку с числом, как отправляют HTML-формы.
type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		data = []byte(s)
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return e.NewValidationError(e.FieldError{Field: "stock", Message: "Stock must be a non-negative integer"})
	}

	f.Value, f.Set = n, true
	return nil
}
