package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const maxRequestSize = 4 << 20

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// publicErrors — ошибки, текст которых можно показывать клиенту. Порядок важен: от частных к общим.
var publicErrors = []error{
	e.ErrInvalidSnapshot,
	e.ErrMalformedSnapshot,
	e.ErrProductNameRequired,
	e.ErrPriceMustBePositive,
	e.ErrInvalidPrice,
	e.ErrInvalidQuantity,
	e.ErrQuantityTooLarge,
	e.ErrInvalidProductID,
	e.ErrDuplicateProductID,
	e.ErrDuplicatePriceTier,
	e.ErrDanglingCategory,
	e.ErrCategoryMismatch,
	e.ErrCategoryIDRequired,
	e.ErrCategoryNameRequired,
	e.ErrNewAndPromo,
	e.ErrInvalidFulfillmentMode,
	e.ErrHandleRequired,
	e.ErrIdentityRequired,
	e.ErrDuplicateAdmin,
	e.ErrInvalidAddress,
	e.ErrInvalidArrivalTime,
	e.ErrInvalidTransition,
	e.ErrEmptyCart,
	e.ErrConfirmationRequired,
	e.ErrSessionRequired,
	e.ErrStatusBadRequest,
	e.ErrProductNotFound,
	e.ErrCategoryNotFound,
	e.ErrCartLineNotFound,
	e.ErrAdminNotFound,
	e.ErrSnapshotNotFound,
	e.ErrCategoryExists,
	e.ErrAdminExists,
	e.ErrTooManyLines,
	e.ErrTotalTooLarge,
	e.ErrItemQuantityTooLarge,
	e.ErrOrderNotSent,
	e.ErrSnapshotNotLoaded,
	e.ErrForbidden,
}

// ToHTTPResponse сопоставляет класс ошибки HTTP-статусу и безопасному сообщению.
func ToHTTPResponse(err error) (int, string) {
	var persistErr *usecase.PersistError
	if errors.As(err, &persistErr) {
		return http.StatusServiceUnavailable, persistErr.Result.Message()
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, e.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, e.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, e.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, e.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, e.ErrBounds):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, e.ErrNotPersisted),
		errors.Is(err, e.ErrPersistence),
		errors.Is(err, e.ErrUnavailable):
		code = http.StatusServiceUnavailable
	}

	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return code, known.Error()
		}
	}

	switch code {
	case http.StatusInternalServerError:
		return code, e.ErrInternalServerError.Error()
	case http.StatusServiceUnavailable:
		return code, http.StatusText(code)
	default:
		return code, err.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst; неизвестные поля отклоняются.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return e.Wrap(whereami.WhereAmI(), errors.Join(e.ErrStatusBadRequest, err))
	}

	return nil
}

// int64Param читает положительный числовой параметр маршрута.
func int64Param(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(name, e.ErrInvalidProductID)
	}

	return id, nil
}

// writeMutation отвечает на правку каталога вместе с итогом сохранения.
func writeMutation(w http.ResponseWriter, status int, data any, res *usecase.SaveResult, err error) {
	var persistErr *usecase.PersistError
	if errors.As(err, &persistErr) {
		WriteSuccess(w, http.StatusServiceUnavailable, MutationResponse{
			Data: data,
			Save: ToSaveResponse(persistErr.Result),
		})
		return
	}

	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, status, MutationResponse{
		Data: data,
		Save: ToSaveResponse(res),
	})
}
