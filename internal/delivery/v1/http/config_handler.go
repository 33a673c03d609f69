package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
)

// PersistResponse — ответ точки сохранения на запись снимка.
// Persisted задаётся только при успехе и при отказе хранилища в записи (503).
type PersistResponse struct {
	Success   bool   `json:"success"`
	Persisted *bool  `json:"persisted,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

func persisted(v bool) *bool {
	return &v
}

type ConfigHandler struct {
	endpointUC usecase.ConfigEndpointUC
	logger     logger.Logger
}

func NewConfigHandler(endpointUC usecase.ConfigEndpointUC, logger logger.Logger) *ConfigHandler {
	return &ConfigHandler{endpointUC: endpointUC, logger: logger}
}

func (c *ConfigHandler) getConfig(w http.ResponseWriter, r *http.Request) {
	snapshot, err := c.endpointUC.GetSnapshot(r.Context())
	if err != nil {
		if !errors.Is(err, e.ErrNotFound) {
			c.logger.Errorf(err, "config read failed")
		}
		WriteError(w, err)
		return
	}

	data, err := converter.Marshal(snapshot)
	if err != nil {
		c.logger.Errorf(err, "config encode failed")
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// saveConfig принимает снимок целиком. Хранилище только на чтение — 503 с persisted=false.
func (c *ConfigHandler) saveConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		WriteSuccess(w, http.StatusBadRequest, PersistResponse{Error: e.ErrStatusBadRequest.Error()})
		return
	}

	snapshot, err := converter.Unmarshal(body)
	if err != nil {
		c.logger.Warnf("%d config rejected: %s", http.StatusBadRequest, err.Error())
		_, msg := ToHTTPResponse(err)
		WriteSuccess(w, http.StatusBadRequest, PersistResponse{Error: msg})
		return
	}

	if err := c.endpointUC.PutSnapshot(r.Context(), snapshot); err != nil {
		switch {
		case errors.Is(err, e.ErrNotPersisted):
			c.logger.Warnf("config not persisted: %v", err)
			WriteSuccess(w, http.StatusServiceUnavailable, PersistResponse{
				Persisted: persisted(false),
				Error:     "storage is read-only, configuration was not persisted",
			})
		case errors.Is(err, e.ErrValidation):
			_, msg := ToHTTPResponse(err)
			WriteSuccess(w, http.StatusBadRequest, PersistResponse{Error: msg})
		default:
			c.logger.Errorf(err, "config write failed")
			WriteSuccess(w, http.StatusInternalServerError, PersistResponse{Error: e.ErrInternalServerError.Error()})
		}
		return
	}

	WriteSuccess(w, http.StatusOK, PersistResponse{
		Success:   true,
		Persisted: persisted(true),
		Message:   "configuration saved",
	})
}
