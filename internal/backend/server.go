package backend

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/born-ml/quantumnat/internal/qerr"
)

// NewRemoteServer exposes b over HTTP in the format Remote speaks:
//
//	GET    /v1/capabilities
//	POST   /v1/jobs
//	GET    /v1/jobs/:id
//	GET    /v1/jobs/:id/result
//	DELETE /v1/jobs/:id
func NewRemoteServer(b Backend, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	h := &handlers{backend: b, logger: logger}
	v1 := router.Group("/v1")
	v1.GET("/capabilities", h.handleCapabilities)
	v1.POST("/jobs", h.handleSubmit)
	v1.GET("/jobs/:id", h.handleStatus)
	v1.GET("/jobs/:id/result", h.handleResult)
	v1.DELETE("/jobs/:id", h.handleCancel)
	return router
}

type handlers struct {
	backend Backend
	logger  *slog.Logger
}

func (h *handlers) handleCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, CapabilitiesResponse{
		Name:         h.backend.Name(),
		Capabilities: h.backend.Capabilities(),
	})
}

func (h *handlers) handleSubmit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	job, err := decodeJob(&req)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := h.backend.Submit(c.Request.Context(), job)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, SubmitResponse{ID: id})
}

func (h *handlers) handleStatus(c *gin.Context) {
	id := c.Param("id")
	st, err := h.backend.Status(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{ID: id, Status: st.String()})
}

func (h *handlers) handleResult(c *gin.Context) {
	res, err := h.backend.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, encodeResult(res))
}

func (h *handlers) handleCancel(c *gin.Context) {
	if err := h.backend.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail maps engine errors onto HTTP statuses. Retryable failures become
// 503 so clients back off and try again.
func (h *handlers) fail(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case qerr.IsRetryable(err):
		status, code = http.StatusServiceUnavailable, "UNAVAILABLE"
	case errors.Is(err, ErrUnknownJob):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, qerr.ErrBackend), errors.Is(err, qerr.ErrConfig):
		status, code = http.StatusUnprocessableEntity, "REJECTED"
	}
	h.logger.Warn("request failed",
		slog.String("path", c.FullPath()),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code, Retryable: status == http.StatusServiceUnavailable})
}
