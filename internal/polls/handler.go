package polls

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/classpulse/livepoll/pkg/response"
)

// Handler serves the poll history endpoint.
type Handler struct {
	history      *History
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// NewHandler creates a history handler.
func NewHandler(history *History, defaultLimit, maxLimit int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{history: history, defaultLimit: defaultLimit, maxLimit: maxLimit, logger: logger}
}

// ListHistory handles GET /api/polls/history?limit=N.
func (h *Handler) ListHistory(c *gin.Context) {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(c, "Invalid limit", "limit must be a positive integer")
			return
		}
		limit = min(n, h.maxLimit)
	}

	recs, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("fetch poll history", zap.Error(err))
		response.Internal(c, "Error fetching poll history", err.Error())
		return
	}
	response.OK(c, recs, "Poll history retrieved successfully")
}
