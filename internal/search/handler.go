package search

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// errorResponse mirrors the teacher's types.ErrorResponse shape, plus the
// short `reason` token §7 documents (`IndexUnavailable`/`BadRequest`/
// `InternalError`) so clients can branch without parsing Error's prose.
type errorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Details string `json:"details,omitempty"`
}

// Handler wires an Engine into gin routes.
type Handler struct {
	engine *Engine
}

// NewHandler builds a Handler around engine.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes mounts the search endpoint under router, matching the
// teacher's /api/v1 grouping convention.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	v1.GET("/search", h.search)
	v1.POST("/search", h.search)
}

// search answers a GET or POST search request. CORS preflight never reaches
// here: the CORS middleware short-circuits OPTIONS before routing, so index
// restoration is never triggered by a preflight (§4.6 "health-check
// semantics").
func (h *Handler) search(c *gin.Context) {
	var req Request
	if c.Request.Method == http.MethodGet {
		req = requestFromQuery(c.Query)
	} else if !bindJSONOrError(c, &req) {
		return
	}

	ctx := c.Request.Context()

	var resp Response
	var err error
	if req.IsHealthCheckOnly {
		resp, err = h.engine.HealthCheck(ctx)
	} else {
		resp, err = h.engine.Search(ctx, req)
	}

	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func bindJSONOrError(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Reason: "BadRequest", Details: err.Error()})
		return false
	}
	return true
}

// sendError maps an apperrors.AppError to its documented HTTP status and
// short §7 reason token; anything else falls back to 500/InternalError,
// matching types.SendInternalError's default-case behavior in the
// teacher's handler utilities.
func sendError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.GetHTTPCode(), errorResponse{Error: appErr.Message, Reason: reasonFor(appErr.Code)})
		return
	}
	c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error(), Reason: "InternalError"})
}

// reasonFor maps an apperrors.ErrorCode to the short reason token §7
// documents for search responses.
func reasonFor(code apperrors.ErrorCode) string {
	switch code {
	case apperrors.ErrCodeIndexUnavailable:
		return "IndexUnavailable"
	case apperrors.ErrCodeInputInvariantViolation:
		return "BadRequest"
	default:
		return "InternalError"
	}
}
