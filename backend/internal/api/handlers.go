package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bom-server/backend/internal/bom"
	"bom-server/backend/internal/constants"
	"bom-server/backend/internal/models"
	bomerrors "bom-server/backend/pkg/errors"
)

// Handler maps HTTP requests onto engine calls
type Handler struct {
	engine *bom.Engine
	logger *zap.Logger
}

// ListParts handles GET /v1/parts?filter=F
func (h *Handler) ListParts(c *gin.Context) {
	filter, err := bom.ParseFilter(c.Query(constants.QueryFilter))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, constants.DescListed, h.engine.ListParts(filter))
}

// CreatePart handles POST /v1/parts
func (h *Handler) CreatePart(c *gin.Context) {
	var req models.NewPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bomerrors.NewValidation("request body", err.Error()))
		return
	}

	part, err := h.engine.CreatePart(req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, constants.DescCreated, []bom.Part{part})
}

// GetPart handles GET /v1/parts/{id}
func (h *Handler) GetPart(c *gin.Context) {
	id, ok := h.partID(c)
	if !ok {
		return
	}
	part, err := h.engine.GetPart(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, constants.DescFound, []bom.Part{part})
}

// DeletePart handles DELETE /v1/parts/{id}
func (h *Handler) DeletePart(c *gin.Context) {
	id, ok := h.partID(c)
	if !ok {
		return
	}
	part, err := h.engine.DeletePart(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, constants.DescDeleted, []bom.Part{part})
}

// GetChildren handles GET /v1/parts/{id}/children?filter=F
func (h *Handler) GetChildren(c *gin.Context) {
	id, ok := h.partID(c)
	if !ok {
		return
	}
	filter, err := bom.ParseFilter(c.Query(constants.QueryFilter))
	if err != nil {
		h.fail(c, err)
		return
	}
	children, err := h.engine.ListChildren(id, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, constants.DescListed, children)
}

// UpdateChildren handles POST /v1/parts/{id}/children?action=A
func (h *Handler) UpdateChildren(c *gin.Context) {
	id, ok := h.partID(c)
	if !ok {
		return
	}
	action, err := bom.ParseAction(c.Query(constants.QueryAction))
	if err != nil {
		h.fail(c, err)
		return
	}

	var req models.UpdateChildrenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bomerrors.NewValidation("request body", err.Error()))
		return
	}
	children := make([]uuid.UUID, 0, len(req.Children))
	for _, raw := range req.Children {
		cid, err := bom.ParseID(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		children = append(children, cid)
	}

	part, err := h.engine.UpdateChildren(id, action, children)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, constants.DescUpdated, []bom.Part{part})
}

// GetContained handles GET /v1/parts/{id}/contained
func (h *Handler) GetContained(c *gin.Context) {
	id, ok := h.partID(c)
	if !ok {
		return
	}
	parts, err := h.engine.Contained(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, constants.DescContained, parts)
}

// GetDescendants handles GET /v1/parts/{id}/descendants?filter=F
func (h *Handler) GetDescendants(c *gin.Context) {
	id, ok := h.partID(c)
	if !ok {
		return
	}
	filter, err := bom.ParseFilter(c.Query(constants.QueryFilter))
	if err != nil {
		h.fail(c, err)
		return
	}
	parts, err := h.engine.ListDescendants(id, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, constants.DescListed, parts)
}

func (h *Handler) partID(c *gin.Context) (uuid.UUID, bool) {
	id, err := bom.ParseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) ok(c *gin.Context, status int, description string, parts []bom.Part) {
	c.JSON(status, models.Success(status, description, parts))
}

// fail writes the error envelope with the status for the error's class
func (h *Handler) fail(c *gin.Context, err error) {
	status, code := classifyError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(status, models.Failure(code, err.Error()))
}

func classifyError(err error) (int, models.ErrorCode) {
	switch bomerrors.TypeOf(err) {
	case bomerrors.ErrorTypeNotFound:
		return http.StatusNotFound, models.ErrorCodeNotFound
	case bomerrors.ErrorTypeDuplicateName:
		return http.StatusConflict, models.ErrorCodeDuplicateName
	case bomerrors.ErrorTypeValidation:
		return http.StatusBadRequest, models.ErrorCodeValidation
	case bomerrors.ErrorTypeCycle:
		return http.StatusUnprocessableEntity, models.ErrorCodeCycle
	}
	return http.StatusInternalServerError, models.ErrorCodeInternal
}
