package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
)

func (h *Handler) create(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	creator := accountFrom(c)
	if creator == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing X-Account header"})
		return
	}

	target, err := domain.ParseAmount(req.TargetAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid target_amount"})
		return
	}
	amounts := make([]domain.Amount, 0, len(req.MilestoneAmounts))
	for _, s := range req.MilestoneAmounts {
		a, err := domain.ParseAmount(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid milestone amount"})
			return
		}
		amounts = append(amounts, a)
	}

	p, err := h.svc.CreateProject(c.Request.Context(), strings.TrimSpace(req.Name), creator, target, amounts, req.MilestoneData)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project_id": p.ID, "project": p})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetProject(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": projectResp{
		Name:          p.Name,
		TargetAmount:  p.TargetAmount.String(),
		CurrentAmount: p.CurrentAmount.String(),
		Creator:       p.Creator,
		Funded:        p.Funded,
	}})
}

func (h *Handler) detail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetProject(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) count(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": h.svc.ProjectCount()})
}

func (h *Handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": h.svc.ListProjects()})
}

func (h *Handler) contribute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req contributeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid amount"})
		return
	}

	newCurrent, err := h.svc.Contribute(c.Request.Context(), id, amount, accountFrom(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "current_amount": newCurrent.String()})
}

func (h *Handler) requestVerification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}

	requestID, err := h.svc.RequestVerification(c.Request.Context(), id, index, accountFrom(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true, "request_id": requestID})
}

func (h *Handler) release(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}

	amount, err := h.svc.Release(c.Request.Context(), id, index, accountFrom(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "released_amount": amount.String()})
}

func (h *Handler) price(c *gin.Context) {
	if h.prices == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "price feed not configured"})
		return
	}
	quote, err := h.prices.Latest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "price": quote})
}

func accountFrom(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-Account"))
}

func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid project id"})
		return 0, false
	}
	return id, true
}

func pathIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid milestone index"})
		return 0, false
	}
	return index, true
}

// respondErr maps a domain error to an HTTP status. Unrecognized errors
// are internal.
func respondErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownRequest):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyFunded),
		errors.Is(err, domain.ErrOverflow),
		errors.Is(err, domain.ErrTerminalState),
		errors.Is(err, domain.ErrOutOfOrder),
		errors.Is(err, domain.ErrRequestPending),
		errors.Is(err, domain.ErrAlreadyResolved):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrTimeout):
		status = http.StatusGone
	case errors.Is(err, domain.ErrInsufficientFee):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrTransferFailed):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}
