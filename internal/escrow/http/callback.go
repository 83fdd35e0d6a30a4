package http

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
)

// timeNow is swapped out in timeout tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// oracleCallback is the sole inbound path for oracle verdicts. It is
// authenticated with a shared secret header; if no secret is configured
// the check is skipped for local development.
func (h *Handler) oracleCallback(c *gin.Context) {
	if h.callbackSecret != "" {
		secret := c.GetHeader("X-Oracle-Callback-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(h.callbackSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid callback secret"})
			return
		}
	}

	var body oracleCallbackReq
	if err := c.ShouldBindJSON(&body); err != nil || body.RequestID == "" || body.Success == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid callback body"})
		return
	}

	err := h.svc.ResolveVerification(c.Request.Context(), body.RequestID, *body.Success, body.ResultData)
	if err != nil {
		// Duplicate deliveries are acknowledged so the oracle stops
		// retrying; effects were applied exactly once.
		if errors.Is(err, domain.ErrAlreadyResolved) {
			c.JSON(http.StatusOK, gin.H{"ok": true, "message": "already resolved"})
			return
		}
		log.Printf("[oracle] callback failed request_id=%s: %v", body.RequestID, err)
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "callback processed"})
}

// checkTimeout lets operators expire a single outstanding request
// explicitly, independent of the periodic sweep.
func (h *Handler) checkTimeout(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "request id is required"})
		return
	}

	expired, err := h.svc.CheckTimeout(c.Request.Context(), requestID, timeNow())
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "expired": expired})
}
