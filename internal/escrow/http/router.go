package http

import "github.com/gin-gonic/gin"

// Register attaches the escrow routes. Client-facing routes go on the
// client group (API-key gated when configured); the oracle callback and
// timeout routes sit on the open group and carry their own shared-secret
// check.
func (h *Handler) Register(client, open *gin.RouterGroup) {
	projects := client.Group("/projects")
	projects.POST("", h.create)
	projects.GET("", h.list)
	projects.GET("/count", h.count)
	projects.GET("/:id", h.get)
	projects.GET("/:id/detail", h.detail)
	projects.POST("/:id/contributions", h.contribute)
	projects.POST("/:id/milestones/:index/verification", h.requestVerification)
	projects.POST("/:id/milestones/:index/release", h.release)

	client.GET("/price", h.price)

	oracle := open.Group("/oracle")
	oracle.POST("/callback", h.oracleCallback)
	oracle.POST("/requests/:request_id/timeout", h.checkTimeout)
}
