// Package api exposes the requisition and routing core over HTTP. It is
// presentation glue only: every business rule lives in the domain packages.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hireflow/approval"
)

// NewRouter assembles the gin engine. Staff endpoints require an identity
// token from the external provider; the candidate portal endpoints
// (application submission, store matching) are public.
func NewRouter(h *Handler, jwtSecret []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	staff := v1.Group("", RequireIdentity(jwtSecret))
	{
		staff.POST("/requisitions", h.createRequisition)
		staff.GET("/requisitions/:id", h.getRequisition)
		staff.POST("/requisitions/:id/approve", h.decide(approval.DecisionApprove))
		staff.POST("/requisitions/:id/reject", h.decide(approval.DecisionReject))
		staff.POST("/requisitions/:id/hire", h.confirmHire)
		staff.POST("/requisitions/:id/close", h.closeRequisition)
		staff.POST("/requisitions/:id/cancel", h.cancelRequisition)
	}

	v1.POST("/applications", h.submitApplication)
	v1.POST("/match", h.matchStores)

	return r
}
