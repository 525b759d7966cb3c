package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/trustportal/trust-api/internal/middleware"
)

// RegisterRoutes mounts the API under v1. Everything except health goes
// through actor resolution.
func (h *Handlers) RegisterRoutes(v1 *gin.RouterGroup, jwtSecret string) {
	v1.GET("/health", h.Health.Index)

	api := v1.Group("")
	api.Use(middleware.Actor(jwtSecret))
	{
		audit := api.Group("/audit")
		{
			audit.GET("", h.Audit.Index)
			audit.GET("/verify", h.Audit.Verify)
			audit.GET("/export.xlsx", h.Audit.ExportXLSX)
			audit.GET("/export.csv", h.Audit.ExportCSV)
			audit.GET("/integrity.pdf", h.Audit.IntegrityPDF)
			audit.GET("/archives", h.Audit.Archives)
			audit.GET("/archives/*path", h.Audit.DownloadArchive)
		}

		loans := api.Group("/loans")
		{
			loans.POST("/score", h.Loan.Score)
			loans.GET("/:application_id", h.Loan.Show)
		}

		consent := api.Group("/consent")
		{
			consent.GET("/:customer_id", h.Consent.Show)
			consent.PUT("/:customer_id", h.Consent.Update)
		}

		jobs := api.Group("/jobs")
		{
			jobs.GET("/status", h.Job.Status)
			jobs.POST("/verify", h.Job.Verify)
		}
	}
}
