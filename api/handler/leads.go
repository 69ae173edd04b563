package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/leadscout/models"
	"github.com/use-agent/leadscout/store"
)

// Leads returns a handler for GET /api/v1/leads.
//
// Query params:
//
//	high_priority_only: "true" restricts the listing to leads without a
//	website, the ones worth a sales call.
func Leads(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		highPriorityOnly, _ := strconv.ParseBool(c.Query("high_priority_only"))

		leads, err := st.List(c.Request.Context(), highPriorityOnly)
		if err != nil {
			scrapeErr, ok := err.(*models.ScrapeError)
			if !ok {
				scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
			}
			c.JSON(http.StatusInternalServerError, models.LeadsResponse{
				Success: false,
				Error:   scrapeErr.ToDetail(),
			})
			return
		}

		if leads == nil {
			leads = []models.StoredLead{}
		}
		c.JSON(http.StatusOK, models.LeadsResponse{
			Success: true,
			Count:   len(leads),
			Leads:   leads,
		})
	}
}
