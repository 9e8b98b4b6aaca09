package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/services"
)

// DashboardHandler handles dashboard-related requests.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard handles building the dashboard report.
// @Summary     Get dashboard
// @Description Build the full financial dashboard report for the requested date range. When no range is given it defaults to the span of the user's active budgets, or the current month if there are none.
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Range start (YYYY-MM-DD)"
// @Param       end_date   query string false "Range end (YYYY-MM-DD)"
// @Success     200 {object} services.Dashboard "Dashboard report"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var startDate, endDate *time.Time
	if v := c.Query("start_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date must be YYYY-MM-DD"))
			return
		}
		startDate = &d
	}
	if v := c.Query("end_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date must be YYYY-MM-DD"))
			return
		}
		endDate = &d
	}

	dashboard, err := h.dashboardService.GetDashboard(userID, startDate, endDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
