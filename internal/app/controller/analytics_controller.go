package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/moda-backend/internal/app/service"
	"github.com/ikkim/moda-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AnalyticsController struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsController(analyticsService service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
	}
}

// Dashboard
// GET /api/v1/admin/analytics/dashboard
func (ctrl *AnalyticsController) Dashboard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	dashboard, err := ctrl.analyticsService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, log, err, "build dashboard", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": dashboard})
}

// Customers returns every customer with its CRM segment
// GET /api/v1/admin/analytics/customers
func (ctrl *AnalyticsController) Customers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	customers, err := ctrl.analyticsService.CustomerSegments(c.Request.Context())
	if err != nil {
		respondError(c, log, err, "segment customers", nil)
		return
	}

	counts := make(map[service.CustomerSegment]int)
	for _, customer := range customers {
		counts[customer.Segment]++
	}
	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"segments":  counts,
	})
}

// Report downloads the management workbook
// GET /api/v1/admin/analytics/report
func (ctrl *AnalyticsController) Report(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	report, err := ctrl.analyticsService.BuildReport(c.Request.Context())
	if err != nil {
		respondError(c, log, err, "build report", nil)
		return
	}

	filename := fmt.Sprintf("reporte-moda-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, report)
}
