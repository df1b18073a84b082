package service

import (
	"context"
	"math"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/pkg/logger"
)

const (
	dashboardCacheKey = "analytics:dashboard"
	topProductsLimit  = 5

	vipSpendThreshold   int64 = 50000
	vipOrderThreshold   = 3
	curiousTryThreshold = 3
	inactiveAfterDays   = 60
)

type CustomerSegment string

const (
	SegmentVIP      CustomerSegment = "vip"
	SegmentCurious  CustomerSegment = "curious"
	SegmentInactive CustomerSegment = "inactive"
	SegmentActive   CustomerSegment = "active"
	SegmentNew      CustomerSegment = "new"
)

// Label is the Spanish name used in reports.
func (s CustomerSegment) Label() string {
	switch s {
	case SegmentVIP:
		return "VIP"
	case SegmentCurious:
		return "Curioso"
	case SegmentInactive:
		return "Inactivo"
	case SegmentActive:
		return "Activo"
	}
	return "Nuevo"
}

type ProductConversion struct {
	ProductName string  `json:"product_name"`
	Tries       int64   `json:"tries"`
	Sales       int64   `json:"sales"`
	Rate        float64 `json:"rate"`
}

type Dashboard struct {
	Revenue          int64                     `json:"revenue"`
	OrderCount       int64                     `json:"order_count"`
	LowStockProducts int64                     `json:"low_stock_products"`
	TopProducts      []repository.ProductUnits `json:"top_products"`
	TryOnConversion  []ProductConversion       `json:"tryon_conversion"`
	GeneratedAt      time.Time                 `json:"generated_at"`
}

type CustomerInsight struct {
	UserID             uint            `json:"user_id"`
	Email              string          `json:"email"`
	Name               string          `json:"name"`
	Spend              int64           `json:"spend"`
	Orders             int64           `json:"orders"`
	TryOns             int64           `json:"try_ons"`
	DaysSinceLastOrder *int            `json:"days_since_last_order,omitempty"`
	Segment            CustomerSegment `json:"segment"`
}

type AnalyticsService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	CustomerSegments(ctx context.Context) ([]CustomerInsight, error)
	BuildReport(ctx context.Context) ([]byte, error)
}

type analyticsService struct {
	repo     repository.AnalyticsRepository
	cache    Cache
	cacheTTL time.Duration
	now      func() time.Time
}

// NewAnalyticsService builds the BI reader. cache may be nil.
func NewAnalyticsService(repo repository.AnalyticsRepository, cache Cache, cacheTTL time.Duration) AnalyticsService {
	return &analyticsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (s *analyticsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	if s.cache != nil {
		var cached Dashboard
		hit, err := s.cache.GetJSON(ctx, dashboardCacheKey, &cached)
		if err != nil {
			logger.Warn("Dashboard cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else if hit {
			return &cached, nil
		}
	}

	dashboard, err := s.computeDashboard()
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, dashboardCacheKey, dashboard, s.cacheTTL); err != nil {
			logger.Warn("Dashboard cache write failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return dashboard, nil
}

func (s *analyticsService) computeDashboard() (*Dashboard, error) {
	revenue, err := s.repo.Revenue()
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.OrderCount()
	if err != nil {
		return nil, err
	}
	lowStock, err := s.repo.LowStockProductCount(model.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopSellingProducts(topProductsLimit)
	if err != nil {
		return nil, err
	}
	conversion, err := s.tryOnConversion()
	if err != nil {
		return nil, err
	}

	logger.Debug("Dashboard computed", map[string]interface{}{
		"revenue": revenue,
		"orders":  orders,
	})
	return &Dashboard{
		Revenue:          revenue,
		OrderCount:       orders,
		LowStockProducts: lowStock,
		TopProducts:      top,
		TryOnConversion:  conversion,
		GeneratedAt:      s.now(),
	}, nil
}

// tryOnConversion relates try-ons of the most tried products to the units
// sold under the same product name.
func (s *analyticsService) tryOnConversion() ([]ProductConversion, error) {
	tried, err := s.repo.MostTriedProducts(topProductsLimit)
	if err != nil {
		return nil, err
	}

	conversion := make([]ProductConversion, 0, len(tried))
	for _, p := range tried {
		sales, err := s.repo.UnitsSold(p.ProductName, model.SalesStatuses)
		if err != nil {
			return nil, err
		}
		conversion = append(conversion, ProductConversion{
			ProductName: p.ProductName,
			Tries:       p.Tries,
			Sales:       sales,
			Rate:        conversionRate(sales, p.Tries),
		})
	}
	return conversion, nil
}

// conversionRate is sales/tries as a percentage rounded to one decimal,
// ties to even (6.25 -> 6.2).
func conversionRate(sales, tries int64) float64 {
	if tries == 0 {
		return 0
	}
	rate := float64(sales) / float64(tries) * 100
	return math.RoundToEven(rate*10) / 10
}

func (s *analyticsService) CustomerSegments(ctx context.Context) ([]CustomerInsight, error) {
	stats, err := s.repo.CustomerStats(model.SalesStatuses)
	if err != nil {
		return nil, err
	}

	now := s.now()
	insights := make([]CustomerInsight, 0, len(stats))
	for _, st := range stats {
		insight := CustomerInsight{
			UserID: st.UserID,
			Email:  st.Email,
			Name:   st.Name,
			Spend:  st.Spend,
			Orders: st.Orders,
			TryOns: st.TryOns,
		}
		if st.LastOrderAt != nil {
			days := int(now.Sub(*st.LastOrderAt).Hours() / 24)
			insight.DaysSinceLastOrder = &days
		}
		insight.Segment = classifyCustomer(insight)
		insights = append(insights, insight)
	}
	return insights, nil
}

// classifyCustomer applies the segment rules in priority order; the first
// match wins.
func classifyCustomer(c CustomerInsight) CustomerSegment {
	switch {
	case c.Spend > vipSpendThreshold || c.Orders >= vipOrderThreshold:
		return SegmentVIP
	case c.TryOns > curiousTryThreshold && c.Orders == 0:
		return SegmentCurious
	case c.Orders > 0 && c.DaysSinceLastOrder != nil && *c.DaysSinceLastOrder > inactiveAfterDays:
		return SegmentInactive
	case c.Orders > 0:
		return SegmentActive
	}
	return SegmentNew
}
