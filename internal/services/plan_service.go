package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"printforge/internal/caching"
	"printforge/internal/common"
	"printforge/internal/models"
)

// PlanService exposes the read-only plan catalog.
type PlanService interface {
	List(ctx context.Context) []models.Plan
	Get(ctx context.Context, planID string) (*models.Plan, error)
}

// The published tiers. Subscriptions snapshot price and name from here
// at creation time, so edits to this table never touch existing rows.
var availablePlans = map[string]models.Plan{
	"basic_monthly": {
		ID:       "basic_monthly",
		Name:     "Basic Monthly",
		Price:    10.00,
		Currency: "USD",
		Interval: models.IntervalMonth,
		Features: []string{"Feature A", "Feature B"},
	},
	"premium_monthly": {
		ID:       "premium_monthly",
		Name:     "Premium Monthly",
		Price:    20.00,
		Currency: "USD",
		Interval: models.IntervalMonth,
		Features: []string{"Feature A", "Feature B", "Feature C"},
	},
	"basic_yearly": {
		ID:       "basic_yearly",
		Name:     "Basic Yearly",
		Price:    100.00,
		Currency: "USD",
		Interval: models.IntervalYear,
		Features: []string{"Feature A", "Feature B", "17% Off"},
	},
	"premium_yearly": {
		ID:       "premium_yearly",
		Name:     "Premium Yearly",
		Price:    200.00,
		Currency: "USD",
		Interval: models.IntervalYear,
		Features: []string{"Feature A", "Feature B", "Feature C", "17% Off"},
	},
}

// Catalog listing order for the presentation layer.
var planOrder = []string{"basic_monthly", "premium_monthly", "basic_yearly", "premium_yearly"}

type planService struct {
	cacheSvc caching.CacheService
}

func NewPlanService(cacheSvc caching.CacheService) PlanService {
	return &planService{cacheSvc: cacheSvc}
}

func (s *planService) List(ctx context.Context) []models.Plan {
	if s.cacheSvc != nil {
		if cached, err := s.cacheSvc.GetPlans(ctx); err == nil && len(cached) > 0 {
			return cached
		}
	}

	plans := make([]models.Plan, 0, len(planOrder))
	for _, id := range planOrder {
		plans = append(plans, availablePlans[id])
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetPlans(ctx, plans, 10*time.Minute); err != nil {
			log.Printf("Failed to cache plan catalog: %v", err)
		}
	}

	return plans
}

func (s *planService) Get(ctx context.Context, planID string) (*models.Plan, error) {
	plan, exists := availablePlans[planID]
	if !exists {
		return nil, fmt.Errorf("plan %q: %w", planID, common.ErrInvalidPlan)
	}
	return &plan, nil
}
