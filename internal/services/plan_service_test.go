package services

import (
	"context"
	"testing"

	"printforge/internal/common"
	"printforge/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPlanService_ListReturnsCatalogInOrder(t *testing.T) {
	svc := NewPlanService(nil)

	plans := svc.List(context.Background())
	assert.Len(t, plans, 4)

	ids := make([]string, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"basic_monthly", "premium_monthly", "basic_yearly", "premium_yearly"}, ids)
}

func TestPlanService_GetKnownPlan(t *testing.T) {
	svc := NewPlanService(nil)

	plan, err := svc.Get(context.Background(), "premium_yearly")
	assert.NoError(t, err)
	assert.Equal(t, "Premium Yearly", plan.Name)
	assert.Equal(t, 200.00, plan.Price)
	assert.Equal(t, "USD", plan.Currency)
	assert.Equal(t, models.IntervalYear, plan.Interval)
}

func TestPlanService_GetUnknownPlan(t *testing.T) {
	svc := NewPlanService(nil)

	plan, err := svc.Get(context.Background(), "enterprise_weekly")
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, common.ErrInvalidPlan)
}

func TestPlanService_GetReturnsCopy(t *testing.T) {
	svc := NewPlanService(nil)

	first, err := svc.Get(context.Background(), "basic_monthly")
	assert.NoError(t, err)
	first.Price = 999

	second, err := svc.Get(context.Background(), "basic_monthly")
	assert.NoError(t, err)
	assert.Equal(t, 10.00, second.Price)
}
