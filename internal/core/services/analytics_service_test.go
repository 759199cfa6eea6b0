// internal/core/services/analytics_service_test.go
package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/shopledger-be/internal/core/ports"
	"github.com/ammerola/shopledger-be/internal/core/services"
	"github.com/ammerola/shopledger-be/test/helpers"
	"github.com/ammerola/shopledger-be/test/mocks"
)

func analyticsWindow() (time.Time, time.Time) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return from, to
}

func TestAnalyticsService_ProfitDashboard(t *testing.T) {
	from, to := analyticsWindow()

	tests := []struct {
		name       string
		summary    *ports.ProfitSummary
		wantMargin string
		wantAOV    string
	}{
		{
			name: "computes_margin_and_aov",
			summary: &ports.ProfitSummary{
				Total:     decimal.NewFromFloat(1000),
				TotalCost: decimal.NewFromFloat(600),
				Profit:    decimal.NewFromFloat(400),
				Discount:  decimal.NewFromFloat(50),
				SaleCount: 8,
			},
			wantMargin: "40",
			wantAOV:    "125",
		},
		{
			name: "rounds_to_two_places",
			summary: &ports.ProfitSummary{
				Total:     decimal.NewFromFloat(300),
				Profit:    decimal.NewFromFloat(100),
				SaleCount: 7,
			},
			wantMargin: "33.33",
			wantAOV:    "42.86",
		},
		{
			name:       "empty_window_avoids_division_by_zero",
			summary:    &ports.ProfitSummary{},
			wantMargin: "0",
			wantAOV:    "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockAnalyticsRepository(ctrl)
			service := services.NewAnalyticsService(repo, nil, helpers.TestLogger())

			repo.EXPECT().ProfitSummary(gomock.Any(), from, to, nil).Return(tt.summary, nil)
			repo.EXPECT().TopItemsByProfit(gomock.Any(), from, to, nil, 10).Return(nil, nil)

			dashboard, err := service.ProfitDashboard(context.Background(), from, to, nil)
			require.NoError(t, err)

			assert.True(t, dashboard.ProfitMargin.Equal(decimal.RequireFromString(tt.wantMargin)),
				"margin = %s", dashboard.ProfitMargin)
			assert.True(t, dashboard.AverageOrderValue.Equal(decimal.RequireFromString(tt.wantAOV)),
				"aov = %s", dashboard.AverageOrderValue)
			assert.Equal(t, from, dashboard.From)
			assert.Equal(t, to, dashboard.To)
		})
	}
}

func TestAnalyticsService_ProfitDashboard_InvalidWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalyticsRepository(ctrl)
	service := services.NewAnalyticsService(repo, nil, helpers.TestLogger())

	from, _ := analyticsWindow()

	dashboard, err := service.ProfitDashboard(context.Background(), from, from, nil)
	require.Error(t, err)
	assert.Nil(t, dashboard)
	assert.Contains(t, err.Error(), "must be after from")
}

func TestAnalyticsService_ProfitDashboard_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalyticsRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	service := services.NewAnalyticsService(repo, cache, helpers.TestLogger())

	from, to := analyticsWindow()
	cacheKey := fmt.Sprintf("dashboard:profits:%d:%d:0", from.Unix(), to.Unix())

	cached := &ports.ProfitDashboard{
		From:      from,
		To:        to,
		Total:     decimal.NewFromFloat(500),
		SaleCount: 3,
	}

	// Served from cache; the repository must not be touched.
	cache.EXPECT().
		GetOrSet(gomock.Any(), cacheKey, gomock.Any(), gomock.Any(), 5*time.Minute).
		DoAndReturn(func(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error), ttl time.Duration) error {
			raw, err := json.Marshal(cached)
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, dest)
		})

	dashboard, err := service.ProfitDashboard(context.Background(), from, to, nil)
	require.NoError(t, err)
	assert.True(t, dashboard.Total.Equal(decimal.NewFromFloat(500)))
	assert.Equal(t, int64(3), dashboard.SaleCount)
}

func TestAnalyticsService_ProfitDashboard_CacheFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalyticsRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	service := services.NewAnalyticsService(repo, cache, helpers.TestLogger())

	from, to := analyticsWindow()

	// The cache fails without ever invoking the fetch; the figures are
	// built once, directly.
	cache.EXPECT().
		GetOrSet(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))
	repo.EXPECT().
		ProfitSummary(gomock.Any(), from, to, nil).
		Return(&ports.ProfitSummary{Total: decimal.NewFromFloat(80), SaleCount: 2}, nil)
	repo.EXPECT().TopItemsByProfit(gomock.Any(), from, to, nil, 10).Return(nil, nil)

	dashboard, err := service.ProfitDashboard(context.Background(), from, to, nil)
	require.NoError(t, err)
	assert.True(t, dashboard.Total.Equal(decimal.NewFromFloat(80)))
}

func TestAnalyticsService_ProfitDashboard_FetchErrorSurfaces(t *testing.T) {
	// When the fetch inside GetOrSet fails, the repository error comes back
	// to the caller and the figures are not queried a second time.
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalyticsRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	service := services.NewAnalyticsService(repo, cache, helpers.TestLogger())

	from, to := analyticsWindow()
	dbErr := errors.New("relation does not exist")

	cache.EXPECT().
		GetOrSet(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error), ttl time.Duration) error {
			_, err := fetch()
			return err
		})
	repo.EXPECT().
		ProfitSummary(gomock.Any(), from, to, nil).
		Return(nil, dbErr).
		Times(1)

	dashboard, err := service.ProfitDashboard(context.Background(), from, to, nil)
	require.Error(t, err)
	assert.Nil(t, dashboard)
	assert.ErrorIs(t, err, dbErr)
}

func TestAnalyticsService_ProfitDashboard_SellerFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalyticsRepository(ctrl)
	service := services.NewAnalyticsService(repo, nil, helpers.TestLogger())

	from, to := analyticsWindow()
	sellerID := int64(7)

	repo.EXPECT().
		ProfitSummary(gomock.Any(), from, to, &sellerID).
		Return(&ports.ProfitSummary{Total: decimal.NewFromFloat(120), SaleCount: 2}, nil)
	repo.EXPECT().
		TopItemsByProfit(gomock.Any(), from, to, &sellerID, 10).
		Return(nil, nil)

	dashboard, err := service.ProfitDashboard(context.Background(), from, to, &sellerID)
	require.NoError(t, err)
	require.NotNil(t, dashboard.SellerID)
	assert.Equal(t, sellerID, *dashboard.SellerID)
	assert.True(t, dashboard.Total.Equal(decimal.NewFromFloat(120)))
}
