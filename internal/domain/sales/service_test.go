package sales

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSaleRepo struct {
	sales   []Sale
	deleted []string
}

func (m *mockSaleRepo) List(context.Context) ([]Sale, error) {
	return m.sales, nil
}

func (m *mockSaleRepo) Delete(_ context.Context, id string) error {
	for i, s := range m.sales {
		if s.ID == id {
			m.sales = append(m.sales[:i], m.sales[i+1:]...)
			m.deleted = append(m.deleted, id)
			return nil
		}
	}
	return ErrNotFound
}

func saleAt(id string, amount string, at time.Time) Sale {
	return Sale{
		ID:          id,
		TotalAmount: decimal.RequireFromString(amount),
		CreatedAt:   at,
	}
}

func TestDailySummary(t *testing.T) {
	day := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	ledger := []Sale{
		saleAt("s-1", "10.50", day.Add(9*time.Hour)),
		saleAt("s-2", "4.25", day.Add(23*time.Hour+59*time.Minute)),
		saleAt("s-3", "99.99", day.AddDate(0, 0, -1).Add(12*time.Hour)),
		saleAt("s-4", "7.00", day.AddDate(0, 0, 1)),
	}

	sum := DailySummary(ledger, day.Add(15*time.Hour), time.UTC)
	assert.Equal(t, 2, sum.Count)
	assert.True(t, sum.Revenue.Equal(decimal.RequireFromString("14.75")), sum.Revenue.String())
}

func TestDailySummaryEmptyDay(t *testing.T) {
	sum := DailySummary(nil, time.Now(), time.UTC)
	assert.Zero(t, sum.Count)
	assert.True(t, sum.Revenue.IsZero())
}

func TestDailySummaryTimeZone(t *testing.T) {
	// 2026-03-14 23:30 UTC is already 2026-03-15 in UTC+2.
	loc := time.FixedZone("EET", 2*3600)
	sale := saleAt("s-1", "5.00", time.Date(2026, time.March, 14, 23, 30, 0, 0, time.UTC))

	utcDay := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DailySummary([]Sale{sale}, utcDay, time.UTC).Count)
	assert.Equal(t, 0, DailySummary([]Sale{sale}, utcDay, loc).Count)

	nextDay := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DailySummary([]Sale{sale}, nextDay, loc).Count)
}

func TestLineTotal(t *testing.T) {
	item := SaleItem{Quantity: 3, PriceAtSale: decimal.RequireFromString("2.50")}
	assert.True(t, item.LineTotal().Equal(decimal.RequireFromString("7.50")))
}

func TestServiceSummaryFor(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockSaleRepo{sales: []Sale{
		saleAt("s-1", "3.00", now),
		saleAt("s-2", "2.00", now.AddDate(0, 0, -3)),
	}}
	svc := NewService(repo)

	sum, err := svc.SummaryFor(context.Background(), now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)
	assert.True(t, sum.Revenue.Equal(decimal.NewFromInt(3)))
}

func TestServiceDelete(t *testing.T) {
	repo := &mockSaleRepo{sales: []Sale{saleAt("s-1", "3.00", time.Now())}}
	svc := NewService(repo)

	require.NoError(t, svc.Delete(context.Background(), "s-1"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "s-1"), ErrNotFound)
}
