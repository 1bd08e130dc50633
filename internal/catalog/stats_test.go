package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/car-marketplace/internal/models"
)

func TestParseStatsPeriod(t *testing.T) {
	p, err := ParseStatsPeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)

	p, err = ParseStatsPeriod("year")
	require.NoError(t, err)
	assert.Equal(t, PeriodYear, p)

	_, err = ParseStatsPeriod("decade")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestComputeDealerStats(t *testing.T) {
	now := fixedNow
	days := func(n int) time.Time { return now.AddDate(0, 0, -n) }

	cars := []models.Car{
		{ID: "car-1", DealerID: "dealer-1", ListingDate: days(1)},
		{ID: "car-2", DealerID: "dealer-1", ListingDate: days(3)},
		{ID: "car-3", DealerID: "dealer-1", ListingDate: days(10)},
		{ID: "car-4", DealerID: "dealer-2", ListingDate: days(1)},
	}
	transactions := []models.Transaction{
		{ID: "transaction-1", DealerID: "dealer-1", BuyerEmail: "a@example.com", SalePrice: 20000, TransactionDate: days(2), Status: models.TransactionCompleted},
		{ID: "transaction-2", DealerID: "dealer-1", BuyerEmail: "a@example.com", SalePrice: 10000, TransactionDate: days(4), Status: models.TransactionCompleted},
		{ID: "transaction-3", DealerID: "dealer-1", BuyerEmail: "b@example.com", SalePrice: 30000, TransactionDate: days(5), Status: models.TransactionPending},
		{ID: "transaction-4", DealerID: "dealer-1", BuyerEmail: "c@example.com", SalePrice: 15000, TransactionDate: days(9), Status: models.TransactionCompleted},
		{ID: "transaction-5", DealerID: "dealer-2", BuyerEmail: "d@example.com", SalePrice: 50000, TransactionDate: days(1), Status: models.TransactionCompleted},
	}

	stats, err := ComputeDealerStats(cars, transactions, "dealer-1", PeriodWeek, now)
	require.NoError(t, err)

	assert.Equal(t, PeriodWeek, stats.Period)
	assert.Equal(t, 2, stats.CarsListed)
	assert.Equal(t, 2, stats.CarsSold)
	assert.Equal(t, 30000, stats.Revenue)
	assert.Equal(t, 1, stats.UniqueCustomers)

	// previous week: one listing, one completed sale of 15000
	assert.Equal(t, 100.0, stats.Change.CarsListed)
	assert.Equal(t, 100.0, stats.Change.CarsSold)
	assert.Equal(t, 100.0, stats.Change.Revenue)
	assert.Equal(t, 0.0, stats.Change.UniqueCustomers)

	require.Len(t, stats.RecentTransactions, 4)
	assert.Equal(t, "transaction-1", stats.RecentTransactions[0].ID)
	assert.Equal(t, "transaction-4", stats.RecentTransactions[3].ID)
}

func TestComputeDealerStats_RecentCapped(t *testing.T) {
	c := generateSeeded(t, 6)

	stats, err := ComputeDealerStats(c.Cars(), c.Transactions(), "dealer-2", PeriodYear, fixedNow)
	require.NoError(t, err)

	require.Len(t, stats.RecentTransactions, RecentTransactionCount)
	for i := 1; i < len(stats.RecentTransactions); i++ {
		assert.False(t, stats.RecentTransactions[i].TransactionDate.After(stats.RecentTransactions[i-1].TransactionDate))
	}
	// every listing is within the last 30 days
	assert.Equal(t, CarsPerDealer, stats.CarsListed)
}

func TestComputeDealerStats_UnknownPeriod(t *testing.T) {
	_, err := ComputeDealerStats(nil, nil, "dealer-1", StatsPeriod("quarter"), fixedNow)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 0.0, percentChange(0, 0))
	assert.Equal(t, 100.0, percentChange(0, 7))
	assert.Equal(t, -50.0, percentChange(4, 2))
	assert.Equal(t, 33.3, percentChange(3, 4))
}
