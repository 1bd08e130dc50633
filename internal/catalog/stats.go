package catalog

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/terra-clan/car-marketplace/internal/models"
)

// StatsPeriod is the reporting window of the dealer dashboard
type StatsPeriod string

const (
	PeriodWeek  StatsPeriod = "week"
	PeriodMonth StatsPeriod = "month"
	PeriodYear  StatsPeriod = "year"
)

// RecentTransactionCount is how many transactions the dashboard lists
const RecentTransactionCount = 5

// ParseStatsPeriod validates a period name; empty means month
func ParseStatsPeriod(s string) (StatsPeriod, error) {
	switch p := StatsPeriod(s); p {
	case "":
		return PeriodMonth, nil
	case PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", ErrInvalidArgument, s)
	}
}

// Duration returns the window length
func (p StatsPeriod) Duration() time.Duration {
	day := 24 * time.Hour
	switch p {
	case PeriodWeek:
		return 7 * day
	case PeriodMonth:
		return 30 * day
	case PeriodYear:
		return 365 * day
	default:
		return 0
	}
}

// StatsChange holds percent changes against the previous window, rounded to one decimal
type StatsChange struct {
	CarsListed      float64 `json:"carsListed"`
	CarsSold        float64 `json:"carsSold"`
	Revenue         float64 `json:"revenue"`
	UniqueCustomers float64 `json:"uniqueCustomers"`
}

// DealerStats summarizes a dealer's activity over one period
type DealerStats struct {
	DealerID           string               `json:"dealerId"`
	Period             StatsPeriod          `json:"period"`
	From               time.Time            `json:"from"`
	To                 time.Time            `json:"to"`
	CarsListed         int                  `json:"carsListed"`
	CarsSold           int                  `json:"carsSold"`
	Revenue            int                  `json:"revenue"`
	UniqueCustomers    int                  `json:"uniqueCustomers"`
	Change             StatsChange          `json:"change"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
}

type periodTotals struct {
	listed    int
	sold      int
	revenue   int
	customers int
}

// ComputeDealerStats reports listings and completed sales in (now-period, now] for the dealer,
// compared with the window right before it.
func ComputeDealerStats(cars []models.Car, transactions []models.Transaction, dealerID string,
	period StatsPeriod, now time.Time) (DealerStats, error) {
	window := period.Duration()
	if window == 0 {
		return DealerStats{}, fmt.Errorf("%w: unknown period %q", ErrInvalidArgument, period)
	}

	owned := FilterCarsByOwner(cars, dealerID)
	sales := FilterTransactionsByDealer(transactions, dealerID)

	from := now.Add(-window)
	current := totals(owned, sales, from, now)
	previous := totals(owned, sales, from.Add(-window), from)

	recent := clone(sales)
	slices.SortStableFunc(recent, func(a, b models.Transaction) int {
		return cmp.Compare(b.TransactionDate.UnixNano(), a.TransactionDate.UnixNano())
	})
	if len(recent) > RecentTransactionCount {
		recent = recent[:RecentTransactionCount:RecentTransactionCount]
	}

	return DealerStats{
		DealerID:        dealerID,
		Period:          period,
		From:            from,
		To:              now,
		CarsListed:      current.listed,
		CarsSold:        current.sold,
		Revenue:         current.revenue,
		UniqueCustomers: current.customers,
		Change: StatsChange{
			CarsListed:      percentChange(previous.listed, current.listed),
			CarsSold:        percentChange(previous.sold, current.sold),
			Revenue:         percentChange(previous.revenue, current.revenue),
			UniqueCustomers: percentChange(previous.customers, current.customers),
		},
		RecentTransactions: recent,
	}, nil
}

// totals counts activity in (from, to]
func totals(cars []models.Car, sales []models.Transaction, from, to time.Time) periodTotals {
	within := func(t time.Time) bool {
		return t.After(from) && !t.After(to)
	}

	var t periodTotals
	for i := range cars {
		if within(cars[i].ListingDate) {
			t.listed++
		}
	}

	customers := make(map[string]struct{})
	for _, tx := range sales {
		if !tx.IsCompleted() || !within(tx.TransactionDate) {
			continue
		}
		t.sold++
		t.revenue += tx.SalePrice
		customers[tx.BuyerEmail] = struct{}{}
	}
	t.customers = len(customers)

	return t
}

func percentChange(previous, current int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	change := float64(current-previous) / float64(previous) * 100
	return math.Round(change*10) / 10
}
