package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/terra-clan/car-marketplace/internal/models"
)

// Query helpers are pure: they never modify their inputs and always return fresh slices.

// FilterCarsByOwner returns the cars listed by the given dealer, in input order
func FilterCarsByOwner(cars []models.Car, dealerID string) []models.Car {
	return filter(cars, func(c *models.Car) bool {
		return c.DealerID == dealerID
	})
}

// SearchCars returns cars whose make, model, dealer name or dealer location contains term,
// ignoring case. A blank term returns every car unchanged.
func SearchCars(cars []models.Car, term string) []models.Car {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return clone(cars)
	}

	return filter(cars, func(c *models.Car) bool {
		return matchesTerm(c, term)
	})
}

// matchesTerm expects term to be lowercased already
func matchesTerm(c *models.Car, term string) bool {
	return strings.Contains(strings.ToLower(c.Make), term) ||
		strings.Contains(strings.ToLower(c.Model), term) ||
		strings.Contains(strings.ToLower(c.DealerName), term) ||
		strings.Contains(strings.ToLower(c.DealerLocation), term)
}

// FilterFeatured returns the featured cars, in input order
func FilterFeatured(cars []models.Car) []models.Car {
	return filter(cars, func(c *models.Car) bool {
		return c.IsFeatured
	})
}

// FilterTransactionsByDealer returns the dealer's transactions, in input order
func FilterTransactionsByDealer(transactions []models.Transaction, dealerID string) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, tx := range transactions {
		if tx.DealerID == dealerID {
			out = append(out, tx)
		}
	}
	return out
}

// SortDealersByRating returns the top `take` dealers by rating, highest first.
// Equal ratings keep their input order.
func SortDealersByRating(dealers []models.Dealer, take int) []models.Dealer {
	if take <= 0 {
		return []models.Dealer{}
	}

	sorted := clone(dealers)
	slices.SortStableFunc(sorted, func(a, b models.Dealer) int {
		return cmp.Compare(b.Rating, a.Rating)
	})

	if take < len(sorted) {
		sorted = sorted[:take:take]
	}
	return sorted
}

// Page is one window of a paginated collection
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// Paginate returns items [page*size, page*size+size). The page index wraps around
// the page count in both directions, so -1 is the last page and TotalPages is the first.
// An empty collection yields an empty page.
func Paginate[T any](items []T, pageSize, pageIndex int) (Page[T], error) {
	if pageSize <= 0 {
		return Page[T]{}, fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidArgument, pageSize)
	}

	total := len(items)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	page := Page[T]{
		Items:      []T{},
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: total,
	}
	if totalPages == 0 {
		return page, nil
	}

	index := ((pageIndex % totalPages) + totalPages) % totalPages
	start := index * pageSize
	end := start + min(pageSize, total-start)

	page.Page = index
	page.Items = clone(items[start:end])
	return page, nil
}

func filter(cars []models.Car, keep func(*models.Car) bool) []models.Car {
	out := make([]models.Car, 0)
	for i := range cars {
		if keep(&cars[i]) {
			out = append(out, cars[i])
		}
	}
	return out
}
