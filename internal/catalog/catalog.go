package catalog

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/terra-clan/car-marketplace/internal/models"
)

// Catalog is the immutable set of dealers, cars and transactions for a process lifetime.
// It is safe for concurrent reads; accessors return copies so callers cannot alter it.
type Catalog struct {
	dealers      []models.Dealer
	cars         []models.Car
	transactions []models.Transaction

	dealerIndex      map[string]int
	carIndex         map[string]int
	transactionIndex map[string]int

	generatedAt time.Time
}

// New builds a catalog from existing collections after checking referential integrity
func New(dealers []models.Dealer, cars []models.Car, transactions []models.Transaction) (*Catalog, error) {
	c := build(clone(dealers), cloneCars(cars), clone(transactions), time.Now().UTC())

	if len(c.dealerIndex) != len(dealers) {
		return nil, fmt.Errorf("%w: duplicate dealer id", ErrInvalidArgument)
	}
	if len(c.carIndex) != len(cars) {
		return nil, fmt.Errorf("%w: duplicate car id", ErrInvalidArgument)
	}
	if len(c.transactionIndex) != len(transactions) {
		return nil, fmt.Errorf("%w: duplicate transaction id", ErrInvalidArgument)
	}

	for _, car := range cars {
		if _, ok := c.dealerIndex[car.DealerID]; !ok {
			return nil, fmt.Errorf("%w: car %s references unknown dealer %s", ErrInvalidArgument, car.ID, car.DealerID)
		}
	}

	for _, tx := range transactions {
		i, ok := c.carIndex[tx.CarID]
		if !ok {
			return nil, fmt.Errorf("%w: transaction %s references unknown car %s", ErrInvalidArgument, tx.ID, tx.CarID)
		}
		if tx.SalePrice > cars[i].Price {
			return nil, fmt.Errorf("%w: transaction %s sale price %d exceeds listing price %d",
				ErrInvalidArgument, tx.ID, tx.SalePrice, cars[i].Price)
		}
	}

	return c, nil
}

// build indexes the collections without validation; the generator's output is valid by construction
func build(dealers []models.Dealer, cars []models.Car, transactions []models.Transaction, at time.Time) *Catalog {
	c := &Catalog{
		dealers:          dealers,
		cars:             cars,
		transactions:     transactions,
		dealerIndex:      make(map[string]int, len(dealers)),
		carIndex:         make(map[string]int, len(cars)),
		transactionIndex: make(map[string]int, len(transactions)),
		generatedAt:      at,
	}

	for i, d := range dealers {
		c.dealerIndex[d.ID] = i
	}
	for i, car := range cars {
		c.carIndex[car.ID] = i
	}
	for i, tx := range transactions {
		c.transactionIndex[tx.ID] = i
	}

	return c
}

// Dealers returns all dealers in generation order
func (c *Catalog) Dealers() []models.Dealer {
	return clone(c.dealers)
}

// Cars returns all cars in generation order
func (c *Catalog) Cars() []models.Car {
	return cloneCars(c.cars)
}

// Transactions returns all transactions in generation order
func (c *Catalog) Transactions() []models.Transaction {
	return clone(c.transactions)
}

// DealerByID looks up a dealer; ok is false if it does not exist
func (c *Catalog) DealerByID(id string) (models.Dealer, bool) {
	i, ok := c.dealerIndex[id]
	if !ok {
		return models.Dealer{}, false
	}
	return c.dealers[i], true
}

// DealerByName looks up a dealer by display name, ignoring case and surrounding spaces
func (c *Catalog) DealerByName(name string) (models.Dealer, bool) {
	name = strings.TrimSpace(name)
	for _, d := range c.dealers {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return models.Dealer{}, false
}

// CarByID looks up a car; ok is false if it does not exist
func (c *Catalog) CarByID(id string) (models.Car, bool) {
	i, ok := c.carIndex[id]
	if !ok {
		return models.Car{}, false
	}
	return cloneCar(c.cars[i]), true
}

// TransactionByID looks up a transaction; ok is false if it does not exist
func (c *Catalog) TransactionByID(id string) (models.Transaction, bool) {
	i, ok := c.transactionIndex[id]
	if !ok {
		return models.Transaction{}, false
	}
	return c.transactions[i], true
}

// GeneratedAt returns when the catalog was built
func (c *Catalog) GeneratedAt() time.Time {
	return c.generatedAt
}

// Summary returns collection sizes for logging
func (c *Catalog) Summary() map[string]int {
	featured := 0
	for i := range c.cars {
		if c.cars[i].IsFeatured {
			featured++
		}
	}
	return map[string]int{
		"dealers":      len(c.dealers),
		"cars":         len(c.cars),
		"featured":     featured,
		"transactions": len(c.transactions),
	}
}

// clone returns a non-nil copy of s
func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// cloneCar copies the car along with its feature and image slices
func cloneCar(c models.Car) models.Car {
	c.Features = slices.Clone(c.Features)
	c.Images = slices.Clone(c.Images)
	return c
}

func cloneCars(cars []models.Car) []models.Car {
	out := make([]models.Car, len(cars))
	for i := range cars {
		out[i] = cloneCar(cars[i])
	}
	return out
}
