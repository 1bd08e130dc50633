package models

import "time"

// TransactionStatus represents the processing state of a sale
type TransactionStatus string

const (
	TransactionCompleted  TransactionStatus = "Completed"
	TransactionProcessing TransactionStatus = "Processing"
	TransactionPending    TransactionStatus = "Pending"
)

// CarDetails is a snapshot of the sold car taken when the transaction was created
type CarDetails struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Price int    `json:"price"`
}

// Transaction represents the sale of a car to a buyer
type Transaction struct {
	ID              string            `json:"id"` // "transaction-4"
	CarID           string            `json:"carId"`
	CarDetails      CarDetails        `json:"carDetails"`
	DealerID        string            `json:"dealerId"`
	DealerName      string            `json:"dealerName"`
	BuyerName       string            `json:"buyerName"`
	BuyerEmail      string            `json:"buyerEmail"`
	BuyerPhone      string            `json:"buyerPhone"`
	SalePrice       int               `json:"salePrice"`
	TransactionDate time.Time         `json:"transactionDate"`
	PaymentMethod   string            `json:"paymentMethod"`
	Status          TransactionStatus `json:"status"`
}

// IsCompleted returns true if the sale has been settled
func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionCompleted
}
