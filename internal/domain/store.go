package domain

import "time"

type Product struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type,omitempty"`
	Description string    `json:"description"`
	Price       int       `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

type Variety struct {
	ID        uint    `json:"id"`
	ProductID uint    `json:"product_id"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Images    []Image `json:"images"`
}

// Image references a blob held by the file store. Order is the position of
// the image in the variety gallery.
type Image struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

type StockChangeStatus string

const (
	StockChangePending        StockChangeStatus = "pending"
	StockChangeReadyForPickup StockChangeStatus = "ready_for_pickup"
	StockChangeCarriedOut     StockChangeStatus = "carried_out"
	StockChangeRejected       StockChangeStatus = "rejected"
)

func (s StockChangeStatus) Valid() bool {
	switch s {
	case StockChangePending, StockChangeReadyForPickup, StockChangeCarriedOut, StockChangeRejected:
		return true
	}
	return false
}

// StockChange is an inventory delta. Negative amounts are purchases, positive
// amounts are arrivals. Only Status ever changes after insertion.
type StockChange struct {
	ID           uint              `json:"id"`
	VarietyID    uint              `json:"variety_id"`
	AccountEmail string            `json:"account_email"`
	Amount       int               `json:"amount"`
	Status       StockChangeStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

// VarietyStock is a variety together with its derived inventory figures.
type VarietyStock struct {
	Variety
	Product   Product `json:"product"`
	Amount    int     `json:"amount"`
	Purchases int     `json:"purchases"`
}
