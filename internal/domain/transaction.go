package domain

import "time"

// Transaction is an immutable ledger row. At most one of StockChangeID and
// FeedbackID is set; neither means a manual administrative adjustment.
type Transaction struct {
	ID            uint      `json:"id"`
	AccountEmail  string    `json:"account_email"`
	Change        int       `json:"change"`
	StockChangeID *uint     `json:"stock_change_id,omitempty"`
	FeedbackID    *uint     `json:"feedback_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (t Transaction) IsManual() bool {
	return t.StockChangeID == nil && t.FeedbackID == nil
}

// HasSingleLink reports whether the transaction respects the
// "stock change or feedback, not both" constraint.
func (t Transaction) HasSingleLink() bool {
	return t.StockChangeID == nil || t.FeedbackID == nil
}
