package models

// Ключи маршрутизации событий о заметках.
const (
	EventBillCreated   = "bill.created"
	EventBillSubmitted = "bill.submitted"
	EventBillReviewed  = "bill.reviewed"
)

// BillEvent сообщение, публикуемое в брокер при изменении заметки.
type BillEvent struct {
	Kind         string     `json:"kind"`
	BillID       string     `json:"billId"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Amount       int        `json:"amount"`
	Date         string     `json:"date"`
	Status       BillStatus `json:"status"`
	CommentAdmin string     `json:"commentAdmin,omitempty"`
}

// NewBillEvent формирует событие по заметке.
func NewBillEvent(kind string, b Bill) BillEvent {
	return BillEvent{
		Kind:         kind,
		BillID:       b.ID,
		Email:        b.Email,
		Name:         b.Name,
		Amount:       b.Amount,
		Date:         b.Date,
		Status:       b.Status,
		CommentAdmin: b.CommentAdmin,
	}
}
