// Package models содержит доменные структуры Billed: заметки о расходах (bills),
// пользователей и события, которыми обмениваются сервисы.
package models

import "time"

// BillStatus статус проверки заметки о расходах.
type BillStatus string

const (
	BillStatusPending  BillStatus = "pending"
	BillStatusAccepted BillStatus = "accepted"
	BillStatusRefused  BillStatus = "refused"
)

// Valid сообщает, является ли статус одним из известных значений.
func (s BillStatus) Valid() bool {
	switch s {
	case BillStatusPending, BillStatusAccepted, BillStatusRefused:
		return true
	}
	return false
}

// DefaultPct процент НДС, применяемый, когда пользователь его не указал.
const DefaultPct = 20

// Bill заметка о расходах. Поле Date хранится строкой как есть:
// повреждённая дата должна переживать запись и чтение без изменений.
type Bill struct {
	ID           string     `json:"id,omitempty"`
	Email        string     `json:"email"`
	Type         string     `json:"type"`
	Name         string     `json:"name"`
	Amount       int        `json:"amount"`
	Date         string     `json:"date"`
	VAT          string     `json:"vat"`
	Pct          int        `json:"pct"`
	Commentary   string     `json:"commentary"`
	CommentAdmin string     `json:"commentAdmin,omitempty"`
	FileURL      string     `json:"fileUrl"`
	FileName     string     `json:"fileName"`
	Status       BillStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt,omitzero"`
}

// BillPatch частичное обновление заметки: nil означает «не менять».
type BillPatch struct {
	Email        *string     `json:"email,omitempty" validate:"omitempty,email"`
	Type         *string     `json:"type,omitempty"`
	Name         *string     `json:"name,omitempty"`
	Amount       *int        `json:"amount,omitempty"`
	Date         *string     `json:"date,omitempty"`
	VAT          *string     `json:"vat,omitempty"`
	Pct          *int        `json:"pct,omitempty"`
	Commentary   *string     `json:"commentary,omitempty"`
	CommentAdmin *string     `json:"commentAdmin,omitempty"`
	FileURL      *string     `json:"fileUrl,omitempty"`
	FileName     *string     `json:"fileName,omitempty"`
	Status       *BillStatus `json:"status,omitempty"`
}

// Apply переносит заданные поля патча в заметку.
func (p BillPatch) Apply(b *Bill) {
	if p.Email != nil {
		b.Email = *p.Email
	}
	if p.Type != nil {
		b.Type = *p.Type
	}
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.VAT != nil {
		b.VAT = *p.VAT
	}
	if p.Pct != nil {
		b.Pct = *p.Pct
	}
	if p.Commentary != nil {
		b.Commentary = *p.Commentary
	}
	if p.CommentAdmin != nil {
		b.CommentAdmin = *p.CommentAdmin
	}
	if p.FileURL != nil {
		b.FileURL = *p.FileURL
	}
	if p.FileName != nil {
		b.FileName = *p.FileName
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}

// UploadResult ответ хранилища на загрузку файла-подтверждения.
type UploadResult struct {
	FileURL string `json:"fileUrl"`
	Key     string `json:"key"`
}
