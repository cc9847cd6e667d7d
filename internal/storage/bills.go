package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/billed-app/billed/internal/models"
)

const billColumns = `id, email, type, name, amount, date, vat, pct, commentary,
			      comment_admin, file_url, file_name, status, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(row scanner) (*models.Bill, error) {
	var b models.Bill
	var status string
	if err := row.Scan(&b.ID, &b.Email, &b.Type, &b.Name, &b.Amount, &b.Date, &b.VAT, &b.Pct,
		&b.Commentary, &b.CommentAdmin, &b.FileURL, &b.FileName, &status, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Status = models.BillStatus(status)
	return &b, nil
}

// CreateBill вставляет новую заметку и возвращает её с ID и временем создания.
func (s *Storage) CreateBill(ctx context.Context, bill models.Bill) (*models.Bill, error) {
	const op = "storage.CreateBill"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if bill.Status == "" {
		bill.Status = models.BillStatusPending
	}
	query := `INSERT INTO bills (email, type, name, amount, date, vat, pct, commentary,
			      comment_admin, file_url, file_name, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id, created_at`
	if err := s.DB.QueryRowContext(ctx, query,
		bill.Email, bill.Type, bill.Name, bill.Amount, bill.Date, bill.VAT, bill.Pct, bill.Commentary,
		bill.CommentAdmin, bill.FileURL, bill.FileName, string(bill.Status),
	).Scan(&bill.ID, &bill.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &bill, nil
}

// GetBill возвращает заметку по ID.
func (s *Storage) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	const op = "storage.GetBill"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + billColumns + ` FROM bills WHERE id::text = $1`
	b, err := scanBill(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrBillNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// ListBills возвращает все заметки, если email пуст, иначе заметки сотрудника.
func (s *Storage) ListBills(ctx context.Context, email string) ([]*models.Bill, error) {
	const op = "storage.ListBills"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var (
		rows *sql.Rows
		err  error
	)
	if email == "" {
		rows, err = s.DB.QueryContext(ctx, `SELECT `+billColumns+` FROM bills ORDER BY created_at`)
	} else {
		rows, err = s.DB.QueryContext(ctx,
			`SELECT `+billColumns+` FROM bills WHERE email = $1 ORDER BY created_at`, email)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateBill перезаписывает изменяемые поля заметки.
func (s *Storage) UpdateBill(ctx context.Context, bill models.Bill) (*models.Bill, error) {
	const op = "storage.UpdateBill"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE bills
			  SET email = $1, type = $2, name = $3, amount = $4, date = $5, vat = $6, pct = $7,
			      commentary = $8, comment_admin = $9, file_url = $10, file_name = $11, status = $12
			  WHERE id::text = $13
			  RETURNING ` + billColumns
	b, err := scanBill(s.DB.QueryRowContext(ctx, query,
		bill.Email, bill.Type, bill.Name, bill.Amount, bill.Date, bill.VAT, bill.Pct,
		bill.Commentary, bill.CommentAdmin, bill.FileURL, bill.FileName, string(bill.Status), bill.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrBillNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}
