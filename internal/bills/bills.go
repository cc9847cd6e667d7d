// Package bills реализует конвейер списка заметок сотрудника: получение из
// хранилища, хронологическую сортировку, форматирование полей и показ
// файла-подтверждения в модальном окне.
package bills

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/billed-app/billed/internal/lib/format"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/store"
	"github.com/billed-app/billed/internal/ui"
)

// ProofAlt альтернативный текст изображения-подтверждения.
const ProofAlt = "Bill"

// Row заметка в отображаемом виде. Date и Status перекрывают поля исходной
// заметки отображаемыми значениями; Timestamp это разобранная исходная дата,
// нулевая, если дату разобрать не удалось.
type Row struct {
	models.Bill
	Date      string
	Status    string
	Timestamp time.Time
}

// Icon значок «глаз» строки списка; BillURL хранит значение data-bill-url.
type Icon struct {
	BillURL string
}

// Proof изображение в модальном окне.
type Proof struct {
	Src   string
	Width int
	Alt   string
}

// Modal модальное окно "Justificatif". Width задаёт отображаемую ширину окна.
type Modal struct {
	Width int
	Proof *Proof
	Shown bool
}

// Container рабочий процесс страницы списка заметок.
type Container struct {
	store store.Store
	nav   ui.Navigator
	log   *slog.Logger
}

// New создает Container. st может быть nil: хранилище не подключено.
func New(st store.Store, nav ui.Navigator, log *slog.Logger) *Container {
	return &Container{
		store: st,
		nav:   nav,
		log:   log,
	}
}

// HandleClickNewBill открывает форму новой заметки.
func (c *Container) HandleClickNewBill() {
	c.nav.OnNavigate(ui.RouteNewBill)
}

// HandleClickIconEye показывает подтверждение значка в модальном окне
// шириной в половину окна. Ничего не делает без URL или без окна.
func (c *Container) HandleClickIconEye(icon Icon, modal *Modal) {
	if icon.BillURL == "" || modal == nil {
		return
	}
	modal.Proof = &Proof{
		Src:   icon.BillURL,
		Width: int(math.Floor(float64(modal.Width) * 0.5)),
		Alt:   ProofAlt,
	}
	modal.Shown = true
}

// GetBills получает заметки, сортирует их по возрастанию даты и форматирует.
// Ошибка форматирования даты оставляет исходную дату и не прерывает обработку.
func (c *Container) GetBills(ctx context.Context) ([]Row, error) {
	const op = "bills.GetBills"
	if c.store == nil {
		return nil, store.ErrUnavailable
	}
	log := c.log.With(slog.String("op", op))

	docs, err := c.store.Bills().List(ctx)
	if err != nil {
		log.Error("failed to list bills", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := make([]Row, len(docs))
	for i, doc := range docs {
		rows[i] = Row{Bill: doc, Date: doc.Date}
		if t, err := format.ParseDate(doc.Date); err == nil {
			rows[i].Timestamp = t
		}
	}
	SortAscending(rows)

	for i := range rows {
		rows[i].Status = format.Status(rows[i].Bill.Status)
		date, err := format.Date(rows[i].Bill.Date)
		if err != nil {
			log.Warn("keeping unformatted date", slog.String("bill_id", rows[i].ID), sl.Err(err))
			continue
		}
		rows[i].Date = date
	}

	log.Debug("bills fetched", slog.Int("count", len(rows)))
	return rows, nil
}

// SortAscending сортирует строки по возрастанию даты; строки без даты идут в конце.
func SortAscending(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return before(rows[i], rows[j])
	})
}

// SortDescending сортирует строки от последней к первой; строки без даты идут в конце.
func SortDescending(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return after(rows[i], rows[j])
	})
}

func before(a, b Row) bool {
	switch {
	case a.Timestamp.IsZero():
		return false
	case b.Timestamp.IsZero():
		return true
	default:
		return a.Timestamp.Before(b.Timestamp)
	}
}

func after(a, b Row) bool {
	switch {
	case a.Timestamp.IsZero():
		return false
	case b.Timestamp.IsZero():
		return true
	default:
		return a.Timestamp.After(b.Timestamp)
	}
}
