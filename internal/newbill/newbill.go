// Package newbill реализует рабочий процесс формы новой заметки: проверку
// файла-подтверждения, подготовку multipart-данных, загрузку файла с созданием
// заметки и последующее обновление заметки полями формы.
package newbill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/billed-app/billed/internal/lib/format"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/lib/upload"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/session"
	"github.com/billed-app/billed/internal/store"
	"github.com/billed-app/billed/internal/ui"
)

// InvalidFormatAlert сообщение о недопустимом формате файла.
const InvalidFormatAlert = "Attention! Le format de votre fichier n'est pas pris en charge.\nSeuls les formats .jpg, .jpeg, .png sont acceptés."

// CSS-классы поля выбора файла.
const (
	ClassInvalid    = "is-invalid"
	ClassBlueBorder = "blue-border"
)

// ErrNoFileStaged возвращается при отправке формы без допустимого файла.
var ErrNoFileStaged = errors.New("no valid file staged")

// File выбранный пользователем файл.
type File struct {
	Name    string
	Content []byte
}

// FileInput поле выбора файла.
type FileInput struct {
	Value   string
	Files   []File
	classes map[string]struct{}
}

// AddClass добавляет CSS-класс.
func (in *FileInput) AddClass(class string) {
	if in.classes == nil {
		in.classes = make(map[string]struct{})
	}
	in.classes[class] = struct{}{}
}

// RemoveClass удаляет CSS-класс.
func (in *FileInput) RemoveClass(class string) {
	delete(in.classes, class)
}

// HasClass сообщает, установлен ли CSS-класс.
func (in *FileInput) HasClass(class string) bool {
	_, ok := in.classes[class]
	return ok
}

// Classes возвращает установленные классы по алфавиту.
func (in *FileInput) Classes() []string {
	out := make([]string, 0, len(in.classes))
	for c := range in.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Form значения полей формы новой заметки.
type Form struct {
	Type       string
	Name       string
	Amount     string
	Date       string
	VAT        string
	Pct        string
	Commentary string
}

// Container рабочий процесс одной попытки загрузки.
type Container struct {
	store   store.Store
	nav     ui.Navigator
	alerter ui.Alerter
	session *session.Context
	log     *slog.Logger

	fileName         *string
	isImgFormatValid bool
	formData         *store.FormData
	fileURL          string
	billID           string
}

// New создает Container. st может быть nil: тогда доступна только проверка файла.
func New(st store.Store, nav ui.Navigator, alerter ui.Alerter, sess *session.Context, log *slog.Logger) *Container {
	return &Container{
		store:   st,
		nav:     nav,
		alerter: alerter,
		session: sess,
		log:     log,
	}
}

// FileName возвращает имя подготовленного файла; nil, пока файл не выбран.
func (c *Container) FileName() *string { return c.fileName }

// IsImgFormatValid сообщает, подготовлен ли допустимый файл.
func (c *Container) IsImgFormatValid() bool { return c.isImgFormatValid }

// FileURL адрес файла, полученный от хранилища после создания.
func (c *Container) FileURL() string { return c.fileURL }

// BillID идентификатор заметки, полученный от хранилища после создания.
func (c *Container) BillID() string { return c.billID }

// HandleChangeFile обрабатывает выбор файла. Без файлов ничего не меняет.
func (c *Container) HandleChangeFile(ctx context.Context, input *FileInput) {
	if input == nil || len(input.Files) == 0 {
		return
	}
	file := input.Files[0]

	c.formData = nil
	c.fileName = nil
	c.isImgFormatValid = upload.IsAllowed(file.Name)

	if !c.isImgFormatValid {
		input.Value = ""
		input.AddClass(ClassInvalid)
		input.RemoveClass(ClassBlueBorder)
		c.alerter.Alert(InvalidFormatAlert)
		return
	}

	input.RemoveClass(ClassInvalid)
	input.AddClass(ClassBlueBorder)

	fd := store.NewFormData()
	fd.AppendFile("file", file.Name, file.Content)
	fd.Append("email", c.session.Email(ctx))

	name := file.Name
	c.formData = fd
	c.fileName = &name
}

// HandleSubmit собирает заметку из формы и, если файл подготовлен, загружает
// его в хранилище, затем обновляет созданную заметку и открывает список.
// Ошибки сети логируются и возвращаются без повторов и отката.
func (c *Container) HandleSubmit(ctx context.Context, form Form) error {
	const op = "newbill.HandleSubmit"
	log := c.log.With(slog.String("op", op))

	bill := models.Bill{
		Email:      c.session.Email(ctx),
		Type:       form.Type,
		Name:       form.Name,
		Amount:     format.Amount(form.Amount),
		Date:       form.Date,
		VAT:        form.VAT,
		Pct:        format.Pct(form.Pct),
		Commentary: form.Commentary,
		FileURL:    c.fileURL,
		Status:     models.BillStatusPending,
	}
	if c.fileName != nil {
		bill.FileName = *c.fileName
	}

	if !c.isImgFormatValid || c.formData == nil {
		log.Info("submit ignored, no valid file staged")
		return ErrNoFileStaged
	}
	if c.store == nil {
		log.Error("store is not configured")
		return store.ErrUnavailable
	}

	res, err := c.store.Bills().Create(ctx, store.CreateRequest{
		Data:    c.formData,
		Headers: store.Headers{NoContentType: true},
	})
	if err != nil {
		log.Error("failed to create bill", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	c.billID = res.Key
	c.fileURL = res.FileURL
	bill.ID = res.Key
	bill.FileURL = res.FileURL
	log.Info("bill file uploaded", slog.String("bill_id", c.billID))

	if err := c.updateBill(ctx, bill); err != nil {
		log.Error("failed to update bill", slog.String("bill_id", c.billID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	c.nav.OnNavigate(ui.RouteBills)
	return nil
}

func (c *Container) updateBill(ctx context.Context, bill models.Bill) error {
	data, err := json.Marshal(bill)
	if err != nil {
		return err
	}
	_, err = c.store.Bills().Update(ctx, store.UpdateRequest{
		Data:     string(data),
		Selector: c.billID,
	})
	return err
}
