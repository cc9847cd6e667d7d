// Package views отображает состояние страниц в HTML. Функции пакета чистые:
// одно и то же состояние всегда даёт одну и ту же разметку.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/billed-app/billed/internal/bills"
	"github.com/billed-app/billed/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = map[string]*template.Template{}

func init() {
	base := template.Must(template.ParseFS(templatesFS, "templates/base.html"))
	for _, name := range []string{"bills", "newbill", "login", "dashboard", "error", "loading"} {
		t := template.Must(base.Clone())
		pages[name] = template.Must(t.ParseFS(templatesFS, "templates/"+name+".html"))
	}
}

// ExpenseTypes категории расходов формы новой заметки.
var ExpenseTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

// Nav состояние боковой панели.
type Nav struct {
	Role   string
	Active string
}

// BillsState состояние страницы списка заметок. Data == nil и пустой список
// отображаются одинаково.
type BillsState struct {
	Data    []bills.Row
	Loading bool
	Error   string
	Modal   bills.Modal
}

// NewBillForm значения, которыми заполняется форма после неудачной отправки.
type NewBillForm struct {
	Type       string
	Name       string
	Amount     string
	Date       string
	VAT        string
	Pct        string
	Commentary string
}

// NewBillState состояние формы новой заметки.
type NewBillState struct {
	Form        NewBillForm
	FileClasses []string
	Alerts      []string
}

// LoginState состояние страницы входа.
type LoginState struct {
	EmployeeEmail string
	AdminEmail    string
	Alerts        []string
}

// DashboardState состояние панели администратора.
type DashboardState struct {
	Data   []bills.Row
	Error  string
	Alerts []string
}

// BillsUI отображает список заметок сотрудника от последней к первой.
func BillsUI(state BillsState) (string, error) {
	if state.Error == "" && state.Loading {
		return LoadingPage()
	}
	rows := make([]bills.Row, len(state.Data))
	copy(rows, state.Data)
	bills.SortDescending(rows)

	return render("bills", struct {
		Nav   Nav
		Rows  []bills.Row
		Error string
		Modal bills.Modal
	}{
		Nav:   Nav{Role: models.UserTypeEmployee, Active: "bills"},
		Rows:  rows,
		Error: state.Error,
		Modal: state.Modal,
	})
}

// NewBillUI отображает форму новой заметки.
func NewBillUI(state NewBillState) (string, error) {
	classes := state.FileClasses
	if len(classes) == 0 {
		classes = []string{"blue-border"}
	}
	return render("newbill", struct {
		Nav          Nav
		Form         NewBillForm
		FileClasses  string
		Alerts       []string
		ExpenseTypes []string
	}{
		Nav:          Nav{Role: models.UserTypeEmployee, Active: "newbill"},
		Form:         state.Form,
		FileClasses:  strings.Join(classes, " "),
		Alerts:       state.Alerts,
		ExpenseTypes: ExpenseTypes,
	})
}

// LoginUI отображает формы входа сотрудника и администратора.
func LoginUI(state LoginState) (string, error) {
	return render("login", state)
}

// DashboardUI отображает все заметки для проверки администратором.
func DashboardUI(state DashboardState) (string, error) {
	rows := make([]bills.Row, len(state.Data))
	copy(rows, state.Data)
	bills.SortDescending(rows)

	return render("dashboard", struct {
		Nav    Nav
		Rows   []bills.Row
		Error  string
		Alerts []string
	}{
		Nav:    Nav{Role: models.UserTypeAdmin},
		Rows:   rows,
		Error:  state.Error,
		Alerts: state.Alerts,
	})
}

// ErrorPage отображает страницу ошибки с сообщением msg.
func ErrorPage(role, msg string) (string, error) {
	return render("error", struct {
		Nav     Nav
		Message string
	}{
		Nav:     Nav{Role: role},
		Message: msg,
	})
}

// LoadingPage отображает страницу загрузки.
func LoadingPage() (string, error) {
	return render("loading", struct{ Nav Nav }{Nav: Nav{Role: models.UserTypeEmployee}})
}

func render(page string, data any) (string, error) {
	const op = "views.render"
	t, ok := pages[page]
	if !ok {
		return "", fmt.Errorf("%s: unknown page %q", op, page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, page, err)
	}
	return buf.String(), nil
}
