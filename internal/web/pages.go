package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"github.com/billed-app/billed/internal/bills"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/login"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/newbill"
	"github.com/billed-app/billed/internal/session"
	"github.com/billed-app/billed/internal/store"
	"github.com/billed-app/billed/internal/ui"
	"github.com/billed-app/billed/internal/views"
)

const maxUploadSize = 10 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// errorMessage текст ошибки для пользователя.
func errorMessage(err error) string {
	var se *store.StatusError
	switch {
	case errors.As(err, &se):
		return se.Error()
	case errors.Is(err, store.ErrUnavailable):
		return "Erreur 503"
	default:
		return "Erreur 500"
	}
}

func statusFor(err error) int {
	var se *store.StatusError
	switch {
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &se):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r, "web.loginPage")
	page, err := views.LoginUI(views.LoginState{})
	h.writePage(w, log, http.StatusOK, page, err)
}

func (h *Handler) submitLogin(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.requestLog(r, "web.submitLogin").With(slog.String("role", role))

		if err := r.ParseForm(); err != nil {
			log.Info("failed to parse login form", sl.Err(err))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		form := login.Form{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		}

		sess := h.session(w, r)
		rec := &ui.Recorder{}
		err := login.New(h.stores(sess), rec, rec, sess, log).HandleSubmit(r.Context(), role, form)
		if err == nil {
			route, _ := rec.Route()
			http.Redirect(w, r, route, http.StatusSeeOther)
			return
		}

		state := views.LoginState{Alerts: rec.Alerts()}
		status := http.StatusConflict
		if !errors.Is(err, login.ErrUserExists) {
			state.Alerts = append(state.Alerts, errorMessage(err))
			status = statusFor(err)
		}
		if role == models.UserTypeAdmin {
			state.AdminEmail = form.Email
		} else {
			state.EmployeeEmail = form.Email
		}
		page, rerr := views.LoginUI(state)
		h.writePage(w, log, status, page, rerr)
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r, "web.logout")
	if err := h.session(w, r).Clear(r.Context()); err != nil {
		log.Error("failed to clear session", sl.Err(err))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
	http.Redirect(w, r, ui.RouteLogin, http.StatusSeeOther)
}

func (h *Handler) billsPage(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r, "web.billsPage")
	sess := h.session(w, r)

	rec := &ui.Recorder{}
	container := bills.New(h.stores(sess), rec, log)

	state := views.BillsState{}
	rows, err := container.GetBills(r.Context())
	status := http.StatusOK
	if err != nil {
		state.Error = errorMessage(err)
		status = statusFor(err)
	}
	state.Data = rows

	modal := bills.Modal{Width: h.modalWidth}
	container.HandleClickIconEye(bills.Icon{BillURL: r.URL.Query().Get("bill-url")}, &modal)
	state.Modal = modal

	page, rerr := views.BillsUI(state)
	h.writePage(w, log, status, page, rerr)
}

func (h *Handler) newBillPage(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r, "web.newBillPage")
	page, err := views.NewBillUI(views.NewBillState{})
	h.writePage(w, log, http.StatusOK, page, err)
}

// submitNewBill применяет к одному экземпляру рабочего процесса сначала выбор
// файла, затем отправку формы.
func (h *Handler) submitNewBill(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r, "web.submitNewBill")
	sess := h.session(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Info("failed to parse new bill form", sl.Err(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := newbill.Form{
		Type:       r.FormValue("expense-type"),
		Name:       r.FormValue("expense-name"),
		Amount:     r.FormValue("amount"),
		Date:       r.FormValue("datepicker"),
		VAT:        r.FormValue("vat"),
		Pct:        r.FormValue("pct"),
		Commentary: r.FormValue("commentary"),
	}

	rec := &ui.Recorder{}
	container := newbill.New(h.stores(sess), rec, rec, sess, log)

	input := &newbill.FileInput{}
	input.AddClass(newbill.ClassBlueBorder)
	if file, header, err := r.FormFile("file"); err == nil {
		content, rerr := io.ReadAll(file)
		file.Close()
		if rerr != nil {
			log.Error("failed to read uploaded file", sl.Err(rerr))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		input.Value = header.Filename
		input.Files = []newbill.File{{Name: header.Filename, Content: content}}
		container.HandleChangeFile(r.Context(), input)
	}

	err := container.HandleSubmit(r.Context(), form)
	if err == nil {
		route, _ := rec.Route()
		http.Redirect(w, r, route, http.StatusSeeOther)
		return
	}

	state := views.NewBillState{
		Form: views.NewBillForm{
			Type:       form.Type,
			Name:       form.Name,
			Amount:     form.Amount,
			Date:       form.Date,
			VAT:        form.VAT,
			Pct:        form.Pct,
			Commentary: form.Commentary,
		},
		FileClasses: input.Classes(),
		Alerts:      rec.Alerts(),
	}
	status := http.StatusUnprocessableEntity
	if !errors.Is(err, newbill.ErrNoFileStaged) {
		state.Alerts = append(state.Alerts, errorMessage(err))
		status = statusFor(err)
	}
	page, rerr := views.NewBillUI(state)
	h.writePage(w, log, status, page, rerr)
}

func (h *Handler) dashboardPage(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r, "web.dashboardPage")
	h.renderDashboard(w, r, log, http.StatusOK, nil)
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, alerts []string) {
	sess := h.session(w, r)
	rows, err := bills.New(h.stores(sess), &ui.Recorder{}, log).GetBills(r.Context())

	state := views.DashboardState{Data: rows, Alerts: alerts}
	if err != nil {
		state.Error = errorMessage(err)
		if status == http.StatusOK {
			status = statusFor(err)
		}
	}
	page, rerr := views.DashboardUI(state)
	h.writePage(w, log, status, page, rerr)
}

// reviewBill принимает или отклоняет заметку с комментарием администратора.
func (h *Handler) reviewBill(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r, "web.reviewBill")

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	status := models.BillStatus(r.PostFormValue("status"))
	if status != models.BillStatusAccepted && status != models.BillStatusRefused {
		log.Info("unknown review status", slog.String("status", string(status)))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	err := h.updateBill(r, h.session(w, r), id, models.BillPatch{
		Status:       &status,
		CommentAdmin: ptr(r.PostFormValue("commentAdmin")),
	})
	if err != nil {
		log.Error("failed to review bill", slog.String("bill_id", id), sl.Err(err))
		h.renderDashboard(w, r, log, statusFor(err), []string{errorMessage(err)})
		return
	}

	log.Info("bill reviewed", slog.String("bill_id", id), slog.String("status", string(status)))
	http.Redirect(w, r, ui.RouteDashboard, http.StatusSeeOther)
}

func (h *Handler) updateBill(r *http.Request, sess *session.Context, id string, patch models.BillPatch) error {
	st := h.stores(sess)
	if st == nil {
		return store.ErrUnavailable
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	_, err = st.Bills().Update(r.Context(), store.UpdateRequest{Data: string(data), Selector: id})
	return err
}

func (h *Handler) exportBills(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r, "web.exportBills")

	st := h.stores(h.session(w, r))
	var (
		data []byte
		err  = store.ErrUnavailable
	)
	if st != nil {
		data, err = st.Bills().Export(r.Context())
	}
	if err != nil {
		log.Error("failed to export bills", sl.Err(err))
		page, rerr := views.ErrorPage(models.UserTypeAdmin, errorMessage(err))
		h.writePage(w, log, statusFor(err), page, rerr)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bills-`+time.Now().Format("2006-01-02")+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error("failed to write export", sl.Err(err))
	}
}

func ptr[T any](v T) *T {
	return &v
}
