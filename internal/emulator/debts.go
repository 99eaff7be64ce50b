package emulator

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) listDebts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := core.DebtFilters{
		Type:   core.DebtType(q.Get("type")),
		Status: core.DebtStatus(q.Get("status")),
	}
	if f.Type != "" && !f.Type.Valid() {
		s.writeError(w, r, core.Invalid("type", core.ErrMissingType, "Invalid debt type"))
		return
	}
	if f.Status != "" && !f.Status.Valid() {
		s.writeError(w, r, core.Invalid("status", core.ErrMissingField, "Invalid debt status"))
		return
	}
	if v := q.Get("overdue"); v != "" {
		overdue, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, core.Invalid("overdue", core.ErrMissingField, "Invalid overdue flag"))
			return
		}
		f.Overdue = &overdue
	}

	page, size := pageParams(r)
	out, err := s.store.ListDebts(r.Context(), f, s.today(), page, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDebt(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDebt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) decodeDebt(r *http.Request, creating bool) (core.DebtInput, error) {
	var in core.DebtInput
	if err := decode(r, &in); err != nil {
		return in, err
	}
	in = in.Normalized()
	if err := in.Validate(); err != nil {
		return in, err
	}
	if creating {
		if err := in.ValidateDueDate(s.today()); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (s *Server) createDebt(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeDebt(r, true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.store.CreateDebt(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) updateDebt(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeDebt(r, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.store.UpdateDebt(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDebt(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodePayment(r *http.Request) (core.PaymentInput, error) {
	var in core.PaymentInput
	if err := decode(r, &in); err != nil {
		return in, err
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = s.now()
	}
	return in, in.Validate(s.now())
}

func (s *Server) addPayment(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodePayment(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	res, err := s.store.AddPayment(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Payment recorded",
		log.FieldDebtID, id, log.FieldPaymentID, res.Payment.ID, log.FieldStatus, string(res.UpdatedDebt.Status))
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) updatePayment(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodePayment(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.store.UpdatePayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) markPaid(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.MarkPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
