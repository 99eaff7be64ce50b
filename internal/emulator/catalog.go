package emulator

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

const walletLimitMessage = "Free users can only create 1 wallet. Upgrade to Premium for unlimited wallets."

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := typeParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.ListCategories(r.Context(), kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func decodeCategory(r *http.Request) (core.CategoryInput, error) {
	var in core.CategoryInput
	if err := decode(r, &in); err != nil {
		return in, err
	}
	in = in.Normalized()
	return in, in.Validate()
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCategory(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.store.CreateCategory(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCategory(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.store.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listWallets(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.ListWallets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.store.GetWallet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func decodeWallet(r *http.Request) (core.WalletInput, error) {
	var in core.WalletInput
	if err := decode(r, &in); err != nil {
		return in, err
	}
	if c, err := core.ParseCurrency(string(in.Currency)); err == nil {
		in.Currency = c
	}
	return in, in.Validate()
}

// createWallet enforces the free plan's single wallet.
func (s *Server) createWallet(w http.ResponseWriter, r *http.Request) {
	in, err := decodeWallet(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	premium, err := s.premium(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !premium {
		n, err := s.store.CountWallets(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if n >= 1 {
			s.writeError(w, r, core.Invalid("wallet", core.ErrPremiumRequired, walletLimitMessage))
			return
		}
	}
	wallet, err := s.store.CreateWallet(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wallet)
}

func (s *Server) updateWallet(w http.ResponseWriter, r *http.Request) {
	in, err := decodeWallet(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wallet, err := s.store.UpdateWallet(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (s *Server) deleteWallet(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteWallet(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := typeParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, err := dateParam(r, "from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f := core.TransactionFilters{WalletID: q.Get("walletId"), CategoryID: q.Get("categoryId"), Type: kind, DateFrom: from, DateTo: to}

	page, size := pageParams(r)
	out, err := s.store.ListTransactions(r.Context(), f, page, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.store.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) decodeTransaction(r *http.Request) (core.TransactionInput, error) {
	var in core.TransactionInput
	if err := decode(r, &in); err != nil {
		return in, err
	}
	if t, ok := core.ParseTransactionType(string(in.Type)); ok {
		in.Type = t
	}
	return in, in.Validate(s.now().In(s.loc))
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeTransaction(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tx, err := s.store.CreateTransaction(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeTransaction(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tx, err := s.store.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
