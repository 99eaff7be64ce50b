package emulator

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every failed call.
type errorBody struct {
	Message          string            `json:"message"`
	Status           int               `json:"status"`
	CorrelationID    string            `json:"correlationId"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeBody(w, r, errorBody{Message: msg, Status: status})
}

func (s *Server) writeBody(w http.ResponseWriter, r *http.Request, body errorBody) {
	body.CorrelationID = uuid.NewString()
	body.Timestamp = s.now().UTC()
	w.Header().Set("X-Correlation-ID", body.CorrelationID)
	writeJSON(w, body.Status, body)
}

// statusFor maps domain sentinels to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrExceedsRemaining),
		errors.Is(err, core.ErrAlreadyPaid),
		errors.Is(err, core.ErrDuplicateCategory),
		errors.Is(err, core.ErrAlreadyPremium),
		errors.Is(err, storage.ErrPaymentClosed):
		return http.StatusConflict
	case errors.Is(err, core.ErrPremiumRequired):
		return http.StatusForbidden
	case core.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError turns err into an error body. Validation messages are shown as
// they are; anything unexpected is logged and hidden behind a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Status: status}

	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		body.Message = ve.Message
		if status == http.StatusBadRequest && ve.Field != "" {
			body.ValidationErrors = map[string]string{ve.Field: ve.Message}
		}
	case status == http.StatusNotFound:
		body.Message = "Resource not found"
	default:
		body.Message = "Internal server error"
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err, log.FieldErrorType, log.ErrorTypeInternal)
	}
	s.writeBody(w, r, body)
}

// decode reads a JSON body into v. A malformed body is a 400.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Invalid("body", core.ErrMissingField, "Request body is required")
		}
		return core.Invalid("body", core.ErrMissingField, fmt.Sprintf("Malformed request body: %v", err))
	}
	return nil
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			s.writeMessage(w, r, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.token)) != 1 {
			s.writeMessage(w, r, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requirePremium answers 403 with msg unless the plan is premium and running.
func (s *Server) requirePremium(msg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			premium, err := s.premium(r)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			if !premium {
				s.writeError(w, r, core.Invalid("subscription", core.ErrPremiumRequired, msg))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) premium(r *http.Request) (bool, error) {
	sub, err := s.store.GetSubscription(r.Context())
	if err != nil {
		return false, err
	}
	return sub.HasActiveSubscription(), nil
}

// pageParams reads page (zero based) and size, clamped to [1, 100].
func pageParams(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, err := strconv.Atoi(q.Get("size"))
	if err != nil || size <= 0 {
		size = core.DefaultPageSize
	}
	return max(page, 0), min(size, 100)
}

func dateParam(r *http.Request, name string) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Invalid(name, core.ErrMissingDate, fmt.Sprintf("Invalid %s, expected YYYY-MM-DD", name))
	}
	return d, nil
}

func typeParam(r *http.Request) (core.TransactionType, error) {
	v := r.URL.Query().Get("type")
	if v == "" {
		return "", nil
	}
	t, ok := core.ParseTransactionType(v)
	if !ok {
		return "", core.Invalid("type", core.ErrMissingType, "Invalid transaction type")
	}
	return t, nil
}
