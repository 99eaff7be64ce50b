package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectorSuspicious(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"plain list", http.MethodGet, "/api/v1/debts?type=PAYABLE&page=0", "", false},
		{"traversal", http.MethodGet, "/api/v1/../../etc/passwd", "", true},
		{"dotenv", http.MethodGet, "/.env", "", true},
		{"encoded injection", http.MethodGet, "/api/v1/transactions?categoryId=1%20UNION%20SELECT", "", true},
		{"trace method", "TRACE", "/api/v1/debts", "", true},
		{"scanner agent", http.MethodGet, "/api/v1/debts", "sqlmap/1.7", true},
		{"curl is fine", http.MethodGet, "/api/v1/debts", "curl/8.5.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://emulator"+tt.target, nil)
			if tt.agent != "" {
				req.Header.Set("User-Agent", tt.agent)
			}
			if got := d.Suspicious(req); got != tt.want {
				t.Errorf("Suspicious = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectorMiddleware(t *testing.T) {
	d := NewDetector()
	h := d.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wp-admin/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("probe status = %d, want 400", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("api status = %d, want 204", rec.Code)
	}
	if d.Rejected() != 1 {
		t.Errorf("Rejected = %d, want 1", d.Rejected())
	}
}

func TestDetectorClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct public", "203.0.113.7:5000", "198.51.100.1", "203.0.113.7"},
		{"trusted proxy", "10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy bad header", "127.0.0.1:5000", "nonsense", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("X-Forwarded-For", tt.xff)
			if got := d.ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
