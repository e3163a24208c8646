package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/store"
)

var fixedNow = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC) // a Monday

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHandler_Countdown(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, chat_id, name, purpose, dosage_notes`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "chat_id", "name", "purpose", "dosage_notes", "stock_count", "low_stock_threshold", "created_at"}).
			AddRow(2, 7, "Metformin", nil, nil, 30, 5, 1700000100).
			AddRow(1, 7, "Ibuprofen", "pain", nil, 10, 5, 1700000000))
	mock.ExpectQuery(`SELECT s.id, s.med_id, s.time_of_day`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "med_id", "time_of_day", "days_of_week", "timezone", "enabled"}).
			AddRow(10, 1, "09:00", "daily", "UTC", 1).
			AddRow(11, 2, "20:00", "daily", "UTC", 1).
			AddRow(12, 2, "08:30", "daily", "UTC", 0))

	h := &Handler{Repo: store.NewSQLiteRepo(db, nil), Log: zap.NewNop(), Now: func() time.Time { return fixedNow }}
	req := requestWithChiURLParams("GET", "/api/chats/7/countdown", nil, map[string]string{"chatID": "7"})
	rr := httptest.NewRecorder()
	h.Countdown(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Countdown status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	var resp CountdownResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ChatID != 7 || len(resp.Entries) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	first, second := resp.Entries[0], resp.Entries[1]
	if first.Medication != "Ibuprofen" || first.RemainingSeconds != 3600 || first.Remaining != "1h 0m 0s" {
		t.Errorf("unexpected first entry %+v", first)
	}
	if first.Label != "2024-01-01 09:00 (UTC)" || !first.At.Equal(fixedNow.Add(time.Hour)) {
		t.Errorf("unexpected first occurrence %+v", first)
	}
	if second.Medication != "Metformin" || second.RuleID != 11 || second.TimeOfDay != "20:00" {
		t.Errorf("unexpected second entry %+v", second)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestHandler_Countdown_BadChatID(t *testing.T) {
	h := &Handler{Log: zap.NewNop(), Now: func() time.Time { return fixedNow }}
	req := requestWithChiURLParams("GET", "/api/chats/abc/countdown", nil, map[string]string{"chatID": "abc"})
	rr := httptest.NewRecorder()
	h.Countdown(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "invalid chat id") {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestHandler_Countdown_StoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery(`SELECT id, chat_id, name`).WillReturnError(context.DeadlineExceeded)

	h := &Handler{Repo: store.NewSQLiteRepo(db, nil), Log: zap.NewNop(), Now: func() time.Time { return fixedNow }}
	req := requestWithChiURLParams("GET", "/api/chats/7/countdown", nil, map[string]string{"chatID": "7"})
	rr := httptest.NewRecorder()
	h.Countdown(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
}

func postPreview(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Preview(t *testing.T) {
	h := NewRouter(zap.NewNop(), nil, func() time.Time { return fixedNow }, false)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLabel  string
		wantCron   string
	}{
		{
			name:       "weekdays in Tokyo",
			body:       `{"time_of_day":"08:00","days_of_week":"Mon,Wed,Fri","timezone":"Asia/Tokyo"}`,
			wantStatus: http.StatusOK,
			wantLabel:  "2024-01-03 08:00 (JST)",
			wantCron:   "CRON_TZ=Asia/Tokyo 0 8 * * 1,3,5",
		},
		{
			name:       "days default to daily",
			body:       `{"time_of_day":"09:00","timezone":"UTC"}`,
			wantStatus: http.StatusOK,
			wantLabel:  "2024-01-01 09:00 (UTC)",
			wantCron:   "CRON_TZ=UTC 0 9 * * *",
		},
		{
			name:       "explicit now",
			body:       `{"time_of_day":"09:00","timezone":"UTC","now":"2024-01-01T09:00:30Z"}`,
			wantStatus: http.StatusOK,
			wantLabel:  "2024-01-02 09:00 (UTC)",
			wantCron:   "CRON_TZ=UTC 0 9 * * *",
		},
		{name: "bad time", body: `{"time_of_day":"9:00","timezone":"UTC"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown zone", body: `{"time_of_day":"09:00","timezone":"Mars/Olympus"}`, wantStatus: http.StatusBadRequest},
		{name: "no days", body: `{"time_of_day":"09:00","days_of_week":",","timezone":"UTC"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed", body: `{`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postPreview(t, h, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				var e ErrorResponse
				if err := json.NewDecoder(rr.Body).Decode(&e); err != nil || e.Error == "" {
					t.Fatalf("want JSON error body, got %q", rr.Body.String())
				}
				return
			}
			var resp PreviewResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if !resp.Found || resp.Label != tt.wantLabel || resp.Cron != tt.wantCron {
				t.Errorf("got %+v, want label %q cron %q", resp, tt.wantLabel, tt.wantCron)
			}
		})
	}
}

func TestRouter_PreviewRateLimited(t *testing.T) {
	h := NewRouter(zap.NewNop(), nil, func() time.Time { return fixedNow }, false)
	body := `{"time_of_day":"09:00","timezone":"UTC"}`

	var limited bool
	for i := 0; i < 20; i++ {
		if rr := postPreview(t, h, body); rr.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("want 429 after the burst is spent")
	}
}

func TestRouter_PreviewRateLimited_SameHostManyPorts(t *testing.T) {
	h := NewRouter(zap.NewNop(), nil, func() time.Time { return fixedNow }, false)
	body := `{"time_of_day":"09:00","timezone":"UTC"}`

	limited := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest("POST", "/api/preview", strings.NewReader(body))
		req.RemoteAddr = fmt.Sprintf("203.0.113.7:%d", 40000+i)
		// A client-chosen header must not buy a fresh bucket.
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited < 30 {
		t.Fatalf("want one bucket per host, only %d of 50 requests limited", limited)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff, xri   string
		trustProxy bool
		want       string
	}{
		{name: "strips port", remote: "203.0.113.7:40001", want: "203.0.113.7"},
		{name: "ipv6", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "no port", remote: "203.0.113.7", want: "203.0.113.7"},
		{name: "forwarded ignored", remote: "10.0.0.2:5000", xff: "198.51.100.9", want: "10.0.0.2"},
		{name: "forwarded last hop", remote: "10.0.0.2:5000", xff: "1.1.1.1, 198.51.100.9", trustProxy: true, want: "198.51.100.9"},
		{name: "real ip", remote: "10.0.0.2:5000", xri: "198.51.100.4", trustProxy: true, want: "198.51.100.4"},
		{name: "proxy without headers", remote: "10.0.0.2:5000", trustProxy: true, want: "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	now := fixedNow
	l := NewIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	if !l.allow("203.0.113.7") || l.allow("203.0.113.7") {
		t.Fatal("want burst of one")
	}
	l.allow("203.0.113.8")
	if got := l.size(); got != 2 {
		t.Fatalf("want 2 buckets, got %d", got)
	}

	now = now.Add(l.idleTTL + time.Second)
	if !l.allow("203.0.113.9") {
		t.Fatal("new client limited")
	}
	if got := l.size(); got != 1 {
		t.Fatalf("want idle buckets evicted, %d left", got)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := NewRouter(zap.NewNop(), nil, nil, false)

	for _, path := range []string{"/healthz", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", path, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "pillulu_http_requests_total") {
		t.Errorf("request metric not exported")
	}
}
