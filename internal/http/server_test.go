package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
	applog "github.com/AppleZ1995/CalendarAssistant/internal/log"
	"github.com/AppleZ1995/CalendarAssistant/internal/services"
	"github.com/AppleZ1995/CalendarAssistant/internal/storage"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelError, Format: "text", Output: io.Discard})
}

func newTestServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "calendar.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := NewServer(":0",
		services.NewMomentService(storage.NewMomentRepository(store), nil),
		services.NewMoneyService(storage.NewMoneyRepository(store), nil),
		Options{Logger: quietLogger(), Ready: store, RateLimitPerMinute: 1000},
	)
	t.Cleanup(srv.rateLimiter.Stop)
	return srv, store
}

func do(t *testing.T, srv *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, srv, method, path, "application/json", body)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return out
}

func mustStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

func TestCreateMoment_AppliesDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/moments", `{"title":"Lunch","date":"2024-01-15","cost":"12.5"}`)
	mustStatus(t, rr, http.StatusCreated)

	body := decode(t, rr)
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}
	m, ok := body["moment"].(map[string]any)
	if !ok {
		t.Fatalf("moment missing from %v", body)
	}
	want := map[string]any{
		"title":       "Lunch",
		"date":        "2024-01-15",
		"description": "",
		"time":        "",
		"category":    "General",
		"cost":        12.5,
		"currency":    "USD",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("moment[%q] = %v, want %v", k, m[k], v)
		}
	}
	if id, _ := m["id"].(float64); id <= 0 {
		t.Errorf("moment id = %v, want positive", m["id"])
	}
	if m["created_at"] == nil || m["updated_at"] == nil {
		t.Errorf("timestamps missing: %v", m)
	}
}

func TestCreateMoment_FormEncoded(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/moments", "application/x-www-form-urlencoded",
		"title=Walk&date=2024-01-16&category=Health&cost=3&currency=EUR")
	mustStatus(t, rr, http.StatusCreated)

	m := decode(t, rr)["moment"].(map[string]any)
	if m["category"] != "Health" || m["currency"] != "EUR" || m["cost"] != 3.0 {
		t.Errorf("moment = %v", m)
	}
}

func TestCreateMoment_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing title", `{"date":"2024-01-15"}`, "Title and date are required"},
		{"missing date", `{"title":"Lunch"}`, "Title and date are required"},
		{"blank title", `{"title":"   ","date":"2024-01-15"}`, "Title and date are required"},
		{"bad cost", `{"title":"Lunch","date":"2024-01-15","cost":"twelve"}`, "Invalid cost"},
		{"cost overflows as number", `{"title":"Lunch","date":"2024-01-15","cost":1e400}`, "Invalid cost"},
		{"cost overflows as string", `{"title":"Lunch","date":"2024-01-15","cost":"-1e400"}`, "Invalid cost"},
		{"malformed body", `{"title":`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/moments", tt.body)
			mustStatus(t, rr, http.StatusBadRequest)
			body := decode(t, rr)
			if body["success"] != false || body["error"] != tt.wantErr {
				t.Errorf("body = %v, want error %q", body, tt.wantErr)
			}
		})
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/moments", "")
	mustStatus(t, rr, http.StatusOK)
	if got := decode(t, rr)["moments"].([]any); len(got) != 0 {
		t.Errorf("invalid requests stored %d moments", len(got))
	}
}

func TestCreateMoment_KeepsFreeTextVerbatim(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/moments",
		`{"title":" Retro ","date":"2024-01-15","description":"  line one\n\tline two \u0007","time":" 10:00","category":"  "}`)
	mustStatus(t, rr, http.StatusCreated)

	m := decode(t, rr)["moment"].(map[string]any)
	want := map[string]any{
		"title":       " Retro ",
		"description": "  line one\n\tline two \u0007",
		"time":        " 10:00",
		"category":    "General",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("moment[%q] = %q, want %q", k, m[k], v)
		}
	}
}

func TestExpenses_OverflowingTotals(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, title := range []string{"Castle", "Island"} {
		rr := doJSON(t, srv, http.MethodPost, "/api/moments",
			`{"title":"`+title+`","date":"2024-01-15","category":"Home","cost":1e308}`)
		mustStatus(t, rr, http.StatusCreated)
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/moments", "")
	mustStatus(t, rr, http.StatusOK)
	if got := decode(t, rr)["moments"].([]any); len(got) != 2 {
		t.Fatalf("len(moments) = %d, want 2", len(got))
	}

	tests := []struct {
		path    string
		wantErr string
	}{
		{"/api/expenses/summary", "Failed to fetch expense summary"},
		{"/api/expenses/total", "Failed to fetch total expenses"},
	}
	for _, tt := range tests {
		rr := doJSON(t, srv, http.MethodGet, tt.path, "")
		mustStatus(t, rr, http.StatusInternalServerError)
		if got := decode(t, rr)["error"]; got != tt.wantErr {
			t.Errorf("%s error = %v, want %q", tt.path, got, tt.wantErr)
		}
	}
}

func TestGetMoment_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/moments/999999", "")
	mustStatus(t, rr, http.StatusNotFound)

	body := decode(t, rr)
	if len(body) != 2 || body["success"] != false || body["error"] != "Moment not found" {
		t.Errorf("body = %v", body)
	}
}

func TestMomentPathID_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api/moments/abc", "/api/moments/0", "/api/moments/-4"} {
		for _, method := range []string{http.MethodGet, http.MethodDelete} {
			rr := doJSON(t, srv, method, path, "")
			if rr.Code != http.StatusBadRequest {
				t.Errorf("%s %s status = %d, want 400", method, path, rr.Code)
			}
		}
	}
}

func TestMoment_UpdateDeleteLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/moments", `{"title":"Lunch","date":"2024-01-15","cost":12.5,"category":"Food"}`)
	mustStatus(t, rr, http.StatusCreated)
	id := int64(decode(t, rr)["moment"].(map[string]any)["id"].(float64))
	path := "/api/moments/" + itoa(id)

	rr = doJSON(t, srv, http.MethodPut, path, `{"title":"Dinner","date":"2024-01-15"}`)
	mustStatus(t, rr, http.StatusOK)
	result := decode(t, rr)["result"].(map[string]any)
	if result["id"] != float64(id) || result["changes"] != 1.0 {
		t.Errorf("update result = %v", result)
	}

	rr = doJSON(t, srv, http.MethodGet, path, "")
	mustStatus(t, rr, http.StatusOK)
	m := decode(t, rr)["moment"].(map[string]any)
	if m["title"] != "Dinner" || m["category"] != "General" || m["cost"] != 0.0 {
		t.Errorf("full overwrite not applied: %v", m)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/moments/999999", `{"title":"Ghost","date":"2024-01-15"}`)
	mustStatus(t, rr, http.StatusOK)
	if got := decode(t, rr)["result"].(map[string]any)["changes"]; got != 0.0 {
		t.Errorf("changes for unknown id = %v, want 0", got)
	}

	rr = doJSON(t, srv, http.MethodPut, path, `{"title":"Dinner"}`)
	mustStatus(t, rr, http.StatusBadRequest)

	rr = doJSON(t, srv, http.MethodDelete, path, "")
	mustStatus(t, rr, http.StatusOK)
	if got := decode(t, rr)["result"].(map[string]any)["deleted"]; got != 1.0 {
		t.Errorf("deleted = %v, want 1", got)
	}

	rr = doJSON(t, srv, http.MethodGet, path, "")
	mustStatus(t, rr, http.StatusNotFound)
}

func TestMomentListsAndExpenses(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, body := range []string{
		`{"title":"Lunch","date":"2024-01-15","time":"12:30","category":"Food","cost":12.5}`,
		`{"title":"Coffee","date":"2024-01-15","time":"09:00","category":"Food","cost":3.5}`,
		`{"title":"Standup","date":"2024-01-15","time":"10:00","category":"Work"}`,
		`{"title":"Train","date":"2024-02-01","category":"Travel","cost":40,"currency":"EUR"}`,
	} {
		mustStatus(t, doJSON(t, srv, http.MethodPost, "/api/moments", body), http.StatusCreated)
	}

	tests := []struct {
		path      string
		key       string
		wantCount int
	}{
		{"/api/moments", "moments", 4},
		{"/api/moments/date/2024-01-15", "moments", 3},
		{"/api/moments/date/2030-01-01", "moments", 0},
		{"/api/moments/category/Food", "moments", 2},
		{"/api/expenses/range?startDate=2024-01-01&endDate=2024-01-31", "expenses", 2},
		{"/api/expenses/range?startDate=2024-01-01&endDate=2024-12-31", "expenses", 3},
		{"/api/expenses/summary", "summary", 2},
		{"/api/expenses/total", "totals", 2},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodGet, tt.path, "")
			mustStatus(t, rr, http.StatusOK)
			body := decode(t, rr)
			items, ok := body[tt.key].([]any)
			if !ok {
				t.Fatalf("%s missing or not a list: %v", tt.key, body)
			}
			if len(items) != tt.wantCount {
				t.Errorf("len(%s) = %d, want %d", tt.key, len(items), tt.wantCount)
			}
		})
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/moments/date/2024-01-15", "")
	moments := decode(t, rr)["moments"].([]any)
	if first := moments[0].(map[string]any)["title"]; first != "Lunch" {
		t.Errorf("first moment by date = %v, want latest time first", first)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/expenses/summary", "")
	summary := decode(t, rr)["summary"].([]any)
	top := summary[0].(map[string]any)
	if top["category"] != "Travel" || top["total"] != 40.0 {
		t.Errorf("top summary row = %v", top)
	}
	food := summary[1].(map[string]any)
	if food["count"] != 2.0 || food["total"] != 16.0 || food["average"] != 8.0 {
		t.Errorf("food summary row = %v", food)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/expenses/range?startDate=2024-01-01", "")
	mustStatus(t, rr, http.StatusBadRequest)
	if got := decode(t, rr)["error"]; got != "startDate and endDate are required" {
		t.Errorf("error = %v", got)
	}
}

func TestMoneyEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantErr    string
	}{
		{"income", `{"type":"income","title":"Salary","amount":2500,"date":"2024-01-31"}`, http.StatusCreated, ""},
		{"zero amount", `{"type":"savings","title":"Jar","amount":0,"date":"2024-01-20","currency":"EUR"}`, http.StatusCreated, ""},
		{"string amount", `{"type":"income","title":"Bonus","amount":"500.25","date":"2024-02-15"}`, http.StatusCreated, ""},
		{"missing amount", `{"type":"income","title":"Salary","date":"2024-01-31"}`, http.StatusBadRequest, "Missing required fields"},
		{"null amount", `{"type":"income","title":"Salary","amount":null,"date":"2024-01-31"}`, http.StatusBadRequest, "Missing required fields"},
		{"missing type", `{"title":"Salary","amount":1,"date":"2024-01-31"}`, http.StatusBadRequest, "Missing required fields"},
		{"bad amount", `{"type":"debt","title":"Loan","amount":"lots","date":"2024-01-31"}`, http.StatusBadRequest, "Invalid amount"},
		{"amount overflows", `{"type":"debt","title":"Loan","amount":1e400,"date":"2024-01-31"}`, http.StatusBadRequest, "Invalid amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/money", tt.body)
			mustStatus(t, rr, tt.wantStatus)
			body := decode(t, rr)
			if tt.wantErr != "" {
				if body["success"] != false || body["error"] != tt.wantErr {
					t.Errorf("body = %v, want error %q", body, tt.wantErr)
				}
				return
			}
			rec := body["data"].(map[string]any)
			if rec["currency"] == "" || rec["id"] == nil || rec["timestamp"] == nil {
				t.Errorf("record = %v", rec)
			}
		})
	}

	listTests := []struct {
		path      string
		wantCount int
	}{
		{"/api/money", 3},
		{"/api/money/type/income", 2},
		{"/api/money/type/debt", 0},
		{"/api/money/range/2024-01-01/2024-01-31", 2},
		{"/api/money/summary/all", 2},
	}
	for _, tt := range listTests {
		rr := doJSON(t, srv, http.MethodGet, tt.path, "")
		mustStatus(t, rr, http.StatusOK)
		if got := decode(t, rr)["data"].([]any); len(got) != tt.wantCount {
			t.Errorf("%s returned %d rows, want %d", tt.path, len(got), tt.wantCount)
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/money/summary/all", "")
	top := decode(t, rr)["data"].([]any)[0].(map[string]any)
	if top["type"] != "income" || top["total"] != 3000.25 || top["count"] != 2.0 {
		t.Errorf("top money summary = %v", top)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/money/999999", "")
	mustStatus(t, rr, http.StatusNotFound)
	if got := decode(t, rr)["error"]; got != "Record not found" {
		t.Errorf("error = %v", got)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/money", "")
	id := int64(decode(t, rr)["data"].([]any)[0].(map[string]any)["id"].(float64))
	path := "/api/money/" + itoa(id)

	rr = doJSON(t, srv, http.MethodPut, path, `{"type":"consumption","title":"Groceries","amount":"54.30","date":"2024-03-01"}`)
	mustStatus(t, rr, http.StatusOK)
	if got := decode(t, rr)["data"].(map[string]any)["changes"]; got != 1.0 {
		t.Errorf("changes = %v, want 1", got)
	}

	rr = doJSON(t, srv, http.MethodGet, path, "")
	mustStatus(t, rr, http.StatusOK)
	rec := decode(t, rr)["data"].(map[string]any)
	if rec["type"] != "consumption" || rec["amount"] != 54.3 || rec["currency"] != "USD" {
		t.Errorf("updated record = %v", rec)
	}

	rr = doJSON(t, srv, http.MethodDelete, path, "")
	mustStatus(t, rr, http.StatusOK)
	if got := decode(t, rr)["data"].(map[string]any)["deleted"]; got != 1.0 {
		t.Errorf("deleted = %v, want 1", got)
	}
	mustStatus(t, doJSON(t, srv, http.MethodGet, path, ""), http.StatusNotFound)
}

func TestCourses(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		query       string
		wantIDs     []float64
		wantPerPage float64
		wantPage    float64
	}{
		{"", []float64{1, 2, 3, 4, 5}, 10, 1},
		{"?per_page=2&page=2", []float64{3, 4}, 2, 2},
		{"?per_page=2&page=3", []float64{5}, 2, 3},
		{"?per_page=2&page=10", []float64{}, 2, 10},
		{"?per_page=abc&page=-1", []float64{1, 2, 3, 4, 5}, 10, 1},
		{"?per_page=4611686018427387904&page=4", []float64{}, 4611686018427387904, 4},
		{"?per_page=2&page=9223372036854775807", []float64{}, 2, 9223372036854775807},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodGet, "/api/v1/courses"+tt.query, "")
			mustStatus(t, rr, http.StatusOK)
			body := decode(t, rr)

			if body["total"] != 5.0 || body["per_page"] != tt.wantPerPage || body["page"] != tt.wantPage {
				t.Errorf("page meta = %v", body)
			}
			if _, ok := body["success"]; ok {
				t.Errorf("courses response should not carry the envelope: %v", body)
			}
			courses := body["courses"].([]any)
			if len(courses) != len(tt.wantIDs) {
				t.Fatalf("len(courses) = %d, want %d", len(courses), len(tt.wantIDs))
			}
			for i, c := range courses {
				if id := c.(map[string]any)["id"]; id != tt.wantIDs[i] {
					t.Errorf("courses[%d].id = %v, want %v", i, id, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestRouting_MethodAndPath(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodPatch, "/api/moments/1", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/courses", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
		{http.MethodGet, "/moments", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := doJSON(t, srv, tt.method, tt.path, "")
		if rr.Code != tt.want {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rr.Code, tt.want)
		}
	}
}

type failingMoments struct{ err error }

func (f failingMoments) Create(context.Context, core.MomentInput) (core.Moment, error) {
	return core.Moment{}, f.err
}
func (f failingMoments) List(context.Context) ([]core.Moment, error) { return nil, f.err }
func (f failingMoments) ListByDate(context.Context, string) ([]core.Moment, error) {
	return nil, f.err
}
func (f failingMoments) ListByCategory(context.Context, string) ([]core.Moment, error) {
	return nil, f.err
}
func (f failingMoments) Get(context.Context, int64) (core.Moment, bool, error) {
	return core.Moment{}, false, f.err
}
func (f failingMoments) Update(context.Context, int64, core.MomentInput) (core.UpdateResult, error) {
	return core.UpdateResult{}, f.err
}
func (f failingMoments) Delete(context.Context, int64) (core.DeleteResult, error) {
	return core.DeleteResult{}, f.err
}
func (f failingMoments) ListExpensesInRange(context.Context, string, string) ([]core.Moment, error) {
	return nil, f.err
}
func (f failingMoments) ExpenseSummaryByCategory(context.Context) ([]core.CategorySummary, error) {
	return nil, f.err
}
func (f failingMoments) TotalExpenses(context.Context) ([]core.CurrencyTotal, error) {
	return nil, f.err
}

func TestStoreFailures(t *testing.T) {
	storeErr := &core.StoreError{Op: "query", Err: errors.New("disk I/O error")}
	srv := NewServer(":0", failingMoments{err: storeErr}, nil, Options{Logger: quietLogger()})
	t.Cleanup(srv.rateLimiter.Stop)

	tests := []struct {
		method, path, body string
		wantErr            string
	}{
		{http.MethodPost, "/api/moments", `{"title":"Lunch","date":"2024-01-15"}`, "Failed to record moment"},
		{http.MethodGet, "/api/moments", "", "Failed to fetch moments"},
		{http.MethodGet, "/api/moments/date/2024-01-15", "", "Failed to fetch moments"},
		{http.MethodGet, "/api/moments/category/Food", "", "Failed to fetch moments"},
		{http.MethodGet, "/api/moments/1", "", "Failed to fetch moment"},
		{http.MethodPut, "/api/moments/1", `{"title":"Lunch","date":"2024-01-15"}`, "Failed to update moment"},
		{http.MethodDelete, "/api/moments/1", "", "Failed to delete moment"},
		{http.MethodGet, "/api/expenses/summary", "", "Failed to fetch expense summary"},
		{http.MethodGet, "/api/expenses/total", "", "Failed to fetch total expenses"},
		{http.MethodGet, "/api/expenses/range?startDate=a&endDate=b", "", "Failed to fetch expenses"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := doJSON(t, srv, tt.method, tt.path, tt.body)
			mustStatus(t, rr, http.StatusInternalServerError)
			body := decode(t, rr)
			if body["success"] != false || body["error"] != tt.wantErr {
				t.Errorf("body = %v, want error %q", body, tt.wantErr)
			}
			if body["details"] != "query: disk I/O error" {
				t.Errorf("details = %v", body["details"])
			}
		})
	}

	srv = NewServer(":0", failingMoments{err: core.ErrEmptyTitle}, nil, Options{Logger: quietLogger()})
	t.Cleanup(srv.rateLimiter.Stop)
	rr := doJSON(t, srv, http.MethodGet, "/api/moments", "")
	mustStatus(t, rr, http.StatusBadRequest)
	if _, ok := decode(t, rr)["details"]; ok {
		t.Error("validation errors must not carry details")
	}
}

func TestHealthAndReadiness(t *testing.T) {
	srv, store := newTestServer(t)

	mustStatus(t, doJSON(t, srv, http.MethodGet, "/healthz", ""), http.StatusOK)

	rr := doJSON(t, srv, http.MethodGet, "/readyz", "")
	mustStatus(t, rr, http.StatusOK)
	if got := decode(t, rr)["status"]; got != "ready" {
		t.Errorf("status = %v, want ready", got)
	}

	rr = doJSON(t, srv, http.MethodGet, "/metrics", "")
	mustStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Errorf("metrics body missing counters: %s", rr.Body.String())
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	rr = doJSON(t, srv, http.MethodGet, "/readyz", "")
	mustStatus(t, rr, http.StatusServiceUnavailable)
	if got := decode(t, rr)["status"]; got != "not_ready" {
		t.Errorf("status = %v, want not_ready", got)
	}
}

func TestMiddlewareChain(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "calendar.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	srv := NewServer(":0",
		services.NewMomentService(storage.NewMomentRepository(store), nil),
		services.NewMoneyService(storage.NewMoneyRepository(store), nil),
		Options{Logger: quietLogger(), RateLimitPerMinute: 2},
	)
	t.Cleanup(srv.rateLimiter.Stop)

	for i := 0; i < 2; i++ {
		rr := doJSON(t, srv, http.MethodGet, "/api/moments", "")
		mustStatus(t, rr, http.StatusOK)
		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header missing")
		}
		if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("X-Content-Type-Options = %q", got)
		}
		if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
			t.Errorf("Content-Type = %q", got)
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/moments", "")
	mustStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if got := decode(t, rr)["success"]; got != false {
		t.Errorf("success = %v, want false", got)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
