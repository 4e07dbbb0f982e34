package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// helper: new Echo with the middleware and a simple route
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(IdempotencyMiddleware(rdb, ttl))
	e.POST("/loans", handler)
	e.GET("/loans", handler) // for non-mutating bypass test
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

func validHeaders() map[string]string {
	return map[string]string{
		"Ax-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", // 32-hex
		"Ax-Request-At": time.Now().UTC().Format(time.RFC3339),
		"Ax-Actor-Id":   "borrower-1",
	}
}

func Test_BypassOnGET_NoHeadersRequired(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, "/loans", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func Test_ValidationFailures(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusCreated, map[string]any{"ok": true})
	})

	tests := []struct {
		name   string
		mutate func(h map[string]string)
	}{
		{name: "missing Ax-Request-Id", mutate: func(h map[string]string) { delete(h, "Ax-Request-Id") }},
		{name: "invalid Ax-Request-Id", mutate: func(h map[string]string) { h["Ax-Request-Id"] = "NOT-VALID" }},
		{name: "invalid Ax-Request-At", mutate: func(h map[string]string) { h["Ax-Request-At"] = "not-a-time" }},
		{name: "skewed Ax-Request-At", mutate: func(h map[string]string) {
			h["Ax-Request-At"] = time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
		}},
		{name: "missing Ax-Actor-Id", mutate: func(h map[string]string) { delete(h, "Ax-Actor-Id") }},
		{name: "invalid Ax-Actor-Id", mutate: func(h map[string]string) { h["Ax-Actor-Id"] = "has space" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := validHeaders()
			tc.mutate(h)
			rec := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d (%s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func Test_ReplayReturnsRecordedResponse(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()

	var calls int32
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		atomic.AddInt32(&calls, 1)
		return c.JSON(http.StatusCreated, map[string]any{"loan_id": 0})
	})

	h := validHeaders()
	body := map[string]string{"amount": "2"}

	first := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, body), h)
	if first.Code != http.StatusCreated {
		t.Fatalf("first call: want 201, got %d", first.Code)
	}
	second := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, body), h)
	if second.Code != http.StatusCreated {
		t.Fatalf("replay: want 201, got %d", second.Code)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("handler ran %d times, want 1", got)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func Test_SameRequestIDDifferentBodyConflicts(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusCreated, map[string]any{"ok": true})
	})

	h := validHeaders()
	if rec := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]string{"amount": "2"}), h); rec.Code != http.StatusCreated {
		t.Fatalf("first call: want 201, got %d", rec.Code)
	}
	rec := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]string{"amount": "3"}), h)
	if rec.Code != http.StatusConflict {
		t.Fatalf("body mismatch: want 409, got %d", rec.Code)
	}
}

func Test_DistinctActorsDoNotCollide(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()

	var calls int32
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		atomic.AddInt32(&calls, 1)
		return c.JSON(http.StatusCreated, map[string]any{"ok": true})
	})

	body := map[string]string{"amount": "2"}
	h1 := validHeaders()
	h2 := validHeaders()
	h2["Ax-Actor-Id"] = "borrower-2"

	doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, body), h1)
	doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, body), h2)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("handler ran %d times, want 2", got)
	}
}
