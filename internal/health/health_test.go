package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrWong99/presenter/pkg/catalog"
	"github.com/MrWong99/presenter/pkg/catalog/mock"
)

func serve(t *testing.T, h http.HandlerFunc, req *http.Request) (int, result) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, body
}

func ok(context.Context) error { return nil }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthz_AlwaysReturns200(t *testing.T) {
	t.Parallel()

	h := New(Checker{Name: "sessions", Check: func(context.Context) error { return errors.New("down") }})
	code, body := serve(t, h.Healthz, httptest.NewRequest("GET", "/healthz", nil))
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("healthz = %d %q, want 200 ok", code, body.Status)
	}
}

func TestReadyz_AllCheckersPass(t *testing.T) {
	t.Parallel()

	h := New(
		PingChecker("sessions", pinger{}),
		CatalogChecker(&mock.Source{Entries: []catalog.Entry{{Name: "lambda"}}}),
	)
	code, body := serve(t, h.Readyz, httptest.NewRequest("GET", "/readyz", nil))
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("readyz = %d %q, want 200 ok", code, body.Status)
	}
	if body.Checks["sessions"] != "ok" || body.Checks["catalog"] != "ok" {
		t.Errorf("checks = %v", body.Checks)
	}
}

func TestReadyz_EmptyCatalogIsReady(t *testing.T) {
	t.Parallel()

	h := New(CatalogChecker(&mock.Source{}))
	if code, _ := serve(t, h.Readyz, httptest.NewRequest("GET", "/readyz", nil)); code != http.StatusOK {
		t.Errorf("readyz = %d, want 200", code)
	}
}

func TestReadyz_CheckerFails(t *testing.T) {
	t.Parallel()

	h := New(
		PingChecker("sessions", pinger{err: errors.New("connection refused")}),
		Checker{Name: "other", Check: ok},
	)
	code, body := serve(t, h.Readyz, httptest.NewRequest("GET", "/readyz", nil))
	if code != http.StatusServiceUnavailable || body.Status != "fail" {
		t.Errorf("readyz = %d %q, want 503 fail", code, body.Status)
	}
	if body.Checks["sessions"] != "fail: connection refused" {
		t.Errorf("sessions check = %q", body.Checks["sessions"])
	}
	if body.Checks["other"] != "ok" {
		t.Errorf("other check = %q", body.Checks["other"])
	}
}

func TestReadyz_CatalogRetrievalFails(t *testing.T) {
	t.Parallel()

	h := New(CatalogChecker(&mock.Source{Err: errors.New("no such table")}))
	code, body := serve(t, h.Readyz, httptest.NewRequest("GET", "/readyz", nil))
	if code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d, want 503", code)
	}
	if body.Checks["catalog"] != "fail: catalog: retrieval failed: no such table" {
		t.Errorf("catalog check = %q", body.Checks["catalog"])
	}
}

func TestReadyz_NoCheckers(t *testing.T) {
	t.Parallel()

	code, body := serve(t, New().Readyz, httptest.NewRequest("GET", "/readyz", nil))
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("readyz = %d %q, want 200 ok", code, body.Status)
	}
}

func TestReadyz_ChecksRunConcurrently(t *testing.T) {
	t.Parallel()

	// Each check waits for the other; sequential evaluation would deadlock
	// until the check timeout.
	a, b := make(chan struct{}), make(chan struct{})
	h := New(
		Checker{Name: "a", Check: func(ctx context.Context) error {
			close(a)
			select {
			case <-b:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}},
		Checker{Name: "b", Check: func(ctx context.Context) error {
			close(b)
			select {
			case <-a:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}},
	)
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout/5)
	defer cancel()
	code, _ := serve(t, h.Readyz, httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx))
	if code != http.StatusOK {
		t.Errorf("readyz = %d, want 200", code)
	}
}

func TestReadyz_RespectsContextCancellation(t *testing.T) {
	t.Parallel()

	h := New(Checker{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, _ := serve(t, h.Readyz, httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx))
	if code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d, want 503", code)
	}
}

func TestRegister_RoutesWork(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	New(Checker{Name: "test", Check: ok}).Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
