package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/unkn0wn-root/querycache/library"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/api/", Token: "secret", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLibrariesUnwrapsPage(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/libraries" || r.URL.Query().Get("unpaged") != "true" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		writeJSON(w, 200, map[string]any{
			"data": []map[string]any{{"id": "1", "name": "Comics", "path": "/c", "tags": []map[string]string{{"id": "a", "name": "A"}}}},
		})
	})

	env, err := c.Libraries(context.Background())
	if err != nil || env.Status != 200 {
		t.Fatalf("Libraries: %+v, %v", env, err)
	}
	libs := env.Data.Data
	if len(libs) != 1 || libs[0].Name != "Comics" || len(libs[0].TagList()) != 1 {
		t.Fatalf("libraries = %+v", libs)
	}
	if env.Data.Info != nil {
		t.Fatalf("unpaged response carries page info")
	}
}

func TestUpdateLibrarySendsFullRecord(t *testing.T) {
	var got map[string]any
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/libraries/1" {
			t.Errorf("unexpected %s %s", r.Method, r.URL)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		writeJSON(w, 200, map[string]any{"id": "1", "name": "Renamed"})
	})

	tags := []library.Tag{{ID: "b", Name: "B"}}
	mode := library.ScanSync
	env, err := c.UpdateLibrary(context.Background(), library.UpdateLibraryArgs{
		Library:  library.Library{ID: "1", Name: "Renamed", Path: "/c", Tags: &tags},
		ScanMode: &mode,
	})
	if err != nil || env.Data.Name != "Renamed" {
		t.Fatalf("UpdateLibrary: %+v, %v", env, err)
	}
	if got["name"] != "Renamed" || got["scanMode"] != "SYNC" {
		t.Fatalf("body = %v", got)
	}
	if v, ok := got["removedTags"]; !ok || v != nil {
		t.Fatalf("removedTags = %v (present=%v), want null", v, ok)
	}
}

func TestErrorStatusIsAnEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 400, map[string]string{"code": "BadRequest", "details": "tag already exists"})
	})

	env, err := c.CreateTags(context.Background(), []string{"A"})
	if err != nil {
		t.Fatalf("status error returned as transport error: %v", err)
	}
	if env.Status != 400 || env.Message != "tag already exists" {
		t.Fatalf("envelope = %+v", env)
	}
	if !errors.Is(env.Err("createTags", library.CreatedOK), library.ErrRejected) {
		t.Fatalf("envelope not rejected")
	}
}

func TestPlainTextErrorBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	env, err := c.ClearLogs(context.Background())
	if err != nil || env.Status != 502 || env.Message != "upstream down" {
		t.Fatalf("ClearLogs = %+v, %v", env, err)
	}
}

func TestEmptyBodySucceeds(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/libraries/7/scan" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})
	env, err := c.ScanLibrary(context.Background(), "7")
	if err != nil || env.Status != 200 {
		t.Fatalf("ScanLibrary = %+v, %v", env, err)
	}
}

func TestTransportErrors(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("{not json"))
	})
	_, err := c.LogFileMeta(context.Background())
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "getLogFileMeta" {
		t.Fatalf("bad body: want TransportError, got %v", err)
	}

	dead, err := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := dead.AllTags(context.Background()); !errors.As(err, &te) {
		t.Fatalf("refused connection: want TransportError, got %v", err)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []any{})
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, RatePerSec: 0.001, Burst: 1})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.JobReports(context.Background()); err != nil {
		t.Fatalf("first call within burst: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var te *TransportError
	if _, err := c.JobReports(ctx); !errors.As(err, &te) {
		t.Fatalf("paced call: want TransportError, got %v", err)
	}
}

func TestNewClientValidates(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("empty base url accepted")
	}
}
