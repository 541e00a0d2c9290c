package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, func() string { return "test-token" }, zap.NewNop())
	return srv, client
}

func TestClient_Select(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    0,
			"message": "ok",
			"data": map[string]interface{}{
				"rows": []map[string]interface{}{{"id": "event-001", "name": "Madrugá"}},
			},
		})
	})

	rows, err := client.Select(context.Background(), "events", map[string]interface{}{"season_year": 2026})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if gotPath != "/api/v1/relations/events/select" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	filter, _ := gotBody["filter"].(map[string]interface{})
	if filter["season_year"] != float64(2026) {
		t.Errorf("filter not forwarded: %v", gotBody)
	}
	if len(rows) != 1 || rows[0]["name"] != "Madrugá" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestClient_Select_EmptyIsNotNil(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0, "message": "ok",
			"data": map[string]interface{}{"rows": nil},
		})
	})

	rows, err := client.Select(context.Background(), "events", nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if rows == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestClient_Upsert_SendsConflictKey(t *testing.T) {
	var gotBody map[string]interface{}
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0, "message": "ok",
			"data": map[string]interface{}{"affected": 1},
		})
	})

	row := map[string]interface{}{"event_id": "event-001", "member_id": "member-001", "status": "justified"}
	affected, err := client.Upsert(context.Background(), "attendance",
		[]map[string]interface{}{row}, []string{"event_id", "member_id"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if affected != 1 {
		t.Errorf("expected affected=1, got %d", affected)
	}

	key, _ := gotBody["conflict_key"].([]interface{})
	if len(key) != 2 || key[0] != "event_id" || key[1] != "member_id" {
		t.Errorf("conflict_key not forwarded: %v", gotBody)
	}
}

func TestClient_RemoteErrorSurfaced(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 17002, "message": "unknown relation",
		})
	})

	_, err := client.Select(context.Background(), "nope", nil)
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Code != 17002 || remote.HTTPStatus != http.StatusNotFound {
		t.Errorf("unexpected remote error: %+v", remote)
	}
}

func TestClient_TransportErrorSurfaced(t *testing.T) {
	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.Count(context.Background(), "members", nil)
	if err == nil {
		t.Fatal("expected transport error after server shutdown")
	}
}

func TestClient_Count(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0, "message": "ok",
			"data": map[string]interface{}{"count": 42},
		})
	})

	n, err := client.Count(context.Background(), "members", map[string]interface{}{"season_year": 2026})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}
