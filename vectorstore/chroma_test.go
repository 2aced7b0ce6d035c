package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func chromaServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var collectionCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&collectionCalls, 1)
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode collection body: %v", err)
		}
		if body["get_or_create"] != true {
			t.Errorf("get_or_create missing: %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "coll-1", "name": "photos"})
	})
	mux.HandleFunc("/api/v1/collections/coll-1/upsert", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		ids, _ := body["ids"].([]interface{})
		if len(ids) != 1 || ids[0] != "photo_1" {
			t.Errorf("unexpected upsert ids: %v", ids)
		}
		docs, _ := body["documents"].([]interface{})
		if len(docs) != 1 || docs[0] != "a sunset over water" {
			t.Errorf("unexpected documents: %v", docs)
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/v1/collections/coll-1/query", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		texts, _ := body["query_texts"].([]interface{})
		if len(texts) != 1 || texts[0] != "sunset" {
			t.Errorf("unexpected query_texts: %v", texts)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ids":       [][]string{{"photo_2", "photo_1"}},
			"distances": [][]float64{{0.1, 0.4}},
		})
	})
	mux.HandleFunc("/api/v1/collections/coll-1/delete", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/v1/collections/coll-1/count", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("7"))
	})
	return httptest.NewServer(mux), &collectionCalls
}

// TestEnsureCachesCollectionID verifies the collection is resolved once
// and reused.
func TestEnsureCachesCollectionID(t *testing.T) {
	server, calls := chromaServer(t)
	defer server.Close()

	client := NewClient(server.URL, "photos")
	ctx := context.Background()
	if err := client.Ensure(ctx); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := client.Ensure(ctx); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("collection calls = %d, want 1", got)
	}
}

// TestUpsertAndQuery verifies the document round trip and ranked query
// results.
func TestUpsertAndQuery(t *testing.T) {
	server, _ := chromaServer(t)
	defer server.Close()

	client := NewClient(server.URL, "photos")
	ctx := context.Background()

	err := client.UpsertPhoto(ctx, "photo_1", "a sunset over water", map[string]interface{}{"filename": "sunset.jpg"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ids, err := client.Query(ctx, "sunset", 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(ids) != 2 || ids[0] != "photo_2" || ids[1] != "photo_1" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

// TestDeleteAndCount verifies the remaining collection operations.
func TestDeleteAndCount(t *testing.T) {
	server, _ := chromaServer(t)
	defer server.Close()

	client := NewClient(server.URL, "photos")
	ctx := context.Background()

	if err := client.Delete(ctx, "photo_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	count, err := client.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 7 {
		t.Fatalf("count = %d, want 7", count)
	}
}

// TestEnsureFailsOnServerError verifies unreachable or erroring servers
// surface as errors.
func TestEnsureFailsOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "photos")
	if err := client.Ensure(context.Background()); err == nil {
		t.Fatal("expected error from failing server")
	}
}
