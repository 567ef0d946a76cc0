package pocketbase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakePocketBase is an in-memory stand-in for the records API, enough
// for auth plus CRUD with exact-match filters.
type fakePocketBase struct {
	t       *testing.T
	nextID  int
	records map[string][]Record
}

func newFakePocketBase(t *testing.T) *fakePocketBase {
	return &fakePocketBase{t: t, nextID: 1, records: map[string][]Record{}}
}

func (f *fakePocketBase) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/collections/users/auth-with-password", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		if body["identity"] != "scraper@example.com" || body["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"code": 400, "message": "Failed to authenticate."})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"token": "test-token"})
	})

	mux.HandleFunc("GET /api/collections/{collection}/records", func(w http.ResponseWriter, r *http.Request) {
		f.requireAuth(w, r)
		collection := r.PathValue("collection")
		items := f.match(collection, r.URL.Query().Get("filter"))
		json.NewEncoder(w).Encode(map[string]any{
			"page": 1, "perPage": 500,
			"totalItems": len(items), "items": items,
		})
	})

	mux.HandleFunc("POST /api/collections/{collection}/records", func(w http.ResponseWriter, r *http.Request) {
		f.requireAuth(w, r)
		collection := r.PathValue("collection")
		var rec Record
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&rec))
		rec["id"] = fmt.Sprintf("rec%d", f.nextID)
		f.nextID++
		f.records[collection] = append(f.records[collection], rec)
		json.NewEncoder(w).Encode(rec)
	})

	mux.HandleFunc("PATCH /api/collections/{collection}/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.requireAuth(w, r)
		collection, id := r.PathValue("collection"), r.PathValue("id")
		for i, rec := range f.records[collection] {
			if rec.ID() == id {
				var update Record
				require.NoError(f.t, json.NewDecoder(r.Body).Decode(&update))
				update["id"] = id
				f.records[collection][i] = update
				json.NewEncoder(w).Encode(update)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"code": 404, "message": "Not found."})
	})

	mux.HandleFunc("DELETE /api/collections/{collection}/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.requireAuth(w, r)
		collection, id := r.PathValue("collection"), r.PathValue("id")
		kept := f.records[collection][:0]
		for _, rec := range f.records[collection] {
			if rec.ID() != id {
				kept = append(kept, rec)
			}
		}
		f.records[collection] = kept
		w.WriteHeader(http.StatusNoContent)
	})

	// resty only auto-unmarshals JSON-typed responses, so the fake
	// must set the content type the real server sends
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		mux.ServeHTTP(w, r)
	})
}

func (f *fakePocketBase) requireAuth(w http.ResponseWriter, r *http.Request) {
	require.Equal(f.t, "Bearer test-token", r.Header.Get("Authorization"))
}

// match supports the `field="value" && field=N` subset the client
// emits.
func (f *fakePocketBase) match(collection, filter string) []Record {
	items := []Record{}
	for _, rec := range f.records[collection] {
		if matchesFilter(rec, filter) {
			items = append(items, rec)
		}
	}
	return items
}

func matchesFilter(rec Record, filter string) bool {
	if filter == "" {
		return true
	}
	for _, clause := range strings.Split(filter, "&&") {
		parts := strings.SplitN(strings.TrimSpace(clause), "=", 2)
		if len(parts) != 2 {
			return false
		}
		field := strings.TrimSpace(parts[0])
		want := strings.Trim(strings.TrimSpace(parts[1]), `"`)
		got := fmt.Sprint(rec[field])
		if got != want {
			return false
		}
	}
	return true
}

func newTestClient(t *testing.T) (*Client, *fakePocketBase) {
	fake := newFakePocketBase(t)
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	client := New(Config{
		URL:      server.URL,
		Identity: "scraper@example.com",
		Password: "secret",
	})
	require.NoError(t, client.Authenticate(context.Background()))
	return client, fake
}

func TestAuthenticateFailure(t *testing.T) {
	fake := newFakePocketBase(t)
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	client := New(Config{URL: server.URL, Identity: "wrong@example.com", Password: "nope"})
	err := client.Authenticate(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Failed to authenticate")
}

func TestCreateAndList(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, "race_odds", map[string]any{
		"race_date": "2025-07-01", "venue": "ST", "race_number": 1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID())

	records, err := client.List(ctx, "race_odds", Filter(`race_date={} && venue={}`, "2025-07-01", "ST"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	records, err = client.List(ctx, "race_odds", Filter(`race_date={}`, "2025-07-02"))
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestUpsertOneIsIdempotent(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	filter := Filter(`race_date={} && venue={} && race_number={}`, "2025-07-01", "ST", 1)
	body := map[string]any{
		"race_date": "2025-07-01", "venue": "ST", "race_number": 1, "going": "好地",
	}

	require.NoError(t, client.UpsertOne(ctx, "race_performance", filter, body))
	require.NoError(t, client.UpsertOne(ctx, "race_performance", filter, body))

	require.Len(t, fake.records["race_performance"], 1)

	// an upsert with fresh data replaces the stored record in place
	body["going"] = "黏地"
	require.NoError(t, client.UpsertOne(ctx, "race_performance", filter, body))
	require.Len(t, fake.records["race_performance"], 1)
	require.Equal(t, "黏地", fake.records["race_performance"][0]["going"])
}

func TestReplaceAllIsIdempotent(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	filter := Filter(`race_date={} && venue={} && race_number={}`, "2025-07-01", "ST", 1)
	bodies := []any{
		map[string]any{"race_date": "2025-07-01", "venue": "ST", "race_number": 1, "horse_number": "1"},
		map[string]any{"race_date": "2025-07-01", "venue": "ST", "race_number": 1, "horse_number": "2"},
	}

	require.NoError(t, client.ReplaceAll(ctx, "race_horse_performance", filter, bodies))
	require.NoError(t, client.ReplaceAll(ctx, "race_horse_performance", filter, bodies))
	require.Len(t, fake.records["race_horse_performance"], 2)

	// records for other races are untouched by the filtered replace
	_, err := client.Create(ctx, "race_horse_performance", map[string]any{
		"race_date": "2025-07-01", "venue": "ST", "race_number": 2, "horse_number": "5",
	})
	require.NoError(t, err)
	require.NoError(t, client.ReplaceAll(ctx, "race_horse_performance", filter, bodies[:1]))
	require.Len(t, fake.records["race_horse_performance"], 2)
}

func TestDeleteByFilter(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	for n := 1; n <= 3; n++ {
		_, err := client.Create(ctx, "race_incidents", map[string]any{
			"race_date": "2025-07-01", "venue": "HV", "race_number": n,
		})
		require.NoError(t, err)
	}

	deleted, err := client.DeleteByFilter(ctx, "race_incidents", Filter(`race_number={}`, 2))
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	require.Len(t, fake.records["race_incidents"], 2)
}

func TestFilterEscaping(t *testing.T) {
	require.Equal(t, `race_date="2025-07-01" && venue="ST" && race_number=3`,
		Filter(`race_date={} && venue={} && race_number={}`, "2025-07-01", "ST", 3))

	require.Equal(t, `name="he said \"go\""`, Filter(`name={}`, `he said "go"`))
	require.Equal(t, `path="a\\b"`, Filter(`path={}`, `a\b`))
}
