package aroihub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
)

func TestAPIProvider_WalksEveryPage(t *testing.T) {
	pages := map[int]listingPage{
		1: {Items: []Restaurant{{ID: 1}, {ID: 2}}, Page: 1, TotalPages: 2},
		2: {Items: []Restaurant{{ID: 3}}, Page: 2, TotalPages: 2},
	}

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/v1/restaurants" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pages[page])
	}))
	defer srv.Close()

	p := newAPIProvider(srv.URL, "secret", srv.Client())
	got, err := p.Query(context.Background(), url.Values{"q": {"som"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 3 || got[0].ID != 1 || got[2].ID != 3 {
		t.Errorf("results = %v, want all three listings", got)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestAPIProvider_ForwardsFilterQuery(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(listingPage{Page: 1, TotalPages: 1})
	}))
	defer srv.Close()

	p := newAPIProvider(srv.URL, "", srv.Client())
	if _, err := p.Query(context.Background(), url.Values{
		"q":          {"grill"},
		"min_rating": {"4.5"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery.Get("q") != "grill" || gotQuery.Get("min_rating") != "4.5" {
		t.Errorf("server saw query %v", gotQuery)
	}
	if gotQuery.Get("page_size") != "100" {
		t.Errorf("page_size = %q, want the provider page size", gotQuery.Get("page_size"))
	}
}

func TestAPIProvider_NonOKStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := newAPIProvider(srv.URL, "", srv.Client())
	if _, err := p.Query(context.Background(), url.Values{}); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestAPIProvider_EmptyCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(listingPage{Page: 1, TotalPages: 0})
	}))
	defer srv.Close()

	p := newAPIProvider(srv.URL, "", srv.Client())
	got, err := p.Query(context.Background(), url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("results = %v, want empty", got)
	}
}
