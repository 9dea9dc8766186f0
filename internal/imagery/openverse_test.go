// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package imagery

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jwhitfield/locaterra/internal/config"
)

// fakeSleeper records requested delays without waiting.
type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.mu.Unlock()
	return ctx.Err()
}

func testOpenverse(serverURL string) *Openverse {
	o := NewOpenverse(&config.OpenverseConfig{
		URL:           serverURL,
		Timeout:       5 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		PageSize:      20,
		QueryDelay:    time.Millisecond,
	}, &fakeSleeper{})
	o.rng = rand.New(rand.NewSource(1)) //nolint:gosec // deterministic picks
	return o
}

const openverseResult = `{
	"id":"0aae3bd4-8714-4a02-9ffc-3e99d7940ba7",
	"title":"%s",
	"indexed_on":"2023-04-12",
	"url":"https://img.example/%s.jpg",
	"creator":"someone",
	"license":"by-sa",
	"mature":false,
	"width":%d,"height":%d,
	"filesize":123456,
	"detail_url":"https://api.example/detail",
	"tags":[{"name":"city"},{"name":"sunset"}]
}`

func TestSearchByQueriesRequestShape(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"result_count":1,"results":[` + resultJSON("Berlin skyline", "a", 800, 600) + `]}`))
	}))
	defer server.Close()

	o := testOpenverse(server.URL)
	photo, err := o.SearchByQueries(context.Background(), []Query{{Text: "Berlin Germany", Exact: true}}, 52.5, 13.4)
	if err != nil {
		t.Fatalf("SearchByQueries() error = %v", err)
	}
	if photo == nil {
		t.Fatal("photo = nil, want photo")
	}

	checks := map[string]string{
		"q":         `"Berlin Germany"`,
		"page_size": "20",
		"page":      "1",
		"license":   "cc0,by,by-sa,by-nc,by-nc-sa,by-nd,by-nc-nd",
		"source":    "flickr,wikimedia",
		"mature":    "false",
	}
	for k, want := range checks {
		if got := gotQuery.Get(k); got != want {
			t.Errorf("param %s = %q, want %q", k, got, want)
		}
	}
}

func resultJSON(title, slug string, width, height int) string {
	return fmt.Sprintf(openverseResult, title, slug, width, height)
}

func TestSearchByQueriesPhotoConversion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result_count":1,"results":[` + resultJSON("Old Town", "x", 1024, 768) + `]}`))
	}))
	defer server.Close()

	o := testOpenverse(server.URL)
	photo, err := o.SearchByQueries(context.Background(), []Query{{Text: "old town"}}, 41.9, 12.5)
	if err != nil {
		t.Fatalf("SearchByQueries() error = %v", err)
	}
	if photo == nil {
		t.Fatal("photo = nil")
	}

	// First 8 hex chars of the UUID: 0aae3bd4.
	if photo.ID != 0x0aae3bd4 {
		t.Errorf("ID = %d, want %d", photo.ID, 0x0aae3bd4)
	}
	if photo.Lat != 41.9 || photo.Lon != 12.5 || !photo.Primary {
		t.Errorf("coordinates = %v,%v primary=%v, want search target marked primary", photo.Lat, photo.Lon, photo.Primary)
	}
	if photo.License != "BY-SA" {
		t.Errorf("license = %q, want BY-SA", photo.License)
	}
	if photo.Description != "city, sunset" {
		t.Errorf("description = %q", photo.Description)
	}
	if photo.Provider != "openverse" {
		t.Errorf("provider = %q", photo.Provider)
	}
	if photo.Timestamp == nil || photo.Timestamp.Year() != 2023 {
		t.Errorf("timestamp = %v", photo.Timestamp)
	}
}

func TestSearchByQueriesFiltersSmallImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result_count":2,"results":[` +
			resultJSON("tiny", "t", 200, 150) + `,` +
			resultJSON("thumb", "u", 399, 600) +
			`]}`))
	}))
	defer server.Close()

	o := testOpenverse(server.URL)
	photo, err := o.SearchByQueries(context.Background(), []Query{{Text: "anything"}}, 0, 0)
	if err != nil {
		t.Fatalf("SearchByQueries() error = %v", err)
	}
	if photo != nil {
		t.Errorf("photo = %+v, want nil when every candidate is undersized", photo)
	}
}

func TestSearchByQueriesRanksTitleMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result_count":6,"results":[` +
			resultJSON("random shot", "a", 800, 600) + `,` +
			resultJSON("another pic", "b", 800, 600) + `,` +
			resultJSON("pic three", "c", 800, 600) + `,` +
			resultJSON("pic four", "d", 800, 600) + `,` +
			resultJSON("pic five", "e", 800, 600) + `,` +
			resultJSON("Lisbon at dusk", "f", 800, 600) +
			`]}`))
	}))
	defer server.Close()

	// The only title containing the query sits last in the results.
	// Ranking promotes it to the head of the pick pool, which pushes the
	// former fifth candidate out; "pic five" must therefore never win.
	for seed := int64(0); seed < 20; seed++ {
		o := testOpenverse(server.URL)
		o.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic picks
		photo, err := o.SearchByQueries(context.Background(), []Query{{Text: "Lisbon"}}, 0, 0)
		if err != nil {
			t.Fatalf("SearchByQueries() error = %v", err)
		}
		if photo == nil {
			t.Fatal("photo = nil")
		}
		if photo.Title == "pic five" {
			t.Fatalf("seed %d picked %q, which ranking should have pushed out of the pool", seed, photo.Title)
		}
	}
}

func TestSearchByQueriesWalksLadder(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.Write([]byte(`{"result_count":0,"results":[]}`))
			return
		}
		w.Write([]byte(`{"result_count":1,"results":[` + resultJSON("finally", "z", 800, 600) + `]}`))
	}))
	defer server.Close()

	sleeper := &fakeSleeper{}
	o := testOpenverse(server.URL)
	o.sleeper = sleeper

	queries := []Query{{Text: "one"}, {Text: "two"}, {Text: "three"}, {Text: "four"}}
	photo, err := o.SearchByQueries(context.Background(), queries, 0, 0)
	if err != nil {
		t.Fatalf("SearchByQueries() error = %v", err)
	}
	if photo == nil || photo.Title != "finally" {
		t.Fatalf("photo = %+v, want the third query's hit", photo)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// One pacing sleep between each exhausted query.
	if len(sleeper.delays) != 2 {
		t.Errorf("sleeps = %d, want 2", len(sleeper.delays))
	}
}

func TestSearchByQueriesAllEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result_count":0,"results":[]}`))
	}))
	defer server.Close()

	o := testOpenverse(server.URL)
	photo, err := o.SearchByQueries(context.Background(), []Query{{Text: "a"}, {Text: "b"}}, 0, 0)
	if err != nil {
		t.Fatalf("SearchByQueries() error = %v", err)
	}
	if photo != nil {
		t.Errorf("photo = %+v, want nil", photo)
	}
}

func TestSearchByQueriesSkipsFailingQuery(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 { // first query burns its retry budget
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"result_count":1,"results":[` + resultJSON("recovered", "r", 800, 600) + `]}`))
	}))
	defer server.Close()

	o := testOpenverse(server.URL)
	photo, err := o.SearchByQueries(context.Background(), []Query{{Text: "bad"}, {Text: "good"}}, 0, 0)
	if err != nil {
		t.Fatalf("SearchByQueries() error = %v", err)
	}
	if photo == nil || photo.Title != "recovered" {
		t.Errorf("photo = %+v, want second query's hit", photo)
	}
}

func TestPhotoIDFromUUID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want int64
	}{
		{"valid uuid", "0aae3bd4-8714-4a02-9ffc-3e99d7940ba7", 0x0aae3bd4},
		{"another uuid", "ffffffff-0000-0000-0000-000000000000", 0xffffffff},
		{"malformed", "not-a-uuid", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := photoIDFromUUID(tt.id); got != tt.want {
				t.Errorf("photoIDFromUUID(%q) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}
