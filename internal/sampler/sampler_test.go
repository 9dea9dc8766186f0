// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package sampler

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/jwhitfield/locaterra/internal/config"
	"github.com/jwhitfield/locaterra/internal/geocode"
	"github.com/jwhitfield/locaterra/internal/models"
)

type fakeCatalog struct {
	countries []models.Country
	err       error
}

func (f *fakeCatalog) FetchAll(ctx context.Context) ([]models.Country, error) {
	return f.countries, f.err
}

type lookupResult struct {
	loc *models.Location
	err error
}

type fakeGeocoder struct {
	box     *models.BoundingBox
	boxErr  error
	lookups []lookupResult
	calls   int
	coords  [][2]float64
}

func (f *fakeGeocoder) ForwardSearch(ctx context.Context, query string) (*models.BoundingBox, error) {
	return f.box, f.boxErr
}

func (f *fakeGeocoder) ReverseLookup(ctx context.Context, lat, lon float64) (*models.Location, error) {
	f.coords = append(f.coords, [2]float64{lat, lon})
	var r lookupResult
	if f.calls < len(f.lookups) {
		r = f.lookups[f.calls]
	} else {
		r = f.lookups[len(f.lookups)-1]
	}
	f.calls++
	return r.loc, r.err
}

func testPipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		SampleAttempts:   5,
		UnpopulatedDelay: time.Millisecond,
		ErrorDelay:       3 * time.Millisecond,
	}
}

func populatedLocation(city string) *models.Location {
	return &models.Location{
		Lat:         48.1,
		Lon:         11.5,
		Country:     "Germany",
		City:        &city,
		DisplayName: city + ", Germany",
		Details: &models.LocationDetails{
			Address: models.Address{City: city, Country: "Germany"},
		},
	}
}

func oceanLocation() *models.Location {
	return &models.Location{
		DisplayName: "somewhere at sea",
		Details:     &models.LocationDetails{},
	}
}

func testSampler(cat *fakeCatalog, geo *fakeGeocoder) *Sampler {
	s := New(cat, geo, testPipelineConfig())
	s.rng = rand.New(rand.NewSource(1)) //nolint:gosec // deterministic draws
	s.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return s
}

var testCountries = []models.Country{
	{Name: "Germany", Region: "Europe", Code: "DE"},
	{Name: "France", Region: "Europe", Code: "FR"},
	{Name: "Japan", Region: "Asia", Code: "JP"},
}

var germanyBox = &models.BoundingBox{MinLat: 47.27, MaxLat: 55.1, MinLon: 5.87, MaxLon: 15.04}

func TestSampleFirstDrawPopulated(t *testing.T) {
	geo := &fakeGeocoder{
		box:     germanyBox,
		lookups: []lookupResult{{loc: populatedLocation("Munich")}},
	}
	s := testSampler(&fakeCatalog{countries: testCountries}, geo)

	loc, err := s.Sample(context.Background(), SampleOptions{Country: "Germany"})
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if loc.City == nil || *loc.City != "Munich" {
		t.Errorf("city = %v, want Munich", loc.City)
	}
	if geo.calls != 1 {
		t.Errorf("reverse lookups = %d, want 1", geo.calls)
	}
}

func TestSampleDrawsStayInsideBox(t *testing.T) {
	geo := &fakeGeocoder{
		box: germanyBox,
		lookups: []lookupResult{
			{loc: oceanLocation()},
			{loc: oceanLocation()},
			{loc: populatedLocation("Bremen")},
		},
	}
	s := testSampler(&fakeCatalog{countries: testCountries}, geo)

	if _, err := s.Sample(context.Background(), SampleOptions{Country: "Germany"}); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}

	for i, c := range geo.coords {
		if !germanyBox.Contains(c[0], c[1]) {
			t.Errorf("draw %d = %v outside bounding box", i, c)
		}
	}
}

func TestSampleRejectsUnpopulatedDraws(t *testing.T) {
	geo := &fakeGeocoder{
		box: germanyBox,
		lookups: []lookupResult{
			{loc: oceanLocation()},
			{err: geocode.ErrNotFound},
			{loc: populatedLocation("Hamburg")},
		},
	}
	s := testSampler(&fakeCatalog{countries: testCountries}, geo)

	loc, err := s.Sample(context.Background(), SampleOptions{Country: "Germany"})
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if loc.City == nil || *loc.City != "Hamburg" {
		t.Errorf("city = %v, want Hamburg", loc.City)
	}
	if geo.calls != 3 {
		t.Errorf("reverse lookups = %d, want 3", geo.calls)
	}
}

func TestSampleExhaustsDraws(t *testing.T) {
	geo := &fakeGeocoder{
		box:     germanyBox,
		lookups: []lookupResult{{loc: oceanLocation()}},
	}
	s := testSampler(&fakeCatalog{countries: testCountries}, geo)

	_, err := s.Sample(context.Background(), SampleOptions{Country: "Germany"})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("error = %v, want ErrExhausted", err)
	}
	if geo.calls != 5 {
		t.Errorf("reverse lookups = %d, want the full budget of 5", geo.calls)
	}
}

func TestSampleErrorDrawUsesLongerCooldown(t *testing.T) {
	geo := &fakeGeocoder{
		box: germanyBox,
		lookups: []lookupResult{
			{err: errors.New("upstream 500")},
			{loc: oceanLocation()},
			{loc: populatedLocation("Cologne")},
		},
	}
	s := testSampler(&fakeCatalog{countries: testCountries}, geo)

	var delays []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	if _, err := s.Sample(context.Background(), SampleOptions{Country: "Germany"}); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}

	want := []time.Duration{3 * time.Millisecond, time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestSampleCountrySelection(t *testing.T) {
	tests := []struct {
		name    string
		opts    SampleOptions
		wantErr error
	}{
		{"unknown country", SampleOptions{Country: "Atlantis"}, ErrNotFound},
		{"empty continent", SampleOptions{Continent: "Oceania"}, ErrNotFound},
		{"known country case insensitive", SampleOptions{Country: "germany"}, nil},
		{"continent filter", SampleOptions{Continent: "asia"}, nil},
		{"global random", SampleOptions{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo := &fakeGeocoder{
				box:     germanyBox,
				lookups: []lookupResult{{loc: populatedLocation("Anywhere")}},
			}
			s := testSampler(&fakeCatalog{countries: testCountries}, geo)

			_, err := s.Sample(context.Background(), tt.opts)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Sample() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSampleEmptyCatalog(t *testing.T) {
	s := testSampler(&fakeCatalog{}, &fakeGeocoder{})
	if _, err := s.Sample(context.Background(), SampleOptions{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSampleCatalogFailurePropagates(t *testing.T) {
	wantErr := errors.New("catalog down")
	s := testSampler(&fakeCatalog{err: wantErr}, &fakeGeocoder{})
	if _, err := s.Sample(context.Background(), SampleOptions{}); !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func TestSampleMissingBoundingBox(t *testing.T) {
	geo := &fakeGeocoder{boxErr: geocode.ErrNotFound}
	s := testSampler(&fakeCatalog{countries: testCountries}, geo)

	if _, err := s.Sample(context.Background(), SampleOptions{Country: "Germany"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSampleContextCanceled(t *testing.T) {
	geo := &fakeGeocoder{
		box:     germanyBox,
		lookups: []lookupResult{{loc: oceanLocation()}},
	}
	s := testSampler(&fakeCatalog{countries: testCountries}, geo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Sample(ctx, SampleOptions{Country: "Germany"}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
