// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package catalog fetches the country catalog used to seed location sampling.
//
// The upstream is a REST Countries-compatible endpoint. The full list is
// fetched in one request with a field projection; filtering and lookup are
// pure in-memory operations on the result.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jwhitfield/locaterra/internal/config"
	"github.com/jwhitfield/locaterra/internal/httpclient"
	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/models"
)

// fetchFields is the projection requested from the upstream. Keeping it
// narrow holds the payload around 50KB instead of several megabytes.
const fetchFields = "name,region,subregion,latlng,cca2"

// countryEntry mirrors the upstream wire format. The name is an object;
// only the common form is carried into the domain model.
type countryEntry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	Region    string    `json:"region"`
	Subregion string    `json:"subregion"`
	LatLng    []float64 `json:"latlng"`
	CCA2      string    `json:"cca2"`
}

// Client fetches the country catalog from the configured upstream.
type Client struct {
	baseURL string
	http    *httpclient.Client
	breaker *httpclient.Breaker
}

// NewClient creates a country catalog client.
func NewClient(cfg *config.CountriesConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: httpclient.New(httpclient.Config{
			Name:          "countries",
			Timeout:       cfg.Timeout,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay,
		}),
		breaker: httpclient.NewBreaker("countries-api"),
	}
}

// FetchAll retrieves the full country catalog.
// Returns an error wrapping httpclient.ErrUnavailable when the upstream
// cannot be reached after retries or the circuit is open.
func (c *Client) FetchAll(ctx context.Context) ([]models.Country, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		reqURL := fmt.Sprintf("%s/all?fields=%s", c.baseURL, url.QueryEscape(fetchFields))

		var entries []countryEntry
		if err := c.http.GetJSON(ctx, reqURL, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch country catalog: %w", err)
	}

	entries, ok := result.([]countryEntry)
	if !ok {
		return nil, fmt.Errorf("fetch country catalog: unexpected result type %T", result)
	}

	countries := make([]models.Country, 0, len(entries))
	for _, e := range entries {
		if e.Name.Common == "" {
			continue
		}
		countries = append(countries, models.Country{
			Name:      e.Name.Common,
			Region:    e.Region,
			Subregion: e.Subregion,
			LatLng:    e.LatLng,
			Code:      e.CCA2,
		})
	}

	logging.Debug().Int("count", len(countries)).Msg("Fetched country catalog")
	return countries, nil
}

// FilterByRegion returns the countries whose region matches, case-insensitive.
func FilterByRegion(countries []models.Country, region string) []models.Country {
	var out []models.Country
	for _, c := range countries {
		if strings.EqualFold(c.Region, region) {
			out = append(out, c)
		}
	}
	return out
}

// FindByName returns the country with an exact case-insensitive name match,
// or nil when absent.
func FindByName(countries []models.Country, name string) *models.Country {
	for i := range countries {
		if strings.EqualFold(countries[i].Name, name) {
			return &countries[i]
		}
	}
	return nil
}
