// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package geocode provides forward and reverse geocoding against a
// Nominatim-compatible provider.
//
// The provider's usage policy requires every request to carry a User-Agent
// identifying the deployment with a reachable contact, plus a Referer, and
// caps the request rate at 1/s. Both headers and the pace come from
// configuration; a missing contact fails config validation at startup.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jwhitfield/locaterra/internal/config"
	"github.com/jwhitfield/locaterra/internal/httpclient"
	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/models"
)

// ErrNotFound indicates the query resolved to no usable result: zero search
// hits, a hit without a bounding box, or a reverse lookup with no address
// block (open ocean, unmapped terrain).
var ErrNotFound = errors.New("geocode: no result")

// searchResult is one entry of a forward search response.
// The bounding box arrives as strings ordered [south, north, west, east].
type searchResult struct {
	BoundingBox []string `json:"boundingbox"`
	DisplayName string   `json:"display_name"`
}

// reverseResult is the wire format of a reverse lookup response.
type reverseResult struct {
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	DisplayName string      `json:"display_name"`
	PlaceID     int64       `json:"place_id"`
	OSMType     string      `json:"osm_type"`
	OSMID       int64       `json:"osm_id"`
	PlaceRank   int         `json:"place_rank"`
	Category    string      `json:"category"`
	Type        string      `json:"type"`
	Importance  float64     `json:"importance"`
	BoundingBox []string    `json:"boundingbox"`
	Address     wireAddress `json:"address"`
}

type wireAddress struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	Suburb      string `json:"suburb"`
	Village     string `json:"village"`
	Town        string `json:"town"`
	City        string `json:"city"`
	County      string `json:"county"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// Client is a forward/reverse geocoding client.
type Client struct {
	baseURL string
	http    *httpclient.Client
	breaker *httpclient.Breaker
}

// NewClient creates a geocoding client. The User-Agent follows the
// "AppName (contact)" form the provider's policy asks for.
func NewClient(cfg *config.GeocoderConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: httpclient.New(httpclient.Config{
			Name:          "nominatim",
			Timeout:       cfg.Timeout,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay,
			Pace:          cfg.Pace,
			UserAgent:     fmt.Sprintf("Locaterra (%s)", cfg.Contact),
			Referer:       cfg.Referer,
		}),
		breaker: httpclient.NewBreaker("nominatim-api"),
	}
}

// ForwardSearch resolves a free-text query to the bounding box of its best
// match. Returns ErrNotFound when the query has no results or the best match
// carries no bounding box.
func (c *Client) ForwardSearch(ctx context.Context, query string) (*models.BoundingBox, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		params := url.Values{}
		params.Set("q", query)
		params.Set("format", "jsonv2")
		params.Set("limit", "1")
		params.Set("addressdetails", "1")
		reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

		var results []searchResult
		if err := c.http.GetJSON(ctx, reqURL, &results); err != nil {
			return nil, err
		}
		return results, nil
	})
	if err != nil {
		return nil, fmt.Errorf("forward search %q: %w", query, err)
	}

	results, ok := result.([]searchResult)
	if !ok {
		return nil, fmt.Errorf("forward search: unexpected result type %T", result)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("forward search %q: %w", query, ErrNotFound)
	}

	box, err := parseBoundingBox(results[0].BoundingBox)
	if err != nil {
		return nil, fmt.Errorf("forward search %q: %w", query, err)
	}

	logging.Debug().Str("query", query).
		Float64("min_lat", box.MinLat).Float64("max_lat", box.MaxLat).
		Float64("min_lon", box.MinLon).Float64("max_lon", box.MaxLon).
		Msg("Resolved bounding box")
	return box, nil
}

// ReverseLookup resolves a coordinate to a structured Location.
// Returns ErrNotFound when the provider reports no address for the point.
func (c *Client) ReverseLookup(ctx context.Context, lat, lon float64) (*models.Location, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		params := url.Values{}
		params.Set("format", "jsonv2")
		params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
		params.Set("addressdetails", "1")
		reqURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, params.Encode())

		var res reverseResult
		if err := c.http.GetJSON(ctx, reqURL, &res); err != nil {
			return nil, err
		}
		return &res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reverse lookup %.5f,%.5f: %w", lat, lon, err)
	}

	res, ok := result.(*reverseResult)
	if !ok {
		return nil, fmt.Errorf("reverse lookup: unexpected result type %T", result)
	}
	if (res.Address == wireAddress{}) {
		return nil, fmt.Errorf("reverse lookup %.5f,%.5f: %w", lat, lon, ErrNotFound)
	}

	return res.toLocation(), nil
}

// toLocation converts the wire result to the domain model.
//
// The coordinates come from the provider's snapped result, not from the
// queried point. City prefers city over town over village and stays null
// when none apply. LocalName falls back through road, house number, and the
// first display-name segment.
func (r *reverseResult) toLocation() *models.Location {
	addr := models.Address{
		HouseNumber: r.Address.HouseNumber,
		Road:        r.Address.Road,
		Suburb:      r.Address.Suburb,
		Village:     r.Address.Village,
		Town:        r.Address.Town,
		City:        r.Address.City,
		County:      r.Address.County,
		State:       r.Address.State,
		Postcode:    r.Address.Postcode,
		Country:     r.Address.Country,
		CountryCode: r.Address.CountryCode,
	}

	var city *string
	switch {
	case addr.City != "":
		city = &addr.City
	case addr.Town != "":
		city = &addr.Town
	case addr.Village != "":
		city = &addr.Village
	}

	localName := addr.Road
	if localName == "" {
		localName = addr.HouseNumber
	}
	if localName == "" {
		localName = strings.TrimSpace(strings.SplitN(r.DisplayName, ",", 2)[0])
	}

	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lon, _ := strconv.ParseFloat(r.Lon, 64)

	details := &models.LocationDetails{
		PlaceID:    r.PlaceID,
		OSMType:    r.OSMType,
		OSMID:      r.OSMID,
		PlaceRank:  r.PlaceRank,
		Category:   r.Category,
		Type:       r.Type,
		Importance: r.Importance,
		Address:    addr,
	}
	if box, err := parseBoundingBox(r.BoundingBox); err == nil {
		details.BoundingBox = box
	}

	return &models.Location{
		Lat:         lat,
		Lon:         lon,
		Country:     addr.Country,
		State:       addr.State,
		City:        city,
		LocalName:   localName,
		DisplayName: r.DisplayName,
		Details:     details,
	}
}

// parseBoundingBox converts the wire-order [south, north, west, east]
// string quad into a BoundingBox.
func parseBoundingBox(raw []string) (*models.BoundingBox, error) {
	if len(raw) != 4 {
		return nil, fmt.Errorf("bounding box has %d elements: %w", len(raw), ErrNotFound)
	}
	vals := make([]float64, 4)
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("bounding box element %q: %w", s, ErrNotFound)
		}
		vals[i] = v
	}
	return &models.BoundingBox{
		MinLat: vals[0],
		MaxLat: vals[1],
		MinLon: vals[2],
		MaxLon: vals[3],
	}, nil
}
