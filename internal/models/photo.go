// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package models

import "time"

// Photo is a normalized image candidate from either imagery provider.
//
// FileURL is always present and resolvable when a Photo is surfaced; a
// candidate without a usable URL is dropped at the provider boundary.
//
// Lat/Lon are the image's true coordinates when the provider supplies them.
// When it cannot, the search target's coordinates are substituted and
// Primary is false so consumers know the point is approximate.
type Photo struct {
	ID          int64      `json:"id"`
	Lat         float64    `json:"lat"`
	Lon         float64    `json:"lon"`
	Primary     bool       `json:"primary"`
	FileURL     string     `json:"fileurl"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Author      string     `json:"author,omitempty"`
	License     string     `json:"license,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	Size        int64      `json:"size,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	PageID      int64      `json:"page_id,omitempty"`
	PageURL     string     `json:"page_url,omitempty"`
	Provider    string     `json:"provider,omitempty"`
}

// GuessResult is the scored outcome of a player's map-click guess.
// Derived from two coordinate pairs, never persisted.
type GuessResult struct {
	DistanceKM float64 `json:"distance_km"`
	Score      float64 `json:"score"`
	Percentage float64 `json:"percentage"`
	ActualLat  float64 `json:"actual_lat"`
	ActualLon  float64 `json:"actual_lon"`
	GuessLat   float64 `json:"guess_lat"`
	GuessLon   float64 `json:"guess_lon"`
}
