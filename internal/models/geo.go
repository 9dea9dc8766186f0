// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package models

// Country is one entry from the country catalog.
//
// LatLng holds the approximate center point as [lat, lon]; some territories
// in the upstream dataset omit it, so callers must tolerate a short slice.
type Country struct {
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	Subregion string    `json:"subregion,omitempty"`
	LatLng    []float64 `json:"latlng,omitempty"`
	Code      string    `json:"cca2"`
}

// BoundingBox is the rectangular lat/lon envelope of a geographic region.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point lies within the box (inclusive).
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Address is the structured address block of a reverse-geocode result.
// All fields are optional; an entirely empty Address means the coordinate
// resolved to nothing (open ocean, unmapped area).
type Address struct {
	HouseNumber string `json:"house_number,omitempty"`
	Road        string `json:"road,omitempty"`
	Suburb      string `json:"suburb,omitempty"`
	Village     string `json:"village,omitempty"`
	Town        string `json:"town,omitempty"`
	City        string `json:"city,omitempty"`
	County      string `json:"county,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// IsPopulated reports whether the address carries at least one
// human-settlement or address attribute. Coordinates whose reverse-geocode
// result fails this check are rejected by the sampler and redrawn.
//
// A bare road or even a bare country is accepted. That admits
// low-information locations (a country match with no city), which is the
// intended, permissive rule.
func (a Address) IsPopulated() bool {
	return a.City != "" || a.Town != "" || a.Village != "" ||
		a.Suburb != "" || a.Road != "" || a.Country != ""
}

// Location is a resolved real-world point produced by the sampler or by a
// direct reverse-geocode lookup.
//
// City is a pointer so the JSON output distinguishes "no city" (null) from
// an absent field. LocalName is the best available short label for the
// point: road name, then house number, then the first segment of the full
// display string.
type Location struct {
	Lat         float64          `json:"lat"`
	Lon         float64          `json:"lon"`
	Country     string           `json:"country"`
	State       string           `json:"state,omitempty"`
	City        *string          `json:"city"`
	LocalName   string           `json:"local_name,omitempty"`
	DisplayName string           `json:"display_name"`
	Details     *LocationDetails `json:"details,omitempty"`
}

// LocationDetails carries provider-specific metadata attached to a Location.
type LocationDetails struct {
	PlaceID     int64        `json:"place_id,omitempty"`
	OSMType     string       `json:"osm_type,omitempty"`
	OSMID       int64        `json:"osm_id,omitempty"`
	PlaceRank   int          `json:"place_rank,omitempty"`
	Category    string       `json:"category,omitempty"`
	Type        string       `json:"type,omitempty"`
	Importance  float64      `json:"importance,omitempty"`
	Address     Address      `json:"address"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
}
