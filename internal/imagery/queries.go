// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package imagery

import (
	"strings"

	"github.com/jwhitfield/locaterra/internal/models"
)

// Query is one keyword search attempt. Exact queries are sent quoted so the
// provider matches the phrase verbatim; stemmed queries let it broaden.
type Query struct {
	Text  string
	Exact bool
}

// regionBundle adds regional keyword queries when the country name contains
// one of the listed substrings. The match is deliberately loose: "South
// Africa" triggers the africa bundle via the "africa" substring.
type regionBundle struct {
	substrings []string
	queries    []string
}

var regionBundles = []regionBundle{
	{
		substrings: []string{"europe", "france", "germany", "italy", "spain"},
		queries:    []string{"european architecture", "european landscape"},
	},
	{
		substrings: []string{"asia", "china", "japan", "india", "thailand"},
		queries:    []string{"asian architecture", "asian landscape"},
	},
	{
		substrings: []string{"america", "usa", "canada", "mexico"},
		queries:    []string{"american landscape", "north american"},
	},
	{
		substrings: []string{"africa", "egypt", "kenya"},
		queries:    []string{"african landscape", "african wildlife"},
	},
	{
		substrings: []string{"australia", "new zealand"},
		queries:    []string{"australian landscape", "oceania"},
	},
}

// genericQueries is the last-resort ladder rung, and the whole ladder when
// no location context is available.
var genericQueries = []Query{
	{Text: "landscape photography"},
	{Text: "nature photography"},
	{Text: "travel photography"},
}

// BuildQueries derives the keyword search ladder for a location, most
// specific first. A nil location yields only the generic queries.
//
// Ladder shape: exact phrases for the precise place (display name if it is
// not unwieldy, then city/state/local-name each paired with the country),
// then stemmed country-plus-theme queries, then regional bundles keyed on
// the country name, then the generic fallbacks.
func BuildQueries(loc *models.Location) []Query {
	if loc == nil {
		return genericQueries
	}

	var queries []Query

	if loc.DisplayName != "" && len(loc.DisplayName) < 100 {
		queries = append(queries, Query{Text: loc.DisplayName, Exact: true})
	}

	city := ""
	if loc.City != nil {
		city = *loc.City
	}

	if city != "" && loc.Country != "" {
		queries = append(queries, Query{Text: city + " " + loc.Country, Exact: true})
	}
	if loc.State != "" && loc.Country != "" {
		queries = append(queries, Query{Text: loc.State + " " + loc.Country, Exact: true})
	}
	if loc.LocalName != "" && loc.Country != "" {
		queries = append(queries, Query{Text: loc.LocalName + " " + loc.Country, Exact: true})
	}

	if loc.Country != "" {
		queries = append(queries, Query{Text: loc.Country + " landscape"})
		if city != "" {
			queries = append(queries, Query{Text: loc.Country + " " + city})
		}
		queries = append(queries,
			Query{Text: loc.Country + " architecture"},
			Query{Text: loc.Country + " nature"},
			Query{Text: loc.Country + " travel"},
			Query{Text: loc.Country + " tourism"},
		)

		countryLower := strings.ToLower(loc.Country)
		for _, bundle := range regionBundles {
			for _, sub := range bundle.substrings {
				if strings.Contains(countryLower, sub) {
					for _, q := range bundle.queries {
						queries = append(queries, Query{Text: q})
					}
					break
				}
			}
		}
	}

	return append(queries, genericQueries...)
}
