// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package models defines the shared data types exchanged between the
// pipeline components and the HTTP API.
//
// The core entities are:
//   - Country: an entry from the country catalog (name, region, center, ISO code)
//   - BoundingBox: the lat/lon envelope of a geographic region
//   - Address: the structured address block of a reverse-geocode result
//   - Location: a resolved, populated real-world point assembled by the sampler
//   - Photo: a normalized image candidate from either imagery provider
//   - GuessResult: the scored outcome of a player's guess
//
// Provider-specific response shapes are normalized into these types at the
// client boundary; nothing outside the provider packages sees raw upstream
// payloads.
package models
