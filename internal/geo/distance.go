// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

// Package geo provides the distance and scoring formulas used to grade a
// player's map-click guess against the true coordinates.
package geo

import (
	"math"

	"github.com/jwhitfield/locaterra/internal/models"
)

// earthRadiusKM is the mean Earth radius used by the haversine formula.
const earthRadiusKM = 6371.0

// maxScoringDistanceKM is the distance at which the score bottoms out.
// Guesses at or beyond 5000 km score the minimum.
const maxScoringDistanceKM = 5000.0

// HaversineKM returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// Score maps a distance to a 1-10 score, rounded to one decimal.
// A perfect guess scores 10; anything at or beyond 5000 km scores 1.
func Score(distanceKM float64) float64 {
	score := 10 - (distanceKM/maxScoringDistanceKM)*9
	if score < 1 {
		score = 1
	}
	return roundTo1(score)
}

// Percentage maps a distance to a 0-100 accuracy percentage, rounded to
// one decimal. Anything at or beyond 5000 km scores 0.
func Percentage(distanceKM float64) float64 {
	pct := 100 - (distanceKM/maxScoringDistanceKM)*100
	if pct < 0 {
		pct = 0
	}
	return roundTo1(pct)
}

// Grade scores a guess against the true coordinates.
func Grade(actualLat, actualLon, guessLat, guessLon float64) models.GuessResult {
	distance := HaversineKM(actualLat, actualLon, guessLat, guessLon)
	return models.GuessResult{
		DistanceKM: roundTo1(distance),
		Score:      Score(distance),
		Percentage: Percentage(distance),
		ActualLat:  actualLat,
		ActualLon:  actualLon,
		GuessLat:   guessLat,
		GuessLon:   guessLon,
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
