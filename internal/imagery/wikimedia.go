// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package imagery

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jwhitfield/locaterra/internal/config"
	"github.com/jwhitfield/locaterra/internal/httpclient"
	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/models"
)

// searchRadii is the geosearch widening ladder in meters. The last rung is
// 1000 km; past that the fallback tiers take over.
var searchRadii = []int{500, 1000, 2000, 5000, 10000, 25000, 50000, 100000, 250000, 500000, 1000000}

// fallbackTiers run after the ladder is spent. Each widens dramatically and
// raises the candidate limit: nearby population centers first, then
// country-scale, then an effectively global sweep.
var fallbackTiers = []struct {
	name   string
	radius int
	limit  int
}{
	{"nearby-cities", 500000, 50},
	{"country-level", 2000000, 30},
	{"global", 10000000, 50},
}

// geosearchResponse is the MediaWiki wire format (formatversion 2).
type geosearchResponse struct {
	Query struct {
		Pages []geosearchPage `json:"pages"`
	} `json:"query"`
}

type geosearchPage struct {
	PageID      int64            `json:"pageid"`
	NS          int              `json:"ns"`
	Title       string           `json:"title"`
	Coordinates []pageCoordinate `json:"coordinates"`
	ImageInfo   []imageInfo      `json:"imageinfo"`
}

type pageCoordinate struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Primary bool    `json:"primary"`
}

type imageInfo struct {
	URL            string                  `json:"url"`
	DescriptionURL string                  `json:"descriptionurl"`
	Size           int64                   `json:"size"`
	Width          int                     `json:"width"`
	Height         int                     `json:"height"`
	Timestamp      string                  `json:"timestamp"`
	ExtMetadata    map[string]metadataItem `json:"extmetadata"`
}

type metadataItem struct {
	Value string `json:"value"`
}

// Wikimedia is the geographic-proximity imagery provider, backed by a
// MediaWiki geosearch endpoint.
//
// The optional interleaved provider is tried at every radius before
// widening, and again after a failed query. Proximity search degrades
// slowly in remote areas, so giving the keyword provider a shot at each
// rung finds an image far sooner than walking the full ladder first.
type Wikimedia struct {
	baseURL    string
	limit      int
	delay      time.Duration
	http       *httpclient.Client
	breaker    *httpclient.Breaker
	sleeper    Sleeper
	interleave Provider
}

// NewWikimedia creates the geosearch provider. userAgent and referer
// identify the deployment per the endpoint's usage policy. interleave may
// be nil.
func NewWikimedia(cfg *config.WikimediaConfig, userAgent, referer string, sleeper Sleeper, interleave Provider) *Wikimedia {
	return &Wikimedia{
		baseURL: cfg.URL,
		limit:   cfg.Limit,
		delay:   cfg.RadiusDelay,
		http: httpclient.New(httpclient.Config{
			Name:          "wikimedia",
			Timeout:       cfg.Timeout,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay,
			UserAgent:     userAgent,
			Referer:       referer,
		}),
		breaker:    httpclient.NewBreaker("wikimedia-api"),
		sleeper:    sleeper,
		interleave: interleave,
	}
}

// Name identifies the provider in logs and metrics.
func (w *Wikimedia) Name() string { return "wikimedia" }

// FindNearby walks the radius ladder around the coordinate, then the
// fallback tiers. Returns nil without error when nothing was found
// anywhere; per-radius errors are logged and cost only that rung.
func (w *Wikimedia) FindNearby(ctx context.Context, lat, lon float64, radius int, loc *models.Location) (*models.Photo, error) {
	for i, r := range searchRadii {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		photo, err := w.searchAt(ctx, lat, lon, r, w.limit, false)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int("radius_m", r).Msg("Geosearch failed at radius")
		}
		if photo != nil {
			logging.Ctx(ctx).Debug().Int("radius_m", r).Str("title", photo.Title).Msg("Geosearch hit")
			return photo, nil
		}

		// Give the keyword provider a shot before widening. Its errors
		// cost nothing here; the next rung is the real fallback.
		if w.interleave != nil {
			ip, ierr := w.interleave.FindNearby(ctx, lat, lon, r, loc)
			if ierr != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logging.Ctx(ctx).Warn().Err(ierr).Int("radius_m", r).Msg("Interleaved keyword search failed")
			}
			if ip != nil {
				return ip, nil
			}
		}

		if i < len(searchRadii)-1 {
			if serr := w.sleeper.Sleep(ctx, w.delay); serr != nil {
				return nil, serr
			}
		}
	}

	for _, tier := range fallbackTiers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		permissive := tier.name == "global"
		photo, err := w.searchAt(ctx, lat, lon, tier.radius, tier.limit, permissive)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("tier", tier.name).Msg("Fallback geosearch failed")
			continue
		}
		if photo != nil {
			logging.Ctx(ctx).Info().Str("tier", tier.name).Str("title", photo.Title).Msg("Fallback geosearch hit")
			return photo, nil
		}
	}

	return nil, nil
}

// searchAt runs one geosearch query and picks the first acceptable
// candidate.
//
// Acceptance is two-tier: candidates with both coordinates and a file URL
// win outright; failing that, any candidate with a file URL is taken with
// the search center substituted as a non-primary position. The permissive
// flag (global tier) collapses the tiers into a single pass that keeps
// real coordinates when present.
func (w *Wikimedia) searchAt(ctx context.Context, lat, lon float64, radius, limit int, permissive bool) (*models.Photo, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "geosearch")
	params.Set("ggscoord", fmt.Sprintf("%f|%f", lat, lon))
	params.Set("ggsradius", strconv.Itoa(radius))
	params.Set("ggsnamespace", "6") // File namespace: search images directly
	params.Set("ggslimit", strconv.Itoa(limit))
	params.Set("prop", "imageinfo|coordinates")
	params.Set("iiprop", "url|extmetadata|size|timestamp")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	reqURL := fmt.Sprintf("%s?%s", w.baseURL, params.Encode())

	result, err := w.breaker.Execute(func() (interface{}, error) {
		var resp geosearchResponse
		if err := w.http.GetJSON(ctx, reqURL, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp, ok := result.(*geosearchResponse)
	if !ok {
		return nil, fmt.Errorf("geosearch: unexpected result type %T", result)
	}

	pages := resp.Query.Pages
	if len(pages) == 0 {
		return nil, nil
	}

	if permissive {
		for i := range pages {
			if p := &pages[i]; len(p.ImageInfo) > 0 && p.ImageInfo[0].URL != "" {
				return w.toPhoto(p, lat, lon), nil
			}
		}
		return nil, nil
	}

	for i := range pages {
		p := &pages[i]
		if len(p.Coordinates) > 0 && len(p.ImageInfo) > 0 && p.ImageInfo[0].URL != "" {
			return w.toPhoto(p, lat, lon), nil
		}
	}
	for i := range pages {
		if p := &pages[i]; len(p.ImageInfo) > 0 && p.ImageInfo[0].URL != "" {
			return w.toPhoto(p, lat, lon), nil
		}
	}
	return nil, nil
}

// toPhoto converts a page to the domain model. Candidates without their own
// coordinates get the search center and Primary=false.
func (w *Wikimedia) toPhoto(page *geosearchPage, searchLat, searchLon float64) *models.Photo {
	info := page.ImageInfo[0]

	photo := &models.Photo{
		ID:       page.PageID,
		Lat:      searchLat,
		Lon:      searchLon,
		Primary:  false,
		FileURL:  info.URL,
		Title:    page.Title,
		Width:    info.Width,
		Height:   info.Height,
		Size:     info.Size,
		PageID:   page.PageID,
		PageURL:  info.DescriptionURL,
		Provider: "wikimedia",
	}

	if len(page.Coordinates) > 0 {
		photo.Lat = page.Coordinates[0].Lat
		photo.Lon = page.Coordinates[0].Lon
		photo.Primary = true
	}

	photo.Description = metaValue(info.ExtMetadata, "ImageDescription", "ObjectName")
	photo.Author = metaValue(info.ExtMetadata, "Artist", "Credit")
	photo.License = metaValue(info.ExtMetadata, "LicenseShortName", "License")

	if ts, err := time.Parse(time.RFC3339, info.Timestamp); err == nil {
		photo.Timestamp = &ts
	}

	return photo
}

// metaValue returns the first non-empty extmetadata value among the keys.
func metaValue(meta map[string]metadataItem, keys ...string) string {
	for _, k := range keys {
		if item, ok := meta[k]; ok && item.Value != "" {
			return item.Value
		}
	}
	return ""
}
