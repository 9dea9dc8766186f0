// Locaterra - Random Location and Imagery Pipeline for Geography Games
// Copyright 2026 J. Whitfield (jwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwhitfield/locaterra

package imagery

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwhitfield/locaterra/internal/config"
	"github.com/jwhitfield/locaterra/internal/httpclient"
	"github.com/jwhitfield/locaterra/internal/logging"
	"github.com/jwhitfield/locaterra/internal/models"
)

const (
	// openverseLicenses is every common open license; the point of the
	// pipeline is coverage, not strict reuse terms.
	openverseLicenses = "cc0,by,by-sa,by-nc,by-nc-sa,by-nd,by-nc-nd"

	// openverseSources limits results to providers with dependable hotlinks.
	openverseSources = "flickr,wikimedia"

	// Candidates below this size are thumbnails or icons, not scenery.
	minImageWidth  = 400
	minImageHeight = 300

	// rankPool and pickPool bound the ranking and random-selection windows.
	rankPool = 15
	pickPool = 5
)

// openverseImage is one result in the provider's wire format.
type openverseImage struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	IndexedOn string `json:"indexed_on"`
	URL       string `json:"url"`
	Creator   string `json:"creator"`
	License   string `json:"license"`
	Mature    bool   `json:"mature"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Filesize  int64  `json:"filesize"`
	DetailURL string `json:"detail_url"`
	Tags      []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

type openverseResponse struct {
	ResultCount int              `json:"result_count"`
	Results     []openverseImage `json:"results"`
}

// Openverse is the keyword-search imagery provider.
type Openverse struct {
	baseURL  string
	pageSize int
	delay    time.Duration
	http     *httpclient.Client
	breaker  *httpclient.Breaker
	sleeper  Sleeper

	mu  sync.Mutex
	rng *rand.Rand
}

// NewOpenverse creates the keyword-search provider.
func NewOpenverse(cfg *config.OpenverseConfig, sleeper Sleeper) *Openverse {
	return &Openverse{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		pageSize: cfg.PageSize,
		delay:    cfg.QueryDelay,
		http: httpclient.New(httpclient.Config{
			Name:          "openverse",
			Timeout:       cfg.Timeout,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay,
		}),
		breaker: httpclient.NewBreaker("openverse-api"),
		sleeper: sleeper,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // math/rand is fine for candidate picks
	}
}

// Name identifies the provider in logs and metrics.
func (o *Openverse) Name() string { return "openverse" }

// FindNearby runs the keyword ladder derived from the location. The radius
// is accepted for interface symmetry; keyword search has no geographic
// filter, which is exactly why this provider works where geosearch has
// nothing.
func (o *Openverse) FindNearby(ctx context.Context, lat, lon float64, radius int, loc *models.Location) (*models.Photo, error) {
	return o.SearchByQueries(ctx, BuildQueries(loc), lat, lon)
}

// SearchByQueries tries each query in order and returns the first photo
// that survives filtering. A query that errors is logged and skipped; only
// "no photo from any query" is reported, as nil without error.
func (o *Openverse) SearchByQueries(ctx context.Context, queries []Query, lat, lon float64) (*models.Photo, error) {
	for i, q := range queries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		photo, err := o.trySearch(ctx, q, lat, lon)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("query", q.Text).Msg("Keyword search failed, trying next query")
		}
		if photo != nil {
			logging.Ctx(ctx).Debug().
				Str("query", q.Text).
				Int("strategy", i+1).
				Str("title", photo.Title).
				Msg("Keyword search hit")
			return photo, nil
		}

		if i < len(queries)-1 {
			if err := o.sleeper.Sleep(ctx, o.delay); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

func (o *Openverse) trySearch(ctx context.Context, q Query, lat, lon float64) (*models.Photo, error) {
	text := q.Text
	if q.Exact {
		text = `"` + q.Text + `"`
	}

	params := url.Values{}
	params.Set("q", text)
	params.Set("page_size", strconv.Itoa(o.pageSize))
	params.Set("page", "1")
	params.Set("license", openverseLicenses)
	params.Set("source", openverseSources)
	params.Set("mature", "false")
	reqURL := fmt.Sprintf("%s/?%s", o.baseURL, params.Encode())

	result, err := o.breaker.Execute(func() (interface{}, error) {
		var resp openverseResponse
		if err := o.http.GetJSON(ctx, reqURL, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp, ok := result.(*openverseResponse)
	if !ok {
		return nil, fmt.Errorf("keyword search: unexpected result type %T", result)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	candidate := o.pickCandidate(resp.Results, q.Text)
	if candidate == nil {
		return nil, nil
	}

	return openverseToPhoto(candidate, lat, lon), nil
}

// pickCandidate filters for usable images, ranks title matches first, and
// picks uniformly from the top of the ranking so repeated searches of the
// same place do not always serve the same image.
func (o *Openverse) pickCandidate(results []openverseImage, query string) *openverseImage {
	var valid []openverseImage
	for _, img := range results {
		if img.Mature || img.URL == "" {
			continue
		}
		if img.Width < minImageWidth || img.Height < minImageHeight {
			continue
		}
		valid = append(valid, img)
		if len(valid) == rankPool {
			break
		}
	}
	if len(valid) == 0 {
		return nil
	}

	queryLower := strings.ToLower(query)
	sort.SliceStable(valid, func(i, j int) bool {
		return strings.Contains(strings.ToLower(valid[i].Title), queryLower) &&
			!strings.Contains(strings.ToLower(valid[j].Title), queryLower)
	})

	top := valid
	if len(top) > pickPool {
		top = top[:pickPool]
	}

	o.mu.Lock()
	idx := o.rng.Intn(len(top))
	o.mu.Unlock()
	return &top[idx]
}

// openverseToPhoto converts a wire result to the domain model. The provider
// carries no geolocation, so the search target's coordinates stand in.
func openverseToPhoto(img *openverseImage, lat, lon float64) *models.Photo {
	tagNames := make([]string, 0, len(img.Tags))
	for _, t := range img.Tags {
		tagNames = append(tagNames, t.Name)
	}

	photo := &models.Photo{
		ID:          photoIDFromUUID(img.ID),
		Lat:         lat,
		Lon:         lon,
		Primary:     true,
		FileURL:     img.URL,
		Title:       img.Title,
		Description: strings.Join(tagNames, ", "),
		Author:      img.Creator,
		License:     strings.ToUpper(img.License),
		Width:       img.Width,
		Height:      img.Height,
		Size:        img.Filesize,
		PageID:      photoIDFromUUID(img.ID),
		PageURL:     img.DetailURL,
		Provider:    "openverse",
	}

	if ts, err := time.Parse("2006-01-02", img.IndexedOn); err == nil {
		photo.Timestamp = &ts
	} else if ts, err := time.Parse(time.RFC3339, img.IndexedOn); err == nil {
		photo.Timestamp = &ts
	}

	return photo
}

// photoIDFromUUID derives a stable numeric id from the first 4 bytes (8 hex
// chars) of the provider's UUID. Zero on malformed input.
func photoIDFromUUID(id string) int64 {
	u, err := uuid.Parse(id)
	if err != nil {
		return 0
	}
	return int64(binary.BigEndian.Uint32(u[:4]))
}
