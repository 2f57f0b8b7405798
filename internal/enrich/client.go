// Package enrich looks up live catalog metadata (cover art, preview clip,
// canonical link, album) for a (song, artist) pair from an external music
// API. Failures of any kind surface as "no match", never as errors: the
// recommendation path must keep working when the catalog is unavailable.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/music-engine/backend/internal/config"
)

// TrackInfo is the enrichment payload for one track. Any field may be
// empty; PreviewURL and Link in particular are frequently absent.
type TrackInfo struct {
	ImageURL    string `json:"image"`
	PreviewURL  string `json:"preview,omitempty"`
	Link        string `json:"link,omitempty"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date,omitempty"`
	DurationMS  int    `json:"duration_ms,omitempty"`
}

// Enricher resolves catalog metadata for a track, or nil for no match.
type Enricher interface {
	Lookup(ctx context.Context, song, artist string) *TrackInfo
}

// Client talks to a Spotify-style catalog API using the client-credentials
// flow. Lookups are memoized: the cache is keyed by (song, artist) and
// populated idempotently, so concurrent queries racing on the same key are
// harmless (last writer wins with an identical value).
type Client struct {
	cfg    config.EnrichmentConfig
	http   *http.Client
	logger *logrus.Entry

	limiter *limiter

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time

	cache sync.Map // "song\x00artist" -> *TrackInfo (nil = cached no-match)
}

func NewClient(cfg config.EnrichmentConfig, logger *logrus.Entry) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.LookupTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:  logger,
		limiter: newLimiter(cfg.MaxInFlight, cfg.MinDelay),
	}
}

// Lookup resolves metadata for (song, artist). Returns nil on no catalog
// match, on any transport or decode failure and on timeout. Definitive
// results (matches and no-matches) are cached; transient failures are not,
// so a later call may succeed.
func (c *Client) Lookup(ctx context.Context, song, artist string) *TrackInfo {
	key := song + "\x00" + artist
	if cached, ok := c.cache.Load(key); ok {
		info, _ := cached.(*TrackInfo)
		return info
	}

	if err := c.limiter.acquire(ctx); err != nil {
		return nil
	}
	defer c.limiter.release()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.LookupTimeout)
	defer cancel()

	info, definitive := c.search(ctx, song, artist)
	if definitive {
		c.cache.Store(key, info)
	}
	return info
}

// search performs one catalog query. The second return is false when the
// outcome is transient (network error, non-200, bad token) and should not
// be cached.
func (c *Client) search(ctx context.Context, song, artist string) (*TrackInfo, bool) {
	token, err := c.accessToken(ctx)
	if err != nil {
		c.logger.WithError(err).Debug("Enrichment token unavailable")
		return nil, false
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("track:%s artist:%s", song, artist))
	q.Set("type", "track")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).Debug("Enrichment lookup failed")
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	var result struct {
		Tracks struct {
			Items []struct {
				Name  string `json:"name"`
				Album struct {
					Name        string `json:"name"`
					ReleaseDate string `json:"release_date"`
					Images      []struct {
						URL string `json:"url"`
					} `json:"images"`
				} `json:"album"`
				Artists []struct {
					Name string `json:"name"`
				} `json:"artists"`
				PreviewURL   string `json:"preview_url"`
				DurationMS   int    `json:"duration_ms"`
				ExternalURLs struct {
					Spotify string `json:"spotify"`
				} `json:"external_urls"`
			} `json:"items"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false
	}

	if len(result.Tracks.Items) == 0 {
		// A definitive no-match; cacheable.
		return nil, true
	}

	track := result.Tracks.Items[0]
	info := &TrackInfo{
		PreviewURL:  track.PreviewURL,
		Link:        track.ExternalURLs.Spotify,
		Artist:      artist,
		Album:       track.Album.Name,
		ReleaseDate: track.Album.ReleaseDate,
		DurationMS:  track.DurationMS,
	}
	if len(track.Album.Images) > 0 {
		info.ImageURL = track.Album.Images[0].URL
	}
	if len(track.Artists) > 0 {
		info.Artist = track.Artists[0].Name
	}
	return info, true
}

// accessToken returns a valid client-credentials token, refreshing it when
// it is near expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status: %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty token")
	}

	c.token = result.AccessToken
	// Refresh a minute early.
	c.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}
