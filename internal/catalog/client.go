package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"favsync/internal/config"
	"favsync/internal/logging"
)

// HTTPDoer describes the HTTP client used by the catalog service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches favorites, audio, and art from the remote catalog.
type Client struct {
	baseURL  string
	apiKey   string
	userID   string
	pageSize int
	http     HTTPDoer
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New constructs a catalog client from configuration. A nil doer gets a
// default http.Client with the configured request timeout.
func New(cfg *config.Config, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: time.Duration(cfg.Server.RequestTimeout) * time.Second}
	}
	return &Client{
		baseURL:  cfg.Server.URL,
		apiKey:   cfg.Server.APIKey,
		userID:   cfg.Server.UserID,
		pageSize: cfg.Server.PageSize,
		http:     doer,
		limiter:  rate.NewLimiter(rate.Limit(cfg.Server.RequestsPerSecond), 1),
		logger:   logging.WithComponent(logger, "catalog"),
	}
}

// ListFavorites returns the complete favorite-track set. Every page must
// succeed; a partial listing is never returned, so downstream deletion
// planning can trust the result.
func (c *Client) ListFavorites(ctx context.Context) ([]Track, error) {
	var tracks []Track
	start := 0
	for {
		page, err := c.listPage(ctx, start)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Type != "" && item.Type != "Audio" {
				continue
			}
			track, err := item.toTrack()
			if err != nil {
				return nil, err
			}
			tracks = append(tracks, track)
		}
		start += len(page.Items)
		if len(page.Items) == 0 || start >= page.TotalRecordCount {
			break
		}
	}
	c.logger.Debug("listed favorites", logging.Int("tracks", len(tracks)))
	return tracks, nil
}

func (c *Client) listPage(ctx context.Context, start int) (*itemsPage, error) {
	query := url.Values{
		"IncludeItemTypes": {"Audio"},
		"Recursive":        {"true"},
		"Filters":          {"IsFavorite"},
		"Fields":           {"ProductionYear,IndexNumber"},
		"StartIndex":       {strconv.Itoa(start)},
		"Limit":            {strconv.Itoa(c.pageSize)},
	}
	endpoint := fmt.Sprintf("%s/Users/%s/Items?%s", c.baseURL, url.PathEscape(c.userID), query.Encode())

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var page itemsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode favorites page: %v", ErrNetwork, err)
	}
	return &page, nil
}

// FetchAudio streams the original audio bytes for a track. The caller
// closes the returned reader.
func (c *Client) FetchAudio(ctx context.Context, track Track) (io.ReadCloser, error) {
	endpoint := fmt.Sprintf("%s/Items/%s/File", c.baseURL, url.PathEscape(track.ID))
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// FetchArt streams the primary image for the track's album together with
// its content type. The caller closes the returned reader.
func (c *Client) FetchArt(ctx context.Context, track Track) (io.ReadCloser, string, error) {
	if !track.HasArt() {
		return nil, "", fmt.Errorf("%w: track %s has no album art", ErrNotFound, track.ID)
	}
	endpoint := fmt.Sprintf("%s/Items/%s/Images/Primary", c.baseURL, url.PathEscape(track.ArtItemID))
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.Header.Set("X-Emby-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: server returned %d", ErrAuth, resp.StatusCode)
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: server returned 404 for %s", ErrNotFound, endpoint)
		default:
			return nil, fmt.Errorf("%w: server returned %d", ErrNetwork, resp.StatusCode)
		}
	}
	return resp, nil
}
