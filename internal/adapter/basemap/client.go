package basemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
)

// maxBodyBytes caps the boundary download. The simplified province file is
// well under a megabyte.
const maxBodyBytes = 16 << 20

// Client implements domain.BaseMapProvider by downloading a GeoJSON file.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

// NewClient creates a boundary download client for url.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = 30 * time.Second
			return bo
		},
	}
}

// BoundaryGeoJSON downloads the boundary file. Rate limiting, server errors
// and transport failures are retried with exponential backoff; any other
// status or an invalid body fails at once.
func (c *Client) BoundaryGeoJSON(ctx context.Context) (domain.BaseMap, error) {
	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Debug("basemap request failed, retrying", "attempt", attempt, "error", err)
			return fmt.Errorf("basemap request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			c.logger.Debug("basemap server busy, retrying", "attempt", attempt, "status", resp.StatusCode)
			return fmt.Errorf("basemap server: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("basemap server: status %d: %s", resp.StatusCode, b))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return domain.BaseMap{}, err
	}

	if err := validateGeoJSON(body); err != nil {
		return domain.BaseMap{}, err
	}
	return domain.BaseMap{GeoJSON: body, Source: domain.BaseMapNetwork}, nil
}

var errNotGeoJSON = errors.New("response is not a GeoJSON object")

func validateGeoJSON(body []byte) error {
	var doc struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode basemap: %w", err)
	}
	if doc.Type == "" {
		return errNotGeoJSON
	}
	return nil
}
