// Package catalog fetches the live vehicle feed and flattens its
// paginated responses into catalog records.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/motorgrid/lotsync/internal/config"
	"github.com/motorgrid/lotsync/internal/model"
	"github.com/motorgrid/lotsync/internal/normalize"
)

// Client is a paginated feed client with retry and rate limiting.
type Client struct {
	http    *http.Client
	cfg     config.CatalogConfig
	limiter *rate.Limiter
}

// NewClient creates a feed client from configuration.
func NewClient(cfg config.CatalogConfig) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 30
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	return &Client{
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

// feedVehicle is the wire shape of one vehicle. IDs arrive as numbers
// from some feeds and strings from others, so the field is a
// json.Number and is rendered to a string at the boundary.
type feedVehicle struct {
	ID           json.Number `json:"id"`
	Brand        string      `json:"brand"`
	Model        string      `json:"model"`
	Version      string      `json:"version"`
	Color        string      `json:"color"`
	Plate        string      `json:"plate"`
	Transmission string      `json:"transmission"`
	Fuel         string      `json:"fuel"`
	Doors        int         `json:"doors"`
	Year         *int        `json:"year"`
	Mileage      *int        `json:"mileage"`
	Price        *float64    `json:"price"`
	Currency     string      `json:"currency"`
	Active       bool        `json:"active"`
	Featured     bool        `json:"featured"`
	Sold         bool        `json:"sold"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type feedPage struct {
	Vehicles   []feedVehicle `json:"vehicles"`
	Pagination struct {
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

// FetchAll walks every page of the feed and returns the flattened
// record list in feed order.
func (c *Client) FetchAll(ctx context.Context) ([]model.CatalogRecord, error) {
	var records []model.CatalogRecord

	page := 1
	for {
		fp, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, v := range fp.Vehicles {
			rec, ok := c.toRecord(v)
			if !ok {
				continue
			}
			records = append(records, rec)
		}

		if fp.Pagination.TotalPages == 0 || page >= fp.Pagination.TotalPages {
			break
		}
		page++
	}

	zap.L().Info("catalog: feed fetched",
		zap.Int("pages", page),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (*feedPage, error) {
	url := fmt.Sprintf("%s/vehicles?page=%d&per_page=%d", c.cfg.BaseURL, page, c.cfg.PageSize)

	var lastErr error
	for attempt := range c.cfg.MaxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "catalog: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("catalog: request failed, retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("catalog: http %d from %s", resp.StatusCode, url)
			zap.L().Warn("catalog: retryable status",
				zap.String("url", url),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("catalog: http %d from %s", resp.StatusCode, url)
		}

		var fp feedPage
		err = json.NewDecoder(resp.Body).Decode(&fp)
		_ = resp.Body.Close()
		if err != nil {
			return nil, eris.Wrap(err, "catalog: decode page")
		}
		return &fp, nil
	}

	return nil, eris.Wrap(lastErr, "catalog: all retries exhausted")
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// toRecord normalizes one wire vehicle. Returns ok=false when the
// record is filtered out by the active/sold configuration.
func (c *Client) toRecord(v feedVehicle) (model.CatalogRecord, bool) {
	if c.cfg.OnlyActive && !v.Active {
		return model.CatalogRecord{}, false
	}
	if !c.cfg.IncludeSold && v.Sold {
		return model.CatalogRecord{}, false
	}

	rec := model.CatalogRecord{
		ID:           v.ID.String(),
		Brand:        normalize.Text(v.Brand),
		Model:        normalize.Text(v.Model),
		Version:      normalize.Text(v.Version),
		Color:        normalize.Text(v.Color),
		Plate:        normalize.Plate(v.Plate),
		Transmission: normalize.Text(v.Transmission),
		Fuel:         normalize.Text(v.Fuel),
		Doors:        v.Doors,
		Year:         v.Year,
		Mileage:      v.Mileage,
		Active:       v.Active,
		Featured:     v.Featured,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if v.Price != nil {
		rec.Price = &model.Money{Amount: *v.Price, Currency: v.Currency}
	}
	return rec, true
}
