// Package enrich fills technical data gaps on matched vehicles by
// querying the Anthropic API in small rate-limited batches.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/motorgrid/lotsync/internal/config"
	"github.com/motorgrid/lotsync/internal/model"
	"github.com/motorgrid/lotsync/pkg/anthropic"
)

const systemPrompt = `You are an automotive data assistant. Given a vehicle's ` +
	`brand, model, version and year, reply with a single JSON object with keys ` +
	`"transmission" (manual|automatic|cvt), "fuel" (gasoline|diesel|hybrid|electric), ` +
	`"doors" (integer) and "engine" (short displacement description). ` +
	`Reply with JSON only, no prose. Use null for anything you are not sure about.`

// TechData is the technical sheet returned for one vehicle.
type TechData struct {
	Transmission string `json:"transmission"`
	Fuel         string `json:"fuel"`
	Doors        int    `json:"doors"`
	Engine       string `json:"engine"`
}

// Result pairs one match with its enrichment outcome. Err is per-record:
// a failed lookup never aborts the batch it ran in.
type Result struct {
	Match model.MatchResult
	Data  *TechData
	Err   error
}

// Enricher runs batched technical-data lookups.
type Enricher struct {
	client  anthropic.Client
	acfg    config.AnthropicConfig
	bcfg    config.BatchConfig
	limiter *rate.Limiter
}

// NewEnricher creates an Enricher from configuration.
func NewEnricher(client anthropic.Client, acfg config.AnthropicConfig, bcfg config.BatchConfig) *Enricher {
	if bcfg.Size <= 0 {
		bcfg.Size = 5
	}
	if bcfg.MaxConcurrent <= 0 {
		bcfg.MaxConcurrent = 3
	}
	if bcfg.RequestsPerMin <= 0 {
		bcfg.RequestsPerMin = 50
	}
	return &Enricher{
		client:  client,
		acfg:    acfg,
		bcfg:    bcfg,
		limiter: rate.NewLimiter(rate.Limit(float64(bcfg.RequestsPerMin)/60.0), 1),
	}
}

// Eligible reports whether a match qualifies for enrichment: only high
// and medium confidence matches are worth an API call.
func Eligible(r model.MatchResult) bool {
	if r.Best == nil {
		return false
	}
	switch r.Best.Confidence {
	case model.ConfidenceHigh, model.ConfidenceMedium:
		return true
	}
	return false
}

// EnrichAll processes eligible matches in batches with an inter-batch
// delay. One record's failure is recorded on its Result and the batch
// carries on; only context cancellation stops the run.
func (e *Enricher) EnrichAll(ctx context.Context, matches []model.MatchResult) ([]Result, error) {
	var eligible []model.MatchResult
	for _, m := range matches {
		if Eligible(m) {
			eligible = append(eligible, m)
		}
	}

	results := make([]Result, len(eligible))
	for start := 0; start < len(eligible); start += e.bcfg.Size {
		end := min(start+e.bcfg.Size, len(eligible))

		if start > 0 && e.bcfg.DelaySecs > 0 {
			t := time.NewTimer(time.Duration(e.bcfg.DelaySecs) * time.Second)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.bcfg.MaxConcurrent)
		for i := start; i < end; i++ {
			g.Go(func() error {
				data, err := e.enrichOne(gctx, eligible[i])
				results[i] = Result{Match: eligible[i], Data: data, Err: err}
				if err != nil && gctx.Err() == nil {
					zap.L().Warn("enrich: record failed",
						zap.Int("row", eligible[i].Source.Row),
						zap.Error(err),
					)
				}
				// Per-record errors stay on the result.
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		zap.L().Debug("enrich: batch complete",
			zap.Int("from", start),
			zap.Int("to", end),
		)
	}

	failed := 0
	for i := range results {
		if results[i].Err != nil {
			failed++
		}
	}
	zap.L().Info("enrich: run complete",
		zap.Int("eligible", len(eligible)),
		zap.Int("enriched", len(results)-failed),
		zap.Int("failed", failed),
	)
	return results, nil
}

func (e *Enricher) enrichOne(ctx context.Context, m model.MatchResult) (*TechData, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	src := m.Source
	year := "unknown"
	if src.Year != nil {
		year = fmt.Sprintf("%d", *src.Year)
	}
	prompt := fmt.Sprintf("brand: %s\nmodel: %s\nversion: %s\nyear: %s",
		src.Brand, src.Model, src.Version, year)

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.acfg.Model,
		MaxTokens: int64(e.acfg.MaxTokens),
		System:    systemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(e.acfg.Model, "enrich")

	return parseTechData(resp.Text())
}

// parseTechData decodes the model reply, tolerating code fences around
// the JSON object.
func parseTechData(raw string) (*TechData, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var data TechData
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, eris.Wrap(err, "enrich: parse reply")
	}
	return &data, nil
}
