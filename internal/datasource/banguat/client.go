// Package banguat retrieves daily USD/GTQ reference rates from the
// Banco de Guatemala TipoCambio SOAP service.
package banguat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/banrisk/fxvar/internal/series"
)

const (
	// DefaultEndpoint is the production Banguat SOAP endpoint.
	DefaultEndpoint = "https://banguat.gob.gt/variables/ws/TipoCambio.asmx"

	soapAction = "http://www.banguat.gob.gt/variables/ws/TipoCambioRango"
)

// ClientConfig controls endpoint, timeouts, retry, and throttling
// behavior for the SOAP client.
type ClientConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Timeout     time.Duration `yaml:"timeout"`      // per-request timeout
	MaxRetries  int           `yaml:"max_retries"`  // attempts per yearly chunk
	BackoffBase time.Duration `yaml:"backoff_base"` // doubled per attempt
	BackoffMax  time.Duration `yaml:"backoff_max"`
	RPS         float64       `yaml:"rps"` // request rate toward Banguat
}

// DefaultClientConfig returns conservative production settings.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Endpoint:    DefaultEndpoint,
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		BackoffBase: 500 * time.Millisecond,
		BackoffMax:  8 * time.Second,
		RPS:         2,
	}
}

// Client fetches rate ranges from Banguat with rate limiting and a
// circuit breaker in front of the upstream.
type Client struct {
	cfg     *ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a Banguat SOAP client.
func NewClient(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "banguat",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		breaker: breaker,
	}
}

// FetchRange downloads all daily rates in [start, end], splitting the
// request into yearly chunks the way the upstream expects, and returns
// a validated rate series (sorted, deduplicated keep-last).
func (c *Client) FetchRange(ctx context.Context, start, end time.Time) (series.RateSeries, error) {
	if start.After(end) {
		return nil, fmt.Errorf("banguat: start %s after end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	var points []series.RatePoint
	for _, chunk := range yearlyRanges(start, end) {
		rows, err := c.fetchChunk(ctx, chunk.start, chunk.end)
		if err != nil {
			return nil, err
		}
		points = append(points, rows...)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("banguat: no rows returned for %s to %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	points = normalize(points)

	rates, err := series.NewRateSeries(points)
	if err != nil {
		return nil, fmt.Errorf("banguat: invalid response data: %w", err)
	}

	log.Info().
		Int("rows", len(rates)).
		Str("min_date", rates[0].Date.Format("2006-01-02")).
		Str("max_date", rates[len(rates)-1].Date.Format("2006-01-02")).
		Msg("Fetched Banguat rate range")

	return rates, nil
}

// fetchChunk posts one TipoCambioRango request with retry and capped
// exponential backoff.
func (c *Client) fetchChunk(ctx context.Context, start, end time.Time) ([]series.RatePoint, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("banguat: rate limiter: %w", err)
		}

		payload, err := c.breaker.Execute(func() (interface{}, error) {
			return c.post(ctx, start, end)
		})
		if err == nil {
			rows, perr := parseResponse(payload.([]byte), start, end)
			if perr != nil {
				return nil, perr // malformed payload, retry will not help
			}
			return rows, nil
		}

		lastErr = err
		if attempt < c.cfg.MaxRetries {
			delay := c.cfg.BackoffBase << (attempt - 1)
			if delay > c.cfg.BackoffMax {
				delay = c.cfg.BackoffMax
			}
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Str("range", fmt.Sprintf("%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"))).
				Msg("Banguat request failed, retrying")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, fmt.Errorf("banguat: request failed after %d attempts for %s to %s: %w",
		c.cfg.MaxRetries, start.Format("2006-01-02"), end.Format("2006-01-02"), lastErr)
}

func (c *Client) post(ctx context.Context, start, end time.Time) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint,
		bytes.NewReader(buildEnvelope(start, end)))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", fmt.Sprintf("%q", soapAction))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, c.cfg.Endpoint)
	}
	return body, nil
}

type dateRange struct {
	start, end time.Time
}

// yearlyRanges splits [start, end] at calendar-year boundaries. The
// upstream rejects multi-year ranges.
func yearlyRanges(start, end time.Time) []dateRange {
	var ranges []dateRange
	cursor := start
	for !cursor.After(end) {
		yearEnd := time.Date(cursor.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
		chunkEnd := yearEnd
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		ranges = append(ranges, dateRange{start: cursor, end: chunkEnd})
		cursor = chunkEnd.AddDate(0, 0, 1)
	}
	return ranges
}

// normalize sorts by date and deduplicates keeping the last occurrence,
// matching the upstream's occasional corrected re-publication of a day.
func normalize(points []series.RatePoint) []series.RatePoint {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	out := points[:0]
	for i, p := range points {
		if i+1 < len(points) && points[i+1].Date.Equal(p.Date) {
			continue
		}
		out = append(out, p)
	}
	return out
}
