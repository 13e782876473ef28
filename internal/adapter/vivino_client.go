// Package adapter provides clients for external data providers.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"
)

// vivinoWineIDPattern extracts the numeric wine id from a stored Vivino URL,
// e.g. https://www.vivino.com/wineries/some-producer/wines/some-wine/w/1234567
var vivinoWineIDPattern = regexp.MustCompile(`/w/(\d+)`)

// ExtractVivinoWineID parses the Vivino wine id out of a URL. Returns an
// empty string when the URL does not match the expected shape.
func ExtractVivinoWineID(url string) string {
	m := vivinoWineIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// VivinoWine is the enrichment payload returned for one wine id. All fields
// are optional; absent fields are simply unknown to Vivino.
type VivinoWine struct {
	Rating         *float64 `json:"rating,omitempty"`
	Region         *string  `json:"region,omitempty"`
	Grapes         []string `json:"grapes,omitempty"`
	WineType       *string  `json:"wine_type,omitempty"`
	Price          *float64 `json:"price,omitempty"`
	AlcoholContent *float64 `json:"alcohol_content,omitempty"`
}

// HasUsableData reports whether the payload carries any of the fields the
// enrichment sweep can apply.
func (w *VivinoWine) HasUsableData() bool {
	return w.Rating != nil || (w.Region != nil && *w.Region != "") || len(w.Grapes) > 0
}

// VivinoClient fetches wine metadata from the Vivino API
type VivinoClient struct {
	baseURL     string
	client      *http.Client
	rateLimiter *rateLimiter
}

// rateLimiter implements a simple token bucket rate limiter
type rateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(requestsPerSecond float64) *rateLimiter {
	return &rateLimiter{
		tokens:     requestsPerSecond, // start full
		maxTokens:  requestsPerSecond,
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefill = now

	if r.tokens < 1 {
		waitTime := time.Duration((1 - r.tokens) / r.refillRate * float64(time.Second))
		r.mu.Unlock()
		time.Sleep(waitTime)
		r.mu.Lock()
		r.tokens = 0
		r.lastRefill = time.Now()
	} else {
		r.tokens--
	}
}

// NewVivinoClient creates a new Vivino API client
func NewVivinoClient(baseURL string, requestsPerSecond float64) *VivinoClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 0.5
	}
	return &VivinoClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		rateLimiter: newRateLimiter(requestsPerSecond),
	}
}

// vivinoResponse mirrors the relevant slice of the Vivino wine payload
type vivinoResponse struct {
	Wine struct {
		Statistics struct {
			RatingsAverage *float64 `json:"ratings_average"`
		} `json:"statistics"`
		Region struct {
			Name string `json:"name"`
		} `json:"region"`
		Style struct {
			Grapes []struct {
				Name string `json:"name"`
			} `json:"grapes"`
			WineTypeName string `json:"varietal_name"`
		} `json:"style"`
		TypeID int `json:"type_id"`
	} `json:"wine"`
	Price struct {
		Amount *float64 `json:"amount"`
	} `json:"price"`
	AlcoholContent *float64 `json:"alcohol"`
}

// FetchWine retrieves enrichment data for a Vivino wine id. Non-2xx
// responses are errors; the caller decides how to categorize them.
func (c *VivinoClient) FetchWine(ctx context.Context, wineID string) (*VivinoWine, error) {
	c.rateLimiter.wait()

	url := fmt.Sprintf("%s/wines/%s", c.baseURL, wineID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vivino request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vivino returned status %d for wine %s", resp.StatusCode, wineID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read vivino response: %w", err)
	}

	var parsed vivinoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse vivino response: %w", err)
	}

	return parsed.toWine(), nil
}

func (r *vivinoResponse) toWine() *VivinoWine {
	wine := &VivinoWine{
		Rating:         r.Wine.Statistics.RatingsAverage,
		Price:          r.Price.Amount,
		AlcoholContent: r.AlcoholContent,
	}

	if r.Wine.Region.Name != "" {
		region := r.Wine.Region.Name
		wine.Region = &region
	}

	for _, grape := range r.Wine.Style.Grapes {
		if grape.Name != "" {
			wine.Grapes = append(wine.Grapes, grape.Name)
		}
	}

	if wineType := vivinoTypeName(r.Wine.TypeID); wineType != "" {
		wine.WineType = &wineType
	}

	return wine
}

// vivinoTypeName maps Vivino's numeric type ids to our wine type names
func vivinoTypeName(typeID int) string {
	switch typeID {
	case 1:
		return "red"
	case 2:
		return "white"
	case 3:
		return "sparkling"
	case 4:
		return "rose"
	case 7, 24:
		return "dessert"
	default:
		return ""
	}
}
