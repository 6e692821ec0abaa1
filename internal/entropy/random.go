// Package entropy supplies uniform random floats for the outcome roller.
// True randomness comes from random.org when a key is configured, with
// crypto/rand as the fallback and a seeded source for reproducible sessions.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	mrand "math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	randomOrgURL = "https://api.random.org/json-rpc/4/invoke"
	poolRefillAt = 10
	poolBatch    = 100
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float() float64
}

// Client feeds dice rolls with decimal fractions from random.org. Each roll
// consumes two samples, so fractions are fetched in batches and buffered.
type Client struct {
	apiKey string
	url    string
	client *http.Client

	mu   sync.Mutex
	pool []float64
}

// NewClient creates a random.org client. Returns nil if apiKey is empty, and
// a nil Client still answers Float from crypto/rand.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey: apiKey,
		url:    randomOrgURL,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Float implements Source. When the buffer runs low it is topped up; a
// failed top-up is logged and the roll falls back to crypto/rand once the
// buffer is empty, so a network failure never fails a roll.
func (c *Client) Float() float64 {
	if c == nil {
		return cryptoRandFloat()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) < poolRefillAt {
		batch, err := c.fetch()
		if err != nil {
			slog.Debug("random.org unavailable, rolling with crypto/rand", "error", err, "buffered", len(c.pool))
		}
		c.pool = append(c.pool, batch...)
	}
	return c.take()
}

// Enabled reports whether rolls can draw on random.org.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// take pops the oldest buffered sample. The caller holds c.mu.
func (c *Client) take() float64 {
	if len(c.pool) == 0 {
		return cryptoRandFloat()
	}
	v := c.pool[0]
	c.pool = c.pool[1:]
	return v
}

type fractionsRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  fractionsParams `json:"params"`
	ID      int             `json:"id"`
}

type fractionsParams struct {
	APIKey        string `json:"apiKey"`
	N             int    `json:"n"`
	DecimalPlaces int    `json:"decimalPlaces"`
}

type fractionsResponse struct {
	Result struct {
		Random struct {
			Data []float64 `json:"data"`
		} `json:"random"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// fetch asks random.org for one batch of fractions in [0, 1).
func (c *Client) fetch() ([]float64, error) {
	body, err := json.Marshal(fractionsRequest{
		JSONRPC: "2.0",
		Method:  "generateDecimalFractions",
		Params:  fractionsParams{APIKey: c.apiKey, N: poolBatch, DecimalPlaces: 6},
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.client.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out fractionsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("random.org: %s", out.Error.Message)
	}

	slog.Debug("random.org batch fetched", "count", len(out.Result.Random.Data))
	return out.Result.Random.Data, nil
}

// Crypto is a Source backed by crypto/rand.
type Crypto struct{}

// Float implements Source.
func (Crypto) Float() float64 {
	return cryptoRandFloat()
}

// Seeded is a deterministic Source for replays and tests.
type Seeded struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeeded creates a Seeded source from seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

// Float implements Source.
func (s *Seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Sequence replays fixed values in order, wrapping around at the end.
// An empty Sequence behaves like Crypto.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequence creates a Sequence over values.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Float implements Source.
func (s *Sequence) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return cryptoRandFloat()
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Pick returns the random.org client when it is enabled, otherwise a
// seeded source when seed is non-zero, otherwise crypto/rand.
func Pick(c *Client, seed int64) Source {
	switch {
	case c.Enabled():
		return c
	case seed != 0:
		return NewSeeded(seed)
	default:
		return Crypto{}
	}
}

// cryptoRandFloat generates a random float64 using crypto/rand as fallback.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
