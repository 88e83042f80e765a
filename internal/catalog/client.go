package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"pkmn_guesser/internal/domain"
	"pkmn_guesser/internal/logger"
)

// Client fetches selectable candidates from the external catalog service and
// caches whole ranges. The cache is process-wide and never evicted; a region
// is fetched from the network at most once per process lifetime.
type Client struct {
	baseURL string
	httpc   *http.Client

	mu    sync.Mutex
	cache map[string][]domain.Candidate
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		cache:   make(map[string][]domain.Candidate),
	}
}

// catalog wire format (pokeapi /pokemon/<id>)
type candidatePayload struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Types []struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Sprites struct {
		Other struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
}

// FetchOne retrieves a single candidate by id. Any fetch or parse problem,
// including a missing artwork URL, is an error; LoadRange absorbs these.
func (c *Client) FetchOne(ctx context.Context, id int) (domain.Candidate, error) {
	url := fmt.Sprintf("%s/pokemon/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Candidate{}, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return domain.Candidate{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Candidate{}, fmt.Errorf("catalog: unexpected status %d for id %d", resp.StatusCode, id)
	}

	var payload candidatePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Candidate{}, err
	}

	image := payload.Sprites.Other.OfficialArtwork.FrontDefault
	if image == "" {
		return domain.Candidate{}, fmt.Errorf("catalog: id %d has no artwork", id)
	}

	types := make([]string, 0, len(payload.Types))
	for _, t := range payload.Types {
		types = append(types, t.Type.Name)
	}

	return domain.Candidate{
		ID:    payload.ID,
		Name:  payload.Name,
		Types: types,
		Image: image,
	}, nil
}

// LoadRange returns the candidate list for [start, end], from cache when
// available. On a miss it fetches every id concurrently and silently drops
// the ones that fail; only batch-level problems (context cancellation)
// surface as an error.
func (c *Client) LoadRange(ctx context.Context, region domain.Region) ([]domain.Candidate, error) {
	key := region.CacheKey()

	c.mu.Lock()
	if list, ok := c.cache[key]; ok {
		c.mu.Unlock()
		logger.Debug("catalog range served from cache", "region", region.Name, "range", key)
		return list, nil
	}
	c.mu.Unlock()

	n := region.End - region.Start + 1
	if n <= 0 {
		return nil, fmt.Errorf("catalog: invalid range %d-%d", region.Start, region.End)
	}

	results := make([]*domain.Candidate, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			cand, err := c.FetchOne(ctx, region.Start+idx)
			if err != nil {
				// dropped from the result, never fatal for the batch
				logger.Debug("catalog item dropped", "id", region.Start+idx, "error", err)
				return
			}
			results[idx] = &cand
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	list := make([]domain.Candidate, 0, n)
	for _, r := range results {
		if r != nil {
			list = append(list, *r)
		}
	}

	c.mu.Lock()
	c.cache[key] = list
	c.mu.Unlock()

	logger.Info("catalog range loaded", "region", region.Name, "range", key, "count", len(list))
	return list, nil
}
