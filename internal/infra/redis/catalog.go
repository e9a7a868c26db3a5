package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CountryLoader fetches the country dataset from a backing store.
type CountryLoader interface {
	LoadCountries(ctx context.Context) ([]domain.Country, error)
}

// Catalog caches the country dataset in Redis (one hash, field per country)
// and falls back to a loader on cache miss.
// Countries are stored as: HSET catalog:countries {id} {countryJSON}
type Catalog struct {
	client *redis.Client
	loader CountryLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

const catalogKey = "catalog:countries"

func NewCatalog(client *redis.Client, loader CountryLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) Countries(ctx context.Context) ([]domain.Country, error) {
	cached, err := c.client.HGetAll(ctx, catalogKey).Result()
	if err == nil && len(cached) > 0 {
		return decodeCountries(cached)
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := c.client.HGetAll(ctx, catalogKey).Result()
		if err == nil && len(cached) > 0 {
			return decodeCountries(cached)
		}

		countries, err := c.loader.LoadCountries(ctx)
		if err != nil {
			return nil, err
		}
		if len(countries) == 0 {
			return nil, domain.ErrDatasetUnavailable
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		for _, country := range countries {
			raw, err := json.Marshal(country)
			if err != nil {
				return nil, err
			}
			pipe.HSet(ctx, catalogKey, country.ID, raw)
		}
		if ttl > 0 {
			pipe.Expire(ctx, catalogKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return countries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Country), nil
}

func (c *Catalog) ByDifficulty(ctx context.Context, difficulty domain.Difficulty) ([]domain.Country, error) {
	countries, err := c.Countries(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.Country, 0, len(countries))
	for _, country := range countries {
		if country.Difficulty == difficulty {
			filtered = append(filtered, country)
		}
	}
	return filtered, nil
}

func decodeCountries(cached map[string]string) ([]domain.Country, error) {
	countries := make([]domain.Country, 0, len(cached))
	for _, raw := range cached {
		var country domain.Country
		if err := json.Unmarshal([]byte(raw), &country); err != nil {
			return nil, err
		}
		countries = append(countries, country)
	}
	sort.Slice(countries, func(i, j int) bool {
		return countries[i].ID < countries[j].ID
	})
	return countries, nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
