package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CountryLoader fetches the country dataset from a backing store (file,
// relational DB, etc).
type CountryLoader interface {
	LoadCountries(ctx context.Context) ([]domain.Country, error)
}

// Catalog caches the country dataset with TTL to avoid repeated loads.
type Catalog struct {
	loader CountryLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	countries []domain.Country
	expiresAt time.Time
}

func NewCatalog(loader CountryLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Countries returns the full dataset, loading it through singleflight on
// cache miss. An empty dataset is reported as domain.ErrDatasetUnavailable so
// pool-dependent callers fail distinctly instead of serving nothing.
func (c *Catalog) Countries(ctx context.Context) ([]domain.Country, error) {
	now := c.clock()

	c.mu.RLock()
	if len(c.countries) > 0 && c.expiresAt.After(now) {
		countries := c.countries
		c.mu.RUnlock()
		return countries, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("countries", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if len(c.countries) > 0 && c.expiresAt.After(now) {
			countries := c.countries
			c.mu.RUnlock()
			return countries, nil
		}
		c.mu.RUnlock()

		countries, err := c.loader.LoadCountries(ctx)
		if err != nil {
			return nil, err
		}
		if len(countries) == 0 {
			return nil, domain.ErrDatasetUnavailable
		}

		c.mu.Lock()
		c.countries = countries
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return countries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Country), nil
}

// ByDifficulty filters the cached dataset down to one tier.
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

// StaticCountryLoader is a simple loader backed by a slice (useful for tests/demos).
type StaticCountryLoader struct {
	countries []domain.Country
}

func NewStaticCountryLoader(countries []domain.Country) *StaticCountryLoader {
	return &StaticCountryLoader{countries: countries}
}

func (l *StaticCountryLoader) LoadCountries(_ context.Context) ([]domain.Country, error) {
	return l.countries, nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
