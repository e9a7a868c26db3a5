package postgres

import (
	"context"
	"fmt"

	"flag-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CountryLoader loads the country dataset from Postgres.
type CountryLoader struct {
	pool *pgxpool.Pool
}

func NewCountryLoader(pool *pgxpool.Pool) *CountryLoader {
	return &CountryLoader{pool: pool}
}

func (l *CountryLoader) LoadCountries(ctx context.Context) ([]domain.Country, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, name, flag, difficulty FROM countries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	defer rows.Close()

	var countries []domain.Country
	for rows.Next() {
		var country domain.Country
		var difficulty string
		if err := rows.Scan(&country.ID, &country.Name, &country.Flag, &difficulty); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		country.Difficulty = domain.Difficulty(difficulty)
		countries = append(countries, country)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate countries: %w", err)
	}
	return countries, nil
}
