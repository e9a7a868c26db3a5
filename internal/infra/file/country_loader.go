package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"flag-quiz-service/internal/domain"
)

// CountryLoader reads the country dataset from a JSON file of the form
// {"countries": [...]}.
type CountryLoader struct {
	path string
}

func NewCountryLoader(path string) *CountryLoader {
	return &CountryLoader{path: path}
}

func (l *CountryLoader) LoadCountries(_ context.Context) ([]domain.Country, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var parsed struct {
		Countries []domain.Country `json:"countries"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal dataset: %w", err)
	}
	return parsed.Countries, nil
}
