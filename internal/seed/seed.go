// Package seed ships the sample dataset and loads it into a store.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/alphabot-ai/newsboard/internal/store"
)

//go:embed data/sample.json
var sampleJSON []byte

// Sample returns a fresh copy of the bundled dataset: three topics, four
// users, thirteen articles and eighteen comments.
func Sample() (store.Dataset, error) {
	var data store.Dataset
	if err := json.Unmarshal(sampleJSON, &data); err != nil {
		return store.Dataset{}, fmt.Errorf("decode sample dataset: %w", err)
	}
	return data, nil
}

// Load replaces the store's contents with data.
func Load(ctx context.Context, s store.Seeder, data store.Dataset) error {
	if err := s.Seed(ctx, data); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// LoadSample replaces the store's contents with the bundled dataset.
func LoadSample(ctx context.Context, s store.Seeder) error {
	data, err := Sample()
	if err != nil {
		return err
	}
	return Load(ctx, s, data)
}
