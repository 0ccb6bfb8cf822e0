package store

import "context"

// Provider identifies an LLM vendor endpoint, used to select default
// endpoint and authentication shape.
type Provider struct {
	ID      int64
	Name    string
	APIType string
}

// ProviderConfig is one named setting of a provider (api_key, endpoint).
type ProviderConfig struct {
	ID         int64
	ProviderID int64
	Name       string
	Value      string
}

// Model is one model code offered by a provider.
type Model struct {
	ID         int64
	ProviderID int64
	Code       string
	Name       string
}

// ModelDetail aggregates a model with its provider and the provider configs.
type ModelDetail struct {
	Model    *Model
	Provider *Provider
	Configs  []*ProviderConfig
}

func (s *Store) GetModelDetail(ctx context.Context, providerID int64, modelCode string) (*ModelDetail, error) {
	return s.driver.GetModelDetail(ctx, providerID, modelCode)
}
