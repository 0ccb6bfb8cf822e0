package store

import "context"

// FeatureCodeConversationSummary is the feature config consulted by the
// title generator. Expected keys: provider_id, model_code, prompt,
// summary_length (-1 = unlimited).
const FeatureCodeConversationSummary = "conversation_summary"

// FeatureConfig is one named, operator-supplied setting controlling an
// auxiliary capability.
type FeatureConfig struct {
	ID          int64
	FeatureCode string
	Key         string
	Value       string
}

// GetFeatureConfig returns the key/value settings of one feature. An empty
// map means the feature is not configured.
func (s *Store) GetFeatureConfig(ctx context.Context, featureCode string) (map[string]string, error) {
	return s.driver.GetFeatureConfig(ctx, featureCode)
}
