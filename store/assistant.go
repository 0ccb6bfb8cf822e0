package store

import "context"

// Assistant is a named persona bound to one or more models and a
// system-prompt template.
type Assistant struct {
	ID          int64
	Name        string
	Description string
}

type AssistantPrompt struct {
	ID          int64
	AssistantID int64
	Prompt      string
}

// AssistantModel binds an assistant to a concrete provider model.
type AssistantModel struct {
	ID          int64
	AssistantID int64
	ProviderID  int64
	ModelCode   string
}

// ConfigValueType tags the JSON kind an AssistantModelConfig value was
// derived from. Merge semantics: overrides replace value and type by name,
// or append if absent.
type ConfigValueType string

const (
	ConfigValueTypeString  ConfigValueType = "string"
	ConfigValueTypeNumber  ConfigValueType = "number"
	ConfigValueTypeBoolean ConfigValueType = "boolean"
	ConfigValueTypeArray   ConfigValueType = "array"
	ConfigValueTypeObject  ConfigValueType = "object"
	ConfigValueTypeNull    ConfigValueType = "null"
)

type AssistantModelConfig struct {
	ID               int64
	AssistantID      int64
	AssistantModelID int64
	Name             string
	Value            string
	ValueType        ConfigValueType
}

// AssistantDetail aggregates everything the orchestration engine needs to
// know about an assistant for one dispatch.
type AssistantDetail struct {
	Assistant    *Assistant
	Prompts      []*AssistantPrompt
	Models       []*AssistantModel
	ModelConfigs []*AssistantModelConfig
}

// GetAssistantDetail loads an assistant with its prompts, models and model
// configs in one shot.
func (s *Store) GetAssistantDetail(ctx context.Context, id int64) (*AssistantDetail, error) {
	assistant, err := s.driver.GetAssistant(ctx, id)
	if err != nil {
		return nil, err
	}
	prompts, err := s.driver.ListAssistantPrompts(ctx, id)
	if err != nil {
		return nil, err
	}
	models, err := s.driver.ListAssistantModels(ctx, id)
	if err != nil {
		return nil, err
	}
	configs, err := s.driver.ListAssistantModelConfigs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AssistantDetail{
		Assistant:    assistant,
		Prompts:      prompts,
		Models:       models,
		ModelConfigs: configs,
	}, nil
}
