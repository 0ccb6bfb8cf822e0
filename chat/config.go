package chat

import (
	"encoding/json"
	"strconv"

	"github.com/sunzhuo/teatalk/provider"
	"github.com/sunzhuo/teatalk/store"
)

// MergeModelConfigs combines assistant-scoped model configs with a
// synthetic `model` entry carrying the canonical model code, then applies
// caller-supplied overrides: an override replaces the value and type of an
// existing entry by name, or appends a new one.
func MergeModelConfigs(base []*store.AssistantModelConfig, detail *store.ModelDetail, overrides map[string]any) []*store.AssistantModelConfig {
	merged := make([]*store.AssistantModelConfig, 0, len(base)+1+len(overrides))
	for _, config := range base {
		clone := *config
		merged = append(merged, &clone)
	}
	merged = append(merged, &store.AssistantModelConfig{
		AssistantModelID: detail.Model.ID,
		Name:             "model",
		Value:            detail.Model.Code,
		ValueType:        store.ConfigValueTypeString,
	})

	for key, value := range overrides {
		valueType := inferValueType(value)
		valueStr := stringifyValue(value)

		replaced := false
		for _, config := range merged {
			if config.Name == key {
				config.Value = valueStr
				config.ValueType = valueType
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, &store.AssistantModelConfig{
				AssistantModelID: detail.Model.ID,
				Name:             key,
				Value:            valueStr,
				ValueType:        valueType,
			})
		}
	}
	return merged
}

// inferValueType maps a decoded JSON value to its config value type.
func inferValueType(value any) store.ConfigValueType {
	switch value.(type) {
	case string:
		return store.ConfigValueTypeString
	case float64, float32, int, int32, int64, json.Number:
		return store.ConfigValueTypeNumber
	case bool:
		return store.ConfigValueTypeBoolean
	case []any:
		return store.ConfigValueTypeArray
	case map[string]any:
		return store.ConfigValueTypeObject
	case nil:
		return store.ConfigValueTypeNull
	default:
		return store.ConfigValueTypeString
	}
}

// stringifyValue serializes an override value: JSON strings pass through
// raw, all other JSON value kinds are stringified.
func stringifyValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(raw)
}

// FlattenConfigs reduces merged configs to a name -> value map; later
// entries win on duplicate names.
func FlattenConfigs(configs []*store.AssistantModelConfig) map[string]string {
	flattened := make(map[string]string, len(configs))
	for _, config := range configs {
		flattened[config.Name] = config.Value
	}
	return flattened
}

// Invocation is the immutable configuration of one provider call.
type Invocation struct {
	Model   string
	Stream  bool
	Options provider.ChatOptions
}

// BuildInvocation extracts the invocation configuration from a flattened
// config map. `stream` defaults to false, `model` falls back to the
// canonical model code, and numeric sampling options are ignored silently
// when unparsable.
func BuildInvocation(configMap map[string]string, detail *store.ModelDetail) *Invocation {
	invocation := &Invocation{Model: detail.Model.Code}

	if raw, ok := configMap["stream"]; ok {
		if stream, err := strconv.ParseBool(raw); err == nil {
			invocation.Stream = stream
		}
	}
	if model, ok := configMap["model"]; ok && model != "" {
		invocation.Model = model
	}
	if raw, ok := configMap["temperature"]; ok {
		if temperature, err := strconv.ParseFloat(raw, 32); err == nil {
			value := float32(temperature)
			invocation.Options.Temperature = &value
		}
	}
	if raw, ok := configMap["top_p"]; ok {
		if topP, err := strconv.ParseFloat(raw, 32); err == nil {
			value := float32(topP)
			invocation.Options.TopP = &value
		}
	}
	if raw, ok := configMap["max_tokens"]; ok {
		if maxTokens, err := strconv.Atoi(raw); err == nil {
			invocation.Options.MaxTokens = &maxTokens
		}
	}
	return invocation
}
