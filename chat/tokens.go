package chat

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

// countTokens returns the cl100k_base token count of a text, a reasonable
// approximation across the supported model families.
func countTokens(text string) (int32, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	if codecErr != nil {
		return 0, codecErr
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return int32(len(ids)), nil
}
