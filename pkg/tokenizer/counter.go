// Package tokenizer counts prompt tokens for cost estimates.
package tokenizer

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Counting methods reported with a count.
const (
	MethodTiktoken  = "tiktoken"
	MethodHeuristic = "chars_div_4"
)

// encodingForModel maps catalog model ids of OpenAI to tiktoken encodings.
var encodingForModel = map[string]tokenizer.Encoding{
	"gpt-4o":        tokenizer.O200kBase,
	"gpt-4o-mini":   tokenizer.O200kBase,
	"o1":            tokenizer.O200kBase,
	"o1-mini":       tokenizer.O200kBase,
	"o3-mini":       tokenizer.O200kBase,
	"gpt-4-turbo":   tokenizer.Cl100kBase,
	"gpt-4":         tokenizer.Cl100kBase,
	"gpt-3.5-turbo": tokenizer.Cl100kBase,
}

// Count is the token count of a text.
type Count struct {
	Tokens   int64  `json:"tokens"`
	Method   string `json:"method"`
	Encoding string `json:"encoding,omitempty"`
}

var (
	codecsMu sync.Mutex
	codecs   = map[tokenizer.Encoding]tokenizer.Codec{}
)

func codecFor(enc tokenizer.Encoding) (tokenizer.Codec, error) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	if c, ok := codecs[enc]; ok {
		return c, nil
	}
	c, err := tokenizer.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", enc, err)
	}
	codecs[enc] = c
	return c, nil
}

// CountTokens counts the tokens of text for a catalog model. OpenAI models
// use tiktoken; every other provider gets the four-characters-per-token
// estimate.
func CountTokens(text, provider, model string) (Count, error) {
	if provider != "openai" {
		return Count{Tokens: estimateTokens(text), Method: MethodHeuristic}, nil
	}

	enc, ok := encodingForModel[model]
	if !ok {
		enc = tokenizer.Cl100kBase
	}
	codec, err := codecFor(enc)
	if err != nil {
		return Count{}, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return Count{}, fmt.Errorf("encode text: %w", err)
	}
	return Count{Tokens: int64(len(ids)), Method: MethodTiktoken, Encoding: string(enc)}, nil
}

// estimateTokens divides the trimmed byte length by four, rounding up.
func estimateTokens(text string) int64 {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return 0
	}
	return int64((len(text) + 3) / 4)
}

// OutputTokens estimates the completion size from the prompt size.
func OutputTokens(input int64, ratio float64) int64 {
	if ratio <= 0 {
		return 0
	}
	return int64(math.Round(float64(input) * ratio))
}

// SplitModelKey splits "provider/model". A key without a slash is taken as
// an OpenAI model id.
func SplitModelKey(key string) (provider, model string) {
	if p, m, ok := strings.Cut(key, "/"); ok {
		return p, m
	}
	return "openai", key
}
