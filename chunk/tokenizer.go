package chunk

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer splits text into tokens. Concatenating the returned tokens in
// order must reconstruct the input exactly; the chunker relies on this to
// guarantee gap-free coverage.
type Tokenizer interface {
	Split(text string) ([]string, error)
}

// TiktokenTokenizer tokenizes with the BPE encoding of an OpenAI model, so
// chunk sizes line up with the token budgets of the embedding provider.
type TiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenTokenizer creates a tokenizer for the given model, e.g. "gpt-4o".
// The encoding tables are fetched and cached by tiktoken on first use.
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("loading encoding for %s: %w", model, err)
	}
	return &TiktokenTokenizer{encoding: encoding}, nil
}

// Split encodes the text and decodes each token id back to its byte string.
// BPE tokens partition the input bytes, so concatenation is exact.
func (t *TiktokenTokenizer) Split(text string) ([]string, error) {
	ids := t.encoding.Encode(text, nil, nil)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = t.encoding.Decode([]int{id})
	}
	return tokens, nil
}

// RuneTokenizer treats every rune as one token. It needs no external data,
// which makes it the offline fallback and the tokenizer used in tests.
type RuneTokenizer struct{}

// Split returns one token per rune.
func (RuneTokenizer) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	runes := []rune(text)
	tokens := make([]string, len(runes))
	for i, r := range runes {
		tokens[i] = string(r)
	}
	return tokens, nil
}
