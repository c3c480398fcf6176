package vocabulary

import (
	"encoding/json"
	"fmt"
	"io"
)

// LoadJSON builds a Vocabulary from a JSON array of token strings, where
// the array index is the token id (dense ids are an external interface
// invariant, not re-derived here). A tokenizer whose byte-level pieces
// aren't valid UTF-8 on their own should encode around this by base64
// pre/post-processing outside the engine's core, which this CLI demo
// does not attempt.
func LoadJSON(r io.Reader) (*Vocabulary, error) {
	var toks []string
	if err := json.NewDecoder(r).Decode(&toks); err != nil {
		return nil, fmt.Errorf("vocabulary: decoding JSON: %w", err)
	}
	raw := make([][]byte, len(toks))
	for i, s := range toks {
		raw[i] = []byte(s)
	}
	return New(raw)
}
