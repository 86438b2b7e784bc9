package docio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// TokenDocument is the JSON shape of a token sequence.
type TokenDocument struct {
	Language string   `json:"language,omitempty"`
	Tokens   []string `json:"tokens"`
}

// ReadTokens decodes a token document. A document without a "tokens" key
// yields an empty sequence; non-string elements are malformed.
func ReadTokens(r io.Reader) ([]string, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: invalid token document: %w", ErrMalformedInput, err)
	}

	field, ok := raw["tokens"]
	if !ok || string(field) == "null" {
		return []string{}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(field, &elems); err != nil {
		return nil, fmt.Errorf("%w: \"tokens\" must be an array of strings: %w", ErrMalformedInput, err)
	}
	tokens := make([]string, len(elems))
	for i, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '"' {
			return nil, fmt.Errorf("%w: token %d is %s, not a string", ErrMalformedInput, i, elem)
		}
		if err := json.Unmarshal(elem, &tokens[i]); err != nil {
			return nil, fmt.Errorf("%w: token %d: %w", ErrMalformedInput, i, err)
		}
	}
	return tokens, nil
}

// ReadTokensFile reads a token document from path.
func ReadTokensFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	tokens, err := ReadTokens(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tokens, nil
}

// WriteTokens encodes tokens as {"tokens": [...]} with four-space indent.
func WriteTokens(w io.Writer, doc TokenDocument) error {
	if doc.Tokens == nil {
		doc.Tokens = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
