package indexer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonicalize decodes arbitrary JSON and re-encodes it in Go's
// map-key-sorted order (encoding/json always emits object keys sorted),
// stripping any formatting and leaving behind a byte-for-byte
// deterministic encoding -- the Go analogue of canonicalize_json in
// original_source/http.rs.
func Canonicalize(raw []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("indexer: canonicalize: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("indexer: canonicalize: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeJSON parses an already-canonicalized body back into a generic
// value for JSON-pointer extraction.
func decodeJSON(raw []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("indexer: decode: %w", err)
	}
	return v, nil
}

// Pointer resolves a JSON-pointer expression (RFC 6901, the leading-slash
// path form used throughout spec.md §4.6: "/utxo/address", "/brc20/amt")
// against a decoded JSON value.
func Pointer(v interface{}, pointer string) (interface{}, bool) {
	if pointer == "" || pointer == "/" {
		return v, true
	}
	tokens := splitPointer(pointer)
	cur := v
	for _, tok := range tokens {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[tok]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func splitPointer(pointer string) []string {
	if len(pointer) > 0 && pointer[0] == '/' {
		pointer = pointer[1:]
	}
	if pointer == "" {
		return nil
	}
	var tokens []string
	start := 0
	for i := 0; i < len(pointer); i++ {
		if pointer[i] == '/' {
			tokens = append(tokens, unescapeToken(pointer[start:i]))
			start = i + 1
		}
	}
	tokens = append(tokens, unescapeToken(pointer[start:]))
	return tokens
}

// unescapeToken reverses RFC 6901's "~1" -> "/" and "~0" -> "~" escaping.
func unescapeToken(tok string) string {
	buf := make([]byte, 0, len(tok))
	for i := 0; i < len(tok); i++ {
		if tok[i] == '~' && i+1 < len(tok) {
			switch tok[i+1] {
			case '1':
				buf = append(buf, '/')
				i++
				continue
			case '0':
				buf = append(buf, '~')
				i++
				continue
			}
		}
		buf = append(buf, tok[i])
	}
	return string(buf)
}
