// Package codec translates between the wire format of the inference service
// and the in-memory facet model. Parsing is pure; the only side effect,
// persisting decoded audio, goes through the AssetSink collaborator so it
// can be faked in tests.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Sentinel errors for the response contract.
var (
	// ErrMalformedResponse means the response JSON violates the envelope
	// contract: not an object, missing or misshapen fields, or not exactly
	// one variable key.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidEncoding means an audio entry is not valid base64.
	ErrInvalidEncoding = errors.New("invalid audio encoding")
)

// Response is the parsed form of one service reply.
//
// RootKey is the literal name of the response's single variable key. It is
// an opaque correlation id grouping the objects/keywords/sentences triple
// and is not otherwise interpreted.
type Response struct {
	RootKey          string
	Objects          []string
	Keywords         []string
	Sentences        []string
	AudioFilenames   []string
	AudioData        []string
	OverwriteObjects bool
}

// Envelope keys with fixed meaning. Any other key is the variable root key.
const (
	keyAudioFilenames = "ogg_filenames"
	keyAudioData      = "ogg_data"
	keyOverwrite      = "overwrite_objects"
)

// payloadSchema describes the nested object under the variable key.
const payloadSchema = `{
	"type": "object",
	"required": ["objects", "keywords", "sentences"],
	"properties": {
		"objects":   {"type": "array", "items": {"type": "string"}},
		"keywords":  {"type": "array", "items": {"type": "string"}},
		"sentences": {"type": "array", "items": {"type": "string"}}
	}
}`

// facetPayload mirrors the nested object under the root key.
type facetPayload struct {
	Objects   []string `json:"objects"`
	Keywords  []string `json:"keywords"`
	Sentences []string `json:"sentences"`
}

// Parse decodes a raw service reply.
//
// The envelope is a single JSON object mixing two reserved parallel string
// arrays (ogg_filenames, ogg_data), one reserved boolean (overwrite_objects,
// defaulting to true when absent), and exactly one variable key whose value
// carries the objects/keywords/sentences arrays. Anything else fails with
// ErrMalformedResponse.
func Parse(raw []byte) (*Response, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	resp := &Response{OverwriteObjects: true}

	var rootValue json.RawMessage
	rootKeys := 0

	for key, value := range envelope {
		switch key {
		case keyAudioFilenames:
			if err := json.Unmarshal(value, &resp.AudioFilenames); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, key, err)
			}
		case keyAudioData:
			if err := json.Unmarshal(value, &resp.AudioData); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, key, err)
			}
		case keyOverwrite:
			if err := json.Unmarshal(value, &resp.OverwriteObjects); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, key, err)
			}
		default:
			resp.RootKey = key
			rootValue = value
			rootKeys++
		}
	}

	if rootKeys != 1 {
		return nil, fmt.Errorf("%w: expected exactly one variable key, found %d", ErrMalformedResponse, rootKeys)
	}
	if len(resp.AudioFilenames) != len(resp.AudioData) {
		return nil, fmt.Errorf("%w: %d filenames for %d audio entries",
			ErrMalformedResponse, len(resp.AudioFilenames), len(resp.AudioData))
	}

	if err := validatePayload(rootValue); err != nil {
		return nil, err
	}

	var payload facetPayload
	if err := json.Unmarshal(rootValue, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, resp.RootKey, err)
	}
	resp.Objects = payload.Objects
	resp.Keywords = payload.Keywords
	resp.Sentences = payload.Sentences

	return resp, nil
}

func validatePayload(value json.RawMessage) error {
	schemaLoader := gojsonschema.NewStringLoader(payloadSchema)
	documentLoader := gojsonschema.NewBytesLoader(value)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(msgs, "; "))
	}
	return nil
}

// BuildForm serializes request fields as an application/x-www-form-urlencoded
// body. url.Values encodes keys in sorted order, which the server does not
// require but keeps test fixtures deterministic.
func BuildForm(fields map[string]string) string {
	values := url.Values{}
	for key, value := range fields {
		values.Set(key, value)
	}
	return values.Encode()
}
