package httpclient

import (
	"bytes"
	"encoding/json"

	apperrors "manara-client/pkg/errors"
)

// PageMeta is the pagination block some list endpoints attach.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Result is the one canonical shape every response body is normalized
// into right after transport. The API is inconsistent: some endpoints
// return a bare array, some a {success, data} envelope, some a paginated
// {data, meta} object. Nothing above this function ever branches on body
// shape again.
type Result struct {
	Data json.RawMessage
	Meta *PageMeta
}

// envelopeBody covers every observed wrapper shape at once. Success is a
// pointer so "key absent" and "success: false" stay distinguishable.
type envelopeBody struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *PageMeta       `json:"meta"`
}

// Normalize converts a response body into the canonical Result. A
// success=false envelope is a domain failure even on HTTP 200; it is
// returned as an error here and is never retried, because by the time the
// body parses the transport already succeeded.
func Normalize(body []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Result{Data: json.RawMessage("null")}, nil
	}

	// Bare arrays pass through untouched.
	if trimmed[0] == '[' {
		return &Result{Data: json.RawMessage(trimmed)}, nil
	}

	var env envelopeBody
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, apperrors.NewInternal("decoding response body", err)
	}

	if env.Success != nil {
		if !*env.Success {
			return nil, apperrors.NewDomain(env.Message)
		}
		if env.Data != nil {
			return &Result{Data: env.Data, Meta: env.Meta}, nil
		}
		return &Result{Data: json.RawMessage(trimmed), Meta: env.Meta}, nil
	}

	if env.Data != nil {
		return &Result{Data: env.Data, Meta: env.Meta}, nil
	}

	// A plain object with no envelope keys is already the payload.
	return &Result{Data: json.RawMessage(trimmed)}, nil
}

// Decode normalizes the body and unmarshals its payload into v.
func Decode(body []byte, v interface{}) (*PageMeta, error) {
	result, err := Normalize(body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(result.Data, v); err != nil {
		return nil, apperrors.NewInternal("decoding payload", err)
	}
	return result.Meta, nil
}

// DecodeAnnotated is Decode with asset resolution: image-ish string
// fields anywhere in the payload, at any nesting depth, are rewritten to
// fully qualified URLs before the payload is unmarshaled into v.
func DecodeAnnotated(body []byte, resolver *AssetResolver, v interface{}) (*PageMeta, error) {
	result, err := Normalize(body)
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if err := json.Unmarshal(result.Data, &raw); err != nil {
		return nil, apperrors.NewInternal("decoding payload", err)
	}
	annotated, err := json.Marshal(resolver.AnnotateAssetFields(raw))
	if err != nil {
		return nil, apperrors.NewInternal("re-encoding annotated payload", err)
	}
	if err := json.Unmarshal(annotated, v); err != nil {
		return nil, apperrors.NewInternal("decoding payload", err)
	}
	return result.Meta, nil
}
