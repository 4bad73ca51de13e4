package server

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/oddiville/sheets/internal/pipeline"
	"github.com/oddiville/sheets/internal/schema"
)

//go:embed open_request.schema.json
var openRequestSchema string

const openRequestURL = "open_request.schema.json"

// openRequestValidator checks open requests from HTTP and websocket clients
// before they reach the pipeline.
type openRequestValidator struct {
	schema *jsonschema.Schema
}

func newOpenRequestValidator() (*openRequestValidator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(openRequestURL, strings.NewReader(openRequestSchema)); err != nil {
		return nil, fmt.Errorf("loading open request schema: %w", err)
	}
	s, err := c.Compile(openRequestURL)
	if err != nil {
		return nil, fmt.Errorf("compiling open request schema: %w", err)
	}
	return &openRequestValidator{schema: s}, nil
}

// decode validates raw and returns the pipeline request. A missing id is
// filled with a fresh UUID.
func (v *openRequestValidator) decode(raw []byte) (pipeline.Request, error) {
	var req pipeline.Request

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return req, &requestError{msg: "invalid JSON: " + err.Error()}
	}
	if err := v.schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return req, &requestError{msg: err.Error()}
		}
		return req, &requestError{msg: "open request does not match schema", fields: leafErrors(ve, nil)}
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		return req, &requestError{msg: "invalid open request: " + err.Error()}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req, nil
}

// leafErrors flattens a jsonschema error tree into dotted field errors.
func leafErrors(ve *jsonschema.ValidationError, out []schema.FieldError) []schema.FieldError {
	if len(ve.Causes) == 0 {
		path := strings.ReplaceAll(strings.TrimPrefix(ve.InstanceLocation, "/"), "/", ".")
		return append(out, schema.FieldError{Path: path, Message: ve.Message})
	}
	for _, c := range ve.Causes {
		out = leafErrors(c, out)
	}
	return out
}
