// Package schema validates anonymous ingestion payloads against embedded
// JSON schemas before they are decoded into request types.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/platform/httputil"
)

//go:embed schemas/*.json
var files embed.FS

// Name identifies an embedded schema.
type Name string

const (
	WebhookBatch     Name = "webhook_batch"
	TrackingEvent    Name = "tracking_event"
	CredentialSubmit Name = "credential_submit"
	TrainingComplete Name = "training_complete"
	baseURL               = "https://phishsim.local/schemas/"
)

var all = []Name{WebhookBatch, TrackingEvent, CredentialSubmit, TrainingComplete}

// Validator holds the compiled schemas.
type Validator struct {
	schemas map[Name]*jsonschema.Schema
}

// New compiles every embedded schema. Formats such as date-time are asserted.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	for _, name := range all {
		raw, err := files.ReadFile("schemas/" + string(name) + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		if err := c.AddResource(url(name), bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("load schema %s: %w", name, err)
		}
	}
	v := &Validator{schemas: make(map[Name]*jsonschema.Schema, len(all))}
	for _, name := range all {
		compiled, err := c.Compile(url(name))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = compiled
	}
	return v, nil
}

// MustNew is New for process wiring and tests.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks raw against the named schema. Failures are validation
// errors carrying the offending field path.
func (v *Validator) Validate(name Name, raw []byte) error {
	s, ok := v.schemas[name]
	if !ok {
		return dErrors.New(dErrors.CodeInternal, "unknown schema "+string(name))
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "malformed JSON body")
	}
	if err := s.Validate(doc); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request body")
		}
		leaf := deepest(ve)
		field := strings.TrimPrefix(strings.ReplaceAll(leaf.InstanceLocation, "/", "."), ".")
		if field == "" {
			field = "body"
		}
		return dErrors.New(dErrors.CodeValidation, field+": "+leaf.Message).WithDetail("field", field)
	}
	return nil
}

// Decode reads the request body, validates it against name and decodes it
// into dst. An empty body is validated as an empty object.
func (v *Validator) Decode(r *http.Request, name Name, dst any) error {
	raw, err := httputil.ReadBody(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if err := v.Validate(name, raw); err != nil {
		return err
	}
	return httputil.Unmarshal(raw, dst)
}

func deepest(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

func url(name Name) string {
	return baseURL + string(name) + ".json"
}
