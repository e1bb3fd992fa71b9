// Package check diagnoses a persisted settings record against the settings
// schema. It only reports; loading repairs records on its own terms.
package check

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hamidzr/surferh/model"
)

const resourceName = "settings.schema.json"

var printer = message.NewPrinter(language.English)

// Report is the outcome of checking one record.
type Report struct {
	Valid  bool
	Issues []Issue
}

// Issue is a single schema violation.
type Issue struct {
	Path    string // instance location, e.g. "/max_n_steps"
	Keyword string // failing schema keyword
	Message string
}

func (i Issue) String() string {
	path := i.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s: %s", path, i.Message)
}

// Checker validates records against a schema compiled from a model.Schema.
type Checker struct {
	compiled *jsonschema.Schema
}

func NewChecker(schema model.Schema) (*Checker, error) {
	data, err := json.Marshal(Document(schema))
	if err != nil {
		return nil, fmt.Errorf("encoding settings schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling settings schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceName, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := c.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compiling settings schema: %w", err)
	}
	return &Checker{compiled: compiled}, nil
}

// Document builds the JSON schema of a persisted record: every field
// required, model fields limited to registered tokens, integer fields held to
// their input range and no other keys.
func Document(schema model.Schema) map[string]any {
	tokens := make([]string, 0, len(schema.Models))
	for _, token := range schema.Models.Tokens() {
		tokens = append(tokens, string(token))
	}

	properties := make(map[string]any, len(model.Fields))
	required := make([]string, 0, len(model.Fields))
	for _, f := range model.Fields {
		required = append(required, f.Key)
		switch f.Kind {
		case model.KindString:
			properties[f.Key] = map[string]any{"type": "string"}
		case model.KindBool:
			properties[f.Key] = map[string]any{"type": "boolean"}
		case model.KindModel:
			properties[f.Key] = map[string]any{"type": "string", "enum": tokens}
		case model.KindInt:
			prop := map[string]any{"type": "integer"}
			if f.Min != 0 || f.Max != 0 {
				prop["minimum"] = f.Min
				prop["maximum"] = f.Max
			}
			properties[f.Key] = prop
		}
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                "agent settings",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// Check validates the JSON text of a persisted record. Text that is not JSON
// at all is reported as a single issue.
func (c *Checker) Check(data []byte) (*Report, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &Report{Issues: []Issue{{Keyword: "json", Message: "not valid JSON: " + err.Error()}}}, nil
	}

	err = c.compiled.Validate(inst)
	if err == nil {
		return &Report{Valid: true}, nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}
	return &Report{Issues: extractIssues(ve)}, nil
}

func extractIssues(ve *jsonschema.ValidationError) []Issue {
	var issues []Issue
	collectIssues(ve, &issues)
	if len(issues) == 0 {
		return []Issue{{Message: ve.Error()}}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Path < issues[j].Path
	})
	return deduplicate(issues)
}

// collectIssues walks the error tree down to the leaves.
func collectIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}

	keyword := ""
	if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
		keyword = kwPath[len(kwPath)-1]
	}
	if keyword == "" || keyword == "allOf" || keyword == "$ref" {
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	*issues = append(*issues, Issue{
		Path:    path,
		Keyword: keyword,
		Message: ve.ErrorKind.LocalizedString(printer),
	})
}

func deduplicate(issues []Issue) []Issue {
	seen := make(map[Issue]bool, len(issues))
	var result []Issue
	for _, issue := range issues {
		if !seen[issue] {
			seen[issue] = true
			result = append(result, issue)
		}
	}
	return result
}
