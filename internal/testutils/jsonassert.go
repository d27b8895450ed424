package testutils

import (
	"encoding/json"
	"fmt"

	"github.com/mcuadros/go-defaults"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// PresencePlaceholder in expected JSON matches any actual value
const PresencePlaceholder = "<<PRESENCE>>"

type JSONAssertOptions struct {
	IgnoreExtraKeys          bool     `default:"true"`
	AllowPresencePlaceholder bool     `default:"true"`
	IgnoredFields            []string `default:""`
}

// JSONOption is a functional option for configuring JSONAsserter
type JSONOption func(*JSONAssertOptions)

// JSONAsserter compares JSON documents structurally and reports an ASCII diff
type JSONAsserter struct {
	t       TestingT
	options JSONAssertOptions
}

func NewJSONAsserter(t TestingT, opts ...JSONOption) *JSONAsserter {
	o := JSONAssertOptions{}
	defaults.SetDefaults(&o)
	for _, opt := range opts {
		opt(&o)
	}
	return &JSONAsserter{t: t, options: o}
}

// Assert compares actualJSON against expectedJSON
func (ja *JSONAsserter) Assert(actualJSON, expectedJSON string) bool {
	if diff := ja.Diff(actualJSON, expectedJSON); diff != "" {
		ja.t.Errorf("JSON assertion failed:\n%s", diff)
		return false
	}
	return true
}

// Diff returns "" when the documents match under the configured options
func (ja *JSONAsserter) Diff(actualJSON, expectedJSON string) string {
	var expected, actual interface{}
	if err := json.Unmarshal([]byte(expectedJSON), &expected); err != nil {
		return fmt.Sprintf("invalid expected JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(actualJSON), &actual); err != nil {
		return fmt.Sprintf("invalid actual JSON: %v", err)
	}

	// gojsondiff compares objects only
	if _, ok := expected.([]interface{}); ok {
		expected = map[string]interface{}{"array": expected}
		actual = map[string]interface{}{"array": actual}
	}

	ja.prepare(expected, actual)

	expectedBytes, _ := json.Marshal(expected)
	actualBytes, _ := json.Marshal(actual)

	diff, err := gojsondiff.New().Compare(expectedBytes, actualBytes)
	if err != nil {
		return fmt.Sprintf("JSON comparison failed: %v", err)
	}
	if !diff.Modified() {
		return ""
	}

	f := formatter.NewAsciiFormatter(expected, formatter.AsciiFormatterConfig{ShowArrayIndex: true})
	out, _ := f.Format(diff)
	return out
}

// prepare walks both trees applying placeholders, ignored fields and extra key pruning
func (ja *JSONAsserter) prepare(expected, actual interface{}) {
	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := actual.(map[string]interface{})
		if !ok {
			return
		}
		for _, field := range ja.options.IgnoredFields {
			delete(exp, field)
			delete(act, field)
		}
		if ja.options.IgnoreExtraKeys {
			for k := range act {
				if _, exists := exp[k]; !exists {
					delete(act, k)
				}
			}
		}
		for k, v := range exp {
			if s, ok := v.(string); ok && s == PresencePlaceholder && ja.options.AllowPresencePlaceholder {
				if av, present := act[k]; present {
					exp[k] = av
				}
				continue
			}
			ja.prepare(v, act[k])
		}
	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok {
			return
		}
		for i := range exp {
			if i < len(act) {
				ja.prepare(exp[i], act[i])
			}
		}
	}
}

func WithIgnoreExtraKeys(ignore bool) JSONOption {
	return func(o *JSONAssertOptions) { o.IgnoreExtraKeys = ignore }
}

func WithAllowPresencePlaceholder(allow bool) JSONOption {
	return func(o *JSONAssertOptions) { o.AllowPresencePlaceholder = allow }
}

func WithIgnoredFields(fields ...string) JSONOption {
	return func(o *JSONAssertOptions) { o.IgnoredFields = fields }
}
