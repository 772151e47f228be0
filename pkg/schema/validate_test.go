package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidate_Success(t *testing.T) {
	s := Schema{
		"title":   {Type: String(), Required: true},
		"count":   {Type: Int()},
		"ratio":   {Type: Number()},
		"enabled": {Type: Bool()},
		"tags":    {Type: Slice(String())},
		"variant": {Type: Enum("info", "warning")},
	}

	data := map[string]any{
		"title":   "Pipeline",
		"count":   float64(3),
		"ratio":   json.Number("0.25"),
		"enabled": true,
		"tags":    []any{"prod", "critical"},
		"variant": "info",
	}

	if err := Validate(s, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	s := Schema{
		"title": {Type: String(), Required: true},
		"count": {Type: Int()},
	}

	err := Validate(s, map[string]any{"count": 1})
	if err == nil {
		t.Fatal("Validate() should return error for missing required prop")
	}

	errs := ValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %d errors, want 1", len(errs))
	}
	validErr, ok := errs[0].(*ValidationError)
	if !ok {
		t.Fatalf("error should be *ValidationError, got %T", errs[0])
	}
	if validErr.Key != "title" || validErr.Reason != "required" {
		t.Errorf("got %+v, want title/required", validErr)
	}
}

func TestValidate_OptionalMissingIsFine(t *testing.T) {
	s := Schema{"count": {Type: Int(), Default: 0}}
	if err := Validate(s, map[string]any{}); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_TypeMismatchOrdered(t *testing.T) {
	s := Schema{
		"b": {Type: Int()},
		"a": {Type: Bool()},
	}
	err := Validate(s, map[string]any{"a": "yes", "b": 1.5})

	keys := InvalidKeys(err)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("InvalidKeys() = %v, want [a b]", keys)
	}
	if !strings.Contains(err.Error(), "2 validation errors") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestValidate_NestedObject(t *testing.T) {
	column := Schema{
		"id":    {Type: String(), Required: true},
		"cards": {Type: Slice(Object())},
	}
	s := Schema{"columns": {Type: Slice(Object(column))}}

	ok := map[string]any{"columns": []any{
		map[string]any{"id": "won", "cards": []any{}},
	}}
	if err := Validate(s, ok); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	bad := map[string]any{"columns": []any{map[string]any{"cards": []any{}}}}
	if err := Validate(s, bad); err == nil {
		t.Error("Validate() should report the missing nested id")
	}
}

func TestSchema_Defaults(t *testing.T) {
	s := Schema{
		"gap":   {Type: Int(), Default: 8},
		"title": {Type: String()},
	}
	d := s.Defaults()
	if len(d) != 1 || d["gap"] != 8 {
		t.Errorf("Defaults() = %v", d)
	}
	d["gap"] = 99
	if s.Defaults()["gap"] != 8 {
		t.Error("Defaults() must return a fresh map")
	}
}

func TestSchema_MarshalJSON(t *testing.T) {
	s := Schema{"variant": {Type: Enum("a", "b"), Required: true}}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(b) != `{"variant":{"type":"a|b","required":true}}` {
		t.Errorf("unexpected JSON: %s", b)
	}
}
