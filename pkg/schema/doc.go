// Package schema provides the prop type system used by the component catalog.
//
// Each component declares a Schema: a map of prop names to Fields. A Field couples a
// Type (string, int, number, bool, enum, slice, object, any) with a required flag, a
// default value and a short description used when the catalog is described to a
// language model.
//
//	props := schema.Schema{
//	    "title":   {Type: schema.String(), Required: true},
//	    "columns": {Type: schema.Slice(schema.Object()), Default: []any{}},
//	    "variant": {Type: schema.Enum("info", "warning", "error"), Default: "info"},
//	}
//
//	if err := schema.Validate(props, node.Props); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // report and fall back to defaults
//	    }
//	}
//
// Validation accepts the loose shapes produced by encoding/json (float64, json.Number,
// []any, map[string]any) because props arrive from untrusted JSON, not Go code.
package schema
