package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/catalog"
)

// Limits are the density constraints given to the model.
type Limits struct {
	MaxNodes     int
	MaxTableRows int
	// MaxPromptSize caps the operator prompt in bytes. Zero uses
	// CANOPY_MAX_PROMPT_SIZE or the sanitizer default.
	MaxPromptSize int
}

// DefaultLimits keep a generated dashboard within a single viewport.
var DefaultLimits = Limits{MaxNodes: 15, MaxTableRows: 8}

// SyntheticDataInstruction replaces the data section when no source returned records.
const SyntheticDataInstruction = "No CRM data is available for this request. Use minimal synthetic data, " +
	"at most three records per list or table, and mark every title with \"(sample)\"."

// SystemPrompt builds the fixed instructions: output format, catalog, and limits.
func SystemPrompt(c *catalog.Catalog, limits Limits) string {
	var b strings.Builder
	b.WriteString("You design CRM dashboards as UI trees.\n\n")
	b.WriteString("Reply with a single JSON object and nothing else. Its shape is:\n")
	b.WriteString(`{"root": "<id>", "elements": {"<id>": {"key": "<id>", "type": "<Component>", "props": {...}, "children": ["<id>", ...]}}}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Every id in children must exist in elements, and key must equal its id.\n")
	b.WriteString("- No element may be its own ancestor.\n")
	b.WriteString("- Only components marked (accepts children) may have children.\n")
	b.WriteString("- Use only the components and props listed below.\n")
	b.WriteString("- Use only the data provided. Copy numbers exactly; never round or invent figures.\n")
	fmt.Fprintf(&b, "- At most %d elements in total.\n", limits.MaxNodes)
	fmt.Fprintf(&b, "- At most %d rows per Table.\n", limits.MaxTableRows)
	b.WriteString("- The dashboard must fit a single viewport without scrolling.\n")
	b.WriteString("\nComponents:\n")
	b.WriteString(c.Describe())
	return b.String()
}

// UserMessage builds the request: the operator's prompt followed by the data,
// verbatim, or the synthetic-data instruction when there is none.
func UserMessage(prompt string, data map[string]json.RawMessage) (string, error) {
	var b strings.Builder
	b.WriteString("Request: ")
	b.WriteString(prompt)
	b.WriteString("\n\n")
	if len(data) == 0 {
		b.WriteString(SyntheticDataInstruction)
		return b.String(), nil
	}

	// Map keys are sorted by encoding/json, so the message is deterministic.
	blob, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode data: %w", err)
	}
	b.WriteString("Data (JSON):\n")
	b.Write(blob)
	return b.String(), nil
}
