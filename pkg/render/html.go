package render

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// htmlRenderer renders elements through one template per component type.
type htmlRenderer struct {
	tmpl *template.Template
	md   *markdownRenderer
}

var loadHTML = sync.OnceValues(newHTMLRenderer)

func newHTMLRenderer() (*htmlRenderer, error) {
	r := &htmlRenderer{md: newMarkdownRenderer()}
	funcs := template.FuncMap{
		"render":   r.element,
		"markdown": r.md.render,
		"metric":   FormatMetric,
		"delta":    FormatDelta,
		"cell":     FormatCell,
		"percent":  Percent,
		"attrJSON": attrJSON,
		"colspan":  func(cols []TableColumn) int { return max(len(cols), 1) },
		"inc":      func(i int) int { return i + 1 },
	}
	tmpl, err := template.New("canopy").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

func templateName(e Element) string {
	if k := e.Kind(); k != "" {
		return string(k)
	}
	return "Placeholder"
}

func (r *htmlRenderer) element(e Element) (template.HTML, error) {
	if e == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, templateName(e), e); err != nil {
		return "", fmt.Errorf("render %s %q: %w", templateName(e), e.ID(), err)
	}
	return template.HTML(buf.String()), nil
}

func attrJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HTML renders a view as an HTML fragment.
func HTML(v *View) (template.HTML, error) {
	r, err := loadHTML()
	if err != nil {
		return "", err
	}
	return r.element(v.Root)
}

// DataElementID is the id of the script element holding the injected data blob.
const DataElementID = "canopy-data"

type documentData struct {
	Title string
	Body  template.HTML
	Data  template.JS
}

// DataBlob is the payload embedded in a rendered document.
type DataBlob struct {
	SessionID    string                  `json:"session_id,omitempty"`
	Version      int64                   `json:"version"`
	Tree         *domain.UITree          `json:"tree"`
	Context      map[string]any          `json:"context,omitempty"`
	Capabilities domain.HostCapabilities `json:"capabilities"`
}

// Document renders the snapshot's tree as a full HTML page with the tree, its context
// and the host capabilities embedded as a JSON data blob. The same snapshot always
// produces byte-identical output.
func (i *Interpreter) Document(ctx context.Context, snap *domain.Snapshot, caps domain.HostCapabilities) ([]byte, error) {
	if snap == nil {
		return nil, domain.ErrNoView
	}
	r, err := loadHTML()
	if err != nil {
		return nil, err
	}

	view := i.Render(ctx, snap.Tree)
	body, err := r.element(view.Root)
	if err != nil {
		return nil, err
	}

	// json.Marshal escapes <, > and & so the blob cannot close its script element.
	blob, err := json.Marshal(DataBlob{
		SessionID:    snap.SessionID,
		Version:      snap.Version,
		Tree:         snap.Tree,
		Context:      snap.Context,
		Capabilities: caps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode data blob: %w", err)
	}

	title := "Canopy"
	if snap.Source != "" {
		title = "Canopy · " + snap.Source
	}

	var buf bytes.Buffer
	err = r.tmpl.ExecuteTemplate(&buf, "document", documentData{
		Title: title,
		Body:  body,
		Data:  template.JS(blob),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	return buf.Bytes(), nil
}
