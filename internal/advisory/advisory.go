// Package advisory loads the treatment guidance shown for each category,
// together with the static page copy, from a single YAML data file.
package advisory

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"rice-leaf-inspector/internal/category"
	apperrors "rice-leaf-inspector/internal/errors"
)

//go:embed advisories.yaml
var defaultDocument []byte

// Page is the static copy rendered around the upload form.
type Page struct {
	Title             string `yaml:"title" json:"title"`
	Icon              string `yaml:"icon" json:"icon"`
	Heading           string `yaml:"heading" json:"heading"`
	Description       string `yaml:"description" json:"description"`
	UploadLabel       string `yaml:"upload_label" json:"upload_label"`
	SubmitLabel       string `yaml:"submit_label" json:"submit_label"`
	PreviewCaption    string `yaml:"preview_caption" json:"preview_caption"`
	ResultHeading     string `yaml:"result_heading" json:"result_heading"`
	LabelPrefix       string `yaml:"label_prefix" json:"label_prefix"`
	ConfidenceHeading string `yaml:"confidence_heading" json:"confidence_heading"`
	AdviceHeading     string `yaml:"advice_heading" json:"advice_heading"`
	HintsHeading      string `yaml:"hints_heading" json:"hints_heading"`
	ErrorHeading      string `yaml:"error_heading" json:"error_heading"`
	Footer            string `yaml:"footer" json:"footer"`

	// Hints maps photo quality hint codes to the message shown to the user.
	Hints map[string]string `yaml:"hints" json:"hints,omitempty"`
}

type document struct {
	Page       Page              `yaml:"page"`
	Advisories map[string]string `yaml:"advisories"`
}

// Table maps every category to its advisory text. It is read-only once built.
type Table struct {
	page    Page
	entries map[category.Category]string
	html    map[category.Category]template.HTML
}

// Load reads the table from path, or from the embedded default when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Parse(defaultDocument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read advisory file: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("advisory file %s: %w", path, err)
	}
	return table, nil
}

// Default returns the embedded table.
func Default() (*Table, error) {
	return Parse(defaultDocument)
}

// Parse decodes and validates a YAML advisory document.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse advisory document: %w", err)
	}

	entries := make(map[category.Category]string, category.Count)
	var unknown []string
	for key, text := range doc.Advisories {
		c, err := category.Parse(key)
		if err != nil {
			unknown = append(unknown, err.Error())
			continue
		}
		entries[c] = text
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("advisory document has unknown keys: %s", strings.Join(unknown, "; "))
	}

	md := goldmark.New()
	rendered := make(map[category.Category]template.HTML, category.Count)
	for _, c := range category.All() {
		text, ok := entries[c]
		if !ok {
			return nil, fmt.Errorf("advisory document has no entry for %q", c)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("advisory entry for %q is empty", c)
		}

		var buf bytes.Buffer
		if err := md.Convert([]byte(text), &buf); err != nil {
			return nil, fmt.Errorf("failed to render advisory for %q: %w", c, err)
		}
		// goldmark omits raw HTML unless configured otherwise, so the output is safe to embed.
		rendered[c] = template.HTML(buf.String())
	}

	return &Table{page: doc.Page, entries: entries, html: rendered}, nil
}

// Lookup returns the advisory text for c verbatim.
func (t *Table) Lookup(c category.Category) (string, error) {
	text, ok := t.entries[c]
	if !ok {
		return "", apperrors.NewIntegrationError(fmt.Sprintf("no advisory for category %q", c), nil)
	}
	return text, nil
}

// HTML returns the advisory for c rendered from markdown.
func (t *Table) HTML(c category.Category) (template.HTML, error) {
	html, ok := t.html[c]
	if !ok {
		return "", apperrors.NewIntegrationError(fmt.Sprintf("no advisory for category %q", c), nil)
	}
	return html, nil
}

// Page returns the static page copy.
func (t *Table) Page() Page {
	return t.page
}

// Len is the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}
