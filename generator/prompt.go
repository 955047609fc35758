package generator

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template IDs known to the pipeline.
const (
	TemplateCoreStory  = "core_story"
	TemplateCharacters = "characters"
	TemplatePlot       = "plot"
	TemplateRefine     = "refine"
	TemplateThemes     = "themes"
)

//go:embed templates.yaml
var defaultTemplatesYAML []byte

var placeholderRe = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// Template 是一个带命名占位符的静态提示词，加载后不可变。
type Template struct {
	ID           string   `yaml:"id"`
	Placeholders []string `yaml:"placeholders"`
	Body         string   `yaml:"body"`
}

// Render substitutes every declared placeholder. It fails without producing
// partial output when any declared name has no value.
func (t Template) Render(values map[string]string) (string, error) {
	pairs := make([]string, 0, len(t.Placeholders)*2)
	for _, name := range t.Placeholders {
		v, ok := values[name]
		if !ok {
			return "", &MissingPlaceholderError{Template: t.ID, Name: name}
		}
		pairs = append(pairs, "{"+name+"}", v)
	}
	if len(pairs) == 0 {
		return t.Body, nil
	}
	// single pass: values that happen to contain "{name}" are not expanded again
	return strings.NewReplacer(pairs...).Replace(t.Body), nil
}

func (t Template) validate() error {
	if t.ID == "" {
		return fmt.Errorf("template without id")
	}
	if strings.TrimSpace(t.Body) == "" {
		return fmt.Errorf("template %s: empty body", t.ID)
	}
	declared := make(map[string]bool, len(t.Placeholders))
	for _, name := range t.Placeholders {
		if declared[name] {
			return fmt.Errorf("template %s: placeholder %q declared twice", t.ID, name)
		}
		declared[name] = true
		if !strings.Contains(t.Body, "{"+name+"}") {
			return fmt.Errorf("template %s: placeholder %q not used in body", t.ID, name)
		}
	}
	for _, m := range placeholderRe.FindAllStringSubmatch(t.Body, -1) {
		if !declared[m[1]] {
			return fmt.Errorf("template %s: undeclared placeholder %q in body", t.ID, m[1])
		}
	}
	return nil
}

// Templates is the read-only registry of prompt templates keyed by ID.
type Templates struct {
	byID map[string]Template
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadTemplates parses a YAML registry and validates every template in it.
func LoadTemplates(data []byte) (*Templates, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	reg := &Templates{byID: make(map[string]Template, len(f.Templates))}
	for _, t := range f.Templates {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, dup := reg.byID[t.ID]; dup {
			return nil, fmt.Errorf("template %s defined twice", t.ID)
		}
		t.Placeholders = append([]string(nil), t.Placeholders...)
		reg.byID[t.ID] = t
	}
	return reg, nil
}

// LoadTemplatesFile reads a registry from disk. Templates missing from the
// file fall back to the built-in ones.
func LoadTemplatesFile(path string) (*Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	override, err := LoadTemplates(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base := DefaultTemplates()
	merged := &Templates{byID: make(map[string]Template, len(base.byID))}
	for id, t := range base.byID {
		merged.byID[id] = t
	}
	for id, t := range override.byID {
		if prev, ok := base.byID[id]; ok && !samePlaceholders(prev.Placeholders, t.Placeholders) {
			return nil, fmt.Errorf("%s: template %s must declare placeholders %v", path, id, prev.Placeholders)
		}
		merged.byID[id] = t
	}
	return merged, nil
}

// DefaultTemplates returns the built-in registry.
func DefaultTemplates() *Templates {
	reg, err := LoadTemplates(defaultTemplatesYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in templates: %v", err))
	}
	return reg
}

// Get looks up a template by ID.
func (r *Templates) Get(id string) (Template, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// mustGet 用于流水线必需的模板，缺失即报错。
func (r *Templates) mustGet(id string) (Template, error) {
	t, ok := r.byID[id]
	if !ok {
		return Template{}, fmt.Errorf("template %s not registered", id)
	}
	return t, nil
}

// IDs lists registered template IDs in sorted order.
func (r *Templates) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func samePlaceholders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
