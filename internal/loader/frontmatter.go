// Package loader discovers T-SQL script files and prepares them for
// conversion: it reads optional YAML frontmatter, hashes the content and
// detects which kind of object each file creates.
package loader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"gopkg.in/yaml.v3"
)

// FrontmatterConfig is the YAML block at the top of a script file.
// Unknown fields are rejected; Meta is the extension point.
type FrontmatterConfig struct {
	Name        string          `yaml:"name"`
	Kind        core.ScriptKind `yaml:"kind"`
	Dialect     string          `yaml:"dialect"`
	DependsOn   []string        `yaml:"depends_on"`
	Skip        bool            `yaml:"skip"`
	Description string          `yaml:"description"`
	Meta        map[string]any  `yaml:"meta"`
}

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Config  *FrontmatterConfig
	SQL     string // text with the frontmatter block blanked out
	HasYAML bool
}

// frontmatterPattern matches a leading /*--- ... ---*/ block.
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

var knownFields = map[string]bool{
	"name":        true,
	"kind":        true,
	"dialect":     true,
	"depends_on":  true,
	"skip":        true,
	"description": true,
	"meta":        true,
}

// ExtractFrontmatter splits content into frontmatter and SQL. The block is
// replaced by the newlines it spanned so positions reported against the SQL
// still match the file.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{Config: &FrontmatterConfig{}, SQL: content}

	loc := frontmatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return result, nil
	}
	result.HasYAML = true
	block := content[loc[0]:loc[1]]
	result.SQL = strings.Repeat("\n", strings.Count(block, "\n")) + content[loc[1]:]

	cfg, err := parseFrontmatterYAML(content[loc[2]:loc[3]])
	if err != nil {
		return nil, err
	}
	result.Config = cfg
	return result, nil
}

func parseFrontmatterYAML(text string) (*FrontmatterConfig, error) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &FrontmatterParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	for field := range raw {
		if !knownFields[field] {
			return nil, &UnknownFieldError{Field: field}
		}
	}

	var cfg FrontmatterConfig
	if err := yaml.Unmarshal([]byte(text), &cfg); err != nil {
		return nil, &FrontmatterParseError{Message: fmt.Sprintf("failed to parse frontmatter: %v", err)}
	}
	if cfg.Kind != "" {
		kind, err := ParseKind(string(cfg.Kind))
		if err != nil {
			return nil, &FrontmatterParseError{Message: err.Error()}
		}
		cfg.Kind = kind
	}
	return &cfg, nil
}

// ParseKind maps a case-insensitive kind name to a core.ScriptKind.
func ParseKind(s string) (core.ScriptKind, error) {
	switch k := core.ScriptKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case core.KindProcedure, core.KindFunction, core.KindView, core.KindTrigger:
		return k, nil
	case "PROC":
		return core.KindProcedure, nil
	}
	return "", fmt.Errorf("invalid kind %q, must be one of: procedure, function, view, trigger", s)
}

// FrontmatterParseError represents a frontmatter parsing error.
type FrontmatterParseError struct {
	File    string
	Message string
}

func (e *FrontmatterParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, use \"meta\" field for custom fields", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
