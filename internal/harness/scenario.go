package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one compilation conformance case.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Tables defines the registry, keyed by alias.
	Tables map[string]TableConfig `yaml:"tables"`

	// Templates defines named join templates, keyed by template name.
	Templates map[string]TemplateConfig `yaml:"templates,omitempty"`

	// Query is the query description in its JSON wire shape (tagged
	// condition nodes included). It is decoded exactly like a request
	// payload would be.
	Query map[string]any `yaml:"query"`

	// Options selects the FROM resolution path.
	Options OptionsConfig `yaml:"options,omitempty"`

	// Expect is the expected outcome.
	Expect Expectation `yaml:"expect"`
}

// TableConfig defines one registry table.
type TableConfig struct {
	Table   string   `yaml:"table"`
	Schema  string   `yaml:"schema,omitempty"`
	Columns []string `yaml:"columns"`
}

// RefConfig is a table/alias pair.
type RefConfig struct {
	Table string `yaml:"table"`
	Alias string `yaml:"alias"`
}

// JoinConfig defines one template join.
type JoinConfig struct {
	Kind  string     `yaml:"kind,omitempty"`
	Table string     `yaml:"table"`
	Alias string     `yaml:"alias"`
	On    []OnConfig `yaml:"on"`
}

// OnConfig is one column equality in a template join.
type OnConfig struct {
	Left  string `yaml:"left"`
	Op    string `yaml:"op,omitempty"`
	Right string `yaml:"right"`
}

// TemplateConfig defines one named join template.
type TemplateConfig struct {
	From  RefConfig    `yaml:"from"`
	Joins []JoinConfig `yaml:"joins,omitempty"`
}

// OptionsConfig mirrors the compiler options.
type OptionsConfig struct {
	Template  string     `yaml:"template,omitempty"`
	FixedFrom *RefConfig `yaml:"fixed_from,omitempty"`
}

// Expectation is the expected compile outcome. Exactly one of SQL or
// ErrorCode must be set.
type Expectation struct {
	// SQL is the exact statement text.
	SQL string `yaml:"sql,omitempty"`

	// Params maps parameter names to expected values.
	Params map[string]any `yaml:"params,omitempty"`

	// ErrorCode is the expected compile error code.
	ErrorCode string `yaml:"error_code,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently relaxing a check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Tables) == 0 {
		return fmt.Errorf("tables section is required and must be non-empty")
	}
	for alias, table := range s.Tables {
		if table.Table == "" {
			return fmt.Errorf("tables.%s: table is required", alias)
		}
		if len(table.Columns) == 0 {
			return fmt.Errorf("tables.%s: columns list is required and must be non-empty", alias)
		}
	}
	if s.Query == nil {
		return fmt.Errorf("query is required")
	}

	hasSQL := s.Expect.SQL != ""
	hasErr := s.Expect.ErrorCode != ""
	if hasSQL == hasErr {
		return fmt.Errorf("expect: exactly one of sql or error_code is required")
	}
	if hasErr && len(s.Expect.Params) > 0 {
		return fmt.Errorf("expect: params cannot accompany error_code")
	}
	return nil
}
