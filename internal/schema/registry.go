package schema

import (
	"fmt"
	"sort"

	"github.com/roach88/querygate/internal/queryir"
)

// TableDefinition binds a short alias to a physical table and the
// exhaustive set of columns that may be referenced under that alias.
type TableDefinition struct {
	// Alias is the short identifier used in query descriptions (e.g. "w",
	// "pd"). Aliases are globally unique across the registry.
	Alias string

	// Schema is the database schema the table lives in (e.g. "dbo").
	Schema string

	// Table is the physical table name.
	Table string

	// columns is the allow-list for this alias.
	columns map[string]struct{}
}

// NewTableDefinition creates a definition with the given allowed columns.
func NewTableDefinition(alias, schemaName, table string, columns []string) TableDefinition {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return TableDefinition{Alias: alias, Schema: schemaName, Table: table, columns: set}
}

// HasColumn reports whether the column is in this alias's allow-list.
func (d TableDefinition) HasColumn(column string) bool {
	_, ok := d.columns[column]
	return ok
}

// Columns returns the allowed column names in sorted order.
func (d TableDefinition) Columns() []string {
	out := make([]string, 0, len(d.columns))
	for c := range d.columns {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Qualified returns the schema-qualified table name ("dbo.wholesalers").
// Tables registered without a schema return the bare table name.
func (d TableDefinition) Qualified() string {
	if d.Schema == "" {
		return d.Table
	}
	return d.Schema + "." + d.Table
}

// JoinTemplate is a fixed FROM+JOIN skeleton stored under a name.
type JoinTemplate struct {
	From  queryir.TableRef
	Joins []queryir.JoinClause
}

// Registry maps aliases to table definitions and names to join templates.
// Populate it at startup; it must not be mutated afterwards.
type Registry struct {
	tables    map[string]TableDefinition
	templates map[string]JoinTemplate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tables:    make(map[string]TableDefinition),
		templates: make(map[string]JoinTemplate),
	}
}

// RegisterTable adds a table definition. Registering an empty alias or a
// duplicate alias is a configuration error.
func (r *Registry) RegisterTable(def TableDefinition) error {
	if def.Alias == "" {
		return fmt.Errorf("table %q: empty alias", def.Table)
	}
	if def.Table == "" {
		return fmt.Errorf("alias %q: empty table name", def.Alias)
	}
	if _, exists := r.tables[def.Alias]; exists {
		return fmt.Errorf("alias %q registered twice", def.Alias)
	}
	r.tables[def.Alias] = def
	return nil
}

// Lookup returns the definition registered under the alias.
func (r *Registry) Lookup(alias string) (TableDefinition, bool) {
	def, ok := r.tables[alias]
	return def, ok
}

// ColumnsOf returns the allow-list for an alias in sorted order.
func (r *Registry) ColumnsOf(alias string) ([]string, bool) {
	def, ok := r.tables[alias]
	if !ok {
		return nil, false
	}
	return def.Columns(), true
}

// Aliases returns all registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.tables))
	for a := range r.tables {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// RegisterTemplate stores a named join template. The template's FROM and
// JOIN aliases must already be registered tables; templates referencing
// unknown aliases are rejected at registration so a bad template never
// reaches the compiler.
func (r *Registry) RegisterTemplate(name string, tpl JoinTemplate) error {
	if name == "" {
		return fmt.Errorf("empty template name")
	}
	if _, exists := r.templates[name]; exists {
		return fmt.Errorf("template %q registered twice", name)
	}
	if err := r.checkTemplateRef(name, tpl.From.Table, tpl.From.Alias); err != nil {
		return err
	}
	for i, join := range tpl.Joins {
		if join.Alias == "" {
			return fmt.Errorf("template %q: join %d has no alias", name, i)
		}
		if err := r.checkTemplateRef(name, join.Table, join.Alias); err != nil {
			return fmt.Errorf("join %d: %w", i, err)
		}
	}
	r.templates[name] = tpl
	return nil
}

func (r *Registry) checkTemplateRef(name, table, alias string) error {
	def, ok := r.tables[alias]
	if !ok {
		return fmt.Errorf("template %q references unknown alias %q", name, alias)
	}
	if def.Table != table && def.Qualified() != table {
		return fmt.Errorf("template %q binds alias %q to table %q, registry has %q", name, alias, table, def.Table)
	}
	return nil
}

// Template returns the template registered under the name.
func (r *Registry) Template(name string) (JoinTemplate, bool) {
	tpl, ok := r.templates[name]
	return tpl, ok
}

// TemplateNames returns all registered template names in sorted order.
func (r *Registry) TemplateNames() []string {
	out := make([]string, 0, len(r.templates))
	for n := range r.templates {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
