package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
)

// CompileRegistry parses a CUE value into a populated registry.
//
// The CUE value is the configuration root, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`tables: w: {table: "wholesalers", columns: [...]}`)
//	reg, err := CompileRegistry(v)
//
// Expected shape:
//
//	tables: <alias>: {
//	    table:   string
//	    schema?: string
//	    columns: [...string]
//	}
//	templates?: <name>: {
//	    from: {table: string, alias: string}
//	    joins: [...{
//	        kind?: "INNER" | "LEFT" | "RIGHT" | "FULL"
//	        table: string
//	        alias: string
//	        on: [...{left: string, op: string, right: string}]
//	    }]
//	}
func CompileRegistry(v cue.Value) (*schema.Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	reg := schema.NewRegistry()

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, &CompileError{
			Field:   "tables",
			Message: "tables section is required",
			Pos:     v.Pos(),
		}
	}
	if err := parseTables(tablesVal, reg); err != nil {
		return nil, err
	}

	// Templates are optional.
	templatesVal := v.LookupPath(cue.ParsePath("templates"))
	if templatesVal.Exists() {
		if err := parseTemplates(templatesVal, reg); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func parseTables(v cue.Value, reg *schema.Registry) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		alias := iter.Label()
		tableVal := iter.Value()

		table, err := requireString(tableVal, "table")
		if err != nil {
			return err
		}

		schemaName := ""
		if sv := tableVal.LookupPath(cue.ParsePath("schema")); sv.Exists() {
			schemaName, err = sv.String()
			if err != nil {
				return formatCUEError(err)
			}
		}

		columns, err := parseStringList(tableVal.LookupPath(cue.ParsePath("columns")), "columns")
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			return &CompileError{
				Field:   fmt.Sprintf("tables.%s.columns", alias),
				Message: "at least one column is required",
				Pos:     tableVal.Pos(),
			}
		}

		def := schema.NewTableDefinition(alias, schemaName, table, columns)
		if err := reg.RegisterTable(def); err != nil {
			return &CompileError{
				Field:   fmt.Sprintf("tables.%s", alias),
				Message: err.Error(),
				Pos:     tableVal.Pos(),
			}
		}
	}
	return nil
}

func parseTemplates(v cue.Value, reg *schema.Registry) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		tplVal := iter.Value()

		from, err := parseTableRef(tplVal.LookupPath(cue.ParsePath("from")), fmt.Sprintf("templates.%s.from", name))
		if err != nil {
			return err
		}

		var joins []queryir.JoinClause
		joinsVal := tplVal.LookupPath(cue.ParsePath("joins"))
		if joinsVal.Exists() {
			joinIter, err := joinsVal.List()
			if err != nil {
				return formatCUEError(err)
			}
			for i := 0; joinIter.Next(); i++ {
				join, err := parseJoin(joinIter.Value(), fmt.Sprintf("templates.%s.joins[%d]", name, i))
				if err != nil {
					return err
				}
				joins = append(joins, join)
			}
		}

		tpl := schema.JoinTemplate{From: from, Joins: joins}
		if err := reg.RegisterTemplate(name, tpl); err != nil {
			return &CompileError{
				Field:   fmt.Sprintf("templates.%s", name),
				Message: err.Error(),
				Pos:     tplVal.Pos(),
			}
		}
	}
	return nil
}

func parseTableRef(v cue.Value, field string) (queryir.TableRef, error) {
	if !v.Exists() {
		return queryir.TableRef{}, &CompileError{
			Field:   field,
			Message: "table reference is required",
		}
	}
	table, err := requireString(v, "table")
	if err != nil {
		return queryir.TableRef{}, err
	}
	alias, err := requireString(v, "alias")
	if err != nil {
		return queryir.TableRef{}, err
	}
	return queryir.TableRef{Table: table, Alias: alias}, nil
}

func parseJoin(v cue.Value, field string) (queryir.JoinClause, error) {
	ref, err := parseTableRef(v, field)
	if err != nil {
		return queryir.JoinClause{}, err
	}

	kind := queryir.InnerJoin
	if kv := v.LookupPath(cue.ParsePath("kind")); kv.Exists() {
		raw, err := kv.String()
		if err != nil {
			return queryir.JoinClause{}, formatCUEError(err)
		}
		kind = queryir.JoinKind(raw)
		if !kind.Valid() {
			return queryir.JoinClause{}, &CompileError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("unknown join kind %q", raw),
				Pos:     kv.Pos(),
			}
		}
	}

	onVal := v.LookupPath(cue.ParsePath("on"))
	if !onVal.Exists() {
		return queryir.JoinClause{}, &CompileError{
			Field:   field + ".on",
			Message: "on conditions are required",
			Pos:     v.Pos(),
		}
	}
	on, err := parseOn(onVal, field+".on")
	if err != nil {
		return queryir.JoinClause{}, err
	}

	return queryir.JoinClause{Kind: kind, Table: ref.Table, Alias: ref.Alias, On: on}, nil
}

// parseOn reads the list of column equalities that make up a template
// join's ON tree. Config templates only express column-vs-column
// conditions; value filters belong in the request payload, not in
// trusted configuration.
func parseOn(v cue.Value, field string) (*queryir.Group, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	group := queryir.NewGroup(queryir.And)
	for i := 0; iter.Next(); i++ {
		condVal := iter.Value()
		left, err := requireString(condVal, "left")
		if err != nil {
			return nil, err
		}
		right, err := requireString(condVal, "right")
		if err != nil {
			return nil, err
		}

		op := queryir.OpEq
		if ov := condVal.LookupPath(cue.ParsePath("op")); ov.Exists() {
			raw, err := ov.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			op = queryir.Op(raw)
		}

		cond := queryir.ColumnCondition{Left: left, Op: op, Right: right}
		if err := queryir.ValidateNode(cond); err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: err.Error(),
				Pos:     condVal.Pos(),
			}
		}
		group.Append(cond)
	}

	if group.Empty() {
		return nil, &CompileError{
			Field:   field,
			Message: "at least one on condition is required",
			Pos:     v.Pos(),
		}
	}
	return group, nil
}

func requireString(v cue.Value, name string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(name))
	if !fieldVal.Exists() {
		return "", &CompileError{
			Field:   name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func parseStringList(v cue.Value, name string) ([]string, error) {
	if !v.Exists() {
		return nil, &CompileError{
			Field:   name,
			Message: name + " is required",
		}
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a configuration error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
