package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/querysql"
	"github.com/roach88/querygate/internal/schema"
)

// Result is the outcome of running one scenario.
type Result struct {
	// SQL is the compiled statement, empty when compilation failed.
	SQL string

	// Params is the compiled parameter map.
	Params map[string]any

	// ErrorCode is the compile error code, empty on success.
	ErrorCode string

	// Err is the full compile error, nil on success.
	Err error
}

// Run builds the scenario's registry, decodes its query, and compiles.
// Compile errors are part of the result, not a Run failure; Run fails
// only when the scenario itself is broken (bad registry, bad payload
// encoding).
func Run(scenario *Scenario) (*Result, error) {
	reg, err := buildRegistry(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario registry: %w", err)
	}

	desc, err := decodeQuery(scenario.Query)
	if err != nil {
		return nil, fmt.Errorf("scenario query: %w", err)
	}

	opts := querysql.Options{Template: scenario.Options.Template}
	if scenario.Options.FixedFrom != nil {
		opts.FixedFrom = &queryir.TableRef{
			Table: scenario.Options.FixedFrom.Table,
			Alias: scenario.Options.FixedFrom.Alias,
		}
	}

	compiled, err := querysql.Compile(desc, reg, opts)
	if err != nil {
		code := querysql.CodeOf(err)
		if code == "" {
			return nil, fmt.Errorf("unexpected non-compile error: %w", err)
		}
		return &Result{ErrorCode: string(code), Err: err}, nil
	}
	return &Result{SQL: compiled.SQL, Params: compiled.Params}, nil
}

// Assert runs the scenario and checks the result against its
// expectations.
func Assert(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	require.NoError(t, err, "scenario %q failed to run", scenario.Name)

	if scenario.Expect.ErrorCode != "" {
		assert.Equal(t, scenario.Expect.ErrorCode, result.ErrorCode,
			"scenario %q: expected error code (got error: %v)", scenario.Name, result.Err)
		return
	}

	require.Empty(t, result.ErrorCode,
		"scenario %q: unexpected compile error: %v", scenario.Name, result.Err)
	assert.Equal(t, scenario.Expect.SQL, result.SQL, "scenario %q: sql", scenario.Name)
	assertParamsEqual(t, scenario, result)
}

// assertParamsEqual compares parameter maps through canonical JSON so
// numeric types from the two decode paths (YAML expectation, JSON query
// payload) compare by value.
func assertParamsEqual(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	want := scenario.Expect.Params
	if want == nil {
		want = map[string]any{}
	}
	got := result.Params
	if got == nil {
		got = map[string]any{}
	}

	wantJSON, err := queryir.MarshalCanonical(normalizeValue(want))
	require.NoError(t, err)
	gotJSON, err := queryir.MarshalCanonical(normalizeValue(got))
	require.NoError(t, err)
	assert.Equal(t, string(wantJSON), string(gotJSON), "scenario %q: params", scenario.Name)
}

// buildRegistry populates a registry from the scenario's inline config.
func buildRegistry(scenario *Scenario) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for alias, table := range scenario.Tables {
		def := schema.NewTableDefinition(alias, table.Schema, table.Table, table.Columns)
		if err := reg.RegisterTable(def); err != nil {
			return nil, err
		}
	}
	for name, tpl := range scenario.Templates {
		converted, err := convertTemplate(tpl)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", name, err)
		}
		if err := reg.RegisterTemplate(name, converted); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func convertTemplate(tpl TemplateConfig) (schema.JoinTemplate, error) {
	out := schema.JoinTemplate{
		From: queryir.TableRef{Table: tpl.From.Table, Alias: tpl.From.Alias},
	}
	for i, join := range tpl.Joins {
		kind := queryir.JoinKind(join.Kind)
		if join.Kind == "" {
			kind = queryir.InnerJoin
		}
		if !kind.Valid() {
			return schema.JoinTemplate{}, fmt.Errorf("joins[%d]: unknown kind %q", i, join.Kind)
		}
		on := queryir.NewGroup(queryir.And)
		for _, cond := range join.On {
			op := queryir.Op(cond.Op)
			if cond.Op == "" {
				op = queryir.OpEq
			}
			on.Append(queryir.ColumnCondition{Left: cond.Left, Op: op, Right: cond.Right})
		}
		if on.Empty() {
			return schema.JoinTemplate{}, fmt.Errorf("joins[%d]: on conditions are required", i)
		}
		out.Joins = append(out.Joins, queryir.JoinClause{
			Kind:  kind,
			Table: join.Table,
			Alias: join.Alias,
			On:    on,
		})
	}
	return out, nil
}

// decodeQuery routes the YAML query through JSON so it is decoded by the
// same tagged-node codec a real request payload hits.
func decodeQuery(raw map[string]any) (*queryir.QueryDescription, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var desc queryir.QueryDescription
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &desc, nil
}

// normalizeValue rewrites decoded values into the canonical-JSON type
// set (map[string]any, []any, primitives).
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalizeValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeValue(elem)
		}
		return out
	case int:
		return int64(val)
	case float64:
		// Whole floats come from JSON number decoding; fold them back
		// to integers so both decode paths agree.
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	default:
		return val
	}
}
