package compiler

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/querysql"
)

const catalogConfig = `
tables: {
	w: {
		table:   "wholesalers"
		columns: ["wholesaler_id", "name", "status", "category_id", "region"]
	}
	pc: {
		table:   "product_categories"
		columns: ["category_id", "name", "parent_id"]
	}
	pd: {
		table:   "product_definitions"
		schema:  "dbo"
		columns: ["product_id", "category_id", "name", "sku"]
	}
}
templates: {
	wholesalers_with_categories: {
		from: {table: "wholesalers", alias: "w"}
		joins: [{
			kind:  "INNER"
			table: "product_categories"
			alias: "pc"
			on: [{left: "w.category_id", op: "=", right: "pc.category_id"}]
		}]
	}
}
`

func TestCompileRegistry(t *testing.T) {
	ctx := cuecontext.New()
	reg, err := CompileRegistry(ctx.CompileString(catalogConfig))
	require.NoError(t, err)

	t.Run("tables registered", func(t *testing.T) {
		assert.Equal(t, []string{"pc", "pd", "w"}, reg.Aliases())

		def, ok := reg.Lookup("w")
		require.True(t, ok)
		assert.Equal(t, "wholesalers", def.Table)
		assert.True(t, def.HasColumn("status"))
		assert.False(t, def.HasColumn("password"))
	})

	t.Run("schema qualification", func(t *testing.T) {
		def, ok := reg.Lookup("pd")
		require.True(t, ok)
		assert.Equal(t, "dbo.product_definitions", def.Qualified())
	})

	t.Run("template registered", func(t *testing.T) {
		tpl, ok := reg.Template("wholesalers_with_categories")
		require.True(t, ok)
		assert.Equal(t, "w", tpl.From.Alias)
		require.Len(t, tpl.Joins, 1)
		assert.Equal(t, queryir.InnerJoin, tpl.Joins[0].Kind)
		require.NotNil(t, tpl.Joins[0].On)
		require.Len(t, tpl.Joins[0].On.Children, 1)
	})

	t.Run("compiles end to end", func(t *testing.T) {
		desc := &queryir.QueryDescription{Select: []string{"w.name", "pc.name AS category_name"}}
		compiled, err := querysql.Compile(desc, reg, querysql.Options{Template: "wholesalers_with_categories"})
		require.NoError(t, err)
		assert.Contains(t, compiled.SQL, "INNER JOIN product_categories pc ON (w.category_id = pc.category_id)")
	})
}

func TestCompileRegistryErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:    "missing tables section",
			config:  `templates: {}`,
			wantErr: "tables section is required",
		},
		{
			name: "table without columns",
			config: `tables: w: {
				table: "wholesalers"
				columns: []
			}`,
			wantErr: "at least one column",
		},
		{
			name: "table without name",
			config: `tables: w: {
				columns: ["name"]
			}`,
			wantErr: "table is required",
		},
		{
			name: "template references unknown alias",
			config: `
				tables: w: {table: "wholesalers", columns: ["name"]}
				templates: bad: {
					from: {table: "orders", alias: "o"}
				}`,
			wantErr: "unknown alias",
		},
		{
			name: "template join without on",
			config: `
				tables: {
					w: {table: "wholesalers", columns: ["category_id"]}
					pc: {table: "product_categories", columns: ["category_id"]}
				}
				templates: bad: {
					from: {table: "wholesalers", alias: "w"}
					joins: [{table: "product_categories", alias: "pc", on: []}]
				}`,
			wantErr: "at least one on condition",
		},
		{
			name: "template join with bad kind",
			config: `
				tables: {
					w: {table: "wholesalers", columns: ["category_id"]}
					pc: {table: "product_categories", columns: ["category_id"]}
				}
				templates: bad: {
					from: {table: "wholesalers", alias: "w"}
					joins: [{
						kind: "CROSS", table: "product_categories", alias: "pc"
						on: [{left: "w.category_id", right: "pc.category_id"}]
					}]
				}`,
			wantErr: "unknown join kind",
		},
		{
			name: "on condition with list operator",
			config: `
				tables: {
					w: {table: "wholesalers", columns: ["category_id"]}
					pc: {table: "product_categories", columns: ["category_id"]}
				}
				templates: bad: {
					from: {table: "wholesalers", alias: "w"}
					joins: [{
						table: "product_categories", alias: "pc"
						on: [{left: "w.category_id", op: "IN", right: "pc.category_id"}]
					}]
				}`,
			wantErr: "cannot compare two columns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := cuecontext.New()
			_, err := CompileRegistry(ctx.CompileString(tt.config))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompileErrorFormatting(t *testing.T) {
	err := &CompileError{Field: "tables.w", Message: "broken"}
	assert.Equal(t, "tables.w: broken", err.Error())
}
