package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querygate/internal/queryir"
)

func TestTableDefinition(t *testing.T) {
	def := NewTableDefinition("w", "dbo", "wholesalers", []string{"name", "status", "wholesaler_id"})

	assert.True(t, def.HasColumn("name"))
	assert.False(t, def.HasColumn("password"))
	assert.Equal(t, []string{"name", "status", "wholesaler_id"}, def.Columns())
	assert.Equal(t, "dbo.wholesalers", def.Qualified())

	bare := NewTableDefinition("pc", "", "product_categories", nil)
	assert.Equal(t, "product_categories", bare.Qualified())
}

func TestRegistryTables(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterTable(NewTableDefinition("w", "", "wholesalers", []string{"name"})))
	require.NoError(t, r.RegisterTable(NewTableDefinition("pc", "", "product_categories", []string{"name"})))

	t.Run("lookup", func(t *testing.T) {
		def, ok := r.Lookup("w")
		require.True(t, ok)
		assert.Equal(t, "wholesalers", def.Table)

		_, ok = r.Lookup("nope")
		assert.False(t, ok)
	})

	t.Run("columns of", func(t *testing.T) {
		cols, ok := r.ColumnsOf("pc")
		require.True(t, ok)
		assert.Equal(t, []string{"name"}, cols)

		_, ok = r.ColumnsOf("nope")
		assert.False(t, ok)
	})

	t.Run("aliases sorted", func(t *testing.T) {
		assert.Equal(t, []string{"pc", "w"}, r.Aliases())
	})

	t.Run("duplicate alias rejected", func(t *testing.T) {
		err := r.RegisterTable(NewTableDefinition("w", "", "warehouses", nil))
		assert.ErrorContains(t, err, "registered twice")
	})

	t.Run("empty alias rejected", func(t *testing.T) {
		err := r.RegisterTable(NewTableDefinition("", "", "orphans", nil))
		assert.ErrorContains(t, err, "empty alias")
	})

	t.Run("empty table rejected", func(t *testing.T) {
		err := r.RegisterTable(NewTableDefinition("x", "", "", nil))
		assert.ErrorContains(t, err, "empty table")
	})
}

func TestRegistryTemplates(t *testing.T) {
	newReg := func(t *testing.T) *Registry {
		t.Helper()
		r := NewRegistry()
		require.NoError(t, r.RegisterTable(NewTableDefinition("w", "dbo", "wholesalers", []string{"category_id"})))
		require.NoError(t, r.RegisterTable(NewTableDefinition("pc", "dbo", "product_categories", []string{"category_id"})))
		return r
	}

	on := queryir.NewGroup(queryir.And,
		queryir.ColumnCondition{Left: "w.category_id", Op: queryir.OpEq, Right: "pc.category_id"},
	)

	t.Run("register and fetch", func(t *testing.T) {
		r := newReg(t)
		tpl := JoinTemplate{
			From: queryir.TableRef{Table: "wholesalers", Alias: "w"},
			Joins: []queryir.JoinClause{
				{Kind: queryir.InnerJoin, Table: "product_categories", Alias: "pc", On: on},
			},
		}
		require.NoError(t, r.RegisterTemplate("listing", tpl))

		got, ok := r.Template("listing")
		require.True(t, ok)
		assert.Equal(t, "w", got.From.Alias)
		assert.Equal(t, []string{"listing"}, r.TemplateNames())
	})

	t.Run("schema-qualified table name accepted", func(t *testing.T) {
		r := newReg(t)
		tpl := JoinTemplate{From: queryir.TableRef{Table: "dbo.wholesalers", Alias: "w"}}
		assert.NoError(t, r.RegisterTemplate("qualified", tpl))
	})

	t.Run("unknown alias rejected", func(t *testing.T) {
		r := newReg(t)
		tpl := JoinTemplate{From: queryir.TableRef{Table: "orders", Alias: "o"}}
		assert.ErrorContains(t, r.RegisterTemplate("bad", tpl), "unknown alias")
	})

	t.Run("table mismatch rejected", func(t *testing.T) {
		r := newReg(t)
		tpl := JoinTemplate{From: queryir.TableRef{Table: "product_categories", Alias: "w"}}
		assert.ErrorContains(t, r.RegisterTemplate("bad", tpl), "binds alias")
	})

	t.Run("join without alias rejected", func(t *testing.T) {
		r := newReg(t)
		tpl := JoinTemplate{
			From:  queryir.TableRef{Table: "wholesalers", Alias: "w"},
			Joins: []queryir.JoinClause{{Kind: queryir.InnerJoin, Table: "product_categories", On: on}},
		}
		assert.ErrorContains(t, r.RegisterTemplate("bad", tpl), "no alias")
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		r := newReg(t)
		tpl := JoinTemplate{From: queryir.TableRef{Table: "wholesalers", Alias: "w"}}
		require.NoError(t, r.RegisterTemplate("dup", tpl))
		assert.ErrorContains(t, r.RegisterTemplate("dup", tpl), "registered twice")
	})
}
