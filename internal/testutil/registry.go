// Package testutil provides shared fixtures for tests across the module.
package testutil

import (
	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
)

// CatalogRegistry builds the wholesaler catalog registry used throughout
// the test suites: five tables and two named join templates. Panics on
// registration failure since the fixture is static.
func CatalogRegistry() *schema.Registry {
	r := schema.NewRegistry()

	tables := []schema.TableDefinition{
		schema.NewTableDefinition("w", "", "wholesalers", []string{
			"wholesaler_id", "name", "status", "category_id", "region", "created_at",
		}),
		schema.NewTableDefinition("pc", "", "product_categories", []string{
			"category_id", "name", "parent_id",
		}),
		schema.NewTableDefinition("wc", "", "wholesaler_categories", []string{
			"wholesaler_id", "category_id",
		}),
		schema.NewTableDefinition("pd", "", "product_definitions", []string{
			"product_id", "category_id", "name", "sku", "unit_price",
		}),
		schema.NewTableDefinition("wio", "", "wholesaler_item_offerings", []string{
			"offering_id", "wholesaler_id", "product_id", "price", "available",
		}),
	}
	for _, def := range tables {
		if err := r.RegisterTable(def); err != nil {
			panic(err)
		}
	}

	templates := map[string]schema.JoinTemplate{
		"wholesalers_with_categories": {
			From: queryir.TableRef{Table: "wholesalers", Alias: "w"},
			Joins: []queryir.JoinClause{{
				Kind:  queryir.InnerJoin,
				Table: "product_categories",
				Alias: "pc",
				On: queryir.NewGroup(queryir.And,
					queryir.ColumnCondition{Left: "w.category_id", Op: queryir.OpEq, Right: "pc.category_id"},
				),
			}},
		},
		"offerings_by_wholesaler": {
			From: queryir.TableRef{Table: "wholesaler_item_offerings", Alias: "wio"},
			Joins: []queryir.JoinClause{{
				Kind:  queryir.InnerJoin,
				Table: "wholesalers",
				Alias: "w",
				On: queryir.NewGroup(queryir.And,
					queryir.ColumnCondition{Left: "wio.wholesaler_id", Op: queryir.OpEq, Right: "w.wholesaler_id"},
				),
			}},
		},
	}
	for name, tpl := range templates {
		if err := r.RegisterTemplate(name, tpl); err != nil {
			panic(err)
		}
	}
	return r
}

// IntPtr returns a pointer to v, for QueryDescription limit/offset fields.
func IntPtr(v int) *int { return &v }
