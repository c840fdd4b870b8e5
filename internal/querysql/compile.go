package querysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
)

// Options select how the FROM clause is resolved.
type Options struct {
	// Template names a preregistered join template. When set, the
	// payload's from and joins are ignored entirely; only its filters,
	// sorting, and pagination apply.
	Template string

	// FixedFrom pins the base table server-side. The payload's from is
	// ignored but its joins are still honored (and validated).
	FixedFrom *queryir.TableRef
}

// Compiled is the result of a successful compilation.
type Compiled struct {
	// SQL is the complete statement text with @pN placeholders and
	// whitespace normalized to single spaces.
	SQL string `json:"sql"`

	// Params maps placeholder names (without the @ prefix) to values.
	// Every name referenced in SQL has an entry here and vice versa.
	Params map[string]any `json:"params"`
}

// paramContext assigns parameter names within one compile call. The
// counter is shared across all ON clauses and the WHERE tree so names
// never collide within one statement. It is local state, never global:
// numbering matches the depth-first left-to-right traversal order and is
// reproducible across runs.
type paramContext struct {
	n      int
	params map[string]any
}

func newParamContext() *paramContext {
	return &paramContext{params: make(map[string]any)}
}

// next registers a value and returns its placeholder ("@p0", "@p1", ...).
func (p *paramContext) next(value any) string {
	name := fmt.Sprintf("p%d", p.n)
	p.n++
	p.params[name] = value
	return "@" + name
}

// compileContext carries the per-call state threaded through rendering.
type compileContext struct {
	registry *schema.Registry
	params   *paramContext

	// aliases maps each alias that participates in this query (FROM plus
	// every join) to its registry definition.
	aliases map[string]schema.TableDefinition

	// hasJoins controls the unqualified-column ambiguity rule.
	hasJoins bool
}

var (
	// "expr AS name" - the alias must be a plain identifier.
	selectAsRe = regexp.MustCompile(`^(.+?)\s+(?i:AS)\s+([A-Za-z_][A-Za-z0-9_]*)\s*$`)

	// "FN(arg)" aggregate wrappers.
	aggregateRe = regexp.MustCompile(`^(?i:(COUNT|SUM|AVG|MIN|MAX))\s*\(\s*(.*?)\s*\)$`)
)

// Compile validates a query description against the registry and renders
// parameterized SQL. All validation failures abort compilation with a
// CompileError; no partial SQL is ever returned.
func Compile(desc *queryir.QueryDescription, registry *schema.Registry, opts Options) (Compiled, error) {
	if desc == nil {
		return Compiled{}, errMissingClause("query description")
	}
	if registry == nil {
		return Compiled{}, fmt.Errorf("nil registry")
	}
	if err := queryir.ValidateDescription(desc); err != nil {
		return Compiled{}, errUnsupportedNode(err.Error())
	}

	// Step 1: resolve FROM and the join set, by trust priority.
	var (
		from  queryir.TableRef
		joins []queryir.JoinClause
	)
	switch {
	case opts.Template != "":
		tpl, ok := registry.Template(opts.Template)
		if !ok {
			return Compiled{}, errUnknownTemplate(opts.Template)
		}
		from, joins = tpl.From, tpl.Joins
	case opts.FixedFrom != nil:
		from, joins = *opts.FixedFrom, desc.Joins
	default:
		if desc.From == nil {
			return Compiled{}, errMissingClause("FROM")
		}
		from, joins = *desc.From, desc.Joins
	}

	// Step 2: the FROM alias/table pair must match the registry binding.
	fromDef, err := resolveBinding(registry, from.Alias, from.Table)
	if err != nil {
		return Compiled{}, err
	}

	ctx := &compileContext{
		registry: registry,
		params:   newParamContext(),
		aliases:  map[string]schema.TableDefinition{from.Alias: fromDef},
		hasJoins: len(joins) > 0,
	}

	// Joins without an alias cannot be whitelisted; detect that before
	// select validation so the error names the real problem.
	for _, join := range joins {
		if join.Alias == "" {
			return Compiled{}, errAnonymousJoin(join.Table)
		}
		def, err := resolveBinding(registry, join.Alias, join.Table)
		if err != nil {
			return Compiled{}, err
		}
		ctx.aliases[join.Alias] = def
	}

	// Step 3: validate SELECT against the allow-lists.
	if len(desc.Select) == 0 {
		return Compiled{}, errMissingClause("SELECT")
	}
	selectExprs := make([]string, len(desc.Select))
	for i, expr := range desc.Select {
		normalized := strings.Join(strings.Fields(expr), " ")
		if err := ctx.checkSelectExpr(normalized); err != nil {
			return Compiled{}, err
		}
		selectExprs[i] = normalized
	}

	// Step 4: render JOIN clauses. ON trees share the parameter counter
	// with WHERE and are numbered first, matching statement order.
	joinSQL := make([]string, len(joins))
	for i, join := range joins {
		rendered, err := ctx.renderJoin(join)
		if err != nil {
			return Compiled{}, err
		}
		joinSQL[i] = rendered
	}

	// Steps 5-6: render WHERE.
	var whereSQL string
	if !desc.Where.Empty() {
		whereSQL, err = ctx.renderNode(desc.Where)
		if err != nil {
			return Compiled{}, err
		}
	}

	// ORDER BY keys route through the same allow-list checks as SELECT.
	orderSQL := make([]string, len(desc.OrderBy))
	for i, key := range desc.OrderBy {
		if err := ctx.checkColumnRef(key.Column, false); err != nil {
			return Compiled{}, err
		}
		orderSQL[i] = fmt.Sprintf("%s %s", key.Column, key.Direction)
	}

	// Step 7: assemble.
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selectExprs, ", "))
	b.WriteString(" FROM ")
	b.WriteString(fromDef.Qualified())
	b.WriteString(" ")
	b.WriteString(from.Alias)
	for _, j := range joinSQL {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if whereSQL != "" {
		b.WriteString(" WHERE ")
		b.WriteString(whereSQL)
	}
	if len(orderSQL) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orderSQL, ", "))
	}
	if page := renderPagination(desc.Limit, desc.Offset); page != "" {
		b.WriteString(" ")
		b.WriteString(page)
	}

	// Whitespace is normalized to single spaces for stable comparisons.
	// Values never appear in the SQL text, so collapsing is safe.
	sql := strings.Join(strings.Fields(b.String()), " ")

	return Compiled{SQL: sql, Params: ctx.params.params}, nil
}

// resolveBinding checks an alias/table pair against the registry. The
// supplied table may be the bare or schema-qualified name; the rendered
// identifier always comes from the registry.
func resolveBinding(registry *schema.Registry, alias, table string) (schema.TableDefinition, error) {
	if alias == "" {
		return schema.TableDefinition{}, errMissingClause("table alias")
	}
	def, ok := registry.Lookup(alias)
	if !ok {
		return schema.TableDefinition{}, errUnknownAlias(alias)
	}
	if table != def.Table && table != def.Qualified() {
		return schema.TableDefinition{}, errAliasTableMismatch(alias, table, def.Table)
	}
	return def, nil
}

// checkSelectExpr validates one SELECT expression. "expr AS name" forms
// are destructured first; aggregate wrappers and wildcards pass through
// with their argument identifier still checked.
func (c *compileContext) checkSelectExpr(expr string) error {
	if expr == "" {
		return errMissingClause("SELECT expression")
	}
	base := expr
	if m := selectAsRe.FindStringSubmatch(expr); m != nil {
		base = strings.TrimSpace(m[1])
	}
	if m := aggregateRe.FindStringSubmatch(base); m != nil {
		arg := m[2]
		if arg == "*" || arg == "" {
			return nil
		}
		return c.checkColumnRef(arg, true)
	}
	if base == "*" {
		return nil
	}
	return c.checkColumnRef(base, true)
}

// checkColumnRef validates a column reference against the query's alias
// set and the registry allow-lists.
//
// Unqualified names are rejected whenever the query has joins (they are
// ambiguous); in single-table queries they pass through, and the database
// rejects genuinely invalid bare names at execution time.
func (c *compileContext) checkColumnRef(ref string, allowWildcard bool) error {
	alias, column := queryir.SplitColumn(ref)
	if alias == "" {
		if c.hasJoins {
			return errAmbiguousColumn(column)
		}
		return nil
	}
	def, ok := c.aliases[alias]
	if !ok {
		return errUnknownAlias(alias)
	}
	if column == "*" {
		if allowWildcard {
			return nil
		}
		return errUnknownColumn(alias, column)
	}
	if !def.HasColumn(column) {
		return errUnknownColumn(alias, column)
	}
	return nil
}

// renderJoin renders one JOIN clause including its ON tree.
func (c *compileContext) renderJoin(join queryir.JoinClause) (string, error) {
	kind := join.Kind
	if kind == "" {
		kind = queryir.InnerJoin
	}
	if join.On.Empty() {
		return "", errMissingClause(fmt.Sprintf("ON for join %s", join.Alias))
	}
	onSQL, err := c.renderNode(join.On)
	if err != nil {
		return "", err
	}
	def := c.aliases[join.Alias]
	return fmt.Sprintf("%s JOIN %s %s ON %s", kind, def.Qualified(), join.Alias, onSQL), nil
}

// renderNode renders a condition tree node. The type switch is exhaustive
// over the sealed Node variants; anything else is a grammar violation.
func (c *compileContext) renderNode(n queryir.Node) (string, error) {
	switch node := n.(type) {
	case queryir.Condition:
		return c.renderCondition(node)
	case *queryir.Condition:
		return c.renderCondition(*node)
	case queryir.ColumnCondition:
		return c.renderColumnCondition(node)
	case *queryir.ColumnCondition:
		return c.renderColumnCondition(*node)
	case queryir.Group:
		return c.renderGroup(node)
	case *queryir.Group:
		return c.renderGroup(*node)
	default:
		return "", errUnsupportedNode(fmt.Sprintf("unknown condition node type %T", n))
	}
}

// renderCondition renders a column-vs-value leaf, moving every value into
// the parameter map.
func (c *compileContext) renderCondition(cond queryir.Condition) (string, error) {
	if !cond.Op.Valid() {
		return "", errUnsupportedNode(fmt.Sprintf("unknown operator %q", cond.Op))
	}
	if err := c.checkColumnRef(cond.Column, false); err != nil {
		return "", err
	}

	switch {
	case !cond.Op.TakesValue():
		if cond.Value != nil {
			return "", errUnsupportedNode(fmt.Sprintf("%s condition on %q must not carry a value", cond.Op, cond.Column))
		}
		return fmt.Sprintf("%s %s", cond.Column, cond.Op), nil

	case cond.Op.TakesList():
		values, ok := queryir.ValueList(cond.Value)
		if !ok {
			return "", errUnsupportedNode(fmt.Sprintf("%s condition on %q requires a value list, got %T", cond.Op, cond.Column, cond.Value))
		}
		// SQL forbids empty parenthesized lists; an empty IN / NOT IN
		// matches nothing, so render a tautologically false predicate
		// and register no parameters.
		if len(values) == 0 {
			return "1=0", nil
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = c.params.next(v)
		}
		return fmt.Sprintf("%s %s (%s)", cond.Column, cond.Op, strings.Join(placeholders, ", ")), nil

	default:
		return fmt.Sprintf("%s %s %s", cond.Column, cond.Op, c.params.next(cond.Value)), nil
	}
}

// renderColumnCondition renders a column-vs-column leaf. It consumes no
// parameters.
func (c *compileContext) renderColumnCondition(cond queryir.ColumnCondition) (string, error) {
	if !cond.Op.Valid() || !cond.Op.TakesValue() || cond.Op.TakesList() {
		return "", errUnsupportedNode(fmt.Sprintf("operator %q cannot compare two columns", cond.Op))
	}
	if err := c.checkColumnRef(cond.Left, false); err != nil {
		return "", err
	}
	if err := c.checkColumnRef(cond.Right, false); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", cond.Left, cond.Op, cond.Right), nil
}

// renderGroup renders children joined by the group's combinator, wrapped
// in exactly one parenthesis pair. Empty groups render to nothing.
func (c *compileContext) renderGroup(g queryir.Group) (string, error) {
	if !g.Combinator.Valid() {
		return "", errUnsupportedNode(fmt.Sprintf("unknown combinator %q", g.Combinator))
	}
	parts := make([]string, 0, len(g.Children))
	for _, child := range g.Children {
		rendered, err := c.renderNode(child)
		if err != nil {
			return "", err
		}
		if rendered == "" {
			continue
		}
		parts = append(parts, rendered)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " "+string(g.Combinator)+" ") + ")", nil
}

// renderPagination renders the OFFSET/FETCH clause. A positive limit
// produces the full form (offset defaults to 0); an offset without a
// limit produces the skip-N-take-rest form.
func renderPagination(limit, offset *int) string {
	off := 0
	if offset != nil {
		off = *offset
	}
	if limit != nil && *limit > 0 {
		return fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", off, *limit)
	}
	if off > 0 {
		return fmt.Sprintf("OFFSET %d ROWS", off)
	}
	return ""
}
