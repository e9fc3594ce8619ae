package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// StepKind identifies one clause of a Plan.
type StepKind int

const (
	StepJoin StepKind = iota
	StepWhere
	StepContains
	StepGroup
	StepHaving
)

func (k StepKind) String() string {
	switch k {
	case StepJoin:
		return "JOIN"
	case StepWhere:
		return "WHERE"
	case StepContains:
		return "CONTAINS"
	case StepGroup:
		return "GROUP BY"
	case StepHaving:
		return "HAVING"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// Step is a single join, filter or grouping clause.
//
// For StepContains, SQL names the column and Args holds the needle; the
// dialect-specific expression is chosen when the plan is applied.
type Step struct {
	Kind StepKind
	SQL  string
	Args []any
}

// Plan is a deterministic, inspectable description of a report query. It
// selects the columns of Table only, so a plan always yields report rows.
type Plan struct {
	Table string
	Model any
	Steps []Step
}

func newPlan(table string, model any) *Plan {
	return &Plan{Table: table, Model: model}
}

func (p *Plan) add(kind StepKind, sql string, args ...any) {
	p.Steps = append(p.Steps, Step{Kind: kind, SQL: sql, Args: args})
}

// Has reports whether the plan contains a step of the given kind whose SQL
// mentions fragment.
func (p *Plan) Has(kind StepKind, fragment string) bool {
	for _, s := range p.Steps {
		if s.Kind == kind && strings.Contains(s.SQL, fragment) {
			return true
		}
	}
	return false
}

// Count returns the number of steps of the given kind.
func (p *Plan) Count(kind StepKind) int {
	n := 0
	for _, s := range p.Steps {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// Apply composes the plan onto tx. Repeated Where and Having steps combine
// with AND.
func (p *Plan) Apply(tx *gorm.DB) *gorm.DB {
	q := tx.Model(p.Model).Select(p.Table + ".*")
	dialect := tx.Dialector.Name()
	for _, s := range p.Steps {
		switch s.Kind {
		case StepJoin:
			q = q.Joins(s.SQL)
		case StepWhere:
			q = q.Where(s.SQL, s.Args...)
		case StepContains:
			q = q.Where(containsExpr(dialect, s.SQL), s.Args...)
		case StepGroup:
			q = q.Group(s.SQL)
		case StepHaving:
			q = q.Having(s.SQL, s.Args...)
		}
	}
	return q
}

// String renders the plan one step per line, for logs and test failures.
func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s", p.Table)
	for _, s := range p.Steps {
		fmt.Fprintf(&b, "\n%s %s", s.Kind, s.SQL)
		if len(s.Args) > 0 {
			fmt.Fprintf(&b, " %v", s.Args)
		}
	}
	return b.String()
}

// containsExpr is a case-sensitive substring test. LIKE is avoided because
// SQLite folds ASCII case and because '%' and '_' in the needle would be
// treated as wildcards.
func containsExpr(dialect, column string) string {
	switch dialect {
	case "postgres":
		return "strpos(" + column + ", ?) > 0"
	case "sqlite":
		return "instr(" + column + ", ?) > 0"
	default:
		return "position(? in " + column + ") > 0"
	}
}
