package sdl

import (
	"fmt"
	"strings"
)

// StatementKind selects which templated statement emitStatement produces.
type StatementKind int

const (
	InsertAll StatementKind = iota
	SelectByID
	SelectAll
	UpdateByID
	DeleteByID
	Count
	MaxID
	MinID
)

// EmitColumnType concatenates, in fixed order, the column's base type,
// PRIMARY KEY, AUTOINCREMENT, NOT NULL, UNIQUE, REFERENCES <table>, ON
// DELETE CASCADE, DEFERRABLE INITIALLY DEFERRED, and DEFAULT <literal>.
func EmitColumnType(c ColumnDef) (string, error) {
	if err := ValidateColumn(c); err != nil {
		return "", err
	}

	var parts []string
	switch {
	case c.Has(Integer):
		parts = append(parts, "INTEGER")
	case c.Has(Text):
		parts = append(parts, "TEXT")
	case c.Has(Blob):
		parts = append(parts, "BLOB")
	case c.Has(Real):
		parts = append(parts, "REAL")
	}
	if c.Has(PrimaryKey) {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.Has(AutoIncrement) {
		parts = append(parts, "AUTOINCREMENT")
	}
	if c.Has(NotNull) {
		parts = append(parts, "NOT NULL")
	}
	if c.Has(Unique) {
		parts = append(parts, "UNIQUE")
	}
	if c.Has(References) {
		parts = append(parts, fmt.Sprintf("REFERENCES %s", c.RefTable))
	}
	if c.Has(CascadeDelete) {
		parts = append(parts, "ON DELETE CASCADE")
	}
	if c.Has(Deferred) {
		parts = append(parts, "DEFERRABLE INITIALLY DEFERRED")
	}
	if lit, ok := defaultLiteral(c.Default); ok {
		parts = append(parts, "DEFAULT "+lit)
	}

	return strings.Join(parts, " "), nil
}

func defaultLiteral(d DefaultValue) (string, bool) {
	switch d.Kind {
	case DefaultNone:
		return "", false
	case DefaultNull:
		return "NULL", true
	case DefaultInt:
		return fmt.Sprintf("%d", d.Int), true
	case DefaultReal:
		return fmt.Sprintf("%v", d.Real), true
	case DefaultText:
		return "'" + strings.ReplaceAll(d.Text, "'", "''") + "'", true
	case DefaultExpr:
		return d.Expr, true
	default:
		return "", false
	}
}

// EmitCreateTable emits CREATE TABLE IF NOT EXISTS <name> (<cols>) [WITHOUT
// ROWID].
func EmitCreateTable(t TableDef) (string, error) {
	if err := ValidateTable(t); err != nil {
		return "", err
	}

	specs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		colType, err := EmitColumnType(c)
		if err != nil {
			return "", err
		}
		specs = append(specs, c.Name+" "+colType)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(specs, ", "))
	if t.WithoutRowID {
		b.WriteString(" WITHOUT ROWID")
	}
	return b.String(), nil
}

// EmitCreateIndexes emits one CREATE [UNIQUE] INDEX IF NOT EXISTS statement
// per IndexDef. Auto-generated names follow <table>_<col1>_<col2>…_idx with
// any character outside [A-Za-z0-9_] mapped to '_'.
func EmitCreateIndexes(t TableDef) ([]string, error) {
	if err := ValidateTable(t); err != nil {
		return nil, err
	}

	stmts := make([]string, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		name := idx.Name
		if name == "" {
			name = autoIndexName(t.Name, idx.Columns)
		}
		uniq := ""
		if idx.Unique {
			uniq = "UNIQUE "
		}
		stmts = append(stmts, fmt.Sprintf(
			"CREATE %sINDEX IF NOT EXISTS %s ON %s(%s)",
			uniq, name, t.Name, strings.Join(idx.Columns, ", "),
		))
	}
	return stmts, nil
}

func autoIndexName(table string, cols []string) string {
	parts := append([]string{table}, cols...)
	name := strings.Join(parts, "_") + "_idx"
	return sanitizeIdent(name)
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// EmitStatement produces one of the templated prepared-statement bodies
// for table t. INSERT uses positional placeholders equal to the column
// count; UPDATE sets every non-primary-key column and filters on id.
func EmitStatement(kind StatementKind, t TableDef) (string, error) {
	if err := ValidateTable(t); err != nil {
		return "", err
	}

	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}

	pk := primaryKeyColumn(t)

	switch kind {
	case InsertAll:
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(names, ", "), placeholders), nil
	case SelectByID:
		return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", strings.Join(names, ", "), t.Name, pk), nil
	case SelectAll:
		return fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), t.Name), nil
	case UpdateByID:
		var sets []string
		for _, c := range t.Columns {
			if c.Name == pk {
				continue
			}
			sets = append(sets, c.Name+" = ?")
		}
		return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", t.Name, strings.Join(sets, ", "), pk), nil
	case DeleteByID:
		return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.Name, pk), nil
	case Count:
		return fmt.Sprintf("SELECT COUNT(*) FROM %s", t.Name), nil
	case MaxID:
		return fmt.Sprintf("SELECT MAX(%s) FROM %s", pk, t.Name), nil
	case MinID:
		return fmt.Sprintf("SELECT MIN(%s) FROM %s", pk, t.Name), nil
	default:
		return "", errf("unknown statement kind %d", kind)
	}
}

func primaryKeyColumn(t TableDef) string {
	for _, c := range t.Columns {
		if c.Has(PrimaryKey) {
			return c.Name
		}
	}
	return "id"
}
