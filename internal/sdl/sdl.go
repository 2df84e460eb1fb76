// Package sdl is the schema description language: declarative ColumnDef,
// IndexDef, and TableDef values, plus emitters that turn them into CREATE
// TABLE / CREATE INDEX / prepared-statement-template text.
//
// Grounded on the Column/Index/Table shape of
// other_examples/…lockplane…database-interface.go (generator half only —
// kvidx's schema is fixed in code, there is no introspection side), with
// DDL phrasing lifted from ry256-slb/internal/db/migrations.go's own
// REFERENCES/ON DELETE CASCADE/DEFERRABLE fragments.
package sdl

import "fmt"

// ColumnFlag is one bit of a column's type/constraint tag set.
type ColumnFlag uint32

const (
	// Base types — exactly one of these four must be set (I1).
	Integer ColumnFlag = 1 << iota
	Text
	Blob
	Real

	// Constraints.
	PrimaryKey
	NotNull
	Unique
	AutoIncrement
	References
	CascadeDelete
	Deferred
	HasDefault
)

const baseTypeMask = Integer | Text | Blob | Real

// DefaultKind tags the shape of ColumnDef.Default.
type DefaultKind int

const (
	DefaultNone DefaultKind = iota
	DefaultNull
	DefaultInt
	DefaultReal
	DefaultText
	DefaultExpr
)

// DefaultValue is a tagged default value for a column.
type DefaultValue struct {
	Kind DefaultKind
	Int  int64
	Real float64
	Text string
	Expr string
}

// ColumnDef describes one column.
type ColumnDef struct {
	Name     string
	Flags    ColumnFlag
	RefTable string
	Default  DefaultValue
}

// Has reports whether all bits in flag are set.
func (c ColumnDef) Has(flag ColumnFlag) bool {
	return c.Flags&flag == flag
}

// IndexDef describes one index.
type IndexDef struct {
	Name    string
	Unique  bool
	Columns []string
}

// TableDef describes one table.
type TableDef struct {
	Name          string
	Columns       []ColumnDef
	Indexes       []IndexDef
	WithoutRowID  bool
}

// ValidateColumn checks I1–I4 without emitting anything.
func ValidateColumn(c ColumnDef) error {
	if c.Name == "" {
		return errf("column has empty name")
	}
	baseBits := c.Flags & baseTypeMask
	if baseBits == 0 || (baseBits&(baseBits-1)) != 0 {
		return errf("column %q must have exactly one base type, got %d", c.Name, popcount(uint32(baseBits)))
	}
	if c.Has(AutoIncrement) && !(c.Has(PrimaryKey) && c.Has(Integer)) {
		// I2: AUTOINCREMENT ⇒ PRIMARY_KEY and INTEGER base type.
		return errf("column %q: AUTOINCREMENT requires PRIMARY_KEY and INTEGER", c.Name)
	}
	if (c.Has(CascadeDelete) || c.Has(Deferred)) && !c.Has(References) {
		// I3: CASCADE_DELETE or DEFERRED ⇒ REFERENCES.
		return errf("column %q: CASCADE_DELETE/DEFERRED requires REFERENCES", c.Name)
	}
	if c.Has(References) && c.RefTable == "" {
		// I3: REFERENCES ⇒ non-empty refTable.
		return errf("column %q: REFERENCES requires a non-empty refTable", c.Name)
	}
	if c.Default.Kind == DefaultNull && c.Has(NotNull) {
		// I4: Default NULL ⇒ not NOT_NULL.
		return errf("column %q: DEFAULT NULL conflicts with NOT NULL", c.Name)
	}
	return nil
}

// ValidateTable checks I5 (and transitively every column via
// ValidateColumn) without emitting anything.
func ValidateTable(t TableDef) error {
	if t.Name == "" {
		return errf("table has empty name")
	}
	if len(t.Columns) == 0 {
		return errf("table %q has zero columns", t.Name)
	}
	colNames := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if err := ValidateColumn(c); err != nil {
			return err
		}
		colNames[c.Name] = true
	}
	for _, idx := range t.Indexes {
		for _, col := range idx.Columns {
			if !colNames[col] {
				return errf("table %q: index references unknown column %q", t.Name, col)
			}
		}
	}
	return nil
}

func popcount(x uint32) int {
	n := 0
	for x != 0 {
		n++
		x &= x - 1
	}
	return n
}

func errf(format string, args ...any) error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

// Error is the emission/validation failure type for this package.
type Error struct{ msg string }

func (e *Error) Error() string { return e.msg }
