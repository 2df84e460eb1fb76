package sdl

// ColBuilder builds a ColumnDef fluently for readability at call sites;
// emitters still take plain ColumnDef values, so the "buffer too small"
// failure mode from a C-style fixed buffer never arises here — emitters
// write to a string, not a fixed sink.
type ColBuilder struct {
	col ColumnDef
}

// Col starts building a column named name.
func Col(name string) *ColBuilder {
	return &ColBuilder{col: ColumnDef{Name: name}}
}

func (b *ColBuilder) Integer() *ColBuilder { b.col.Flags |= Integer; return b }
func (b *ColBuilder) TextType() *ColBuilder { b.col.Flags |= Text; return b }
func (b *ColBuilder) BlobType() *ColBuilder { b.col.Flags |= Blob; return b }
func (b *ColBuilder) RealType() *ColBuilder { b.col.Flags |= Real; return b }

func (b *ColBuilder) PrimaryKey() *ColBuilder    { b.col.Flags |= PrimaryKey; return b }
func (b *ColBuilder) NotNull() *ColBuilder       { b.col.Flags |= NotNull; return b }
func (b *ColBuilder) Unique() *ColBuilder        { b.col.Flags |= Unique; return b }
func (b *ColBuilder) AutoIncrement() *ColBuilder { b.col.Flags |= AutoIncrement; return b }

// ReferencesTable marks the column as a foreign key into table.
func (b *ColBuilder) ReferencesTable(table string) *ColBuilder {
	b.col.Flags |= References
	b.col.RefTable = table
	return b
}

func (b *ColBuilder) CascadeDelete() *ColBuilder { b.col.Flags |= CascadeDelete; return b }
func (b *ColBuilder) Deferred() *ColBuilder      { b.col.Flags |= Deferred; return b }

func (b *ColBuilder) DefaultNullValue() *ColBuilder {
	b.col.Flags |= HasDefault
	b.col.Default = DefaultValue{Kind: DefaultNull}
	return b
}

func (b *ColBuilder) DefaultIntValue(v int64) *ColBuilder {
	b.col.Flags |= HasDefault
	b.col.Default = DefaultValue{Kind: DefaultInt, Int: v}
	return b
}

func (b *ColBuilder) DefaultExprValue(expr string) *ColBuilder {
	b.col.Flags |= HasDefault
	b.col.Default = DefaultValue{Kind: DefaultExpr, Expr: expr}
	return b
}

// Build returns the finished ColumnDef.
func (b *ColBuilder) Build() ColumnDef { return b.col }

// Table builds a TableDef from a name and builders.
func Table(name string, cols ...*ColBuilder) TableDef {
	t := TableDef{Name: name}
	for _, c := range cols {
		t.Columns = append(t.Columns, c.Build())
	}
	return t
}

// WithIndex appends an index to t and returns t, for chained construction.
func WithIndex(t TableDef, name string, unique bool, columns ...string) TableDef {
	t.Indexes = append(t.Indexes, IndexDef{Name: name, Unique: unique, Columns: columns})
	return t
}
