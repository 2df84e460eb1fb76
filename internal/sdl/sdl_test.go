package sdl

import "testing"

func TestValidateColumn_I1(t *testing.T) {
	if err := ValidateColumn(ColumnDef{Name: "a", Flags: Integer}); err != nil {
		t.Errorf("unexpected error for single base type: %v", err)
	}
	if err := ValidateColumn(ColumnDef{Name: "a", Flags: 0}); err == nil {
		t.Error("expected error for zero base types")
	}
	if err := ValidateColumn(ColumnDef{Name: "a", Flags: Integer | Text}); err == nil {
		t.Error("expected error for two base types")
	}
}

func TestValidateColumn_I2(t *testing.T) {
	ok := ColumnDef{Name: "id", Flags: Integer | PrimaryKey | AutoIncrement}
	if err := ValidateColumn(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := ColumnDef{Name: "id", Flags: Integer | AutoIncrement}
	if err := ValidateColumn(bad); err == nil {
		t.Error("expected error: AUTOINCREMENT without PRIMARY_KEY")
	}
	bad2 := ColumnDef{Name: "id", Flags: Text | PrimaryKey | AutoIncrement}
	if err := ValidateColumn(bad2); err == nil {
		t.Error("expected error: AUTOINCREMENT on non-INTEGER")
	}
}

func TestValidateColumn_I3(t *testing.T) {
	bad := ColumnDef{Name: "uid", Flags: Integer | CascadeDelete}
	if err := ValidateColumn(bad); err == nil {
		t.Error("expected error: CASCADE_DELETE without REFERENCES")
	}
	bad2 := ColumnDef{Name: "uid", Flags: Integer | References}
	if err := ValidateColumn(bad2); err == nil {
		t.Error("expected error: REFERENCES without refTable")
	}
	ok := ColumnDef{Name: "uid", Flags: Integer | References | CascadeDelete, RefTable: "users"}
	if err := ValidateColumn(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateColumn_I4(t *testing.T) {
	bad := ColumnDef{Name: "x", Flags: Integer | NotNull, Default: DefaultValue{Kind: DefaultNull}}
	if err := ValidateColumn(bad); err == nil {
		t.Error("expected error: DEFAULT NULL conflicts with NOT NULL")
	}
	ok := ColumnDef{Name: "x", Flags: Integer, Default: DefaultValue{Kind: DefaultNull}}
	if err := ValidateColumn(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateTable_I5(t *testing.T) {
	if err := ValidateTable(TableDef{Name: "t"}); err == nil {
		t.Error("expected error: zero columns")
	}
	if err := ValidateTable(TableDef{Columns: []ColumnDef{{Name: "a", Flags: Integer}}}); err == nil {
		t.Error("expected error: empty table name")
	}
	bad := TableDef{
		Name:    "t",
		Columns: []ColumnDef{{Name: "a", Flags: Integer}},
		Indexes: []IndexDef{{Columns: []string{"missing"}}},
	}
	if err := ValidateTable(bad); err == nil {
		t.Error("expected error: index references unknown column")
	}
}

func TestLogTableInvariants_I6(t *testing.T) {
	// LOG's id column is the sole primary key and never NULL: model that
	// directly as an INTEGER PRIMARY KEY NOT NULL column and check it
	// validates.
	id := ColumnDef{Name: "id", Flags: Integer | PrimaryKey | NotNull}
	if err := ValidateColumn(id); err != nil {
		t.Errorf("unexpected error for LOG id column: %v", err)
	}
}
