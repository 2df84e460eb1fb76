package txstate

import "testing"

func TestMachine_HappyPath(t *testing.T) {
	m := NewMachine()
	if !m.IsIdle() {
		t.Fatal("expected initial state Idle")
	}
	if err := m.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !m.IsActive() {
		t.Fatal("expected Active after Begin")
	}
	if err := m.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !m.IsIdle() {
		t.Fatal("expected Idle after Commit")
	}
}

func TestMachine_NestedBeginFails(t *testing.T) {
	m := NewMachine()
	if err := m.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := m.Begin(); err == nil {
		t.Fatal("expected nested Begin to fail")
	}
}

func TestMachine_AbortFromActive(t *testing.T) {
	m := NewMachine()
	_ = m.Begin()
	if err := m.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if !m.IsIdle() {
		t.Fatal("expected Idle after Abort")
	}
}

func TestMachine_FailThenAbortRecovers(t *testing.T) {
	m := NewMachine()
	_ = m.Begin()
	if err := m.Fail(); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if m.State() != Failed {
		t.Fatalf("expected Failed, got %s", m.State())
	}
	if err := m.Commit(); err == nil {
		t.Fatal("expected commit of Failed transaction to be refused")
	}
	if err := m.Abort(); err != nil {
		t.Fatalf("Abort from Failed: %v", err)
	}
	if !m.IsIdle() {
		t.Fatal("expected Idle after Abort from Failed")
	}
}

func TestMachine_CommitWithoutBeginFails(t *testing.T) {
	m := NewMachine()
	if err := m.Commit(); err == nil {
		t.Fatal("expected Commit without Begin to fail")
	}
}
