package codec

import (
	"bytes"
	"testing"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

func roundTrip(t *testing.T, format string) {
	t.Helper()
	recs := []kvstore.Record{
		{ID: 1, Term: 1, Cmd: 1, Data: []byte("hello")},
		{ID: 2, Term: 5, Cmd: 0, Data: []byte{}},
		{ID: 1000000, Term: 9, Cmd: 3, Data: bytes.Repeat([]byte{0xAB}, 300)},
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, format)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteHeader(uint64(len(recs)), false); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	for _, r := range recs {
		if err := w.WriteEntry(r); err != nil {
			t.Fatalf("WriteEntry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(&buf, format)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	var got []kvstore.Record
	for {
		rec, ok, err := r.ReadEntry()
		if err != nil {
			t.Fatalf("ReadEntry: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, rec)
	}

	if len(got) != len(recs) {
		t.Fatalf("got %d entries, want %d", len(got), len(recs))
	}
	for i, want := range recs {
		if got[i].ID != want.ID || got[i].Term != want.Term || got[i].Cmd != want.Cmd || !bytes.Equal(got[i].Data, want.Data) {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], want)
		}
	}
}

func TestRoundTrip_Binary(t *testing.T) { roundTrip(t, "binary") }
func TestRoundTrip_JSON(t *testing.T)   { roundTrip(t, "json") }
func TestRoundTrip_CSV(t *testing.T)    { roundTrip(t, "csv") }

func TestBinary_BadMagic(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte("not a kvidx file at all....")), "binary")
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, _, err := r.ReadEntry(); err == nil {
		t.Fatal("expected error reading corrupt binary header")
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := NewWriter(&bytes.Buffer{}, "yaml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := NewReader(bytes.NewReader(nil), "yaml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestCSV_EmptyData(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, "csv")
	_ = w.WriteHeader(1, false)
	_ = w.WriteEntry(kvstore.Record{ID: 42, Term: 1, Cmd: 2, Data: []byte("a,b\n\"c\"")})
	_ = w.Close()

	r, err := NewReader(&buf, "csv")
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	rec, ok, err := r.ReadEntry()
	if err != nil || !ok {
		t.Fatalf("ReadEntry: rec=%v ok=%v err=%v", rec, ok, err)
	}
	if string(rec.Data) != "a,b\n\"c\"" {
		t.Errorf("got data %q", rec.Data)
	}
}
