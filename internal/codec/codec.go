// Package codec implements kvidx's three export/import formats — binary
// (the canonical, compact wire format), JSON, and CSV — against the
// kvstore.ExportWriter/ImportReader contract, so internal/sqliteadapter's
// ExportData/ImportData never need to know which format a caller chose.
//
// Grounded on ry256-slb/internal/db/types.go's custom MarshalJSON
// (time formatting at the edge, not inside the domain type) for the
// JSON writer, and on stdlib encoding/csv/encoding/binary for the other
// two — no example repo ships its own binary or CSV framing, so these
// lean directly on the standard library encoders rather than reinventing
// field quoting or length-prefixing.
package codec

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

// Binary format constants (spec.md §4.5): an 8-byte magic, a 4-byte
// format version, 4 reserved bytes, and an 8-byte entry count header,
// followed by one fixed-then-variable framed entry per record.
var binaryMagic = [8]byte{'K', 'V', 'I', 'D', 'X', 0, 0, 0}

const binaryFormatVersion uint32 = 1

// NewWriter returns the kvstore.ExportWriter for format ("binary", "json",
// or "csv"), writing to w.
func NewWriter(w io.Writer, format string) (kvstore.ExportWriter, error) {
	switch format {
	case "binary":
		return &binaryWriter{w: bufio.NewWriter(w)}, nil
	case "json":
		return &jsonWriter{w: bufio.NewWriter(w)}, nil
	case "csv":
		return newCSVWriter(w), nil
	default:
		return nil, fmt.Errorf("codec: unknown export format %q", format)
	}
}

// NewReader returns the kvstore.ImportReader for format, reading from r.
func NewReader(r io.Reader, format string) (kvstore.ImportReader, error) {
	switch format {
	case "binary":
		return &binaryReader{r: bufio.NewReader(r)}, nil
	case "json":
		return newJSONReader(r)
	case "csv":
		return newCSVReader(r)
	default:
		return nil, fmt.Errorf("codec: unknown import format %q", format)
	}
}

// --- binary ---

type binaryWriter struct {
	w       *bufio.Writer
	wrote   uint64
	entries uint64
}

func (bw *binaryWriter) WriteHeader(totalHint uint64, includeMeta bool) error {
	if _, err := bw.w.Write(binaryMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw.w, binary.LittleEndian, binaryFormatVersion); err != nil {
		return err
	}
	if err := binary.Write(bw.w, binary.LittleEndian, uint32(0)); err != nil { // reserved
		return err
	}
	bw.entries = totalHint
	return binary.Write(bw.w, binary.LittleEndian, totalHint)
}

func (bw *binaryWriter) WriteEntry(r kvstore.Record) error {
	fields := []uint64{r.ID, r.Term, r.Cmd, uint64(len(r.Data))}
	for _, f := range fields {
		if err := binary.Write(bw.w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	if _, err := bw.w.Write(r.Data); err != nil {
		return err
	}
	bw.wrote++
	return nil
}

func (bw *binaryWriter) Close() error { return bw.w.Flush() }

type binaryReader struct {
	r         *bufio.Reader
	remaining uint64
	started   bool
}

func (br *binaryReader) readHeader() error {
	var magic [8]byte
	if _, err := io.ReadFull(br.r, magic[:]); err != nil {
		return fmt.Errorf("codec: read binary header: %w", err)
	}
	if magic != binaryMagic {
		return fmt.Errorf("codec: bad binary magic %q", magic)
	}
	var version, reserved uint32
	if err := binary.Read(br.r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if err := binary.Read(br.r, binary.LittleEndian, &reserved); err != nil {
		return err
	}
	if version != binaryFormatVersion {
		return fmt.Errorf("codec: unsupported binary format version %d", version)
	}
	return binary.Read(br.r, binary.LittleEndian, &br.remaining)
}

func (br *binaryReader) ReadEntry() (kvstore.Record, bool, error) {
	if !br.started {
		br.started = true
		if err := br.readHeader(); err != nil {
			return kvstore.Record{}, false, err
		}
	}
	if br.remaining == 0 {
		return kvstore.Record{}, false, nil
	}
	var id, term, cmd, dataLen uint64
	for _, f := range []*uint64{&id, &term, &cmd, &dataLen} {
		if err := binary.Read(br.r, binary.LittleEndian, f); err != nil {
			return kvstore.Record{}, false, err
		}
	}
	data := make([]byte, dataLen)
	if _, err := io.ReadFull(br.r, data); err != nil {
		return kvstore.Record{}, false, err
	}
	br.remaining--
	return kvstore.Record{ID: id, Term: term, Cmd: cmd, Data: data}, true, nil
}

// --- json ---

// jsonEntry is encoded by encoding/json's struct reflection; the explicit
// json tags fix each field's wire name, and the output follows the
// struct's declaration order.
type jsonEntry struct {
	ID   uint64 `json:"id"`
	Term uint64 `json:"term"`
	Cmd  uint64 `json:"cmd"`
	Data []byte `json:"data"` // base64, via encoding/json's []byte handling
}

type jsonEnvelope struct {
	Format  string      `json:"format"`
	Version int         `json:"version"`
	Entries []jsonEntry `json:"entries"`
}

type jsonWriter struct {
	w       *bufio.Writer
	entries []jsonEntry
}

func (jw *jsonWriter) WriteHeader(totalHint uint64, includeMeta bool) error {
	jw.entries = make([]jsonEntry, 0, totalHint)
	return nil
}

func (jw *jsonWriter) WriteEntry(r kvstore.Record) error {
	jw.entries = append(jw.entries, jsonEntry{ID: r.ID, Term: r.Term, Cmd: r.Cmd, Data: r.Data})
	return nil
}

func (jw *jsonWriter) Close() error {
	env := jsonEnvelope{Format: "kvidx-json", Version: 1, Entries: jw.entries}
	enc := json.NewEncoder(jw.w)
	if err := enc.Encode(env); err != nil {
		return err
	}
	return jw.w.Flush()
}

type jsonReader struct {
	entries []jsonEntry
	pos     int
}

func newJSONReader(r io.Reader) (*jsonReader, error) {
	var env jsonEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("codec: decode json import: %w", err)
	}
	return &jsonReader{entries: env.Entries}, nil
}

func (jr *jsonReader) ReadEntry() (kvstore.Record, bool, error) {
	if jr.pos >= len(jr.entries) {
		return kvstore.Record{}, false, nil
	}
	e := jr.entries[jr.pos]
	jr.pos++
	return kvstore.Record{ID: e.ID, Term: e.Term, Cmd: e.Cmd, Data: e.Data}, true, nil
}

// --- csv ---

var csvHeader = []string{"id", "term", "cmd", "data"}

type csvWriterT struct {
	w *csv.Writer
}

func newCSVWriter(w io.Writer) *csvWriterT { return &csvWriterT{w: csv.NewWriter(w)} }

func (cw *csvWriterT) WriteHeader(totalHint uint64, includeMeta bool) error {
	return cw.w.Write(csvHeader)
}

func (cw *csvWriterT) WriteEntry(r kvstore.Record) error {
	return cw.w.Write([]string{
		strconv.FormatUint(r.ID, 10),
		strconv.FormatUint(r.Term, 10),
		strconv.FormatUint(r.Cmd, 10),
		string(r.Data),
	})
}

func (cw *csvWriterT) Close() error {
	cw.w.Flush()
	return cw.w.Error()
}

type csvReaderT struct {
	rows [][]string
	pos  int
}

func newCSVReader(r io.Reader) (*csvReaderT, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("codec: read csv import: %w", err)
	}
	if len(rows) > 0 {
		rows = rows[1:] // drop header
	}
	return &csvReaderT{rows: rows}, nil
}

func (cr *csvReaderT) ReadEntry() (kvstore.Record, bool, error) {
	if cr.pos >= len(cr.rows) {
		return kvstore.Record{}, false, nil
	}
	row := cr.rows[cr.pos]
	cr.pos++
	id, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return kvstore.Record{}, false, fmt.Errorf("codec: csv row %d: bad id: %w", cr.pos, err)
	}
	term, err := strconv.ParseUint(row[1], 10, 64)
	if err != nil {
		return kvstore.Record{}, false, fmt.Errorf("codec: csv row %d: bad term: %w", cr.pos, err)
	}
	cmd, err := strconv.ParseUint(row[2], 10, 64)
	if err != nil {
		return kvstore.Record{}, false, fmt.Errorf("codec: csv row %d: bad cmd: %w", cr.pos, err)
	}
	return kvstore.Record{ID: id, Term: term, Cmd: cmd, Data: []byte(row[3])}, true, nil
}
