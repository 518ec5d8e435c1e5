// Package framelog captures raw camera payloads to disk so a decode
// failure in the field can be replayed on a desk. Records are
// length-framed CBOR after a fixed magic header.
package framelog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const magic = "FOLLOWRAW1"

// Record is one captured sample.
type Record struct {
	Key       string `cbor:"key"`
	Timestamp int64  `cbor:"ts"` // unix nanoseconds
	Payload   []byte `cbor:"payload"`
}

// Writer appends records to a capture file.
type Writer struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// NewWriter creates a timestamped capture file inside dir.
func NewWriter(dir, prefix string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := filepath.Join(dir, fmt.Sprintf("%s_%s.bin",
		time.Now().Format("20060102_150405"), prefix))
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(f, 1024*1024)
	if _, err := w.WriteString(magic); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: w}, nil
}

// Record appends one sample. Safe for concurrent use.
func (wr *Writer) Record(key string, payload []byte) error {
	data, err := cbor.Marshal(Record{
		Key:       key,
		Timestamp: time.Now().UnixNano(),
		Payload:   payload,
	})
	if err != nil {
		return err
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()
	if wr.w == nil {
		return errors.New("framelog: writer is closed")
	}

	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(data)))
	if _, err := wr.w.Write(size[:]); err != nil {
		return err
	}
	if _, err := wr.w.Write(data); err != nil {
		return err
	}
	return wr.w.Flush()
}

// Path returns the capture file's path.
func (wr *Writer) Path() string { return wr.f.Name() }

// Close flushes and closes the file.
func (wr *Writer) Close() error {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if wr.w == nil {
		return nil
	}
	if err := wr.w.Flush(); err != nil {
		_ = wr.f.Close()
		wr.w = nil
		return err
	}
	err := wr.f.Close()
	wr.w = nil
	return err
}

// Reader iterates over a capture file.
type Reader struct {
	r *bufio.Reader
	c io.Closer
}

// Open opens a capture file and validates its magic header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := bufio.NewReader(f)
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("framelog: read magic: %w", err)
	}
	if string(header) != magic {
		_ = f.Close()
		return nil, fmt.Errorf("framelog: unexpected magic %q", header)
	}
	return &Reader{r: r, c: f}, nil
}

// Next returns the next record, or io.EOF at the end of the file.
func (rd *Reader) Next() (Record, error) {
	var size [4]byte
	if _, err := io.ReadFull(rd.r, size[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, io.EOF
		}
		return Record{}, err
	}
	n := binary.LittleEndian.Uint32(size[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(rd.r, data); err != nil {
		return Record{}, fmt.Errorf("framelog: short record: %w", err)
	}
	var rec Record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("framelog: decode record: %w", err)
	}
	return rec, nil
}

// Close closes the underlying file.
func (rd *Reader) Close() error { return rd.c.Close() }
