package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/0xrawsec/golang-evtx/evtx"

	"github.com/yildizm/glancelog/internal/common"
)

// evtxMagic opens every Windows event log file header
var evtxMagic = []byte("ElfFile\x00")

// evtxHeaderSize is the encoded size of the file header fields
const evtxHeaderSize = 128

var (
	evtxComputerPath     = evtx.Path("/Event/System/Computer")
	evtxProviderPath     = evtx.Path("/Event/System/Provider/Name")
	evtxTimePath         = evtx.Path("/Event/System/TimeCreated/SystemTime")
	evtxEventIDPath      = evtx.Path("/Event/System/EventID")
	evtxEventIDValuePath = evtx.Path("/Event/System/EventID/Value")
	evtxRecordIDPath     = evtx.Path("/Event/System/EventRecordID")
	evtxLevelPath        = evtx.Path("/Event/System/Level")
	evtxEventDataPath    = evtx.Path("/Event/EventData")
	evtxUserDataPath     = evtx.Path("/Event/UserData")
)

var evtxLevels = map[int64]string{
	1: "Critical",
	2: "Error",
	3: "Warning",
	4: "Information",
	5: "Verbose",
}

// IsEVTX reports whether header starts with the event log signature
func IsEVTX(header []byte) bool {
	return bytes.HasPrefix(header, evtxMagic)
}

// EVTXDialect decodes Windows binary event logs. It is not line oriented:
// text detection never selects it and Decode owns the whole file.
type EVTXDialect struct {
	baseDialect
}

// NewEVTXDialect creates the binary event log dialect
func NewEVTXDialect(now func() time.Time) *EVTXDialect {
	return &EVTXDialect{baseDialect{format: common.FormatEVTX, now: now}}
}

func (d *EVTXDialect) CanParse(string) bool {
	return false
}

func (d *EVTXDialect) TryParse(string) (*common.LogEntry, bool) {
	return nil, false
}

// Decode reads every record of the file at path. A file the decoder rejects
// fails as a whole with a CorruptBinaryError; records without a creation time
// are dropped.
func (d *EVTXDialect) Decode(path string) (entries []*common.LogEntry, err error) {
	defer func() {
		var corrupt *common.CorruptBinaryError
		if errors.As(err, &corrupt) && corrupt.Path == "" {
			corrupt.Path = path
		}
	}()

	// #nosec G304 - reading user supplied log files is the point
	file, err := os.Open(path)
	if err != nil {
		return nil, &common.IOError{Op: "open", Path: path, Err: err}
	}
	defer func() {
		_ = file.Close()
	}()

	if err := checkEVTXHeader(file); err != nil {
		return nil, err
	}

	var ef evtx.File
	err = decodeGuard(0, func() error {
		var openErr error
		if ef, openErr = evtx.New(file); openErr != nil {
			return openErr
		}
		verifyErr := ef.Header.Verify()
		if errors.Is(verifyErr, evtx.ErrDirtyFile) {
			return ef.Header.Repair(file)
		}
		return verifyErr
	})
	if err != nil {
		return nil, err
	}

	for i := 0; i < int(ef.Header.ChunkCount); i++ {
		offset := int64(ef.Header.ChunkDataOffset) + int64(evtx.ChunkSize)*int64(i)
		err := decodeGuard(offset, func() error {
			return d.decodeChunk(&ef, offset, func(entry *common.LogEntry) {
				entries = append(entries, entry)
			})
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LineNumber < entries[j].LineNumber
	})
	return entries, nil
}

// checkEVTXHeader rejects files too short to hold a header or missing the
// signature before the decoder gets to see them
func checkEVTXHeader(r io.ReadSeeker) error {
	header := make([]byte, evtxHeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil {
		return &common.CorruptBinaryError{Offset: int64(n), Err: fmt.Errorf("truncated file header: %w", err)}
	}
	if !IsEVTX(header) {
		return &common.CorruptBinaryError{Offset: 0, Err: errors.New("missing event log signature")}
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return &common.IOError{Op: "seek", Err: err}
	}
	return nil
}

// decodeChunk reads the chunk at offset and hands every convertible record to emit
func (d *EVTXDialect) decodeChunk(ef *evtx.File, offset int64, emit func(*common.LogEntry)) error {
	raw, err := ef.FetchRawChunk(offset)
	if err != nil {
		return fmt.Errorf("truncated chunk: %w", err)
	}
	if err := raw.Header.Validate(); err != nil {
		return err
	}

	chunk, err := ef.FetchChunk(offset)
	if err != nil {
		return err
	}
	for _, eo := range chunk.EventOffsets {
		event, err := chunk.ParseEvent(int64(eo)).GoEvtxMap(&chunk)
		if err != nil {
			continue
		}
		if entry, ok := d.convert(event); ok {
			emit(entry)
		}
	}
	return nil
}

// decodeGuard runs fn and turns both its error and any panic raised inside
// the decoder into a CorruptBinaryError at offset
func decodeGuard(offset int64, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &common.CorruptBinaryError{Offset: offset, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()
	if err := fn(); err != nil {
		return &common.CorruptBinaryError{Offset: offset, Err: err}
	}
	return nil
}

func (d *EVTXDialect) convert(event *evtx.GoEvtxMap) (*common.LogEntry, bool) {
	ts, err := event.GetTime(&evtxTimePath)
	if err != nil {
		return nil, false
	}

	computer, err := event.GetString(&evtxComputerPath)
	if err != nil {
		computer = "Unknown"
	}
	provider, err := event.GetString(&evtxProviderPath)
	if err != nil {
		provider = "Unknown"
	}

	eventID, err := event.GetInt(&evtxEventIDPath)
	if err != nil {
		eventID, _ = event.GetInt(&evtxEventIDValuePath)
	}
	recordID, _ := event.GetInt(&evtxRecordIDPath)

	level := "Unknown"
	if n, err := event.GetInt(&evtxLevelPath); err == nil {
		if name, ok := evtxLevels[n]; ok {
			level = name
		}
	}

	msg := fmt.Sprintf("[%s] EventID %d", level, eventID)
	if data := eventData(event); data != "" {
		msg += " " + data
	}

	return &common.LogEntry{
		Timestamp:  ts.Local(),
		Host:       computer,
		Daemon:     provider,
		Message:    msg,
		Format:     d.format,
		LineNumber: int(recordID),
	}, true
}

// eventData flattens EventData, or UserData when EventData is empty, into k=v pairs
func eventData(event *evtx.GoEvtxMap) string {
	for _, path := range []evtx.GoEvtxPath{evtxEventDataPath, evtxUserDataPath} {
		value, err := event.Get(&path)
		if err != nil || value == nil {
			continue
		}
		if s := flatten(*value); s != "" {
			return s
		}
	}
	return ""
}

func flatten(value interface{}) string {
	var fields map[string]interface{}
	switch v := value.(type) {
	case evtx.GoEvtxMap:
		fields = v
	case map[string]interface{}:
		fields = v
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if strings.HasPrefix(k, "xmlns") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(pairs, " ")
}
