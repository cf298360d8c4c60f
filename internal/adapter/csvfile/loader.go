package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"golang.org/x/text/encoding/korean"
)

// Encoding names recorded on a decoded table and accepted by Write.
const (
	EncodingUTF8BOM  = "utf-8-sig"
	EncodingUTF8     = "utf-8"
	EncodingCP949    = "cp949"
	EncodingReplaced = "utf-8-replace"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type decoder struct {
	name   string
	decode func([]byte) (string, bool)
}

// decoders are tried in order. The first one that yields valid text which
// also parses as CSV wins.
var decoders = []decoder{
	{EncodingUTF8BOM, decodeUTF8BOM},
	{EncodingUTF8, decodeUTF8},
	{EncodingCP949, decodeCP949},
}

// Loader reads source CSV files from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a file loader.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadTable reads path and decodes it into a raw table. Every failure is a
// *domain.LoadError.
func (l *Loader) LoadTable(ctx context.Context, path string) (domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, &domain.LoadError{Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RawTable{}, &domain.LoadError{Path: path, Err: err}
	}

	t, err := Decode(path, data)
	if err != nil {
		return domain.RawTable{}, err
	}
	if t.Encoding == EncodingReplaced {
		l.logger.Warn("table decoded with replacement characters", "path", path)
	} else {
		l.logger.Debug("table decoded", "path", path, "encoding", t.Encoding, "rows", len(t.Rows))
	}
	return t, nil
}

// Decode parses file content. It tries UTF-8 with BOM, plain UTF-8 and
// CP949 in that order, then a lossy UTF-8 pass with invalid bytes replaced.
func Decode(path string, data []byte) (domain.RawTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.RawTable{}, &domain.LoadError{Path: path, Err: domain.ErrNoHeader}
	}

	for _, d := range decoders {
		text, ok := d.decode(data)
		if !ok {
			continue
		}
		t, err := parse(text)
		if err != nil {
			continue
		}
		return finish(path, d.name, t)
	}

	text := strings.ToValidUTF8(string(bytes.TrimPrefix(data, utf8BOM)), string(utf8.RuneError))
	t, err := parse(text)
	if err != nil {
		return domain.RawTable{}, &domain.LoadError{
			Path:     path,
			Encoding: EncodingReplaced,
			Err:      fmt.Errorf("%w: %w", domain.ErrUndecodable, err),
		}
	}
	return finish(path, EncodingReplaced, t)
}

func finish(path, encoding string, t domain.RawTable) (domain.RawTable, error) {
	t.Path = path
	t.Encoding = encoding
	if len(t.Rows) == 0 {
		return domain.RawTable{}, &domain.LoadError{Path: path, Encoding: encoding, Err: domain.ErrNoRows}
	}
	return t, nil
}

func decodeUTF8BOM(data []byte) (string, bool) {
	if !bytes.HasPrefix(data, utf8BOM) {
		return "", false
	}
	return decodeUTF8(data[len(utf8BOM):])
}

func decodeUTF8(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

// decodeCP949 decodes with the EUC-KR table, which covers the CP949 range the
// source files use. The decoder substitutes U+FFFD for bad input instead of
// failing, so any replacement in the output counts as a failed attempt.
func decodeCP949(data []byte) (string, bool) {
	out, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// parse reads comma-delimited text with a header row. Short rows are padded
// to the header width; rows wider than the header are a parse failure.
func parse(text string) (domain.RawTable, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.RawTable{}, domain.ErrNoHeader
		}
		return domain.RawTable{}, fmt.Errorf("read header: %w", err)
	}

	t := domain.RawTable{Header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("read row: %w", err)
		}
		if len(rec) > len(header) {
			line, _ := r.FieldPos(0)
			return domain.RawTable{}, fmt.Errorf("line %d: %d fields, header has %d", line, len(rec), len(header))
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}
