package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Write encodes t as CSV. encoding is one of EncodingUTF8, EncodingUTF8BOM or
// EncodingCP949; empty means UTF-8.
func Write(w io.Writer, t domain.RawTable, encoding string) error {
	switch encoding {
	case "", EncodingUTF8:
		return writeCSV(w, t)
	case EncodingUTF8BOM:
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("write bom: %w", err)
		}
		return writeCSV(w, t)
	case EncodingCP949:
		tw := transform.NewWriter(w, korean.EUCKR.NewEncoder())
		if err := writeCSV(tw, t); err != nil {
			return err
		}
		if err := tw.Close(); err != nil {
			return fmt.Errorf("encode cp949: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// WriteFile creates path and writes t into it.
func WriteFile(path string, t domain.RawTable, encoding string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, t, encoding); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeCSV(w io.Writer, t domain.RawTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
