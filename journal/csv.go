package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// CSVSink appends ledger rows to a CSV file. The file is opened and closed
// on every append so a crash never leaves a buffered row behind.
type CSVSink struct {
	path string
}

func NewCSV(path string) (*CSVSink, error) {
	if path == "" {
		return nil, errors.New("csv ledger: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("csv ledger: %w", err)
		}
	}
	return &CSVSink{path: path}, nil
}

func (j *CSVSink) Path() string { return j.path }

func (j *CSVSink) Append(r Row) error {
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(Header); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Write(r.Record()); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (j *CSVSink) Close() error { return nil }

// ReadCSV loads a ledger file. A missing file is an empty ledger.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	var rows []Row
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger %s: %w", path, err)
		}
		line++
		if line == 1 && rec[0] == Header[0] {
			continue
		}

		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("read ledger %s line %d: %w", path, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(rec []string) (Row, error) {
	ts, err := parseUnixSeconds(rec[0])
	if err != nil {
		return Row{}, fmt.Errorf("timestamp: %w", err)
	}
	value, err := decimal.NewFromString(rec[5])
	if err != nil {
		return Row{}, fmt.Errorf("portfolio_value: %w", err)
	}
	return Row{
		Time:           ts,
		Action:         rec[1],
		Symbol:         rec[2],
		Reason:         rec[3],
		PnL:            rec[4],
		PortfolioValue: value,
	}, nil
}
