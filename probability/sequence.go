package probability

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bcdannyboy/barrierq/models"
	"github.com/xhhuango/json"
	"gonum.org/v1/gonum/mat"
)

// SequenceProvider supplies a precomputed table of standard normal draws,
// rows are scenarios and columns are time steps. Low-discrepancy sequences
// are generated elsewhere and handed in through this interface.
type SequenceProvider interface {
	Sequence() (mat.Matrix, error)
}

// TableSequence serves an in-memory table.
type TableSequence struct {
	Table mat.Matrix
}

func NewTableSequence(rows [][]float64) (TableSequence, error) {
	m, err := denseFromRows(rows)
	if err != nil {
		return TableSequence{}, err
	}
	return TableSequence{Table: m}, nil
}

func (t TableSequence) Sequence() (mat.Matrix, error) {
	if t.Table == nil {
		return nil, fmt.Errorf("%w: empty sequence table", models.ErrConfiguration)
	}
	return t.Table, nil
}

// FileSequence reads a table from a .csv or .json file on every call. JSON
// files hold an array of rows.
type FileSequence struct {
	Path string
}

func (f FileSequence) Sequence() (mat.Matrix, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows [][]float64
	switch ext := strings.ToLower(filepath.Ext(f.Path)); ext {
	case ".json":
		rows, err = readJSONRows(file)
	case ".csv", ".txt":
		rows, err = readCSVRows(file)
	default:
		return nil, fmt.Errorf("%w: unsupported sequence file extension %q", models.ErrConfiguration, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading sequence file %s: %w", f.Path, err)
	}
	return denseFromRows(rows)
}

func readJSONRows(r io.Reader) ([][]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func readCSVRows(r io.Reader) ([][]float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, len(records))
	for i, record := range records {
		rows[i] = make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
			rows[i][j] = v
		}
	}
	return rows, nil
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty sequence table", models.ErrConfiguration)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: sequence row %d has %d columns, want %d", models.ErrShapeMismatch, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
