package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/dpsim/internal/dynamo"
)

// ErrBadTable reports a trajectory table that cannot be read.
var ErrBadTable = errors.New("storage: malformed trajectory table")

var columns = []string{"x1", "y1", "x2", "y2"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteTrajectoryCSV writes the x1,y1,x2,y2 table with the shortest
// representation that parses back to the same float64.
func WriteTrajectoryCSV(w io.Writer, tr dynamo.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for i, s := range tr {
		if !s.IsValid() {
			return fmt.Errorf("%w: sample %d is not finite", ErrBadTable, i)
		}
		row[0] = formatFloat(s.X1)
		row[1] = formatFloat(s.Y1)
		row[2] = formatFloat(s.X2)
		row[3] = formatFloat(s.Y2)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadTrajectoryCSV reads any table with x1, y1, x2 and y2 columns. Column
// order is free and other columns, such as an index, are ignored.
func ReadTrajectoryCSV(r io.Reader) (dynamo.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty input", ErrBadTable)
		}
		return nil, err
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.ToLower(strings.TrimSpace(name))] = i
	}

	idx := make([]int, len(columns))
	for i, name := range columns {
		p, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadTable, name)
		}
		idx[i] = p
	}

	tr := make(dynamo.Trajectory, 0)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		var v [4]float64
		for i, p := range idx {
			if p >= len(record) {
				return nil, fmt.Errorf("%w: line %d has %d fields", ErrBadTable, line, len(record))
			}
			v[i], err = strconv.ParseFloat(strings.TrimSpace(record[p]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %v", ErrBadTable, line, columns[i], err)
			}
		}

		s := dynamo.Sample{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: line %d is not finite", ErrBadTable, line)
		}
		tr = append(tr, s)
	}

	return tr, nil
}

// ExportData is the column-oriented JSON form of a stored run.
type ExportData struct {
	Run *RunMetadata `json:"run"`
	X1  []float64    `json:"x1"`
	Y1  []float64    `json:"y1"`
	X2  []float64    `json:"x2"`
	Y2  []float64    `json:"y2"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, tr dynamo.Trajectory) error {
	data := ExportData{
		Run: meta,
		X1:  make([]float64, len(tr)),
		Y1:  make([]float64, len(tr)),
		X2:  make([]float64, len(tr)),
		Y2:  make([]float64, len(tr)),
	}
	for i, s := range tr {
		data.X1[i], data.Y1[i], data.X2[i], data.Y2[i] = s.X1, s.Y1, s.X2, s.Y2
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
