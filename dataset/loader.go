package dataset

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/matpipe/matpipe/chem"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

// splitDoc is the split orientation written by pandas' DataFrame.to_json.
type splitDoc struct {
	Columns []string            `json:"columns"`
	Index   []json.RawMessage   `json:"index"`
	Data    [][]json.RawMessage `json:"data"`
}

// Load reads a dataset file. ".gz" and ".xz" suffixes select decompression.
func Load(path string) (*Frame, error) {
	logger := log.GetLoggerWithName("dataset.loader")
	start := time.Now()

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
		r = xr
	}

	f, err := Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	logger.Info("dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, path,
		log.SamplesKey, f.Len(),
		log.FeaturesKey, f.Width(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return f, nil
}

// Decode reads a split-orientation JSON document. Each field's kind is
// inferred from its first non-null cell: numbers become float fields (nulls
// become NaN), strings string fields, "@class": "Structure" objects
// structures, and anything else is kept as raw JSON.
func Decode(r io.Reader) (*Frame, error) {
	var doc splitDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode dataset")
	}
	for i, row := range doc.Data {
		if len(row) != len(doc.Columns) {
			return nil, errors.NewDimensionError(fmt.Sprintf("Decode: row %d", i), len(doc.Columns), len(row), 1)
		}
	}
	if len(doc.Index) > 0 && len(doc.Index) != len(doc.Data) {
		return nil, errors.NewDimensionError("Decode: index", len(doc.Data), len(doc.Index), 0)
	}

	cols := make([]Column, len(doc.Columns))
	for j, name := range doc.Columns {
		cells := make([]json.RawMessage, len(doc.Data))
		for i, row := range doc.Data {
			cells[i] = row[j]
		}
		c, err := decodeColumn(name, cells)
		if err != nil {
			return nil, err
		}
		cols[j] = c
	}
	return NewFrame(cols...)
}

func isNull(cell json.RawMessage) bool {
	t := bytes.TrimSpace(cell)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func inferKind(cells []json.RawMessage) Kind {
	for _, c := range cells {
		if isNull(c) {
			continue
		}
		t := bytes.TrimSpace(c)
		switch t[0] {
		case '"':
			return KindString
		case '{':
			var probe struct {
				Class string `json:"@class"`
			}
			if json.Unmarshal(t, &probe) == nil && probe.Class == "Structure" {
				return KindStructure
			}
			return KindRaw
		case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			return KindFloat
		default:
			return KindRaw
		}
	}
	return KindFloat
}

func decodeColumn(name string, cells []json.RawMessage) (Column, error) {
	switch inferKind(cells) {
	case KindFloat:
		values := make([]float64, len(cells))
		nulls := 0
		for i, c := range cells {
			if isNull(c) {
				values[i] = math.NaN()
				nulls++
				continue
			}
			if err := json.Unmarshal(c, &values[i]); err != nil {
				return nil, errors.Wrapf(errors.NewValueError("field "+name, "non-numeric cell in numeric field"), "row %d", i)
			}
		}
		if nulls > 0 {
			errors.Warn(errors.NewDataConversionWarning(name, "null", "float64",
				fmt.Sprintf("%d missing values replaced by NaN", nulls)))
		}
		return NewSeries(name, values), nil
	case KindString:
		values := make([]string, len(cells))
		nulls := 0
		for i, c := range cells {
			if isNull(c) {
				nulls++
				continue
			}
			if err := json.Unmarshal(c, &values[i]); err != nil {
				return nil, errors.Wrapf(errors.NewValueError("field "+name, "non-string cell in text field"), "row %d", i)
			}
		}
		if nulls > 0 {
			errors.Warn(errors.NewDataConversionWarning(name, "null", "string",
				fmt.Sprintf("%d missing values replaced by empty strings", nulls)))
		}
		return NewSeries(name, values), nil
	case KindStructure:
		values := make([]*chem.Structure, len(cells))
		for i, c := range cells {
			if isNull(c) {
				return nil, errors.Wrapf(errors.NewValueError("field "+name, "missing structure"), "row %d", i)
			}
			s, err := chem.DecodeStructure(c)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s row %d", name, i)
			}
			values[i] = s
		}
		return NewSeries(name, values), nil
	default:
		values := make([]json.RawMessage, len(cells))
		for i, c := range cells {
			values[i] = append(json.RawMessage(nil), c...)
		}
		return NewSeries(name, values), nil
	}
}
