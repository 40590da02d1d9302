package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mholt/archiver"
	"github.com/spf13/cast"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

// DefaultInferenceRows is the number of rows read to infer column types.
const DefaultInferenceRows = 100

type Options struct {
	// Delimiter defaults to a comma.
	Delimiter rune
	// ColumnNames name the columns of files without a header row.
	ColumnNames []string
	// Header means the first row holds column names. With ColumnNames set it's skipped.
	Header bool
	// InferenceRows is the number of rows column types are inferred from, DefaultInferenceRows if zero.
	// A negative value reads the whole file. Values later in the file which don't parse as
	// the inferred type fail the read, e.g. 1.5 in a column whose sampled rows are all integers.
	InferenceRows int
}

// Table is a delimited text file with an inferred schema.
// Files ending with .gz are decompressed on the fly.
type Table struct {
	path    string
	options Options
	schema  execution.Schema
}

func Creator(ctx context.Context, path string, options Options) (*Table, error) {
	if options.Delimiter == 0 {
		options.Delimiter = ','
	}
	if len(options.ColumnNames) == 0 {
		options.Header = true
	}
	if options.InferenceRows == 0 {
		options.InferenceRows = DefaultInferenceRows
	}

	file, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := newDecoder(file, options.Delimiter)
	names := options.ColumnNames
	if options.Header {
		row, err := decoder.Read()
		if err != nil {
			return nil, fmt.Errorf("couldn't decode csv header row: %w", err)
		}
		if len(names) == 0 {
			names = make([]string, len(row))
			for i := range row {
				names[i] = strings.TrimSpace(row[i])
			}
			if len(names) > 0 && names[len(names)-1] == "" {
				names = names[:len(names)-1]
			}
		}
	}

	types := make([]chunkflow.Type, len(names))
	for i := 0; options.InferenceRows < 0 || i < options.InferenceRows; i++ {
		row, err := decoder.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("couldn't decode row: %w", err)
		}
		row, err = trimRow(row, len(names))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		for j := range row {
			types[j] = chunkflow.TypeSum(types[j], inferType(row[j]))
		}
	}

	fields := make([]execution.Field, len(names))
	for i := range names {
		t := types[i]
		if t.TypeID == chunkflow.TypeIDNull {
			t = chunkflow.String
		}
		fields[i] = execution.Field{
			Name: names[i],
			Type: t,
		}
	}

	return &Table{
		path:    path,
		options: options,
		schema:  execution.Schema{Fields: fields},
	}, nil
}

func inferType(str string) chunkflow.Type {
	if str == "" {
		return chunkflow.Null
	}
	if _, err := strconv.ParseInt(str, 10, 64); err == nil {
		return chunkflow.Int
	}
	if _, err := strconv.ParseFloat(str, 64); err == nil {
		return chunkflow.Float
	}
	if _, err := strconv.ParseBool(str); err == nil {
		return chunkflow.Boolean
	}
	if _, err := cast.ToTimeE(str); err == nil {
		return chunkflow.Time
	}
	return chunkflow.String
}

func parseValue(t chunkflow.Type, str string) (chunkflow.Value, error) {
	if str == "" {
		return chunkflow.NewNull(), nil
	}
	switch t.TypeID {
	case chunkflow.TypeIDInt:
		integer, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return chunkflow.ZeroValue, err
		}
		return chunkflow.NewInt(int(integer)), nil
	case chunkflow.TypeIDFloat:
		float, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return chunkflow.ZeroValue, err
		}
		return chunkflow.NewFloat(float), nil
	case chunkflow.TypeIDBoolean:
		b, err := strconv.ParseBool(str)
		if err != nil {
			return chunkflow.ZeroValue, err
		}
		return chunkflow.NewBoolean(b), nil
	case chunkflow.TypeIDTime:
		parsed, err := cast.ToTimeE(str)
		if err != nil {
			return chunkflow.ZeroValue, err
		}
		return chunkflow.NewTime(parsed), nil
	default:
		return chunkflow.NewString(str), nil
	}
}

// trimRow drops the trailing empty field of lines ending with a delimiter, like in TPC-H .tbl files.
func trimRow(row []string, columns int) ([]string, error) {
	if len(row) == columns+1 && row[columns] == "" {
		row = row[:columns]
	}
	if len(row) != columns {
		return nil, fmt.Errorf("expected %d fields, got %d", columns, len(row))
	}
	return row, nil
}

func (t *Table) Schema() execution.Schema {
	return t.schema
}

// Open starts reading the file, projected to the given columns. No columns means all of them.
func (t *Table) Open(ctx context.Context, columns []string) (*DatasourceExecuting, error) {
	indices := make([]int, 0, len(columns))
	fields := make([]execution.Field, 0, len(columns))
	if len(columns) == 0 {
		for i := range t.schema.Fields {
			indices = append(indices, i)
		}
		fields = append(fields, t.schema.Fields...)
	}
	for _, name := range columns {
		index := t.schema.Index(name)
		if index == -1 {
			return nil, fmt.Errorf("couldn't find column %s in %s: %w", name, t.path, execution.ErrColumnNotFound)
		}
		indices = append(indices, index)
		fields = append(fields, t.schema.Fields[index])
	}

	file, err := openFile(t.path)
	if err != nil {
		return nil, err
	}
	decoder := newDecoder(file, t.options.Delimiter)
	if t.options.Header {
		if _, err := decoder.Read(); err != nil {
			file.Close()
			return nil, fmt.Errorf("couldn't decode csv header row: %w", err)
		}
	}

	return &DatasourceExecuting{
		file:       file,
		decoder:    decoder,
		allColumns: len(t.schema.Fields),
		indices:    indices,
		schema:     execution.Schema{Fields: fields},
	}, nil
}

func newDecoder(r io.Reader, delimiter rune) *csv.Reader {
	decoder := csv.NewReader(bufio.NewReaderSize(r, 4096*1024))
	decoder.Comma = delimiter
	decoder.FieldsPerRecord = -1
	decoder.LazyQuotes = true
	decoder.ReuseRecord = true
	return decoder
}

// openFile opens the file, decompressing it if it's gzipped.
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open file: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	pr, pw := io.Pipe()
	go func() {
		err := archiver.NewGz().Decompress(f, pw)
		f.Close()
		pw.CloseWithError(err)
	}()
	return pr, nil
}
