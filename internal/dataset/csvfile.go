package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Example is one row of a pattern file: the pattern columns followed by the
// target.
type Example struct {
	Key     string
	Pattern []float64
	Target  float64
}

// ErrShortRow indicates a row without at least one pattern column and a target.
var ErrShortRow = errors.New("dataset: row needs a pattern and a target")

// StreamFile streams examples from the CSV file at path in row order. Every
// row of a file must have the same number of columns.
func StreamFile(ctx context.Context, path string) (<-chan Example, <-chan error) {
	out := make(chan Example)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		f, err := os.Open(path)
		if err != nil {
			errCh <- errors.Wrapf(err, "open %s", path)
			return
		}
		defer f.Close()

		r := csv.NewReader(bufio.NewReader(f))
		r.Comment = '#'
		r.TrimLeadingSpace = true
		r.ReuseRecord = true

		for {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errCh <- errors.Wrapf(err, "read %s", path)
				return
			}
			line, _ := r.FieldPos(0)
			example, err := parseRow(record)
			if err != nil {
				errCh <- errors.Wrapf(err, "%s:%d", path, line)
				return
			}
			example.Key = fmt.Sprintf("%s:%d", path, line)

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- example:
			}
		}
	}()

	return out, errCh
}

func parseRow(record []string) (Example, error) {
	if len(record) < 2 {
		return Example{}, ErrShortRow
	}
	values := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Example{}, errors.Wrapf(err, "column %d", i+1)
		}
		values[i] = v
	}
	last := len(values) - 1
	return Example{Pattern: values[:last:last], Target: values[last]}, nil
}
