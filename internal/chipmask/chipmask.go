// Package chipmask parses the per-pixel enable mask from Ph2_ACF chip
// configuration text files (CMSIT_RD53_*.txt).
//
// The pixel section lists one block per column:
//
//	COL 000
//	ENABLE 1,1,1,0,...
//	HITBUS 0,0,...
//	INJEN 1,1,...
//	TDAC 7,8,...
//
// Only the ENABLE lines matter here. Values run over rows.
package chipmask

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

const (
	colPrefix    = "COL "
	enablePrefix = "ENABLE "
)

// Parse reads an enable mask for a rows x cols chip. Enabled pixels are 1
// and masked pixels 0. Columns that never appear stay masked.
func Parse(r io.Reader, rows, cols int) (*pixmap.Map, error) {
	m := pixmap.New(rows, cols)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	col := -1
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, colPrefix):
			col++
			if col >= cols {
				return nil, fmt.Errorf("line %d: column %d exceeds chip width %d", lineNo, col, cols)
			}
		case strings.HasPrefix(line, enablePrefix):
			if col < 0 {
				return nil, fmt.Errorf("line %d: ENABLE before any COL", lineNo)
			}
			fields := strings.Split(strings.TrimSpace(strings.TrimPrefix(line, enablePrefix)), ",")
			if len(fields) > rows {
				return nil, fmt.Errorf("line %d: %d values for column %d, chip has %d rows", lineNo, len(fields), col, rows)
			}
			for row, f := range fields {
				v, err := strconv.Atoi(strings.TrimSpace(f))
				if err != nil {
					return nil, fmt.Errorf("line %d: row %d: %w", lineNo, row, err)
				}
				m.Set(row, col, float64(v))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mask: %w", err)
	}
	return m, nil
}

// Load parses the mask file at path.
func Load(path string, rows, cols int) (*pixmap.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mask file: %w", err)
	}
	defer f.Close()

	m, err := Parse(f, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Write emits m as COL/ENABLE blocks that Parse reads back. Non-zero values
// are written as 1.
func Write(w io.Writer, m *pixmap.Map) error {
	rows, cols := m.Dims()
	bw := bufio.NewWriter(w)
	vals := make([]string, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			vals[r] = "0"
			if m.At(r, c) != 0 {
				vals[r] = "1"
			}
		}
		fmt.Fprintf(bw, "%s%03d\n%s%s\n", colPrefix, c, enablePrefix, strings.Join(vals, ","))
	}
	return bw.Flush()
}

// Save writes m to path with Write.
func Save(path string, m *pixmap.Map) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create mask file: %w", err)
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return fmt.Errorf("failed to write mask file: %w", err)
	}
	return f.Close()
}
