package isogrid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// ParseCSV reads line-delimited numeric text. Values may be separated by
// commas, semicolons or whitespace. A first line without any number is
// taken as a header and skipped; other bad tokens become NaN.
func ParseCSV(r io.Reader) ([]float64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []float64
	first := true
	for sc.Scan() {
		fields := strings.FieldsFunc(sc.Text(), isSeparator)
		if len(fields) == 0 {
			continue
		}
		if first {
			first = false
			if !anyNumber(fields) {
				continue
			}
		}
		for _, f := range fields {
			out = append(out, parseNumber(f))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return out, nil
}

func isSeparator(r rune) bool {
	return r == ',' || r == ';' || unicode.IsSpace(r)
}

func anyNumber(fields []string) bool {
	for _, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err == nil {
			return true
		}
	}
	return false
}
