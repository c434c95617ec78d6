// Package report reads seed files and writes the final mapping as CSV,
// translating between the on-disk absolute-hex-address format and the
// relative addresses the matcher operates on.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/binref/graphmat"
	"github.com/binref/graphmat/beliefprop"
)

// ReadSeeds parses a seed file: one "<lhs_abs_hex>, <rhs_abs_hex>" pair per
// line, blank lines ignored. Addresses are converted to relative addresses
// by subtracting lhsBase/rhsBase, and rejected if the resulting relative
// address falls outside [0, lhsTextSize) / [0, rhsTextSize).
func ReadSeeds(r io.Reader, lhsBase, rhsBase graphmat.Address, lhsTextSize, rhsTextSize int) ([]graphmat.Pair, error) {
	var seeds []graphmat.Pair

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		lhsHex, rhsHex, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("report: line %d: invalid seed %q, want \"lhs,rhs\"", line, text)
		}

		lhs, err := parseHexAddress(lhsHex)
		if err != nil {
			return nil, fmt.Errorf("report: line %d: %w", line, err)
		}
		rhs, err := parseHexAddress(rhsHex)
		if err != nil {
			return nil, fmt.Errorf("report: line %d: %w", line, err)
		}

		if lhs < lhsBase || rhs < rhsBase {
			return nil, fmt.Errorf("report: line %d: seed %q lies before its text section base", line, text)
		}

		relLhs, relRhs := lhs-lhsBase, rhs-rhsBase
		if relLhs >= graphmat.Address(lhsTextSize) || relRhs >= graphmat.Address(rhsTextSize) {
			return nil, fmt.Errorf("report: line %d: seed %q lies outside its text section", line, text)
		}

		seeds = append(seeds, graphmat.Pair{Lhs: relLhs, Rhs: relRhs})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("report: reading seeds: %w", err)
	}
	return seeds, nil
}

func parseHexAddress(field string) (graphmat.Address, error) {
	field = strings.TrimSpace(field)
	field = strings.TrimPrefix(field, "0x")
	field = strings.TrimPrefix(field, "0X")
	v, err := strconv.ParseUint(field, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex address %q: %w", field, err)
	}
	return graphmat.Address(v), nil
}

// WriteCSV writes mapping as "<lhs_abs_hex>, <rhs_abs_hex>" lines, upper-case
// hex with no padding, ascending by lhs. encoding/csv's default writer
// serializes fields with a bare comma and no space after it, but this
// format wants ", " between fields, so lines are formatted directly rather
// than through csv.Writer (documented in DESIGN.md).
func WriteCSV(w io.Writer, mapping beliefprop.Mapping) error {
	bw := bufio.NewWriter(w)
	for _, p := range mapping.Pairs() {
		if _, err := fmt.Fprintf(bw, "%X, %X\n", uint64(p.Lhs), uint64(p.Rhs)); err != nil {
			return fmt.Errorf("report: write csv: %w", err)
		}
	}
	return bw.Flush()
}
