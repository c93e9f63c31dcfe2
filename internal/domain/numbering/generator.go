// Package numbering produces year-scoped sequential document numbers of the
// form <PREFIX>-<YEAR>-<SEQ>, e.g. INV-2024-007. Sequences restart at 1 for
// every (prefix, year) scope and are zero-padded to at least three digits;
// wider sequences simply widen the field.
package numbering

import (
	"fmt"
	"strconv"
	"strings"
)

// Document number prefixes
const (
	PrefixInvoice  = "INV"
	PrefixContract = "CTR"
)

// minSeqDigits is the minimum width of the zero-padded sequence segment
const minSeqDigits = 3

// Next returns the document number following lastNumber within the
// (prefix, year) scope. lastNumber is the highest number currently issued in
// the scope, or empty when the scope is fresh. A malformed lastNumber falls
// back to sequence 1 rather than failing; legacy data must never block
// issuing new documents.
func Next(prefix string, year int, lastNumber string) string {
	seq := 1
	if lastNumber != "" {
		if _, _, last, err := Parse(lastNumber); err == nil {
			seq = last + 1
		}
	}
	return Format(prefix, year, seq)
}

// Format renders a document number with the sequence zero-padded to at least
// three digits.
func Format(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%0*d", prefix, year, minSeqDigits, seq)
}

// Parse splits a document number into its prefix, year and sequence
// components. It returns an error for anything that does not match the
// <PREFIX>-<YEAR>-<SEQ> shape.
func Parse(number string) (prefix string, year, seq int, err error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("malformed document number %q", number)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 {
		return "", 0, 0, fmt.Errorf("malformed year in document number %q", number)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return "", 0, 0, fmt.Errorf("malformed sequence in document number %q", number)
	}

	return parts[0], year, seq, nil
}
