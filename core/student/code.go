package student

import (
	"fmt"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// Student codes are PREFIX + YEAR + 5-digit zero-padded counter,
// e.g. STI202500007. The counter is year-scoped and resets every January.
const codeSeqWidth = 5

const maxCodeSeq = 99999

func FormatStudentCode(prefix string, year, seq int) string {
	return fmt.Sprintf("%s%d%0*d", prefix, year, codeSeqWidth, seq)
}

// ParseStudentCode splits a code into its embedded year and counter.
func ParseStudentCode(prefix, code string) (year, seq int, err error) {
	if len(code) < len(prefix)+4+codeSeqWidth || code[:len(prefix)] != prefix {
		return 0, 0, pkgerrors.Errorf("malformed student code %q", code)
	}
	rest := code[len(prefix):]
	if year, err = strconv.Atoi(rest[:len(rest)-codeSeqWidth]); err != nil {
		return 0, 0, pkgerrors.Errorf("malformed student code %q", code)
	}
	if seq, err = strconv.Atoi(rest[len(rest)-codeSeqWidth:]); err != nil {
		return 0, 0, pkgerrors.Errorf("malformed student code %q", code)
	}
	return year, seq, nil
}

// NextStudentCode computes the successor of lastCode for the current year:
// same year increments the counter, a new year resets it to 00001. An empty
// lastCode starts the sequence.
func NextStudentCode(prefix, lastCode string, now time.Time) (string, error) {
	currentYear := now.Year()
	if lastCode == "" {
		return FormatStudentCode(prefix, currentYear, 1), nil
	}
	year, seq, err := ParseStudentCode(prefix, lastCode)
	if err != nil {
		return "", err
	}
	if year != currentYear {
		return FormatStudentCode(prefix, currentYear, 1), nil
	}
	if seq >= maxCodeSeq {
		return "", pkgerrors.Errorf("student code space exhausted for year %d", currentYear)
	}
	return FormatStudentCode(prefix, currentYear, seq+1), nil
}
