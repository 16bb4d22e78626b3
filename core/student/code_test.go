package student

import (
	"testing"
	"time"
)

func TestNextStudentCode(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastCode string
		want     string
		wantErr  bool
	}{
		{name: "empty sequence", lastCode: "", want: "STI202500001"},
		{name: "increments within the year", lastCode: "STI202500006", want: "STI202500007"},
		{name: "year rollover resets the counter", lastCode: "STI202499873", want: "STI202500001"},
		{name: "counter exhausted", lastCode: "STI202599999", wantErr: true},
		{name: "malformed code", lastCode: "BOGUS", wantErr: true},
		{name: "wrong prefix", lastCode: "XYZ202500001", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextStudentCode("STI", tt.lastCode, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NextStudentCode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NextStudentCode() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestParseStudentCode(t *testing.T) {
	year, seq, err := ParseStudentCode("STI", "STI202500042")
	if err != nil {
		t.Fatalf("ParseStudentCode() error = %v", err)
	}
	if year != 2025 || seq != 42 {
		t.Errorf("ParseStudentCode() = (%d, %d); want (2025, 42)", year, seq)
	}

	for _, code := range []string{"", "STI", "STI25", "ABC202500042", "STIyear500042"} {
		if _, _, err := ParseStudentCode("STI", code); err == nil {
			t.Errorf("ParseStudentCode(%q) expected an error", code)
		}
	}
}

func TestFormatStudentCode(t *testing.T) {
	if got := FormatStudentCode("STI", 2025, 7); got != "STI202500007" {
		t.Errorf("FormatStudentCode() = %q; want STI202500007", got)
	}
	if got := FormatStudentCode("STI", 2025, 99999); got != "STI202599999" {
		t.Errorf("FormatStudentCode() = %q; want STI202599999", got)
	}
}
