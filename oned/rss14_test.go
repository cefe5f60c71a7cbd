package oned

import (
	"testing"

	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/bitutil"
)

func TestRSS14WriterRoundTrip(t *testing.T) {
	tests := []string{
		"0000000000000",
		"1234567890123",
		"9999999999999",
		"06241023192226",
	}
	writer := NewRSS14Writer()
	reader := NewRSS14Reader()
	for _, tc := range tests {
		t.Run(tc, func(t *testing.T) {
			code, err := writer.encode(tc)
			if err != nil {
				t.Fatalf("encode error: %v", err)
			}

			_, canonical, err := rss14CanonicalDigits(tc)
			if err != nil {
				t.Fatalf("canonical digits error: %v", err)
			}

			quiet := 10
			padded := make([]bool, len(code)+2*quiet)
			copy(padded[quiet:], code)
			row := bitutil.NewBitArray(len(padded))
			for i, b := range padded {
				if b {
					row.Set(i)
				}
			}

			result, err := reader.DecodeRow(0, row, nil)
			if err != nil {
				t.Fatalf("decode error for %q: %v", tc, err)
			}
			if result.Text != canonical {
				t.Errorf("got %q, want %q", result.Text, canonical)
			}
			if result.Format != symcore.FormatRSS14 {
				t.Errorf("got format %v, want RSS14", result.Format)
			}
		})
	}
}

func TestRSS14WriterRejectsBadCheckDigit(t *testing.T) {
	writer := NewRSS14Writer()
	if _, err := writer.encode("12345678901234"); err == nil {
		t.Fatal("expected check digit mismatch error")
	}
}

func TestRSS14WriterRejectsWrongLength(t *testing.T) {
	writer := NewRSS14Writer()
	if _, err := writer.encode("123"); err == nil {
		t.Fatal("expected length error")
	}
}
