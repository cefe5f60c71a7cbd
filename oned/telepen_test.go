package oned

import (
	"testing"

	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/bitutil"
)

func TestTelepenRoundTrip(t *testing.T) {
	tests := []string{
		"HELLO",
		"Telepen123",
		"A",
		"the quick brown fox",
	}
	writer := NewTelepenWriter()
	reader := NewTelepenReader()
	for _, tc := range tests {
		t.Run(tc, func(t *testing.T) {
			code, err := writer.encode(tc)
			if err != nil {
				t.Fatalf("encode error: %v", err)
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
			if result.Text != tc {
				t.Errorf("round-trip mismatch: got %q, want %q", result.Text, tc)
			}
			if result.Format != symcore.FormatTelepen {
				t.Errorf("format mismatch: got %v, want %v", result.Format, symcore.FormatTelepen)
			}
		})
	}
}

func TestTelepenRejectsControlCharacters(t *testing.T) {
	writer := NewTelepenWriter()
	if _, err := writer.encode("bad\x02value"); err == nil {
		t.Fatal("expected error encoding embedded STX")
	}
	if _, err := writer.encode("bad\x03value"); err == nil {
		t.Fatal("expected error encoding embedded ETX")
	}
}

func TestMultiFormatOneDReaderTelepen(t *testing.T) {
	writer := NewTelepenWriter()
	code, err := writer.encode("MULTIFORMAT")
	if err != nil {
		t.Fatal(err)
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

	reader := NewMultiFormatOneDReader(nil)
	result, err := reader.DecodeRow(0, row, nil)
	if err != nil {
		t.Fatalf("multi-format decode error: %v", err)
	}
	if result.Text != "MULTIFORMAT" {
		t.Errorf("got %q, want %q", result.Text, "MULTIFORMAT")
	}
}
