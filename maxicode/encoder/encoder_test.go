package encoder

import (
	"testing"

	"github.com/gosymbol/symcore/maxicode/decoder"
)

func TestEncodeFreeFormRoundTrip(t *testing.T) {
	matrix, err := Encode("MAXICODE TEST 123", Options{Mode: ModeFreeForm})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if matrix.Width() != matrixWidth || matrix.Height() != matrixHeight {
		t.Fatalf("unexpected matrix size %dx%d", matrix.Width(), matrix.Height())
	}

	result, err := decoder.Decode(matrix)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result.Text != "MAXICODE TEST 123" {
		t.Fatalf("got %q, want %q", result.Text, "MAXICODE TEST 123")
	}
}

func TestEncodeNumericPostcodeRoundTrip(t *testing.T) {
	matrix, err := Encode("hello world", Options{
		Mode:         ModeNumericPostcode,
		Postcode:     "90210",
		CountryCode:  840,
		ServiceClass: 1,
	})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	result, err := decoder.Decode(matrix)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	want := "90210" + string(rune(0x1D)) + "840" + string(rune(0x1D)) + "001" + string(rune(0x1D)) + "hello world"
	if result.Text != want {
		t.Fatalf("got %q, want %q", result.Text, want)
	}
}

func TestEncodeEmptyContents(t *testing.T) {
	if _, err := Encode("", Options{}); err == nil {
		t.Fatal("expected error for empty contents")
	}
}

func TestEncodeTooLong(t *testing.T) {
	long := make([]byte, 120)
	for i := range long {
		long[i] = 'A'
	}
	if _, err := Encode(string(long), Options{Mode: ModeFreeForm}); err == nil {
		t.Fatal("expected error for contents exceeding symbol capacity")
	}
}
