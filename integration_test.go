package symcore_test

import (
	"testing"

	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/binarizer"

	// Import format packages to trigger init() registration.
	_ "github.com/gosymbol/symcore/oned"
	_ "github.com/gosymbol/symcore/pdf417"
	_ "github.com/gosymbol/symcore/qrcode"
)

func encodeAndDecode(t *testing.T, content string, format symcore.Format, width, height int) string {
	t.Helper()

	// Encode
	matrix, err := symcore.Encode(content, format, width, height, nil)
	if err != nil {
		t.Fatalf("Encode(%s, %s) failed: %v", content, format, err)
	}
	if matrix.Width() == 0 || matrix.Height() == 0 {
		t.Fatalf("encoded matrix is empty")
	}

	// Convert to image
	img := symcore.BitMatrixToImage(matrix)

	// Create binary bitmap via binarizer pipeline
	source := symcore.NewGrayImageLuminanceSource(img)
	bin := binarizer.NewGlobalHistogram(source)
	bitmap := symcore.NewBinaryBitmap(bin)

	// Decode - use PureBarcode since we're decoding from a clean render
	opts := &symcore.DecodeOptions{
		PossibleFormats: []symcore.Format{format},
		PureBarcode:     true,
	}
	result, err := symcore.Decode(bitmap, opts)
	if err != nil {
		t.Fatalf("Decode(%s) failed: %v", format, err)
	}

	return result.Text
}

func TestRoundTripQRCode(t *testing.T) {
	content := "Hello, World!"
	decoded := encodeAndDecode(t, content, symcore.FormatQRCode, 400, 400)
	if decoded != content {
		t.Errorf("QR round-trip: got %q, want %q", decoded, content)
	}
}

func TestRoundTripQRCodeNumeric(t *testing.T) {
	content := "1234567890"
	decoded := encodeAndDecode(t, content, symcore.FormatQRCode, 200, 200)
	if decoded != content {
		t.Errorf("QR numeric round-trip: got %q, want %q", decoded, content)
	}
}

func TestRoundTripCode128(t *testing.T) {
	content := "Hello123"
	decoded := encodeAndDecode(t, content, symcore.FormatCode128, 300, 100)
	if decoded != content {
		t.Errorf("Code128 round-trip: got %q, want %q", decoded, content)
	}
}

func TestRoundTripCode39(t *testing.T) {
	content := "HELLO"
	decoded := encodeAndDecode(t, content, symcore.FormatCode39, 300, 100)
	if decoded != content {
		t.Errorf("Code39 round-trip: got %q, want %q", decoded, content)
	}
}

func TestRoundTripEAN13(t *testing.T) {
	content := "5901234123457"
	decoded := encodeAndDecode(t, content, symcore.FormatEAN13, 500, 100)
	if decoded != content {
		t.Errorf("EAN-13 round-trip: got %q, want %q", decoded, content)
	}
}

func TestRoundTripEAN8(t *testing.T) {
	content := "96385074"
	decoded := encodeAndDecode(t, content, symcore.FormatEAN8, 300, 100)
	if decoded != content {
		t.Errorf("EAN-8 round-trip: got %q, want %q", decoded, content)
	}
}

func TestRoundTripUPCA(t *testing.T) {
	content := "012345678905"
	// UPC-A is encoded as EAN-13 with a leading 0; the UPC-A reader strips
	// that 0 again, so the decoder returns the 12-digit UPC-A string.
	decoded := encodeAndDecode(t, content, symcore.FormatUPCA, 500, 100)
	expected := content
	if decoded != expected {
		t.Errorf("UPC-A round-trip: got %q, want %q", decoded, expected)
	}
}

func TestRoundTripUPCE(t *testing.T) {
	content := "01234565"
	decoded := encodeAndDecode(t, content, symcore.FormatUPCE, 400, 100)
	if decoded != content {
		t.Errorf("UPC-E round-trip: got %q, want %q", decoded, content)
	}
}

func TestEncodeTopLevelAPI(t *testing.T) {
	// Test that the top-level Encode works for a selection of writable formats
	formats := []struct {
		format  symcore.Format
		content string
		width   int
		height  int
	}{
		{symcore.FormatQRCode, "Test", 200, 200},
		{symcore.FormatPDF417, "Test", 400, 200},
		{symcore.FormatCode128, "Test", 300, 100},
		{symcore.FormatCode39, "TEST", 300, 100},
		{symcore.FormatEAN13, "5901234123457", 300, 100},
		{symcore.FormatEAN8, "96385074", 300, 100},
		{symcore.FormatUPCA, "012345678905", 300, 100},
		{symcore.FormatUPCE, "01234565", 300, 100},
	}
	for _, tc := range formats {
		t.Run(tc.format.String(), func(t *testing.T) {
			matrix, err := symcore.Encode(tc.content, tc.format, tc.width, tc.height, nil)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if matrix.Width() == 0 || matrix.Height() == 0 {
				t.Fatal("empty result")
			}
		})
	}
}

func TestImageLuminanceSource(t *testing.T) {
	// Encode a QR code, convert to image, verify luminance source properties
	matrix, err := symcore.Encode("test", symcore.FormatQRCode, 100, 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	img := symcore.BitMatrixToImage(matrix)
	source := symcore.NewGrayImageLuminanceSource(img)

	if source.Width() != img.Bounds().Dx() {
		t.Errorf("width: got %d, want %d", source.Width(), img.Bounds().Dx())
	}
	if source.Height() != img.Bounds().Dy() {
		t.Errorf("height: got %d, want %d", source.Height(), img.Bounds().Dy())
	}

	lum := source.Matrix()
	if len(lum) != source.Width()*source.Height() {
		t.Errorf("matrix length: got %d, want %d", len(lum), source.Width()*source.Height())
	}

	row := source.Row(0, nil)
	if len(row) != source.Width() {
		t.Errorf("row length: got %d, want %d", len(row), source.Width())
	}
}
