package symcore_test

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"testing"

	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/binarizer"

	_ "github.com/gosymbol/symcore/aztec"
	_ "github.com/gosymbol/symcore/datamatrix"
	_ "github.com/gosymbol/symcore/oned"
	_ "github.com/gosymbol/symcore/pdf417"
	_ "github.com/gosymbol/symcore/qrcode"
)

func loadTestImage(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		panic("failed to open image: " + err.Error())
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		panic("failed to decode image: " + err.Error())
	}
	return img
}

var decodeTests = []struct {
	name   string
	path   string
	format symcore.Format
}{
	{"QRCode", "testdata/blackbox/qrcode-1/1.png", symcore.FormatQRCode},
	{"DataMatrix", "testdata/blackbox/datamatrix-1/0123456789.png", symcore.FormatDataMatrix},
	{"PDF417", "testdata/blackbox/pdf417-1/01.png", symcore.FormatPDF417},
	{"Aztec", "testdata/blackbox/aztec-1/abc-37x37.png", symcore.FormatAztec},
	{"Code128", "testdata/blackbox/code128-1/1.png", symcore.FormatCode128},
	{"EAN13", "testdata/blackbox/ean13-1/1.png", symcore.FormatEAN13},
}

var encodeTests = []struct {
	name    string
	content string
	format  symcore.Format
	width   int
	height  int
}{
	{"QRCode", "Hello, World! This is a QR code benchmark test.", symcore.FormatQRCode, 400, 400},
	{"DataMatrix", "Hello DataMatrix", symcore.FormatDataMatrix, 0, 0},
	{"PDF417", "Hello PDF417 Benchmark Test Data", symcore.FormatPDF417, 0, 0},
	{"Aztec", "Hello Aztec Code", symcore.FormatAztec, 0, 0},
	{"Code128", "Hello123", symcore.FormatCode128, 300, 100},
	{"EAN13", "5901234123457", symcore.FormatEAN13, 300, 100},
}

func BenchmarkDecode(b *testing.B) {
	for _, tc := range decodeTests {
		b.Run(tc.name, func(b *testing.B) {
			img := loadTestImage(tc.path)
			opts := &symcore.DecodeOptions{
				PossibleFormats: []symcore.Format{tc.format},
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				// Create fresh binarizer/bitmap each iteration since HybridBinarizer caches
				source := symcore.NewImageLuminanceSource(img)
				bitmap := symcore.NewBinaryBitmap(binarizer.NewHybrid(source))
				_, err := symcore.Decode(bitmap, opts)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEncode(b *testing.B) {
	for _, tc := range encodeTests {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := symcore.Encode(tc.content, tc.format, tc.width, tc.height, nil)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
