package oned

import (
	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/bitutil"
)

const ean8CodeWidth = 3 + (7 * 4) + 5 + (7 * 4) + 3 // = 67

// EAN8Writer encodes EAN-8 barcodes.
type EAN8Writer struct{}

// NewEAN8Writer creates a new EAN-8 writer.
func NewEAN8Writer() *EAN8Writer {
	return &EAN8Writer{}
}

// Encode encodes the given contents into an EAN-8 barcode BitMatrix.
func (w *EAN8Writer) Encode(contents string, format symcore.Format, width, height int, opts *symcore.EncodeOptions) (*bitutil.BitMatrix, error) {
	return encodeFixedFormat(format, symcore.FormatEAN8, width, height, func() ([]bool, error) {
		return w.EncodeContents(contents)
	})
}

// EncodeContents encodes EAN-8 contents into a boolean pattern.
func (w *EAN8Writer) EncodeContents(contents string) ([]bool, error) {
	var err error
	contents, err = CheckUPCEANLength(contents, 7, 8)
	if err != nil {
		return nil, err
	}

	result := make([]bool, ean8CodeWidth)
	pos := 0

	pos += AppendPattern(result, pos, UPCEANStartEndPattern, true)

	for i := 0; i <= 3; i++ {
		digit := int(contents[i] - '0')
		pos += AppendPattern(result, pos, LPatterns[digit], false)
	}

	pos += AppendPattern(result, pos, UPCEANMiddlePattern, false)

	for i := 4; i <= 7; i++ {
		digit := int(contents[i] - '0')
		pos += AppendPattern(result, pos, LPatterns[digit], true)
	}

	AppendPattern(result, pos, UPCEANStartEndPattern, true)
	return result, nil
}
