package oned

import (
	"fmt"

	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/bitutil"
)

// UPCAWriter encodes UPC-A barcodes by delegating to EAN-13.
type UPCAWriter struct {
	ean13 *EAN13Writer
}

// NewUPCAWriter creates a new UPC-A writer.
func NewUPCAWriter() *UPCAWriter {
	return &UPCAWriter{ean13: NewEAN13Writer()}
}

// Encode encodes the given contents into a UPC-A barcode BitMatrix.
func (w *UPCAWriter) Encode(contents string, format symcore.Format, width, height int, opts *symcore.EncodeOptions) (*bitutil.BitMatrix, error) {
	if format != symcore.FormatUPCA {
		return nil, fmt.Errorf("can only encode UPC_A, but got %s", format)
	}
	// Transform UPC-A to EAN-13 by prepending 0
	return w.ean13.Encode("0"+contents, symcore.FormatEAN13, width, height, opts)
}
