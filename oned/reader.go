package oned

import (
	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/bitutil"
)

// MultiFormatOneDReader attempts to decode 1D barcodes by trying multiple
// format-specific readers in sequence.
type MultiFormatOneDReader struct {
	readers          []RowDecoder
	possibleFormats  map[symcore.Format]bool
}

// NewMultiFormatOneDReader creates a new multi-format reader configured by opts.
func NewMultiFormatOneDReader(opts *symcore.DecodeOptions) *MultiFormatOneDReader {
	var readers []RowDecoder
	var possibleFormats map[symcore.Format]bool

	if opts != nil && len(opts.PossibleFormats) > 0 {
		possibleFormats = make(map[symcore.Format]bool)
		for _, f := range opts.PossibleFormats {
			possibleFormats[f] = true
		}
		// UPC/EAN readers: match Java's MultiFormatUPCEANReader else-if logic.
		// EAN-13 covers UPC-A, so only add UPCAReader if EAN-13 is not requested.
		if possibleFormats[symcore.FormatEAN13] {
			readers = append(readers, NewEAN13Reader())
		} else if possibleFormats[symcore.FormatUPCA] {
			readers = append(readers, NewUPCAReader())
		}
		if possibleFormats[symcore.FormatEAN8] {
			readers = append(readers, NewEAN8Reader())
		}
		if possibleFormats[symcore.FormatUPCE] {
			readers = append(readers, NewUPCEReader())
		}
		if possibleFormats[symcore.FormatCode39] {
			useCheckDigit := opts.AssumeCode39CheckDigit
			readers = append(readers, NewCode39ReaderWithCheckDigit(useCheckDigit, false))
		}
		if possibleFormats[symcore.FormatCode128] {
			readers = append(readers, NewCode128Reader())
		}
		if possibleFormats[symcore.FormatITF] {
			readers = append(readers, NewITFReader())
		}
		if possibleFormats[symcore.FormatCodabar] {
			readers = append(readers, NewCodabarReader())
		}
		if possibleFormats[symcore.FormatRSS14] {
			readers = append(readers, NewRSS14Reader())
		}
		if possibleFormats[symcore.FormatRSSExpanded] {
			readers = append(readers, NewRSSExpandedReader())
		}
		if possibleFormats[symcore.FormatTelepen] {
			readers = append(readers, NewTelepenReader())
		}
	}

	if len(readers) == 0 {
		// Default: EAN-13 covers UPC-A, so no separate UPCAReader needed.
		readers = []RowDecoder{
			NewEAN13Reader(),
			NewEAN8Reader(),
			NewUPCEReader(),
			NewCode39Reader(),
			NewCode128Reader(),
			NewITFReader(),
			NewCodabarReader(),
			NewRSS14Reader(),
			NewRSSExpandedReader(),
			NewTelepenReader(),
		}
	}

	return &MultiFormatOneDReader{readers: readers, possibleFormats: possibleFormats}
}

// DecodeRow tries each reader in sequence until one succeeds.
// Includes Java-compatible EAN-13 â†’ UPC-A conversion when UPC-A was requested.
func (r *MultiFormatOneDReader) DecodeRow(rowNumber int, row *bitutil.BitArray, opts *symcore.DecodeOptions) (*symcore.Result, error) {
	for _, reader := range r.readers {
		result, err := reader.DecodeRow(rowNumber, row, opts)
		if err == nil {
			return r.maybeConvertEAN13ToUPCA(result), nil
		}
	}
	return nil, symcore.ErrNotFound
}

// maybeConvertEAN13ToUPCA converts an EAN-13 result starting with '0' to UPC-A
// if UPC-A was requested. Matches Java MultiFormatUPCEANReader behavior.
func (r *MultiFormatOneDReader) maybeConvertEAN13ToUPCA(result *symcore.Result) *symcore.Result {
	if result.Format != symcore.FormatEAN13 || len(result.Text) == 0 || result.Text[0] != '0' {
		return result
	}
	// Convert if UPC-A was requested, or if no format filter was set (default readers)
	if r.possibleFormats == nil || r.possibleFormats[symcore.FormatUPCA] {
		upcaResult := symcore.NewResult(result.Text[1:], nil, result.Points, symcore.FormatUPCA)
		for k, v := range result.Metadata {
			upcaResult.PutMetadata(k, v)
		}
		return upcaResult
	}
	return result
}

// Decode decodes a 1D barcode from the given image.
// Like Java's OneDReader.decode(), if TryHarder is set and the initial scan
// fails, it tries again with the image rotated 90 degrees counterclockwise.
func (r *MultiFormatOneDReader) Decode(image *symcore.BinaryBitmap, opts *symcore.DecodeOptions) (*symcore.Result, error) {
	result, err := DecodeOneD(image, r, opts)
	if err == nil {
		return result, nil
	}
	tryHarder := opts != nil && opts.TryHarder
	if !tryHarder {
		return nil, err
	}
	// Try with rotated image (90 degrees CCW)
	rotated := image.RotateCounterClockwise()
	if rotated == nil {
		return nil, err
	}
	result, err2 := DecodeOneD(rotated, r, opts)
	if err2 != nil {
		return nil, err
	}
	// Record that we found it rotated 90 degrees CCW / 270 degrees CW
	orientation := 270
	if existing, ok := result.Metadata[symcore.MetadataOrientation]; ok {
		if existingInt, ok := existing.(int); ok {
			orientation = (orientation + existingInt) % 360
		}
	}
	result.PutMetadata(symcore.MetadataOrientation, orientation)
	// Adjust result points: for a CCW rotation, (x,y) in rotated image
	// maps to (rotatedHeight - 1 - y, x) in the original image
	if result.Points != nil {
		rotatedHeight := rotated.Height()
		for i, p := range result.Points {
			result.Points[i] = symcore.ResultPoint{
				X: float64(rotatedHeight) - p.Y - 1,
				Y: p.X,
			}
		}
	}
	return result, nil
}

// Reset is a no-op for 1D readers.
func (r *MultiFormatOneDReader) Reset() {}
