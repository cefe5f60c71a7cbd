// Package qrcode provides multi-QR code detection and structured append support.
package qrcode

import (
	"fmt"
	"sort"

	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/qrcode/decoder"
	"github.com/gosymbol/symcore/qrcode/detector"
)

// QRCodeMultiReader can detect and decode multiple QR codes in an image,
// and also combines structured append results.
type QRCodeMultiReader struct {
	dec *decoder.Decoder
}

// NewQRCodeMultiReader creates a new QRCodeMultiReader.
func NewQRCodeMultiReader() *QRCodeMultiReader {
	return &QRCodeMultiReader{dec: decoder.NewDecoder()}
}

// DecodeMultiple detects and decodes all QR codes in the image.
func (r *QRCodeMultiReader) DecodeMultiple(image *symcore.BinaryBitmap, opts *symcore.DecodeOptions) ([]*symcore.Result, error) {
	if opts == nil {
		opts = &symcore.DecodeOptions{}
	}

	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	detectorResults, err := detector.DetectMulti(matrix, opts.TryHarder)
	if err != nil {
		return nil, err
	}

	var results []*symcore.Result
	for _, detResult := range detectorResults {
		dr, err := r.dec.Decode(detResult.Bits, opts.CharacterSet)
		if err != nil {
			continue
		}

		points := make([]symcore.ResultPoint, len(detResult.Points))
		for i, p := range detResult.Points {
			points[i] = symcore.ResultPoint{X: p.X, Y: p.Y}
		}

		result := symcore.NewResult(dr.Text, dr.RawBytes, points, symcore.FormatQRCode)
		if dr.ByteSegments != nil {
			result.PutMetadata(symcore.MetadataByteSegments, dr.ByteSegments)
		}
		if dr.ECLevel != "" {
			result.PutMetadata(symcore.MetadataErrorCorrectionLevel, dr.ECLevel)
		}
		if dr.HasStructuredAppend() {
			result.PutMetadata(symcore.MetadataStructuredAppendSequence, dr.StructuredAppendSequenceNumber)
			result.PutMetadata(symcore.MetadataStructuredAppendParity, dr.StructuredAppendParity)
		}
		result.PutMetadata(symcore.MetadataErrorsCorrected, dr.ErrorsCorrected)
		result.PutMetadata(symcore.MetadataSymbologyIdentifier, fmt.Sprintf("]Q%d", dr.SymbologyModifier))

		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, symcore.ErrNotFound
	}

	results = processStructuredAppend(results)
	return results, nil
}

// Decode decodes a single QR code (delegate to standard reader behavior).
func (r *QRCodeMultiReader) Decode(image *symcore.BinaryBitmap, opts *symcore.DecodeOptions) (*symcore.Result, error) {
	results, err := r.DecodeMultiple(image, opts)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// Reset is a no-op.
func (r *QRCodeMultiReader) Reset() {}

func processStructuredAppend(results []*symcore.Result) []*symcore.Result {
	var newResults []*symcore.Result
	var saResults []*symcore.Result

	for _, result := range results {
		if _, ok := result.Metadata[symcore.MetadataStructuredAppendSequence]; ok {
			saResults = append(saResults, result)
		} else {
			newResults = append(newResults, result)
		}
	}

	if len(saResults) == 0 {
		return results
	}

	// Sort by sequence number
	sort.Slice(saResults, func(i, j int) bool {
		seqI, _ := saResults[i].Metadata[symcore.MetadataStructuredAppendSequence].(int)
		seqJ, _ := saResults[j].Metadata[symcore.MetadataStructuredAppendSequence].(int)
		return seqI < seqJ
	})

	// Concatenate text and raw bytes
	var combinedText string
	var combinedRawBytes []byte
	var combinedByteSegment []byte
	for _, sa := range saResults {
		combinedText += sa.Text
		if sa.RawBytes != nil {
			combinedRawBytes = append(combinedRawBytes, sa.RawBytes...)
		}
		if segs, ok := sa.Metadata[symcore.MetadataByteSegments].([][]byte); ok {
			for _, seg := range segs {
				combinedByteSegment = append(combinedByteSegment, seg...)
			}
		}
	}

	combined := symcore.NewResult(combinedText, combinedRawBytes, nil, symcore.FormatQRCode)
	if len(combinedByteSegment) > 0 {
		combined.PutMetadata(symcore.MetadataByteSegments, [][]byte{combinedByteSegment})
	}
	newResults = append(newResults, combined)
	return newResults
}

// DecodeMultipleFromResults is a convenience for combining results that may
// have been decoded separately but share structured append metadata.
func DecodeMultipleFromResults(results []*symcore.Result) []*symcore.Result {
	return processStructuredAppend(results)
}

// ensure interface compliance
var _ symcore.MultipleBarcodeReader = (*QRCodeMultiReader)(nil)
var _ symcore.Reader = (*QRCodeMultiReader)(nil)
