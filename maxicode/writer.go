package maxicode

import (
	"fmt"

	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/bitutil"
	"github.com/gosymbol/symcore/maxicode/encoder"
)

// Writer encodes MaxiCode barcodes. MaxiCode is a fixed-size symbol (30x33
// modules); width/height only control the quiet-zone padded raster, not the
// module count.
type Writer struct{}

// NewWriter creates a new MaxiCode Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Encode encodes the given contents into a MaxiCode BitMatrix.
func (w *Writer) Encode(contents string, format symcore.Format, width, height int, opts *symcore.EncodeOptions) (*bitutil.BitMatrix, error) {
	if contents == "" {
		return nil, fmt.Errorf("%w: found empty contents", symcore.ErrIllegalArgument)
	}
	if format != symcore.FormatMaxiCode {
		return nil, fmt.Errorf("%w: can only encode MAXICODE, but got %s", symcore.ErrIllegalArgument, format)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: requested dimensions are negative: %dx%d", symcore.ErrIllegalArgument, width, height)
	}

	eopts := encoder.Options{Mode: encoder.ModeFreeForm}
	if opts != nil {
		if opts.MaxiCodeMode != 0 {
			eopts.Mode = encoder.Mode(opts.MaxiCodeMode)
		}
		eopts.Postcode = opts.MaxiCodePostcode
		eopts.CountryCode = opts.MaxiCodeCountryCode
		eopts.ServiceClass = opts.MaxiCodeServiceClass
	}

	matrix, err := encoder.Encode(contents, eopts)
	if err != nil {
		return nil, err
	}
	return renderMatrix(matrix, width, height), nil
}

// renderMatrix scales the fixed 30x33 MaxiCode grid to fit the requested
// width and height (at least two pixels per module), drawing odd rows half a
// module to the right, and pads with a quiet zone as needed.
func renderMatrix(code *bitutil.BitMatrix, width, height int) *bitutil.BitMatrix {
	inputWidth := code.Width()
	inputHeight := code.Height()

	qz := 1
	outputWidth := inputWidth + 2*qz
	outputHeight := inputHeight + 2*qz

	if width < outputWidth {
		width = outputWidth
	}
	if height < outputHeight {
		height = outputHeight
	}

	multiple := width / outputWidth
	if h := height / outputHeight; h < multiple {
		multiple = h
	}
	// Odd rows are offset by half a module (the hexagonal layout that
	// extractPureBits samples), which takes at least two pixels per module.
	if multiple < 2 {
		multiple = 2
		if width < outputWidth*multiple {
			width = outputWidth * multiple
		}
		if height < outputHeight*multiple {
			height = outputHeight * multiple
		}
	}

	leftPadding := (width - inputWidth*multiple) / 2
	topPadding := (height - inputHeight*multiple) / 2

	result := bitutil.NewBitMatrixWithSize(width, height)
	for inputY := 0; inputY < inputHeight; inputY++ {
		outputY := topPadding + inputY*multiple
		for inputX := 0; inputX < inputWidth; inputX++ {
			if code.Get(inputX, inputY) {
				outputX := leftPadding + inputX*multiple + (inputY&1)*(multiple/2)
				for y := 0; y < multiple; y++ {
					for x := 0; x < multiple; x++ {
						result.Set(outputX+x, outputY+y)
					}
				}
			}
		}
	}
	return result
}

// Compile-time check.
var _ symcore.Writer = (*Writer)(nil)
