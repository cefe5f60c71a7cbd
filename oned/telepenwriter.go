package oned

import (
	"fmt"
	"math/bits"

	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/bitutil"
)

// TelepenWriter encodes Telepen barcodes.
type TelepenWriter struct{}

// NewTelepenWriter creates a new Telepen writer.
func NewTelepenWriter() *TelepenWriter {
	return &TelepenWriter{}
}

// Encode encodes the given contents into a Telepen barcode BitMatrix.
func (w *TelepenWriter) Encode(contents string, format symcore.Format, width, height int, opts *symcore.EncodeOptions) (*bitutil.BitMatrix, error) {
	return encodeFixedFormat(format, symcore.FormatTelepen, width, height, func() ([]bool, error) {
		return w.encode(contents)
	})
}

func (w *TelepenWriter) encode(contents string) ([]bool, error) {
	for i := 0; i < len(contents); i++ {
		if contents[i] == telepenStartChar || contents[i] == telepenStopChar {
			return nil, fmt.Errorf("cannot encode control character 0x%02X", contents[i])
		}
	}

	chars := make([]byte, 0, len(contents)+2)
	chars = append(chars, telepenStartChar)
	chars = append(chars, contents...)
	chars = append(chars, telepenStopChar)

	result := make([]bool, 0, len(chars)*(telepenElementsPerChar+1))
	for idx, c := range chars {
		parity := byte(bits.OnesCount8(c) % 2)
		pattern := (int(c) << 1) | int(parity)

		color := true // element 0 is always a bar
		for i := telepenElementsPerChar - 1; i >= 0; i-- {
			width := 1
			if (pattern>>uint(i))&1 != 0 {
				width = 2
			}
			for j := 0; j < width; j++ {
				result = append(result, color)
			}
			color = !color
		}
		if idx < len(chars)-1 {
			result = append(result, false) // inter-character gap
		}
	}
	return result, nil
}

// Ensure TelepenWriter implements symcore.Writer at compile time.
var _ symcore.Writer = (*TelepenWriter)(nil)
