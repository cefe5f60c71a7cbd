package oned

import (
	"math"
	"math/bits"

	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/bitutil"
)

// Telepen is a self-checking linear barcode that carries full 8-bit ASCII.
// Each character is nine bar/space elements: the 8 data bits (MSB first)
// followed by one even-parity bit, narrow for a 0 bit and wide for a 1 bit,
// alternating colors starting and ending on a bar. A single narrow space
// separates characters. Dedicated start (STX) and stop (ETX) characters use
// the same 9-element encoding as data characters, the way Codabar uses its
// A-D start/stop characters.
const (
	telepenStartChar = byte(0x02)
	telepenStopChar  = byte(0x03)

	telepenElementsPerChar = 9
	telepenCharStep        = telepenElementsPerChar + 1 // + inter-character gap
	telepenMinCharCount    = 3                           // start + at least 1 data + stop
)

// TelepenReader decodes Telepen barcodes.
type TelepenReader struct {
	counters      []int
	counterLength int
}

// NewTelepenReader creates a new Telepen reader.
func NewTelepenReader() *TelepenReader {
	return &TelepenReader{counters: make([]int, 128)}
}

// DecodeRow decodes a Telepen barcode from a single row.
func (r *TelepenReader) DecodeRow(rowNumber int, row *bitutil.BitArray, opts *symcore.DecodeOptions) (*symcore.Result, error) {
	for i := range r.counters {
		r.counters[i] = 0
	}
	if err := r.setCounters(row); err != nil {
		return nil, err
	}

	startOffset, err := r.findStartPattern()
	if err != nil {
		return nil, err
	}

	nextStart := startOffset
	var decoded []byte

	for {
		ch, ok := r.toCharacter(nextStart)
		if !ok {
			return nil, symcore.ErrNotFound
		}
		decoded = append(decoded, ch)
		nextStart += telepenCharStep
		if len(decoded) > 1 && ch == telepenStopChar {
			break
		}
		if nextStart >= r.counterLength {
			return nil, symcore.ErrNotFound
		}
	}

	if len(decoded) < telepenMinCharCount ||
		decoded[0] != telepenStartChar ||
		decoded[len(decoded)-1] != telepenStopChar {
		return nil, symcore.ErrNotFound
	}

	text := string(decoded[1 : len(decoded)-1])

	runningCount := 0
	for i := 0; i < startOffset; i++ {
		runningCount += r.counters[i]
	}
	left := float64(runningCount)
	for i := startOffset; i < nextStart-1; i++ {
		runningCount += r.counters[i]
	}
	right := float64(runningCount)

	res := symcore.NewResult(
		text, nil,
		[]symcore.ResultPoint{
			{X: left, Y: float64(rowNumber)},
			{X: right, Y: float64(rowNumber)},
		},
		symcore.FormatTelepen,
	)
	res.PutMetadata(symcore.MetadataSymbologyIdentifier, "]X0")
	return res, nil
}

// setCounters records the size of all runs of white and black pixels,
// starting with white.
func (r *TelepenReader) setCounters(row *bitutil.BitArray) error {
	r.counterLength = 0
	i := row.GetNextUnset(0)
	end := row.Size()
	if i >= end {
		return symcore.ErrNotFound
	}
	isWhite := true
	count := 0
	for i < end {
		if row.Get(i) != isWhite {
			count++
		} else {
			r.counterAppend(count)
			count = 1
			isWhite = !isWhite
		}
		i++
	}
	r.counterAppend(count)
	return nil
}

func (r *TelepenReader) counterAppend(e int) {
	r.counters[r.counterLength] = e
	r.counterLength++
	if r.counterLength >= len(r.counters) {
		temp := make([]int, r.counterLength*2)
		copy(temp, r.counters)
		r.counters = temp
	}
}

// findStartPattern scans the counter array for a valid Telepen start character.
func (r *TelepenReader) findStartPattern() (int, error) {
	for i := 1; i < r.counterLength; i += 2 {
		ch, ok := r.toCharacter(i)
		if ok && ch == telepenStartChar {
			patternSize := 0
			for j := i; j < i+telepenElementsPerChar-1; j++ {
				patternSize += r.counters[j]
			}
			if i == 1 || r.counters[i-1] >= patternSize/2 {
				return i, nil
			}
		}
	}
	return 0, symcore.ErrNotFound
}

// toCharacter decodes the 9-element character starting at position, assuming
// counters[position] is a bar. It classifies each bar and each space
// independently against the midpoint of the narrowest and widest element of
// its kind within the character, the same threshold strategy Codabar uses,
// then checks the trailing bit for even parity over the 9 bits. A kind whose
// elements all share one width is classified against the midpoint over all
// nine elements instead.
func (r *TelepenReader) toCharacter(position int) (byte, bool) {
	end := position + telepenElementsPerChar
	if end > r.counterLength {
		return 0, false
	}
	theCounters := r.counters

	maxBar, minBar := 0, math.MaxInt32
	for j := position; j < end; j += 2 {
		c := theCounters[j]
		if c < minBar {
			minBar = c
		}
		if c > maxBar {
			maxBar = c
		}
	}
	thresholdBar := (minBar + maxBar) / 2

	maxSpace, minSpace := 0, math.MaxInt32
	for j := position + 1; j < end; j += 2 {
		c := theCounters[j]
		if c < minSpace {
			minSpace = c
		}
		if c > maxSpace {
			maxSpace = c
		}
	}
	thresholdSpace := (minSpace + maxSpace) / 2

	thresholdAll := (min(minBar, minSpace) + max(maxBar, maxSpace)) / 2
	if minBar == maxBar {
		thresholdBar = thresholdAll
	}
	if minSpace == maxSpace {
		thresholdSpace = thresholdAll
	}

	pattern := 0
	for i := 0; i < telepenElementsPerChar; i++ {
		threshold := thresholdBar
		if (i & 1) != 0 {
			threshold = thresholdSpace
		}
		pattern <<= 1
		if theCounters[position+i] > threshold {
			pattern |= 1
		}
	}

	dataByte := byte(pattern >> 1)
	parityBit := pattern & 1
	if (bits.OnesCount8(dataByte)+parityBit)%2 != 0 {
		return 0, false
	}
	return dataByte, true
}

// Ensure TelepenReader implements RowDecoder at compile time.
var _ RowDecoder = (*TelepenReader)(nil)
