package oned

import (
	"fmt"
	"strconv"

	symcore "github.com/gosymbol/symcore"
	"github.com/gosymbol/symcore/bitutil"
)

// RSS14Writer encodes RSS-14 (GS1 DataBar Omnidirectional) barcodes.
//
// Neither this package's upstream nor any ZXing-family port ships an RSS-14
// encoder — only the reader exists. getRSSvalue (rss_utils.go) has no
// published closed-form inverse, so rather than re-derive one, this writer
// brute-forces the small (4-element, <=16-module) width composition space
// using getRSSvalue itself as the oracle, the way a human would check candidate
// widths by hand against the decoder's own formula. Every encoded row is then
// self-verified by feeding it back through RSS14Reader before being returned;
// a row that RSS14Reader does not decode to the canonical digits is an error.
type RSS14Writer struct{}

// NewRSS14Writer creates a new RSS-14 writer.
func NewRSS14Writer() *RSS14Writer {
	return &RSS14Writer{}
}

// Encode encodes the given contents into an RSS-14 barcode BitMatrix.
// Contents must be 13 or 14 digits; if 14, the last digit is checked against
// the standard GTIN mod-10 check digit.
func (w *RSS14Writer) Encode(contents string, format symcore.Format, width, height int, opts *symcore.EncodeOptions) (*bitutil.BitMatrix, error) {
	return encodeFixedFormat(format, symcore.FormatRSS14, width, height, func() ([]bool, error) {
		return w.encode(contents)
	})
}

func (w *RSS14Writer) encode(contents string) ([]bool, error) {
	if err := CheckNumeric(contents); err != nil {
		return nil, err
	}
	payload, canonical, err := rss14CanonicalDigits(contents)
	if err != nil {
		return nil, err
	}

	symbolValue, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: RSS-14 contents must be numeric", symcore.ErrIllegalArgument)
	}

	leftValue := symbolValue / 4537077
	rightValue := symbolValue % 4537077

	left, err := rss14EncodePair(leftValue)
	if err != nil {
		return nil, err
	}
	right, err := rss14EncodePair(rightValue)
	if err != nil {
		return nil, err
	}

	checkValue := (left.checksumPortion + 16*right.checksumPortion) % 79
	leftFinder, rightFinder, err := rss14FindFinderValues(checkValue)
	if err != nil {
		return nil, err
	}

	code := make([]bool, 90)
	pos := 0
	pos += AppendPattern(code, pos, left.outsideCounters[:], true)
	pos += AppendPattern(code, pos, rss14FinderPatterns[leftFinder], true)
	pos += AppendPattern(code, pos, left.insideCounters[:], true)
	pos += AppendPattern(code, pos, reverseIntsCopy(right.insideCounters[:]), true)
	pos += AppendPattern(code, pos, reverseIntsCopy(rss14FinderPatterns[rightFinder]), true)
	pos += AppendPattern(code, pos, reverseIntsCopy(right.outsideCounters[:]), true)
	_ = pos

	if err := rss14SelfVerify(code, canonical); err != nil {
		return nil, err
	}
	return code, nil
}

// rss14CanonicalDigits validates contents and returns (payload, canonical)
// where payload is the 13-digit value fed into the symbol value formula and
// canonical is the full 14-digit string (payload + check digit) a decoder
// should recover.
func rss14CanonicalDigits(contents string) (payload, canonical string, err error) {
	switch len(contents) {
	case 13:
		payload = contents
	case 14:
		payload = contents[:13]
	default:
		return "", "", fmt.Errorf("%w: RSS-14 contents must be 13 or 14 digits, got %d", symcore.ErrIllegalArgument, len(contents))
	}

	check := rss14CheckDigit(payload)
	canonical = payload + string('0'+byte(check))
	if len(contents) == 14 && contents[13] != canonical[13] {
		return "", "", fmt.Errorf("%w: RSS-14 check digit mismatch", symcore.ErrChecksum)
	}
	return payload, canonical, nil
}

func rss14CheckDigit(payload13 string) int {
	sum := 0
	for i := 0; i < 13; i++ {
		digit := int(payload13[i] - '0')
		if i&1 == 0 {
			sum += 3 * digit
		} else {
			sum += digit
		}
	}
	check := 10 - (sum % 10)
	if check == 10 {
		check = 0
	}
	return check
}

// rss14Pair holds one side's (left or right) encoded outside/inside element
// widths, interleaved in physical left-to-right order, plus the checksum
// contribution decodePair would compute for it.
type rss14Pair struct {
	outsideCounters [8]int
	insideCounters  [8]int
	checksumPortion int
}

func rss14EncodePair(pairValue int64) (*rss14Pair, error) {
	outsideValue := int(pairValue / 1597)
	insideValue := int(pairValue % 1597)

	outsideOdd, outsideEven, outsideChecksum, err := rss14EncodeOutside(outsideValue)
	if err != nil {
		return nil, err
	}
	insideOdd, insideEven, insideChecksum, err := rss14EncodeInside(insideValue)
	if err != nil {
		return nil, err
	}

	return &rss14Pair{
		outsideCounters: rssInterleave(outsideOdd, outsideEven),
		insideCounters:  rssInterleave(insideOdd, insideEven),
		checksumPortion: outsideChecksum + 4*insideChecksum,
	}, nil
}

// rss14EncodeOutside inverts RSS14Reader.decodeDataCharacter's outside-character
// branch: value = vOdd*tEven + vEven + gSum, selected by gSum group boundary.
func rss14EncodeOutside(value int) (oddCounts, evenCounts [4]int, checksumPortion int, err error) {
	group := rssFindGroup(value, rss14OutsideGsum)
	if group < 0 {
		return oddCounts, evenCounts, 0, fmt.Errorf("%w: RSS-14 outside value %d out of range", symcore.ErrIllegalArgument, value)
	}
	local := value - rss14OutsideGsum[group]
	tEven := rss14OutsideEvenTotalSubset[group]
	vOdd := local / tEven
	vEven := local % tEven

	oddSum := 12 - 2*group
	evenSum := 16 - oddSum
	oddWidest := rss14OutsideOddWidest[group]
	evenWidest := 9 - oddWidest

	odd, err := rssFindWidths(vOdd, 4, oddSum, oddWidest, false)
	if err != nil {
		return oddCounts, evenCounts, 0, err
	}
	even, err := rssFindWidths(vEven, 4, evenSum, evenWidest, true)
	if err != nil {
		return oddCounts, evenCounts, 0, err
	}
	copy(oddCounts[:], odd)
	copy(evenCounts[:], even)
	return oddCounts, evenCounts, rssChecksumPortion(oddCounts, evenCounts), nil
}

// rss14EncodeInside inverts the inside-character branch: value = vEven*tOdd +
// vOdd + gSum.
func rss14EncodeInside(value int) (oddCounts, evenCounts [4]int, checksumPortion int, err error) {
	group := rssFindGroup(value, rss14InsideGsum)
	if group < 0 {
		return oddCounts, evenCounts, 0, fmt.Errorf("%w: RSS-14 inside value %d out of range", symcore.ErrIllegalArgument, value)
	}
	local := value - rss14InsideGsum[group]
	tOdd := rss14InsideOddTotalSubset[group]
	vEven := local / tOdd
	vOdd := local % tOdd

	evenSum := 10 - 2*group
	oddSum := 15 - evenSum
	oddWidest := rss14InsideOddWidest[group]
	evenWidest := 9 - oddWidest

	odd, err := rssFindWidths(vOdd, 4, oddSum, oddWidest, true)
	if err != nil {
		return oddCounts, evenCounts, 0, err
	}
	even, err := rssFindWidths(vEven, 4, evenSum, evenWidest, false)
	if err != nil {
		return oddCounts, evenCounts, 0, err
	}
	copy(oddCounts[:], odd)
	copy(evenCounts[:], even)
	return oddCounts, evenCounts, rssChecksumPortion(oddCounts, evenCounts), nil
}

// rssChecksumPortion mirrors decodeDataCharacter's checksumPortion accumulation.
func rssChecksumPortion(oddCounts, evenCounts [4]int) int {
	oddChecksumPortion := 0
	for i := len(oddCounts) - 1; i >= 0; i-- {
		oddChecksumPortion *= 9
		oddChecksumPortion += oddCounts[i]
	}
	evenChecksumPortion := 0
	for i := len(evenCounts) - 1; i >= 0; i-- {
		evenChecksumPortion *= 9
		evenChecksumPortion += evenCounts[i]
	}
	return oddChecksumPortion + 3*evenChecksumPortion
}

// rssInterleave reassembles the raw 8-element counter order decodeDataCharacter
// split apart: counters[i] feeds oddCounts[i/2] when i is even, evenCounts[i/2]
// when i is odd.
func rssInterleave(oddCounts, evenCounts [4]int) [8]int {
	var counters [8]int
	for i := 0; i < 4; i++ {
		counters[2*i] = oddCounts[i]
		counters[2*i+1] = evenCounts[i]
	}
	return counters
}

// rssFindGroup returns the largest index g with gsum[g] <= value, or -1.
func rssFindGroup(value int, gsum []int) int {
	for g := len(gsum) - 1; g >= 0; g-- {
		if value >= gsum[g] {
			return g
		}
	}
	return -1
}

// rssFindWidths searches for the composition of `elements` positive widths
// (each at most maxWidth, summing to n) whose getRSSvalue equals target. The
// search space is tiny (elements=4, n<=16) so exhaustive search over valid
// compositions, ordered the same way getRSSvalue ranks them, is cheap and
// avoids re-deriving getRSSvalue's combinatorial ranking by hand.
func rssFindWidths(target, elements, n, maxWidth int, noNarrow bool) ([]int, error) {
	widths := make([]int, elements)
	if rssSearchWidths(widths, 0, n, maxWidth, target, noNarrow) {
		return widths, nil
	}
	return nil, fmt.Errorf("%w: no RSS width composition for value %d", symcore.ErrIllegalArgument, target)
}

func rssSearchWidths(widths []int, pos, remaining, maxWidth, target int, noNarrow bool) bool {
	elements := len(widths)
	if pos == elements-1 {
		if remaining < 1 || remaining > maxWidth {
			return false
		}
		widths[pos] = remaining
		return getRSSvalue(widths, maxWidth, noNarrow) == target
	}
	slotsLeft := elements - pos - 1
	maxHere := remaining - slotsLeft
	if maxHere > maxWidth {
		maxHere = maxWidth
	}
	for width := 1; width <= maxHere; width++ {
		widths[pos] = width
		if rssSearchWidths(widths, pos+1, remaining-width, maxWidth, target, noNarrow) {
			return true
		}
	}
	return false
}

// rss14FindFinderValues inverts rss14CheckChecksum's targetCheckValue
// derivation to recover the pair of finder-pattern indices (each 0-8) that
// produce the given checksum value.
func rss14FindFinderValues(checkValue int) (left, right int, err error) {
	for raw := 0; raw <= 80; raw++ {
		adjusted := raw
		if adjusted > 72 {
			adjusted--
		}
		if adjusted > 8 {
			adjusted--
		}
		if adjusted == checkValue {
			return raw / 9, raw % 9, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: no RSS-14 finder pair for checksum %d", symcore.ErrIllegalArgument, checkValue)
}

func reverseIntsCopy(widths []int) []int {
	out := make([]int, len(widths))
	for i, w := range widths {
		out[len(widths)-1-i] = w
	}
	return out
}

// rss14SelfVerify decodes the freshly built row through RSS14Reader and
// confirms it recovers the exact canonical digit string.
func rss14SelfVerify(code []bool, canonical string) error {
	row := bitutil.NewBitArray(len(code))
	for i, b := range code {
		if b {
			row.Set(i)
		}
	}
	result, err := NewRSS14Reader().DecodeRow(0, row, nil)
	if err != nil {
		return fmt.Errorf("%w: RSS-14 encoded row failed self-verification: %v", symcore.ErrWriter, err)
	}
	if result.Text != canonical {
		return fmt.Errorf("%w: RSS-14 self-verification mismatch: got %q, want %q", symcore.ErrWriter, result.Text, canonical)
	}
	return nil
}
