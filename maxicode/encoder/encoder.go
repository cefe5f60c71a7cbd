// Package encoder builds MaxiCode module bitmaps from a payload: high-level
// text compaction into Set A/B codewords, primary/secondary message
// assembly, Reed-Solomon parity, and placement into the fixed 30x33 grid.
package encoder

import (
	"fmt"
	"math"

	"github.com/gosymbol/symcore/bitutil"
	"github.com/gosymbol/symcore/reedsolomon"
)

const (
	matrixWidth  = 30
	matrixHeight = 33
)

// Mode selects the MaxiCode structured-primary-message format.
type Mode int

const (
	// ModeFreeForm carries no structured postal fields (mode 4).
	ModeFreeForm Mode = 4
	// ModeNumericPostcode carries a numeric postcode up to 9 digits (mode 2).
	ModeNumericPostcode Mode = 2
	// ModeAlphaPostcode carries a 6-character alphanumeric postcode (mode 3).
	ModeAlphaPostcode Mode = 3
	// ModeFreeFormHighEC is the same free-form layout as ModeFreeForm but
	// trades secondary message capacity (68 codewords instead of 84) for a
	// heavier error-correction split (56 EC codewords instead of 40), mirroring
	// maxicode/decoder's mode-5 correctErrors(..., 68, 56, ...) call.
	//
	// Mode 6 is not offered here: the decoder's Decode only handles modes
	// 2/3/4/5 and returns an "unsupported mode" error for anything else, so a mode-6 symbol this package produced could never round-trip
	// back through the decoder.
	ModeFreeFormHighEC Mode = 5
)

// Options configures structured-primary-message fields. Postcode/Country/
// ServiceClass are only consulted for ModeNumericPostcode/ModeAlphaPostcode.
type Options struct {
	Mode        Mode
	Postcode    string
	CountryCode int // 3-digit ISO 3166 numeric country code
	ServiceClass int // 3-digit class-of-service code
}

// Same bit-position tables as maxicode/decoder, duplicated here because the
// primary message is built in the inverse direction (field value -> bits).
var countryBytes = []int{53, 54, 43, 44, 45, 46, 47, 48, 37, 38}
var serviceClassBytes = []int{55, 56, 57, 58, 59, 60, 49, 50, 51, 52}
var postcode2LengthBytes = []int{39, 40, 41, 42, 31, 32}
var postcode2Bytes = []int{33, 34, 35, 36, 25, 26, 27, 28, 29, 30, 19,
	20, 21, 22, 23, 24, 13, 14, 15, 16, 17, 18, 7, 8, 9, 10, 11, 12, 1, 2}
var postcode3Bytes = [][]int{
	{39, 40, 41, 42, 31, 32},
	{33, 34, 35, 36, 25, 26},
	{27, 28, 29, 30, 19, 20},
	{21, 22, 23, 24, 13, 14},
	{15, 16, 17, 18, 7, 8},
	{9, 10, 11, 12, 1, 2},
}

// setBit writes a single bit (1-based position, matching the decoder's
// convention) into a 10-byte primary-message buffer.
func setBit(bytes []byte, bit int, value int) {
	bit--
	mask := byte(1 << uint(5-bit%6))
	idx := bit / 6
	if value != 0 {
		bytes[idx] |= mask
	} else {
		bytes[idx] &^= mask
	}
}

// setInt writes value across the given bit positions, most-significant
// position first, mirroring decoder.getInt in reverse.
func setInt(bytes []byte, positions []int, value int) {
	for i, pos := range positions {
		shift := uint(len(positions) - i - 1)
		setBit(bytes, pos, (value>>shift)&1)
	}
}

// padCode is the Set A index of the PAD control codeword used to fill
// unused secondary-message codewords.
const padCode = 33

// Encode lays out contents (and, for structured modes, the postal fields in
// opts) into a 30x33 BitMatrix of MaxiCode modules.
func Encode(contents string, opts Options) (*bitutil.BitMatrix, error) {
	if contents == "" {
		return nil, fmt.Errorf("maxicode: empty contents")
	}

	mode := opts.Mode
	if mode == 0 {
		mode = ModeFreeForm
	}

	message, err := encodeHighLevel(contents)
	if err != nil {
		return nil, err
	}

	// Modes 4/5 (unstructured) pack the message starting at primary codeword 1
	// (9 slots) and continuing into the secondary codewords. Mode 4 has 84
	// secondary codewords (93 total); mode 5 trades capacity for a heavier EC
	// split and has only 68 (77 total). Modes 2/3 dedicate the whole primary
	// block to postal fields, leaving only the secondary codewords for the
	// message.
	primaryMessageSlots := 0
	if mode == ModeFreeForm || mode == ModeFreeFormHighEC {
		primaryMessageSlots = 9
	}
	secondaryLen := 84
	secondaryECLen := 40
	if mode == ModeFreeFormHighEC {
		secondaryLen = 68
		secondaryECLen = 56
	}
	maxLen := secondaryLen + primaryMessageSlots
	if len(message) > maxLen {
		return nil, fmt.Errorf("maxicode: contents too long for a single symbol (%d codewords, max %d)", len(message), maxLen)
	}

	primary := make([]byte, 10)
	primary[0] = byte(mode) & 0x0F

	secondary := make([]byte, secondaryLen)
	for i := range secondary {
		secondary[i] = padCode
	}
	for i := 1; i < 10; i++ {
		primary[i] = padCode
	}
	for i, v := range message {
		if i < primaryMessageSlots {
			primary[1+i] = byte(v)
		} else {
			secondary[i-primaryMessageSlots] = byte(v)
		}
	}

	switch mode {
	case ModeNumericPostcode:
		pc := 0
		for _, c := range opts.Postcode {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("maxicode: numeric postcode must contain only digits")
			}
			pc = pc*10 + int(c-'0')
		}
		setInt(primary, postcode2Bytes, pc)
		setInt(primary, postcode2LengthBytes, len(opts.Postcode))
		setInt(primary, countryBytes, opts.CountryCode)
		setInt(primary, serviceClassBytes, opts.ServiceClass)
	case ModeAlphaPostcode:
		runes := []rune(opts.Postcode)
		for i := 0; i < 6; i++ {
			var idx int
			if i < len(runes) {
				idx = int(setA[byte(runes[i])])
				if idx < 0 {
					return nil, fmt.Errorf("maxicode: postcode character %q not representable", runes[i])
				}
			} else {
				idx = int(setA[' '])
			}
			setInt(primary, postcode3Bytes[i], idx)
		}
		setInt(primary, countryBytes, opts.CountryCode)
		setInt(primary, serviceClassBytes, opts.ServiceClass)
	case ModeFreeForm, ModeFreeFormHighEC:
		// no structured postal fields; primary codewords 1-9 carry message.
	default:
		return nil, fmt.Errorf("maxicode: unsupported mode %d", mode)
	}

	codewords := make([]byte, 144)
	copy(codewords[0:10], primary)
	copy(codewords[20:20+len(secondary)], secondary)

	correctionApply(codewords, 0, 10, 10, interleaveAll)
	correctionApply(codewords, 20, secondaryLen, secondaryECLen, interleaveEven)
	correctionApply(codewords, 20, secondaryLen, secondaryECLen, interleaveOdd)

	return place(codewords), nil
}

const (
	interleaveAll = iota
	interleaveEven
	interleaveOdd
)

// correctionApply computes and writes Reed-Solomon parity for a block of
// dataCodewords starting at start within codewordBytes, for the given
// interleave (mirrors maxicode/decoder.correctErrors in the encode direction).
func correctionApply(codewordBytes []byte, start, dataCodewords, ecCodewords, mode int) {
	divisor := 1
	if mode != interleaveAll {
		divisor = 2
	}
	total := dataCodewords + ecCodewords
	block := make([]int, total/divisor)
	for i := 0; i < dataCodewords; i++ {
		if mode == interleaveAll || i%2 == mode-1 {
			block[i/divisor] = int(codewordBytes[i+start])
		}
	}
	enc := reedsolomon.NewEncoder(reedsolomon.MaxiCodeField64)
	enc.Encode(block, ecCodewords/divisor)
	for i := 0; i < total; i++ {
		if mode == interleaveAll || i%2 == mode-1 {
			codewordBytes[i+start] = byte(block[i/divisor])
		}
	}
}

// bitnr mirrors maxicode/decoder's (y, x) -> bit-number table; placement is
// simply its inverse (write instead of read).
var bitnr = [33][30]int{
	{121, 120, 127, 126, 133, 132, 139, 138, 145, 144, 151, 150, 157, 156, 163, 162, 169, 168, 175, 174, 181, 180, 187, 186, 193, 192, 199, 198, -2, -2},
	{123, 122, 129, 128, 135, 134, 141, 140, 147, 146, 153, 152, 159, 158, 165, 164, 171, 170, 177, 176, 183, 182, 189, 188, 195, 194, 201, 200, 816, -3},
	{125, 124, 131, 130, 137, 136, 143, 142, 149, 148, 155, 154, 161, 160, 167, 166, 173, 172, 179, 178, 185, 184, 191, 190, 197, 196, 203, 202, 818, 817},
	{283, 282, 277, 276, 271, 270, 265, 264, 259, 258, 253, 252, 247, 246, 241, 240, 235, 234, 229, 228, 223, 222, 217, 216, 211, 210, 205, 204, 819, -3},
	{285, 284, 279, 278, 273, 272, 267, 266, 261, 260, 255, 254, 249, 248, 243, 242, 237, 236, 231, 230, 225, 224, 219, 218, 213, 212, 207, 206, 821, 820},
	{287, 286, 281, 280, 275, 274, 269, 268, 263, 262, 257, 256, 251, 250, 245, 244, 239, 238, 233, 232, 227, 226, 221, 220, 215, 214, 209, 208, 822, -3},
	{289, 288, 295, 294, 301, 300, 307, 306, 313, 312, 319, 318, 325, 324, 331, 330, 337, 336, 343, 342, 349, 348, 355, 354, 361, 360, 367, 366, 824, 823},
	{291, 290, 297, 296, 303, 302, 309, 308, 315, 314, 321, 320, 327, 326, 333, 332, 339, 338, 345, 344, 351, 350, 357, 356, 363, 362, 369, 368, 825, -3},
	{293, 292, 299, 298, 305, 304, 311, 310, 317, 316, 323, 322, 329, 328, 335, 334, 341, 340, 347, 346, 353, 352, 359, 358, 365, 364, 371, 370, 827, 826},
	{409, 408, 403, 402, 397, 396, 391, 390, 79, 78, -2, -2, 13, 12, 37, 36, 2, -1, 44, 43, 109, 108, 385, 384, 379, 378, 373, 372, 828, -3},
	{411, 410, 405, 404, 399, 398, 393, 392, 81, 80, 40, -2, 15, 14, 39, 38, 3, -1, -1, 45, 111, 110, 387, 386, 381, 380, 375, 374, 830, 829},
	{413, 412, 407, 406, 401, 400, 395, 394, 83, 82, 41, -3, -3, -3, -3, -3, 5, 4, 47, 46, 113, 112, 389, 388, 383, 382, 377, 376, 831, -3},
	{415, 414, 421, 420, 427, 426, 103, 102, 55, 54, 16, -3, -3, -3, -3, -3, -3, -3, 20, 19, 85, 84, 433, 432, 439, 438, 445, 444, 833, 832},
	{417, 416, 423, 422, 429, 428, 105, 104, 57, 56, -3, -3, -3, -3, -3, -3, -3, -3, 22, 21, 87, 86, 435, 434, 441, 440, 447, 446, 834, -3},
	{419, 418, 425, 424, 431, 430, 107, 106, 59, 58, -3, -3, -3, -3, -3, -3, -3, -3, -3, 23, 89, 88, 437, 436, 443, 442, 449, 448, 836, 835},
	{481, 480, 475, 474, 469, 468, 48, -2, 30, -3, -3, -3, -3, -3, -3, -3, -3, -3, -3, 0, 53, 52, 463, 462, 457, 456, 451, 450, 837, -3},
	{483, 482, 477, 476, 471, 470, 49, -1, -2, -3, -3, -3, -3, -3, -3, -3, -3, -3, -3, -3, -2, -1, 465, 464, 459, 458, 453, 452, 839, 838},
	{485, 484, 479, 478, 473, 472, 51, 50, 31, -3, -3, -3, -3, -3, -3, -3, -3, -3, -3, 1, -2, 42, 467, 466, 461, 460, 455, 454, 840, -3},
	{487, 486, 493, 492, 499, 498, 97, 96, 61, 60, -3, -3, -3, -3, -3, -3, -3, -3, -3, 26, 91, 90, 505, 504, 511, 510, 517, 516, 842, 841},
	{489, 488, 495, 494, 501, 500, 99, 98, 63, 62, -3, -3, -3, -3, -3, -3, -3, -3, 28, 27, 93, 92, 507, 506, 513, 512, 519, 518, 843, -3},
	{491, 490, 497, 496, 503, 502, 101, 100, 65, 64, 17, -3, -3, -3, -3, -3, -3, -3, 18, 29, 95, 94, 509, 508, 515, 514, 521, 520, 845, 844},
	{559, 558, 553, 552, 547, 546, 541, 540, 73, 72, 32, -3, -3, -3, -3, -3, -3, 10, 67, 66, 115, 114, 535, 534, 529, 528, 523, 522, 846, -3},
	{561, 560, 555, 554, 549, 548, 543, 542, 75, 74, -2, -1, 7, 6, 35, 34, 11, -2, 69, 68, 117, 116, 537, 536, 531, 530, 525, 524, 848, 847},
	{563, 562, 557, 556, 551, 550, 545, 544, 77, 76, -2, 33, 9, 8, 25, 24, -1, -2, 71, 70, 119, 118, 539, 538, 533, 532, 527, 526, 849, -3},
	{565, 564, 571, 570, 577, 576, 583, 582, 589, 588, 595, 594, 601, 600, 607, 606, 613, 612, 619, 618, 625, 624, 631, 630, 637, 636, 643, 642, 851, 850},
	{567, 566, 573, 572, 579, 578, 585, 584, 591, 590, 597, 596, 603, 602, 609, 608, 615, 614, 621, 620, 627, 626, 633, 632, 639, 638, 645, 644, 852, -3},
	{569, 568, 575, 574, 581, 580, 587, 586, 593, 592, 599, 598, 605, 604, 611, 610, 617, 616, 623, 622, 629, 628, 635, 634, 641, 640, 647, 646, 854, 853},
	{727, 726, 721, 720, 715, 714, 709, 708, 703, 702, 697, 696, 691, 690, 685, 684, 679, 678, 673, 672, 667, 666, 661, 660, 655, 654, 649, 648, 855, -3},
	{729, 728, 723, 722, 717, 716, 711, 710, 705, 704, 699, 698, 693, 692, 687, 686, 681, 680, 675, 674, 669, 668, 663, 662, 657, 656, 651, 650, 857, 856},
	{731, 730, 725, 724, 719, 718, 713, 712, 707, 706, 701, 700, 695, 694, 689, 688, 683, 682, 677, 676, 671, 670, 665, 664, 659, 658, 653, 652, 858, -3},
	{733, 732, 739, 738, 745, 744, 751, 750, 757, 756, 763, 762, 769, 768, 775, 774, 781, 780, 787, 786, 793, 792, 799, 798, 805, 804, 811, 810, 860, 859},
	{735, 734, 741, 740, 747, 746, 753, 752, 759, 758, 765, 764, 771, 770, 777, 776, 783, 782, 789, 788, 795, 794, 801, 800, 807, 806, 813, 812, 861, -3},
	{737, 736, 743, 742, 749, 748, 755, 754, 761, 760, 767, 766, 773, 772, 779, 778, 785, 784, 791, 790, 797, 796, 803, 802, 809, 808, 815, 814, 863, 862},
}

// place writes 144 6-bit codewords into the 30x33 grid via bitnr, then
// stamps the central bullseye finder pattern over the cells bitnr leaves
// unused (its negative entries).
func place(codewords []byte) *bitutil.BitMatrix {
	matrix := bitutil.NewBitMatrixWithSize(matrixWidth, matrixHeight)
	for y := 0; y < matrixHeight; y++ {
		row := bitnr[y]
		for x := 0; x < matrixWidth; x++ {
			bit := row[x]
			if bit < 0 {
				continue
			}
			cw := codewords[bit/6]
			if cw&(1<<uint(5-bit%6)) != 0 {
				matrix.Set(x, y)
			}
		}
	}
	stampBullseye(matrix)
	return matrix
}

// stampBullseye draws the concentric-ring finder pattern MaxiCode scanners
// use to locate and orient the symbol. It only ever touches cells bitnr
// marks as non-data (negative entries) — the decoder reads modules strictly
// through bitnr, so a stamp that strayed onto a data cell would corrupt the
// encoded message.
func stampBullseye(matrix *bitutil.BitMatrix) {
	const centerX, centerY = 14.5, 16.0
	const ringWidth = 0.9
	for y := 0; y < matrixHeight; y++ {
		row := bitnr[y]
		for x := 0; x < matrixWidth; x++ {
			if row[x] >= 0 {
				continue
			}
			dx := float64(x) - centerX
			dy := float64(y) - centerY
			r := math.Sqrt(dx*dx + dy*dy)
			if r > 5.5 {
				continue
			}
			ring := int(r / ringWidth)
			if ring%2 == 0 {
				matrix.Set(x, y)
			} else {
				matrix.Unset(x, y)
			}
		}
	}
}
