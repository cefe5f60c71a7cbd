package symcore

import "fmt"

// MultiFormatReader is a factory/dispatcher that selects appropriate Reader
// implementations based on format hints and tries them in sequence.
type MultiFormatReader struct {
	readers []Reader
}

// NewMultiFormatReader creates a new multi-format reader. Its readers are
// chosen on the first call to Decode: the registered formats among that
// call's PossibleFormats, or every registered format when there are none.
// Later calls reuse that set until Reset.
func NewMultiFormatReader() *MultiFormatReader {
	return &MultiFormatReader{}
}

// Decode attempts to decode a barcode from the given image with the readers
// chosen as described on NewMultiFormatReader, returning the first result.
func (r *MultiFormatReader) Decode(image *BinaryBitmap, opts *DecodeOptions) (*Result, error) {
	if r.readers == nil {
		r.readers = buildReaders(opts)
	}
	for _, reader := range r.readers {
		result, err := reader.Decode(image, opts)
		if err == nil {
			return result, nil
		}
	}
	if opts != nil && opts.AlsoInverted {
		// Try again with inverted image — flip the cached black matrix in-place
		matrix, err := image.BlackMatrix()
		if err == nil {
			matrix.FlipAll()
			for _, reader := range r.readers {
				result, err := reader.Decode(image, opts)
				if err == nil {
					return result, nil
				}
			}
		}
	}
	return nil, ErrNotFound
}

// DecodeWithFormat attempts to decode a barcode of the given format.
func (r *MultiFormatReader) DecodeWithFormat(image *BinaryBitmap, format Format, opts *DecodeOptions) (*Result, error) {
	if opts == nil {
		opts = &DecodeOptions{}
	}
	opts.PossibleFormats = []Format{format}
	readers := buildReaders(opts)
	for _, reader := range readers {
		result, err := reader.Decode(image, opts)
		if err == nil {
			return result, nil
		}
	}
	return nil, fmt.Errorf("no barcode of format %s found: %w", format, ErrNotFound)
}

// Reset resets all internal readers.
func (r *MultiFormatReader) Reset() {
	for _, reader := range r.readers {
		reader.Reset()
	}
	r.readers = nil
}

// buildReaders creates readers based on the options, consulting the shared
// registry populated by RegisterReader (see registry.go).
func buildReaders(opts *DecodeOptions) []Reader {
	var readers []Reader

	if opts != nil && len(opts.PossibleFormats) > 0 {
		for _, f := range opts.PossibleFormats {
			if entry, ok := registry[f]; ok && entry.newReader != nil {
				readers = append(readers, entry.newReader(opts))
			}
		}
	}

	if len(readers) == 0 {
		// Try every registered reader.
		for _, entry := range registry {
			if entry.newReader != nil {
				readers = append(readers, entry.newReader(opts))
			}
		}
	}

	return readers
}
