package symcore

// symbology is the single registration record a per-format package
// contributes to the root dispatch tables. A format's reader and writer are
// very often added by different files within the same package (the oned
// family registers one shared reader factory for a dozen formats and then a
// distinct writer factory per format, one call each), so RegisterReader and
// RegisterWriter fill in whichever half of the record they're given rather
// than requiring both at once.
type symbology struct {
	format    Format
	newReader func(opts *DecodeOptions) Reader
	newWriter func() Writer
}

// registry holds one symbology entry per registered Format, populated by
// each per-symbology package's init().
var registry = map[Format]*symbology{}

func registryEntry(format Format) *symbology {
	entry, ok := registry[format]
	if !ok {
		entry = &symbology{format: format}
		registry[format] = entry
	}
	return entry
}

// RegisterReader registers a reader factory for the given format. This should
// be called from an init() function in format-specific packages.
func RegisterReader(format Format, factory func(opts *DecodeOptions) Reader) {
	registryEntry(format).newReader = factory
}

// RegisterWriter registers a writer factory for the given format. This should
// be called from an init() function in format-specific packages.
func RegisterWriter(format Format, factory func() Writer) {
	registryEntry(format).newWriter = factory
}
