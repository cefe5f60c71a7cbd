package datamatrix

import symcore "github.com/gosymbol/symcore"

func init() {
	symcore.RegisterReader(symcore.FormatDataMatrix, func(opts *symcore.DecodeOptions) symcore.Reader {
		return NewReader()
	})
	symcore.RegisterWriter(symcore.FormatDataMatrix, func() symcore.Writer {
		return NewWriter()
	})
}
