package pdf417

import symcore "github.com/gosymbol/symcore"

func init() {
	symcore.RegisterReader(symcore.FormatPDF417, func(opts *symcore.DecodeOptions) symcore.Reader {
		return NewPDF417Reader()
	})
	symcore.RegisterWriter(symcore.FormatPDF417, func() symcore.Writer {
		return NewPDF417Writer()
	})
}
