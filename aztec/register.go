package aztec

import symcore "github.com/gosymbol/symcore"

func init() {
	symcore.RegisterReader(symcore.FormatAztec, func(opts *symcore.DecodeOptions) symcore.Reader {
		return NewReader()
	})
	symcore.RegisterWriter(symcore.FormatAztec, func() symcore.Writer {
		return NewWriter()
	})
}
