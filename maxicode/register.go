package maxicode

import symcore "github.com/gosymbol/symcore"

func init() {
	symcore.RegisterReader(symcore.FormatMaxiCode, func(opts *symcore.DecodeOptions) symcore.Reader {
		return NewReader()
	})
	symcore.RegisterWriter(symcore.FormatMaxiCode, func() symcore.Writer {
		return NewWriter()
	})
}
