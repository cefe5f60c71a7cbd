package qrcode

import symcore "github.com/gosymbol/symcore"

func init() {
	symcore.RegisterReader(symcore.FormatQRCode, func(opts *symcore.DecodeOptions) symcore.Reader {
		return NewReader()
	})
	symcore.RegisterWriter(symcore.FormatQRCode, func() symcore.Writer {
		return NewWriter()
	})
}
