package oned

import symcore "github.com/gosymbol/symcore"

func init() {
	// Register all 1D readers via the multi-format 1D reader.
	oneDReaderFactory := func(opts *symcore.DecodeOptions) symcore.Reader {
		return NewMultiFormatOneDReader(opts)
	}
	symcore.RegisterReader(symcore.FormatCode128, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatCode39, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatEAN13, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatEAN8, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatUPCA, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatUPCE, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatITF, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatCodabar, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatRSS14, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatRSSExpanded, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatCode93, oneDReaderFactory)
	symcore.RegisterReader(symcore.FormatTelepen, oneDReaderFactory)

	// Register writers
	symcore.RegisterWriter(symcore.FormatCode128, func() symcore.Writer { return NewCode128Writer() })
	symcore.RegisterWriter(symcore.FormatCode39, func() symcore.Writer { return NewCode39Writer() })
	symcore.RegisterWriter(symcore.FormatEAN13, func() symcore.Writer { return NewEAN13Writer() })
	symcore.RegisterWriter(symcore.FormatEAN8, func() symcore.Writer { return NewEAN8Writer() })
	symcore.RegisterWriter(symcore.FormatUPCA, func() symcore.Writer { return NewUPCAWriter() })
	symcore.RegisterWriter(symcore.FormatUPCE, func() symcore.Writer { return NewUPCEWriter() })
	symcore.RegisterWriter(symcore.FormatITF, func() symcore.Writer { return NewITFWriter() })
	symcore.RegisterWriter(symcore.FormatCodabar, func() symcore.Writer { return NewCodabarWriter() })
	symcore.RegisterWriter(symcore.FormatCode93, func() symcore.Writer { return NewCode93Writer() })
	symcore.RegisterWriter(symcore.FormatTelepen, func() symcore.Writer { return NewTelepenWriter() })
	symcore.RegisterWriter(symcore.FormatRSS14, func() symcore.Writer { return NewRSS14Writer() })
}
