package logx

type NopSensitiveDataMasker struct{}

func NewNopSensitiveDataMasker() NopSensitiveDataMasker {
	return NopSensitiveDataMasker{}
}

func (s NopSensitiveDataMasker) Mask(input []byte) []byte {
	return input
}
