package logx

import (
	"regexp"
)

type SensitiveDataMaskerInterface interface {
	Mask(input []byte) []byte
}

//nolint:gochecknoglobals
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)(Authorization: Bearer ).+?(\r)"),
	// Provider credentials travel as a query parameter, mask them in dumped
	// request lines and bodies.
	regexp.MustCompile(`(api_key=)[^&\s"]+()`),
	regexp.MustCompile(`(?s)("api_key":\s?").+?(")`),
	// Webhook URLs embed a secret token in the path.
	regexp.MustCompile(`(?s)("webhookUrl":\s?").+?(")`),
	regexp.MustCompile(`(?s)("webhook_url":\s?").+?(")`),
	regexp.MustCompile(`(?s)("email":\s?").+?(")`),
}

type SensitiveDataMasker struct{}

func NewSensitiveDataMasker() SensitiveDataMasker {
	return SensitiveDataMasker{}
}

func (s SensitiveDataMasker) Mask(input []byte) []byte {
	for _, pattern := range sensitiveDataPatterns {
		input = pattern.ReplaceAll(input, []byte("${1}[MASKED]${2}"))
	}

	return input
}
