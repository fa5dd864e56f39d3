package logx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"buybox_tracker/pkg/logx"
)

func TestSensitiveDataMasker(t *testing.T) {
	rq := require.New(t)

	masker := logx.NewSensitiveDataMasker()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "api key in query string",
			input:    `GET /request?api_key=AB12CD34&type=product&asin=B000000000`,
			expected: `GET /request?api_key=[MASKED]&type=product&asin=B000000000`,
		},
		{
			name:     "api key in json body",
			input:    `{"api_key": "AB12CD34","type":"product"}`,
			expected: `{"api_key": "[MASKED]","type":"product"}`,
		},
		{
			name:     "webhook url",
			input:    `{"webhookUrl": "https://discord.com/api/webhooks/1/secret-token"}`,
			expected: `{"webhookUrl": "[MASKED]"}`,
		},
		{
			name:     "email",
			input:    `{"email": "operator@example.com"}`,
			expected: `{"email": "[MASKED]"}`,
		},
		{
			name:     "nothing sensitive",
			input:    `{"item_id": "B000000000"}`,
			expected: `{"item_id": "B000000000"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			rq.Equal(tc.expected, string(masker.Mask([]byte(tc.input))))
		})
	}
}

func TestNopSensitiveDataMasker(t *testing.T) {
	rq := require.New(t)

	masker := logx.NewNopSensitiveDataMasker()

	input := `{"api_key": "AB12CD34"}`
	rq.Equal(input, string(masker.Mask([]byte(input))))
}
