package journal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatActivityOrg(t *testing.T) {
	t.Parallel()

	a := sample(1)
	a.OrderID = "01HV0000000000000000ABCDEF"
	result := FormatActivityOrg(a)

	assert.Contains(t, result, "** BUY AAPL filled (00ABCDEF)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":ORDER_ID: 01HV0000000000000000ABCDEF")
	assert.Contains(t, result, ":SOURCE: signal")
	assert.Contains(t, result, ":TIME: 2024-04-10T09:01:00Z")
	assert.Contains(t, result, ":FILL_QTY: 1.5")
	assert.Contains(t, result, ":FILL_PRICE: 187.2500")
	assert.Contains(t, result, ":CASH_DELTA: -280.88")
	assert.Contains(t, result, ":FINGERPRINT: AAPL|buy|1|2024-04-10")
	assert.NotContains(t, result, ":REASON:")
	assert.Contains(t, result, ":END:")
}

func TestFormatActivitiesOrg(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatActivitiesOrg(nil))

	result := FormatActivitiesOrg([]Activity{sample(1), sample(2)})
	assert.Equal(t, 2, strings.Count(result, ":END:"))
	assert.Len(t, strings.Split(result, ":END:\n\n"), 2)
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"long ID keeps tail", "01HV0000000000000000ABCDEF", "00ABCDEF"},
		{"exactly 8 characters", "12345678", "12345678"},
		{"less than 8 characters", "short", "short"},
		{"empty string", "", ""},
		{"exactly 9 characters", "123456789", "23456789"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shortID(tt.input))
		})
	}
}
