package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateDMY(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"19.01.2026", mustDate(2026, time.January, 19)},
		{"01.02.2026.", mustDate(2026, time.February, 1)},
		{"3.1.2026", mustDate(2026, time.January, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDateDMY(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateDMYSlash(t *testing.T) {
	got, err := ParseDateDMYSlash("18/02/2026")
	require.NoError(t, err)
	assert.Equal(t, mustDate(2026, time.February, 18), got)
}

func TestParseDateYMD(t *testing.T) {
	got, err := ParseDateYMD("2026.02.24")
	require.NoError(t, err)
	assert.Equal(t, mustDate(2026, time.February, 24), got)
}

func TestParseDate_Invalid(t *testing.T) {
	tests := []string{
		"",
		"not a date",
		"32.01.2026", // day out of range
		"15.13.2026", // month out of range
		"2026.01.15", // wrong order for DMY
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDateDMY(input)
			assert.Error(t, err)
		})
	}
}
