package scifile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawTelemetryName(t *testing.T) {
	d, err := Parse("hermes_EEA_l0_2023042-000000_v0.bin")
	require.NoError(t, err)

	assert.Equal(t, "hermes", d.Mission)
	assert.Equal(t, "eea", d.Instrument, "instrument should be normalized to lower case")
	assert.Equal(t, "l0", d.Level)
	assert.Equal(t, "0", d.Version)
	assert.Equal(t, 2023, d.Timestamp.Year())
	assert.Equal(t, 42, d.Timestamp.YearDay())
}

func TestParseCalibratedName(t *testing.T) {
	d, err := Parse("hermes_eea_l1_20230211T000000_v1.0.0.cdf")
	require.NoError(t, err)

	assert.Equal(t, "eea", d.Instrument)
	assert.Equal(t, "l1", d.Level)
	assert.Equal(t, "1.0.0", d.Version)
	assert.Equal(t, time.Date(2023, time.February, 11, 0, 0, 0, 0, time.UTC), d.Timestamp)
}

func TestParseStripsLeadingPath(t *testing.T) {
	d, err := Parse("incoming/2023/hermes_merit_ql_20230210T000018_v1.0.1.cdf")
	require.NoError(t, err)
	assert.Equal(t, "merit", d.Instrument)
	assert.Equal(t, "ql", d.Level)
}

func TestParseRejectsMalformedNames(t *testing.T) {
	cases := map[string]string{
		"missing segments":      "hermes_eea_l1.cdf",
		"unknown level":         "hermes_eea_l9_20230211T000000_v1.0.0.cdf",
		"non-numeric timestamp": "hermes_eea_l1_notadate_v1.0.0.cdf",
		"raw layout on l1":      "hermes_eea_l1_2023042-000000_v1.0.0.cdf",
		"missing version tag":   "hermes_eea_l1_20230211T000000_1.0.0.cdf",
		"empty instrument":      "hermes__l1_20230211T000000_v1.0.0.cdf",
		"plain text":            "test-file-key.txt",
	}

	for name, filename := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(filename)
			require.Error(t, err)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr), "expected a ParseError, got %T", err)
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	first, err := Parse("hermes_spani_l0_2023040-000018_v1.bin")
	require.NoError(t, err)
	second, err := Parse("hermes_spani_l0_2023040-000018_v1.bin")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
