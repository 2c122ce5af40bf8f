package scifile

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDestinationKey(t *testing.T) {
	filename := "hermes_eea_l1_20230211T000000_v1.0.0.cdf"
	d, err := Parse(filename)
	require.NoError(t, err)

	key, err := BuildDestinationKey(d, filename)
	require.NoError(t, err)
	assert.Equal(t, "l1/2023/02/hermes_eea_l1_20230211T000000_v1.0.0.cdf", key)
}

func TestBuildDestinationKeyIsPure(t *testing.T) {
	d := Descriptor{Level: "l1", Timestamp: time.Date(2024, time.November, 3, 12, 0, 0, 0, time.UTC)}

	first, err := BuildDestinationKey(d, "a.cdf")
	require.NoError(t, err)
	second, err := BuildDestinationKey(d, "a.cdf")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildDestinationKeyZeroPadsMonth(t *testing.T) {
	for month := time.January; month <= time.September; month++ {
		t.Run(month.String(), func(t *testing.T) {
			d := Descriptor{Level: "l1", Timestamp: time.Date(2023, month, 1, 0, 0, 0, 0, time.UTC)}
			key, err := BuildDestinationKey(d, "f.cdf")
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("l1/2023/0%d/f.cdf", int(month)), key)
		})
	}
}

func TestBuildDestinationKeyMissingFields(t *testing.T) {
	ts := time.Date(2023, time.February, 11, 0, 0, 0, 0, time.UTC)

	cases := map[string]struct {
		d        Descriptor
		filename string
	}{
		"missing level":     {Descriptor{Timestamp: ts}, "f.cdf"},
		"missing timestamp": {Descriptor{Level: "l1"}, "f.cdf"},
		"missing filename":  {Descriptor{Level: "l1", Timestamp: ts}, ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BuildDestinationKey(tc.d, tc.filename)
			require.Error(t, err)

			var kerr *KeyError
			assert.True(t, errors.As(err, &kerr))
		})
	}
}
