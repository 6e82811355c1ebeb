package util

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{name: "seconds", input: "30s", expected: 30 * time.Second},
		{name: "milliseconds", input: "500ms", expected: 500 * time.Millisecond},
		{name: "microseconds", input: "7micros", expected: 7 * time.Microsecond},
		{name: "nanoseconds", input: "9nanos", expected: 9 * time.Nanosecond},
		{name: "minutes", input: "5m", expected: 5 * time.Minute},
		{name: "hours", input: "2h", expected: 2 * time.Hour},
		{name: "days", input: "1d", expected: Day},
		{name: "weeks", input: "2w", expected: 2 * Week},
		{name: "surrounding space", input: " 3s ", expected: 3 * time.Second},
		{name: "no limit", input: "-1", expected: -1},
		{name: "zero", input: "0", expected: 0},

		{name: "empty", input: "", wantErr: true},
		{name: "missing unit", input: "30", wantErr: true},
		{name: "unknown unit", input: "3y", wantErr: true},
		{name: "missing number", input: "ms", wantErr: true},
		{name: "compound value", input: "1h30m", wantErr: true},
		{name: "negative", input: "-5s", wantErr: true},
		{name: "fraction", input: "1.5s", wantErr: true},
		{name: "overflow", input: "999999999999d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeValue(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtendedParseDuration(t *testing.T) {
	d, err := ExtendedParseDuration("1h30m45s")
	require.NoError(t, err)
	assert.Equal(t, time.Hour+30*time.Minute+45*time.Second, d)

	d, err = ExtendedParseDuration("3d")
	require.NoError(t, err)
	assert.Equal(t, 3*Day, d)

	_, err = ExtendedParseDuration("soon")
	assert.Error(t, err)
}

func TestDurationJSON(t *testing.T) {
	var cfg struct {
		Timeout Duration `json:"timeout"`
		Raw     Duration `json:"raw"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"timeout":"2d","raw":1000}`), &cfg))
	assert.Equal(t, Duration(2*Day), cfg.Timeout)
	assert.Equal(t, Duration(time.Microsecond), cfg.Raw)

	out, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"timeout":"later"}`), &cfg))
	assert.Error(t, json.Unmarshal([]byte(`{"timeout":true}`), &cfg))
}
