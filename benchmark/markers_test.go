package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarker(t *testing.T) {
	tests := []struct {
		line string
		want Marker
	}{
		{"/forc-perf start parse", Marker{Kind: MarkerStart, Name: "parse"}},
		{"  /forc-perf start parse", Marker{Kind: MarkerStart, Name: "parse"}},
		{"\t/forc-perf stop type check \t", Marker{Kind: MarkerStop, Name: "type check"}},
		{"/forc-perf size 1234", Marker{Kind: MarkerSize, Size: 1234}},
		{"/forc-perf size 0", Marker{Kind: MarkerSize, Size: 0}},
		{"hello world", Marker{Kind: MarkerNone}},
		{"", Marker{Kind: MarkerNone}},
		{"/forc-perf start", Marker{Kind: MarkerNone}},
		{"/forc-perf restart parse", Marker{Kind: MarkerNone}},
		{"x /forc-perf start parse", Marker{Kind: MarkerNone}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseMarker(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMarkerKeepsInnerPayloadWhitespace(t *testing.T) {
	got, err := ParseMarker("/forc-perf start  padded")
	require.NoError(t, err)
	assert.Equal(t, " padded", got.Name)
}

func TestParseMarkerBadSize(t *testing.T) {
	for _, line := range []string{"/forc-perf size abc", "/forc-perf size -1", "/forc-perf size 1.5"} {
		_, err := ParseMarker(line)
		assert.ErrorIs(t, err, ErrProtocolViolation, line)
	}
}

func TestMarkerKindString(t *testing.T) {
	assert.Equal(t, "start", MarkerStart.String())
	assert.Equal(t, "stop", MarkerStop.String())
	assert.Equal(t, "size", MarkerSize.String())
	assert.Equal(t, "none", MarkerNone.String())
}
