package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/bistro-suite/bistro/testing"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "12.34", want: 1234},
		{in: "12,34", want: 1234},
		{in: "12.345", want: 1235},
		{in: "12.346", want: 1235},
		{in: "0", want: 0},
		{in: "200", want: 20000},
		{in: ".50", want: 50},
		{in: "-1.00", wantErr: true},
		{in: "+1.00", wantErr: true},
		{in: "1.2.3", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got.Cents(), "input %q", tc.in)
	}
}

func TestApplyPercentRoundsHalfUp(t *testing.T) {
	assert.Equal(t, int64(1800), FromCents(18000).ApplyPercent(10).Cents())
	assert.Equal(t, int64(2000), FromCents(20000).ApplyPercent(10).Cents())
	// 10.5% of R$ 1,00 = 10.5 centavos, rounds up.
	assert.Equal(t, int64(11), FromCents(100).ApplyPercent(10.5).Cents())
	// 4.5% of R$ 1,00 = 4.5 centavos, half-up.
	assert.Equal(t, int64(5), FromCents(100).ApplyPercent(4.5).Cents())
}

func TestSubFloor(t *testing.T) {
	assert.Equal(t, FromCents(0), FromCents(100).SubFloor(FromCents(150)))
	assert.Equal(t, FromCents(50), FromCents(100).SubFloor(FromCents(50)))
}

func TestJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(FromCents(19800))
	require.NoError(t, err)
	assert.Equal(t, "198.00", string(raw))

	var m Money
	require.NoError(t, json.Unmarshal([]byte("198.00"), &m))
	assert.Equal(t, FromCents(19800), m)

	require.NoError(t, json.Unmarshal([]byte(`"42,07"`), &m))
	assert.Equal(t, FromCents(4207), m)
}

func TestJSONRoundTripNegative(t *testing.T) {
	// Net totals and period differences go negative; they must survive the
	// marshal/unmarshal cycle the response cache performs.
	raw, err := json.Marshal(FromCents(-30000))
	require.NoError(t, err)
	assert.Equal(t, "-300.00", string(raw))

	var m Money
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, FromCents(-30000), m)

	require.NoError(t, json.Unmarshal([]byte(`"-0,50"`), &m))
	assert.Equal(t, FromCents(-50), m)
}

func TestFormatBR(t *testing.T) {
	assert.Equal(t, "1.234,56", FromCents(123456).FormatBR())
}
