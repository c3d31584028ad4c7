package units_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/sizeconv/units"
)

func TestMultipliers(t *testing.T) {
	t.Parallel()

	want := []float64{1, 1024, 1048576, 1073741824, 1099511627776}
	for i, u := range units.All() {
		assert.Exactly(t, want[i], u.Multiplier(), u.String())
	}
}

func TestConvertKnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value    float64
		from, to units.Unit
		expected float64
	}{
		{1, units.GB, units.MB, 1024},
		{1, units.TB, units.GB, 1024},
		{1024, units.KB, units.MB, 1},
		{1, units.TB, units.B, 1099511627776},
		{512, units.MB, units.GB, 0.5},
		{1.5, units.KB, units.B, 1536},
	}
	for _, test := range tests {
		test := test
		t.Run(fmt.Sprintf("%v %s to %s", test.value, test.from, test.to), func(t *testing.T) {
			t.Parallel()

			assert.Exactly(t, test.expected, units.Convert(test.value, test.from, test.to))
		})
	}
}

func TestConvertIdentityAndZero(t *testing.T) {
	t.Parallel()

	values := []float64{0, 1, 0.1, 3.75, 1e9, 123456.789, 1e300, math.MaxFloat64}
	for _, from := range units.All() {
		for _, to := range units.All() {
			assert.Zero(t, units.Convert(0, from, to), "%s -> %s", from, to)
		}
		for _, v := range values {
			assert.Exactly(t, v, units.Convert(v, from, from), "%v %s", v, from)
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	t.Parallel()

	values := []float64{1, 0.3, 42, 1e-3, 987654.321}
	for _, a := range units.All() {
		for _, b := range units.All() {
			for _, v := range values {
				got := units.Convert(units.Convert(v, a, b), b, a)
				assert.InDelta(t, v, got, v*1e-12, "%v %s -> %s -> %s", v, a, b, a)
			}
		}
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	v, err := units.ParseValue(" 2.5 ")
	require.NoError(t, err)
	assert.Exactly(t, 2.5, v)

	v, err = units.ParseValue("1e3")
	require.NoError(t, err)
	assert.Exactly(t, 1000.0, v)

	for _, text := range []string{"", "abc", "1,5", "NaN", "inf", "-1", "12GB"} {
		_, err := units.ParseValue(text)
		assert.ErrorIs(t, err, units.ErrInvalidInput, "%q", text)
	}
}

func TestParseUnit(t *testing.T) {
	t.Parallel()

	for _, u := range units.All() {
		got, err := units.ParseUnit(u.String())
		require.NoError(t, err)
		assert.Equal(t, u, got)
	}

	got, err := units.ParseUnit(" gb")
	require.NoError(t, err)
	assert.Equal(t, units.GB, got)

	_, err = units.ParseUnit("PB")
	assert.ErrorIs(t, err, units.ErrUnknownUnit)
}

func TestUnitText(t *testing.T) {
	t.Parallel()

	var u units.Unit
	require.NoError(t, u.UnmarshalText([]byte("tb")))
	assert.Equal(t, units.TB, u)

	text, err := units.MB.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "MB", string(text))

	_, err = units.Unit(9).MarshalText()
	assert.ErrorIs(t, err, units.ErrUnknownUnit)
	assert.Equal(t, "Unit(9)", units.Unit(9).String())
}

func TestConvertString(t *testing.T) {
	t.Parallel()

	res, err := units.ConvertString("1", units.GB, units.MB)
	require.NoError(t, err)
	assert.Exactly(t, 1024.0, res.Value)
	assert.Equal(t, "1 GB = 1,024 MB", res.String())

	_, err = units.ConvertString("one", units.GB, units.MB)
	assert.ErrorIs(t, err, units.ErrInvalidInput)
}

func TestConvertOverflow(t *testing.T) {
	t.Parallel()

	_, err := units.Request{Value: math.MaxFloat64, From: units.TB, To: units.B}.Convert()
	assert.ErrorIs(t, err, units.ErrInvalidInput)

	res, err := units.Request{Value: math.MaxFloat64, From: units.B, To: units.TB}.Convert()
	require.NoError(t, err)
	assert.Exactly(t, math.MaxFloat64/1099511627776, res.Value)

	res, err = units.ConvertString("1e300", units.GB, units.TB)
	require.NoError(t, err)
	assert.Exactly(t, 1e300/1024, res.Value)

	_, err = units.Request{Value: math.Inf(1), From: units.B, To: units.B}.Convert()
	assert.ErrorIs(t, err, units.ErrInvalidInput)

	_, err = units.Request{Value: 1, From: units.Unit(-1), To: units.B}.Convert()
	assert.ErrorIs(t, err, units.ErrUnknownUnit)
}

func TestResultFormat(t *testing.T) {
	t.Parallel()

	res, err := units.Request{Value: 1, From: units.TB, To: units.KB}.Convert()
	require.NoError(t, err)
	assert.Equal(t, "1 TB = 1,073,741,824 KB", res.String())

	res, err = units.Request{Value: 1536, From: units.KB, To: units.MB}.Convert()
	require.NoError(t, err)
	assert.Equal(t, "1536 KB = 2 MB", res.String())
	assert.Equal(t, "1536 KB = 1.50 MB", res.Format(2))

	assert.Equal(t, "1,024.000000", units.Group(1024, 99))
	assert.Equal(t, "1,024", units.Group(1024, -1))
}

func TestAdjust(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		step     int
		expected string
	}{
		{"1", 1, "2"},
		{"1", -1, "0"},
		{"0", -1, "0"},
		{"", 1, "1"},
		{"", -1, "0"},
		{"2.7", 1, "3"},
		{"2.7", -1, "1"},
		{"0.4", -1, "0"},
		{" 10 ", 5, "15"},
	}
	for _, test := range tests {
		test := test
		t.Run(fmt.Sprintf("%q%+d", test.text, test.step), func(t *testing.T) {
			t.Parallel()

			got, err := units.Adjust(test.text, test.step)
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}

	got, err := units.Adjust("abc", 1)
	assert.ErrorIs(t, err, units.ErrInvalidInput)
	assert.Equal(t, "abc", got)
}
