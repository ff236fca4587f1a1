package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPence(t *testing.T) {
	m := FromPence(4550)
	assert.Equal(t, "45.50", m.String())
	assert.Equal(t, int64(4550), m.Pence())
}

func TestFromStringRoundsToTwoPlaces(t *testing.T) {
	m, err := FromString("12.345")
	require.NoError(t, err)
	assert.Equal(t, int64(1235), m.Pence())

	_, err = FromString("not money")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFromFloatRejectsNonFinite(t *testing.T) {
	_, err := FromFloat(1.0 / 0.0000000000000000001)
	require.NoError(t, err)

	nan := 0.0
	_, err = FromFloat(nan / nan)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestArithmeticKeepsTwoPlaces(t *testing.T) {
	a := MustFromString("2.00")
	b := a.MulInt(20)
	assert.Equal(t, int64(4000), b.Pence())

	diff := MustFromString("45.50").Sub(MustFromString("45.51"))
	assert.Equal(t, int64(-1), diff.Pence())
	assert.True(t, diff.IsNegative())
	assert.Equal(t, int64(1), diff.Abs().Pence())
}

func TestJSONRoundTrip(t *testing.T) {
	original := MustFromString("145.00")
	payload, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `"145.00"`, string(payload))

	var decoded Money
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Zero(t, original.Cmp(decoded))
}

func TestSQLValueScan(t *testing.T) {
	m := MustFromString("30.00")
	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(3000), v)

	var scanned Money
	require.NoError(t, scanned.Scan(int64(3000)))
	assert.Zero(t, m.Cmp(scanned))
}

func TestConsignmentCount(t *testing.T) {
	c, err := NewConsignmentCount(20)
	require.NoError(t, err)
	assert.Equal(t, 20, c.Int())

	_, err = NewConsignmentCount(-1)
	assert.ErrorIs(t, err, ErrInvalidCount)

	_, err = CountFromFloat(2.5)
	assert.ErrorIs(t, err, ErrInvalidCount)

	c, err = CountFromFloat(12)
	require.NoError(t, err)
	assert.Equal(t, 12, c.Int())
}
