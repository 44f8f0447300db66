package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentMethodsUnmarshalBadCell(t *testing.T) {
	cases := []struct {
		name string
		cell string
	}{
		{"empty", ""},
		{"garbage", "not json at all"},
		{"truncated", `["Bank Transfer"`},
		{"wrong type", `{"a":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var pm PaymentMethods
			err := pm.UnmarshalCSV(tc.cell)
			assert.NoError(t, err, "bad cells degrade to empty, never error")
			assert.Empty(t, pm)
		})
	}
}

func TestPaymentMethodsMarshalEmpty(t *testing.T) {
	var pm PaymentMethods
	cell, err := pm.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "[]", cell)
}

func TestSourceListRoundTrip(t *testing.T) {
	s := SourceList{"BBC", "Reuters", "Al Jazeera"}
	cell, err := s.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "BBC; Reuters; Al Jazeera", cell)

	var back SourceList
	require.NoError(t, back.UnmarshalCSV(cell))
	assert.Equal(t, s, back)
}

func TestDateTimeCSVRoundTrip(t *testing.T) {
	dt := DateTime{time.Date(2023, 4, 15, 9, 30, 0, 0, time.UTC)}
	cell, err := dt.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "2023-04-15T09:30:00Z", cell)

	var back DateTime
	require.NoError(t, back.UnmarshalCSV(cell))
	assert.True(t, dt.Equal(back.Time))
}

func TestDateTimeZeroMarshalsEmpty(t *testing.T) {
	var dt DateTime
	cell, err := dt.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "", cell)

	var back DateTime
	require.NoError(t, back.UnmarshalCSV(""))
	assert.True(t, back.IsZero())
}

func TestDateCSVRoundTrip(t *testing.T) {
	d := Date{time.Date(2021, 2, 5, 0, 0, 0, 0, time.UTC)}
	cell, err := d.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "2021-02-05", cell)

	var back Date
	require.NoError(t, back.UnmarshalCSV(cell))
	assert.True(t, d.Equal(back.Time))
}

func TestNewAdvertisementHasNilPremium(t *testing.T) {
	ad := Advertisement{
		Platform:  PlatformBinance,
		TradeType: TradeBuy,
	}
	assert.False(t, ad.PremiumPct.Valid, "premium is unknown until rates resolve")
	assert.False(t, ad.OfficialRate.Valid)
}

func TestNullFloat64UnsetMarshalsEmpty(t *testing.T) {
	cell, err := NullFloat64{}.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "", cell)
}

func TestNullFloat64EmptyCellStaysUnset(t *testing.T) {
	var n NullFloat64
	require.NoError(t, n.UnmarshalCSV(""))
	assert.False(t, n.Valid)

	require.NoError(t, n.UnmarshalCSV("  "))
	assert.False(t, n.Valid)
}

func TestNullFloat64RoundTrip(t *testing.T) {
	n := Float64(383.33)
	cell, err := n.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "383.33", cell)

	var back NullFloat64
	require.NoError(t, back.UnmarshalCSV(cell))
	assert.Equal(t, n, back)
}

func TestNullFloat64ZeroIsNotUnset(t *testing.T) {
	cell, err := Float64(0).MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "0", cell)

	var back NullFloat64
	require.NoError(t, back.UnmarshalCSV(cell))
	assert.True(t, back.Valid, "a stored zero premium is a real observation")
	assert.Equal(t, 0.0, back.Float64)
}

func TestNullFloat64RejectsGarbage(t *testing.T) {
	var n NullFloat64
	assert.Error(t, n.UnmarshalCSV("not-a-number"))
}
