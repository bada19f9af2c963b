package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeZone(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		checkFunc func(*testing.T, ZoneWeather, error)
	}{
		{
			name:    "surface zone",
			payload: "0031000429770972",
			checkFunc: func(t *testing.T, w ZoneWeather, err error) {
				require.NoError(t, err)
				assert.Equal(t, "00", w.ZoneNumber)
				assert.Equal(t, 3100, w.WindDirectionMils)
				assert.Equal(t, 4, w.WindSpeedKnots)
				assert.InDelta(t, 297.7, w.TemperatureKelvin, 1e-9)
				assert.Equal(t, 972, w.PressureMillibar)
			},
		},
		{
			name:    "upper zone",
			payload: "3164012520151013",
			checkFunc: func(t *testing.T, w ZoneWeather, err error) {
				require.NoError(t, err)
				assert.Equal(t, "31", w.ZoneNumber)
				assert.Equal(t, 6400, w.WindDirectionMils)
				assert.Equal(t, 125, w.WindSpeedKnots)
				assert.InDelta(t, 201.5, w.TemperatureKelvin, 1e-9)
				assert.Equal(t, 1013, w.PressureMillibar)
			},
		},
		{
			name:    "too short",
			payload: "123456789",
			checkFunc: func(t *testing.T, w ZoneWeather, err error) {
				var decErr *DecodeError
				require.True(t, errors.As(err, &decErr))
				assert.Equal(t, ReasonBadLength, decErr.Reason)
				assert.Equal(t, ZoneWeather{}, w)
			},
		},
		{
			name:    "too long",
			payload: "00310004297709720",
			checkFunc: func(t *testing.T, _ ZoneWeather, err error) {
				var decErr *DecodeError
				require.True(t, errors.As(err, &decErr))
				assert.Equal(t, ReasonBadLength, decErr.Reason)
			},
		},
		{
			name:    "empty payload",
			payload: "",
			checkFunc: func(t *testing.T, _ ZoneWeather, err error) {
				var decErr *DecodeError
				require.True(t, errors.As(err, &decErr))
				assert.Equal(t, ReasonBadLength, decErr.Reason)
			},
		},
		{
			name:    "letters in temperature",
			payload: "003100042A770972",
			checkFunc: func(t *testing.T, _ ZoneWeather, err error) {
				var decErr *DecodeError
				require.True(t, errors.As(err, &decErr))
				assert.Equal(t, ReasonNonNumeric, decErr.Reason)
				assert.Equal(t, "temperature", decErr.Field)
			},
		},
		{
			name:    "sign in wind speed",
			payload: "00310-0429770972",
			checkFunc: func(t *testing.T, _ ZoneWeather, err error) {
				var decErr *DecodeError
				require.True(t, errors.As(err, &decErr))
				assert.Equal(t, ReasonNonNumeric, decErr.Reason)
				assert.Equal(t, "wind_speed", decErr.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := DecodeZone(tt.payload)
			tt.checkFunc(t, w, err)
		})
	}
}

func TestEncodeZone(t *testing.T) {
	w := ZoneWeather{
		ZoneNumber:        "00",
		WindDirectionMils: 3100,
		WindSpeedKnots:    4,
		TemperatureKelvin: 297.7,
		PressureMillibar:  972,
	}
	assert.Equal(t, "0031000429770972", EncodeZone(w))
}

func TestEncodeZone_PadsSingleDigitZone(t *testing.T) {
	w := ZoneWeather{ZoneNumber: "7", WindDirectionMils: 10, WindSpeedKnots: 1, TemperatureKelvin: 0.1, PressureMillibar: 1}
	assert.Equal(t, "0700100100010001", EncodeZone(w))
}

func TestZoneRoundTrip(t *testing.T) {
	samples := []ZoneWeather{
		{ZoneNumber: "00", WindDirectionMils: 0, WindSpeedKnots: 0, TemperatureKelvin: 0, PressureMillibar: 0},
		{ZoneNumber: "31", WindDirectionMils: 9990, WindSpeedKnots: 999, TemperatureKelvin: 999.9, PressureMillibar: 9999},
		{ZoneNumber: "12", WindDirectionMils: 4560, WindSpeedKnots: 37, TemperatureKelvin: 262.3, PressureMillibar: 540},
	}

	// sweep temperatures, the only field that is scaled through floating point
	for tenths := 0; tenths <= 9999; tenths += 7 {
		samples = append(samples, ZoneWeather{
			ZoneNumber:        "05",
			WindDirectionMils: (tenths % 1000) * 10,
			WindSpeedKnots:    tenths % 1000,
			TemperatureKelvin: float64(tenths) / 10.0,
			PressureMillibar:  tenths,
		})
	}

	for _, w := range samples {
		got, err := DecodeZone(EncodeZone(w))
		require.NoError(t, err)
		require.Equal(t, w, got)
	}
}

func TestZoneWeather_AltitudeAboveDatum(t *testing.T) {
	assert.Equal(t, 1200, ZoneWeather{ZoneNumber: "12"}.AltitudeAboveDatum())
	assert.Equal(t, 0, ZoneWeather{ZoneNumber: "xx"}.AltitudeAboveDatum())
}
