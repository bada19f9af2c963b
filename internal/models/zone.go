package models

import (
	"fmt"
	"math"
	"strconv"
)

// ZoneWeather is the decoded content of one 16-digit zone payload
type ZoneWeather struct {
	ZoneNumber        string  `json:"zone_number"`
	WindDirectionMils int     `json:"wind_direction_mils"`
	WindSpeedKnots    int     `json:"wind_speed_knots"`
	TemperatureKelvin float64 `json:"temperature_kelvin"`
	PressureMillibar  int     `json:"pressure_millibar"`
}

// DecodeZone parses a zone payload
// Layout: [0:2] zone number, [2:5] wind direction in tens of mils, [5:8] wind speed in knots,
// [8:12] virtual temperature in tenths of a kelvin, [12:16] pressure in millibars
func DecodeZone(payload string) (ZoneWeather, error) {
	if len(payload) != ZonePayloadLen {
		return ZoneWeather{}, &DecodeError{Reason: ReasonBadLength, Payload: payload}
	}

	for _, f := range zoneFields {
		if !isDigits(payload[f.start:f.end]) {
			return ZoneWeather{}, &DecodeError{Reason: ReasonNonNumeric, Field: f.name, Payload: payload}
		}
	}

	// Digits were checked above, Atoi cannot fail on them
	field := func(f zoneField) int {
		n, _ := strconv.Atoi(payload[f.start:f.end])
		return n
	}

	return ZoneWeather{
		ZoneNumber:        payload[zoneNumberField.start:zoneNumberField.end],
		WindDirectionMils: field(windDirectionField) * 10,
		WindSpeedKnots:    field(windSpeedField),
		TemperatureKelvin: float64(field(temperatureField)) / 10.0,
		PressureMillibar:  field(pressureField),
	}, nil
}

// EncodeZone formats w as a 16-digit payload. Values wider than their field are a caller error.
func EncodeZone(w ZoneWeather) string {
	zone := w.ZoneNumber
	for len(zone) < 2 {
		zone = "0" + zone
	}

	tempTenths := int(math.Round(w.TemperatureKelvin * 10))

	return fmt.Sprintf("%s%03d%03d%04d%04d",
		zone,
		w.WindDirectionMils/10,
		w.WindSpeedKnots,
		tempTenths,
		w.PressureMillibar,
	)
}

// AltitudeAboveDatum returns the nominal height the zone number denotes (zone * 100 m above the MDP)
func (w ZoneWeather) AltitudeAboveDatum() int {
	n, err := strconv.Atoi(w.ZoneNumber)
	if err != nil {
		return 0
	}
	return n * 100
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
