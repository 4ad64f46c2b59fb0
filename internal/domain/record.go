package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wire format of WeatherRecord.Timestamp: UTC with
// millisecond precision, e.g. "2016-05-14T09:31:02.517Z".
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// RawLine is one newline-framed transmission from the station, e.g.
// "winddir=90,windspeedmph=3.2,humidity=55.5".
type RawLine = string

// WeatherRecord is a normalized, unit-converted reading. Nil fields were not
// present (or not parseable) in the source line and are omitted on the wire.
type WeatherRecord struct {
	WindDirection           *float64 `json:"wind_direction,omitempty"`
	WindSpeedKnots          *float64 `json:"wind_speed_knts,omitempty"`
	WindGustSpeedKnots      *float64 `json:"wind_gust_speed_knts,omitempty"`
	WindGustDirection       *float64 `json:"wind_gust_direction,omitempty"`
	WindSpeedKnots2Min      *float64 `json:"wind_speed_knts_2min,omitempty"`
	WindDirection2Min       *float64 `json:"wind_direction_2min,omitempty"`
	WindGustSpeedKnots10Min *float64 `json:"wind_gust_speed_knts_10min,omitempty"`
	WindGustDirection10Min  *float64 `json:"wind_gust_direction_10min,omitempty"`
	Humidity                *float64 `json:"humidity,omitempty"`
	Temperature             *float64 `json:"temperature,omitempty"`
	RainInch                *float64 `json:"rain_inch,omitempty"`
	RainInchDaily           *float64 `json:"rain_inch_daily,omitempty"`
	Pressure                *float64 `json:"pressure,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

func (r *WeatherRecord) slot(f Field) **float64 {
	switch f {
	case FieldWindDirection:
		return &r.WindDirection
	case FieldWindSpeedKnots:
		return &r.WindSpeedKnots
	case FieldWindGustSpeedKnots:
		return &r.WindGustSpeedKnots
	case FieldWindGustDirection:
		return &r.WindGustDirection
	case FieldWindSpeedKnots2Min:
		return &r.WindSpeedKnots2Min
	case FieldWindDirection2Min:
		return &r.WindDirection2Min
	case FieldWindGustSpeedKnots10Min:
		return &r.WindGustSpeedKnots10Min
	case FieldWindGustDirection10Min:
		return &r.WindGustDirection10Min
	case FieldHumidity:
		return &r.Humidity
	case FieldTemperature:
		return &r.Temperature
	case FieldRainInch:
		return &r.RainInch
	case FieldRainInchDaily:
		return &r.RainInchDaily
	case FieldPressure:
		return &r.Pressure
	default:
		return nil
	}
}

// Set stores v for f. A later Set for the same field overwrites the earlier
// value, so a repeated key in one line keeps its last occurrence.
func (r *WeatherRecord) Set(f Field, v float64) {
	if p := r.slot(f); p != nil {
		*p = &v
	}
}

// Get returns the value for f and whether it is present.
func (r *WeatherRecord) Get(f Field) (float64, bool) {
	p := r.slot(f)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// Fields returns the fields present in the record, in output order.
func (r *WeatherRecord) Fields() []Field {
	var out []Field
	for _, f := range AllFields {
		if _, ok := r.Get(f); ok {
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of measurements present, excluding the timestamp.
func (r *WeatherRecord) Len() int {
	return len(r.Fields())
}

// MarshalJSON renders the record as one flat object with a millisecond UTC timestamp.
func (r WeatherRecord) MarshalJSON() ([]byte, error) {
	type plain WeatherRecord
	return json.Marshal(struct {
		plain
		Timestamp string `json:"timestamp"`
	}{
		plain:     plain(r),
		Timestamp: r.Timestamp.UTC().Format(TimestampLayout),
	})
}

// UnmarshalJSON accepts the format produced by MarshalJSON.
func (r *WeatherRecord) UnmarshalJSON(data []byte) error {
	type plain WeatherRecord
	aux := struct {
		*plain
		Timestamp string `json:"timestamp"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Timestamp == "" {
		r.Timestamp = time.Time{}
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, aux.Timestamp)
	if err != nil {
		return fmt.Errorf("parse record timestamp: %w", err)
	}
	r.Timestamp = ts
	return nil
}
