package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherRecord_MarshalJSON(t *testing.T) {
	rec := WeatherRecord{Timestamp: testNow}
	rec.Set(FieldWindDirection, 0)
	rec.Set(FieldHumidity, 55.5)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"wind_direction":0,"humidity":55.5,"timestamp":"2016-05-14T09:31:02.517Z"}`, string(data))
}

func TestWeatherRecord_TimestampRenderedInUTC(t *testing.T) {
	paris := time.FixedZone("CEST", 2*60*60)
	rec := WeatherRecord{Timestamp: time.Date(2016, time.May, 14, 11, 31, 2, 0, paris)}
	rec.Set(FieldPressure, 1013.2)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp":"2016-05-14T09:31:02.000Z"`)
}

func TestWeatherRecord_UnmarshalJSON(t *testing.T) {
	var rec WeatherRecord
	err := json.Unmarshal([]byte(`{"temperature":21.3,"rain_inch":0,"timestamp":"2016-05-14T09:31:02.517Z"}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, []Field{FieldTemperature, FieldRainInch}, rec.Fields())
	assert.True(t, testNow.Equal(rec.Timestamp))

	err = json.Unmarshal([]byte(`{"timestamp":"yesterday"}`), &rec)
	assert.Error(t, err)
}

func TestWeatherRecord_GetSet(t *testing.T) {
	var rec WeatherRecord
	assert.Zero(t, rec.Len())

	_, ok := rec.Get(FieldTemperature)
	assert.False(t, ok)

	rec.Set(FieldTemperature, 12)
	v, ok := rec.Get(FieldTemperature)
	require.True(t, ok)
	assert.Equal(t, 12.0, v)
	assert.Equal(t, 1, rec.Len())

	rec.Set(Field(99), 1)
	_, ok = rec.Get(Field(99))
	assert.False(t, ok)
	assert.Equal(t, 1, rec.Len())
}

func TestField_String(t *testing.T) {
	assert.Equal(t, "wind_speed_knts_2min", FieldWindSpeedKnots2Min.String())
	assert.Equal(t, "rain_inch_daily", FieldRainInchDaily.String())
	assert.Equal(t, "unknown", Field(0).String())
	for _, f := range AllFields {
		assert.NotEqual(t, "unknown", f.String())
	}
}
