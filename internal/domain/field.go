package domain

// Field identifies one normalized measurement in a WeatherRecord.
type Field int

const (
	FieldWindDirection Field = iota + 1
	FieldWindSpeedKnots
	FieldWindGustSpeedKnots
	FieldWindGustDirection
	FieldWindSpeedKnots2Min
	FieldWindDirection2Min
	FieldWindGustSpeedKnots10Min
	FieldWindGustDirection10Min
	FieldHumidity
	FieldTemperature
	FieldRainInch
	FieldRainInchDaily
	FieldPressure
)

// AllFields lists every field in output order.
var AllFields = []Field{
	FieldWindDirection,
	FieldWindSpeedKnots,
	FieldWindGustSpeedKnots,
	FieldWindGustDirection,
	FieldWindSpeedKnots2Min,
	FieldWindDirection2Min,
	FieldWindGustSpeedKnots10Min,
	FieldWindGustDirection10Min,
	FieldHumidity,
	FieldTemperature,
	FieldRainInch,
	FieldRainInchDaily,
	FieldPressure,
}

var fieldNames = map[Field]string{
	FieldWindDirection:           "wind_direction",
	FieldWindSpeedKnots:          "wind_speed_knts",
	FieldWindGustSpeedKnots:      "wind_gust_speed_knts",
	FieldWindGustDirection:       "wind_gust_direction",
	FieldWindSpeedKnots2Min:      "wind_speed_knts_2min",
	FieldWindDirection2Min:       "wind_direction_2min",
	FieldWindGustSpeedKnots10Min: "wind_gust_speed_knts_10min",
	FieldWindGustDirection10Min:  "wind_gust_direction_10min",
	FieldHumidity:                "humidity",
	FieldTemperature:             "temperature",
	FieldRainInch:                "rain_inch",
	FieldRainInchDaily:           "rain_inch_daily",
	FieldPressure:                "pressure",
}

// String returns the output key used in the JSON record.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// transformKind selects how a raw value is converted.
type transformKind int

const (
	// transformDirection parses an integer and applies the calibration offset, wrapped to [0, 360).
	transformDirection transformKind = iota
	// transformSpeed parses a float in mph and converts it to knots.
	transformSpeed
	// transformPlain parses a float and keeps it as is.
	transformPlain
)

type fieldMapping struct {
	field     Field
	transform transformKind
}

// fieldTable maps station keys to output fields. Never written after init.
var fieldTable = map[string]fieldMapping{
	"winddir":          {FieldWindDirection, transformDirection},
	"windspeedmph":     {FieldWindSpeedKnots, transformSpeed},
	"windgustmph":      {FieldWindGustSpeedKnots, transformSpeed},
	"windgustdir":      {FieldWindGustDirection, transformDirection},
	"windspdmph_avg2m": {FieldWindSpeedKnots2Min, transformSpeed},
	"winddir_avg2m":    {FieldWindDirection2Min, transformDirection},
	"windgustmph_10m":  {FieldWindGustSpeedKnots10Min, transformSpeed},
	"windgustdir_10m":  {FieldWindGustDirection10Min, transformDirection},
	"humidity":         {FieldHumidity, transformPlain},
	"tempc":            {FieldTemperature, transformPlain},
	"rainin":           {FieldRainInch, transformPlain},
	"dailyrainin":      {FieldRainInchDaily, transformPlain},
	"pressure":         {FieldPressure, transformPlain},
}

// LookupField reports the output field a station key maps to.
func LookupField(key string) (Field, bool) {
	m, ok := fieldTable[key]
	return m.field, ok
}
