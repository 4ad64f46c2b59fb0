// Package domain models telemetry from a serial-connected weather station.
//
// # Line Format
//
// The station firmware prints one line per sample, newline terminated:
//
//	winddir=90,windspeedmph=3.2,windgustmph=5.1,windgustdir=112,humidity=55.5,tempc=21.3,rainin=0.00,dailyrainin=0.12,pressure=1013.2
//
// Tokens are comma separated and each is "key=value". Keys not in the field
// table (firmware status keys, battery voltage and so on) are ignored.
//
// # Units
//
//	Wind direction: degrees from the vane, corrected by a fixed calibration
//	  offset (270 by default) and wrapped into [0, 360).
//	Wind speed:     mph from the anemometer, converted to knots (x 0.868976).
//	Humidity:       percent, unchanged.
//	Temperature:    degrees Celsius, unchanged.
//	Rain:           inches, unchanged.
//	Pressure:       as reported by the barometer, unchanged.
//
// Direction values are integers: "90.7" reads as 90.
//
// # Malformed Values
//
// A recognized key whose value does not parse as a finite number is dropped
// from the record and reported in [Result.Malformed]. A line with no usable
// field produces no record at all; in particular an empty line never yields a
// timestamp-only record.
package domain
