package codec

import (
	"fmt"
	"time"
)

// DateTimeSize is the wire width of the Date Time characteristic structure
const DateTimeSize = 7

// DateTime is the Bluetooth Date Time structure (org.bluetooth.characteristic.date_time).
// Zero Year, Month or Day mean "not known".
type DateTime struct {
	Year    uint16 `json:"year"`
	Month   uint8  `json:"month"`
	Day     uint8  `json:"day"`
	Hours   uint8  `json:"hours"`
	Minutes uint8  `json:"minutes"`
	Seconds uint8  `json:"seconds"`
}

// DateTimeFromTime converts t to the wire structure, truncating to whole seconds
func DateTimeFromTime(t time.Time) DateTime {
	return DateTime{
		Year:    uint16(t.Year()),
		Month:   uint8(t.Month()),
		Day:     uint8(t.Day()),
		Hours:   uint8(t.Hour()),
		Minutes: uint8(t.Minute()),
		Seconds: uint8(t.Second()),
	}
}

// Time returns the instant in loc. Unknown fields fall back to time.Date normalisation.
func (d DateTime) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), int(d.Hours), int(d.Minutes), int(d.Seconds), 0, loc)
}

func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hours, d.Minutes, d.Seconds)
}
