package goble

import (
	"strings"

	"github.com/go-ble/ble"
)

var propertyNames = []struct {
	value ble.Property
	name  string
}{
	{ble.CharBroadcast, "Broadcast"},
	{ble.CharRead, "Read"},
	{ble.CharWriteNR, "WriteWithoutResponse"},
	{ble.CharWrite, "Write"},
	{ble.CharNotify, "Notify"},
	{ble.CharIndicate, "Indicate"},
	{ble.CharSignedWrite, "AuthenticatedSignedWrites"},
	{ble.CharExtended, "ExtendedProperties"},
}

// PropertyNames lists the names of the bits set in p, in bit order
func PropertyNames(p ble.Property) []string {
	var out []string
	for _, pn := range propertyNames {
		if p&pn.value != 0 {
			out = append(out, pn.name)
		}
	}
	return out
}

// FormatProperties renders p as "Read|Notify"
func FormatProperties(p ble.Property) string {
	return strings.Join(PropertyNames(p), "|")
}

func canNotify(p ble.Property) bool   { return p&ble.CharNotify != 0 }
func canIndicate(p ble.Property) bool { return p&ble.CharIndicate != 0 }
func canRead(p ble.Property) bool     { return p&ble.CharRead != 0 }
func canWrite(p ble.Property) bool    { return p&(ble.CharWrite|ble.CharWriteNR) != 0 }
