// Package bledb normalises Bluetooth UUIDs and names the ones this tool understands.
package bledb

import (
	"encoding/hex"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// sigBaseSuffix is the Bluetooth SIG base UUID after the 32-bit prefix
const sigBaseSuffix = "00001000800000805f9b34fb"

// NormalizeUUID converts a UUID string to the internal format: lowercase, no dashes.
// SIG-base UUIDs (0000xxxx-0000-1000-8000-00805f9b34fb) are reduced to their 16-bit form.
// Braces, "urn:uuid:" and "0x" prefixes are accepted. Returns "" when s is not a UUID.
func NormalizeUUID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")

	switch len(s) {
	case 4:
		if _, err := hex.DecodeString(s); err != nil {
			return ""
		}
		return s
	case 8:
		if _, err := hex.DecodeString(s); err != nil {
			return ""
		}
		return strings.TrimPrefix(s, "0000")
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return ""
	}
	full := hex.EncodeToString(u[:])
	if strings.HasSuffix(full, sigBaseSuffix) && strings.HasPrefix(full, "0000") {
		return full[4:8]
	}
	return full
}

// NormalizeUUIDs normalises every entry of uuids
func NormalizeUUIDs(uuids []string) []string {
	out := make([]string, 0, len(uuids))
	for _, u := range uuids {
		out = append(out, NormalizeUUID(u))
	}
	return out
}

// FullUUID expands a normalised UUID to the canonical dashed 128-bit form
func FullUUID(s string) (string, error) {
	n := NormalizeUUID(s)
	if len(n) == 4 {
		n = "0000" + n + sigBaseSuffix
	}
	u, err := uuid.Parse(n)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

var (
	services = map[string]string{
		"1808": "Glucose",
		"180a": "Device Information",
		"180f": "Battery Service",
	}
	characteristics = map[string]string{
		"2a18": "Glucose Measurement",
		"2a34": "Glucose Measurement Context",
		"2a51": "Glucose Feature",
		"2a52": "Record Access Control Point",
		"2a19": "Battery Level",
		"2a29": "Manufacturer Name String",
	}
	descriptors = map[string]string{
		"2901": "Characteristic User Description",
		"2902": "Client Characteristic Configuration",
		"2904": "Characteristic Presentation Format",
	}
	mu sync.RWMutex
)

func lookup(table map[string]string, s string) string {
	mu.RLock()
	defer mu.RUnlock()
	return table[NormalizeUUID(s)]
}

// LookupService returns the known name of a service, or ""
func LookupService(s string) string { return lookup(services, s) }

// LookupCharacteristic returns the known name of a characteristic, or ""
func LookupCharacteristic(s string) string { return lookup(characteristics, s) }

// LookupDescriptor returns the known name of a descriptor, or ""
func LookupDescriptor(s string) string { return lookup(descriptors, s) }

// RegisterService names a vendor service
func RegisterService(s, name string) {
	mu.Lock()
	defer mu.Unlock()
	services[NormalizeUUID(s)] = name
}

// RegisterCharacteristic names a vendor characteristic
func RegisterCharacteristic(s, name string) {
	mu.Lock()
	defer mu.Unlock()
	characteristics[NormalizeUUID(s)] = name
}
