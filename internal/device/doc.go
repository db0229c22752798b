// Package device describes the GATT boundary of the glucose and barometer profiles.
//
// It owns:
//   - characteristic identities and role aliases (Profile)
//   - the CharacteristicWriter / NotificationSink contracts a transport must satisfy
//   - value dispatch from a characteristic UUID to its decoder
//   - descriptor parsing and the error types shared by transports
package device
