// Package device defines the transport-neutral view of a Bluetooth Low Energy
// printer link consumed by the client.
//
// This package provides:
//   - Transport, Scanner and Link interfaces implemented by the go-ble adapter
//   - GATT service and characteristic abstractions with capability flags
//   - Endpoint selection (one characteristic with notify + write-without-response)
//   - Advertised name filtering by allow-listed prefixes
//   - Structured connection, lookup and timeout errors
package device
