// Package client implements the printer session: connection lifecycle,
// serialized command exchanges with response correlation, and the event bus
// observers use to follow raw and decoded traffic.
//
// A Client moves through Disconnected, Connecting, Negotiating and Connected.
// Any disconnect, explicit or reported by the transport, fails the pending
// exchange with device.ErrChannelClosed and returns the client to Disconnected.
package client
