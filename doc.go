// Package adapterhub is the client SDK for the LSY IoT Adapter Hub.
//
// The RPC client sends topic messages to the hub's RPC endpoint and
// normalizes replies into a Result; transport and protocol failures are
// reported as an *Error drawn from a fixed taxonomy. The API client covers
// the hub's WEB request API with the same error surface.
package adapterhub
