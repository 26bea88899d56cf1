// Package service implements business logic for the handle mock.
//
// HandleService is the only component that talks to the record store. It
// sits between the HTTP handlers and the store and adds what the store
// itself stays free of:
//
//   - events on the EventBus for every successful mutation, which the SSE
//     hub forwards to connected clients
//   - an entry in the operation journal, when one is configured
//   - Prometheus counters and gauges
//   - the last_handle.json marker for client test suites
//
// Store errors are passed through unchanged so callers can classify them
// with store.KindOf.
package service
