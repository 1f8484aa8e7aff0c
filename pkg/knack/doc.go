// Package knack exposes the public contracts for reading objects from the
// Knack REST API: field schemas, raw records, connection stubs and the
// Fetcher seam the resolver depends on. The HTTP implementation lives under
// internal/knack/client so transport details stay hidden from consumers.
package knack
