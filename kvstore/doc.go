// Package kvstore defines the expiring key/value store contract the caching
// core runs against, with an in-memory implementation for tests and a
// Redis-backed implementation for production.
package kvstore
