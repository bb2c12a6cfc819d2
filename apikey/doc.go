// Package apikey manages the API key records that gate every external
// request as a second authentication factor.
//
// A Registry wraps a Store with generation, status transitions, validation
// with usage tracking, and an expiry sweep. The Postgres store binds every
// query parameter; string concatenation of untrusted input is a contract
// violation, not a style preference.
package apikey
