// Package auth provides the authorization gate every API request passes
// through.
//
// It defines the principal model with a fixed role vocabulary, a pluggable
// principal resolver (a JWT implementation is included), and stacked
// permission predicates that return structured denials instead of opaque
// errors. The package is protocol-agnostic and can be used with any
// transport layer.
package auth
