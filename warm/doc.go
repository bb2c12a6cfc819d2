// Package warm proactively populates cache entries for commonly requested
// query shapes on a recurring schedule.
//
// Warming is a non-critical background job: every failure is contained at the
// per-item level and surfaced only through logs and the sweep report.
package warm
