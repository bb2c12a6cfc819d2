// Package health exposes readiness and liveness checks for the caching
// subsystem: backing store reachability, size-budget pressure and warming
// staleness. The embedding host registers the checkers it cares about and
// surfaces the aggregate however it serves probes.
package health
