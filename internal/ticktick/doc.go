// Package ticktick is a thin client for the TickTick Open API
// (https://developer.ticktick.com/docs#/openapi).
//
// Every Client method issues exactly one HTTP request against the configured
// base URL with a bearer token and returns the upstream JSON untouched, so
// fields this package does not know about survive the round trip. Non-2xx
// responses and transport failures are reported as *UpstreamError; there are
// no retries.
//
// TodayAggregator builds on the client to collect the tasks due today across
// all projects in a given IANA timezone.
package ticktick
