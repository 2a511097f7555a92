package instrumentation

import "strings"

// Known HTTP routes. Anything else is folded into PathOther so that
// scanners probing random URLs cannot blow up the metric series count.
var knownPaths = []string{
	"/sse",
	"/messages/",
	"/mcp",
	"/healthz",
	"/healthz/detailed",
	"/readyz",
	"/metrics",
}

// PathOther is the path label for requests outside the known routes.
const PathOther = "other"

// NormalizePath maps a request path to a bounded set of label values.
// Query strings are ignored; "/messages" and "/messages/" are the same route.
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "/messages" {
		path = "/messages/"
	}
	for _, p := range knownPaths {
		if path == p {
			return p
		}
	}
	return PathOther
}
