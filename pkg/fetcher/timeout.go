package fetcher

import (
	"strings"
	"time"
)

// TimeoutProfile holds the per-attempt timeout budget for a request.
type TimeoutProfile struct {
	// Total bounds the whole attempt: connect, request, and body read.
	Total time.Duration

	// Connect bounds connection establishment within the attempt.
	Connect time.Duration
}

// TimeoutRule pairs a URL predicate with the profile to use when it matches.
// Rules are evaluated in order; the first match wins.
type TimeoutRule struct {
	Match   func(url string) bool
	Profile TimeoutProfile
}

// defaultProfile applies when no rule matches.
var defaultProfile = TimeoutProfile{
	Total:   6 * time.Second,
	Connect: 2 * time.Second,
}

// DefaultTimeoutRules returns the sample rule set: URLs with a delay segment
// get a generous budget, status probe URLs slightly less. These substring
// predicates are sample configuration; production deployments should replace
// them with per-host or per-route rules via Config.TimeoutRules.
func DefaultTimeoutRules() []TimeoutRule {
	return []TimeoutRule{
		{
			Match:   func(url string) bool { return strings.Contains(url, "/delay/") },
			Profile: TimeoutProfile{Total: 10 * time.Second, Connect: 3 * time.Second},
		},
		{
			Match:   func(url string) bool { return strings.Contains(url, "/status/") },
			Profile: TimeoutProfile{Total: 8 * time.Second, Connect: 3 * time.Second},
		},
	}
}

// selectTimeout returns the profile for url, falling back to defaultProfile
// when no rule matches. Evaluated once per attempt.
func selectTimeout(rules []TimeoutRule, url string) TimeoutProfile {
	for _, rule := range rules {
		if rule.Match != nil && rule.Match(url) {
			return rule.Profile
		}
	}
	return defaultProfile
}
