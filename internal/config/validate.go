// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for internally inconsistent or
// out-of-range values. It collects all problems rather than stopping at
// the first.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range [1,65535]", c.Server.Port))
	}
	if c.Server.Timeout <= 0 {
		problems = append(problems, "server.timeout must be positive")
	}
	if c.Server.TokenTTL <= 0 {
		problems = append(problems, "server.token_ttl must be positive")
	}
	if c.Server.RateLimitReqs < 1 {
		problems = append(problems, "server.rate_limit_reqs must be at least 1")
	}

	if c.Storage.GCInterval <= 0 {
		problems = append(problems, "storage.gc_interval must be positive")
	}

	if c.Collab.Timeout <= 0 {
		problems = append(problems, "collab.timeout must be positive")
	}
	if c.Collab.SearchTimeout <= 0 {
		problems = append(problems, "collab.search_timeout must be positive")
	}
	if c.Collab.BreakerFailureRatio <= 0 || c.Collab.BreakerFailureRatio > 1 {
		problems = append(problems, "collab.breaker_failure_ratio must be in (0,1]")
	}

	if c.Session.MaxBookings < 1 {
		problems = append(problems, "session.max_bookings must be at least 1")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be json or console", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}
