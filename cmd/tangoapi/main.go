// Package main is the tangoapi executable.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, the milonga count,
//     quote reads and X-API-Key guarded quote writes, the contact relay and the
//     static site.
//   - Milongas: internal/milonga.Counter caches the count of DanceEvent records
//     found in the listing page's linked data; a stale value triggers a single
//     collapsed refresh through the colly fetcher.
//   - Quotes: internal/quote.Service over a postgres, sqlite or memory store.
//   - Configuration & plumbing: Viper reads YAML and TANGO_* env (plus the
//     SECRET_API_KEY, RESEND_API_KEY and PORT names); zap logs; Prometheus
//     metrics are served on /metrics.
//
// Run locally: go run ./cmd/tangoapi serve --config config.yaml
package main

import "github.com/zazmarga/tango-api/cmd"

func main() {
	cmd.Execute()
}
