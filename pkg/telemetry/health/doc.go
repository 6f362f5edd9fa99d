// Package health provides probe endpoints for the spendguard daemon.
//
// # Overview
//
// The package implements liveness and readiness probes for Kubernetes
// and other supervisors, plus a version endpoint. A Checker holds named
// component checks; readiness runs them all concurrently and degrades
// when any fails.
//
// # Endpoints
//
//   - /healthz: liveness, 200 while the process is up
//   - /readyz: readiness, 200 when every component check passes,
//     503 with per-component results otherwise
//   - /version: build information
//
// # Usage
//
//	checker := health.New(0)
//	checker.Register("ledger", health.LedgerCheck(monitor.Ledger()))
//	checker.Register("journal", health.JournalCheck(monitor.JournalStorage()))
//
//	mux := http.NewServeMux()
//	health.Routes(mux, checker, version, commit, buildTime)
//
// # Example Response
//
// Degraded readiness:
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "ledger": {"status": "ok"},
//	        "journal": {"status": "unhealthy", "message": "journal count: database is locked"}
//	    },
//	    "timestamp": "2026-03-02T10:30:00Z"
//	}
//
// Note that LedgerCheck flushes the statistics document, a real write.
// Probe intervals of a few seconds are fine; do not place the endpoint
// on an unauthenticated public surface.
package health
