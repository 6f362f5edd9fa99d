// Spendguard is a usage accounting and spending limit engine for LLM APIs.
//
// It tracks token usage and cost per model against configured daily and
// monthly budgets, providing:
//   - Exact decimal cost accounting with daily/monthly/all-time rollover
//   - Warning and hard-limit enforcement with pre-call admission checks
//   - A per-event journal with query, export, and retention
//   - Prometheus metrics and health endpoints in daemon mode
//
// Usage:
//
//	# Write a starter configuration
//	spendguard init
//
//	# Record usage from a script
//	spendguard track --model gpt-4o --input 1200 --output 350
//
//	# Check whether a call would fit the budget
//	spendguard preflight --model gpt-4o --input 4000 --output 1000
//
//	# Show current totals and limit utilization
//	spendguard status
//
//	# Run the daemon (config hot reload, retention, /metrics)
//	spendguard run
//
// For complete documentation, see the package documentation of
// meterline/spendguard/pkg/billing.
package main

func main() {
	Execute()
}
