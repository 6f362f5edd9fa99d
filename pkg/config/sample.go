package config

// SampleYAML is the starter configuration document written by the init
// command. Every value shown is the default, so the document is valid
// as written and each line can be uncommented and edited independently.
const SampleYAML = `# SpendGuard configuration.
# All settings are optional; absent values use the defaults shown.

# Master tracking switch. When false nothing is recorded.
#enabled: true

pricing:
  # Start from the built-in price sheet. Entries under models override
  # matching identifiers.
  #include_defaults: true

  # Price events for unknown models with this model's entry instead of
  # failing the lookup. The miss is still logged.
  #fallback_model: "gpt-4o"

  # Price sheet entries, USD per 1000 tokens, written as strings so
  # they stay exact decimals.
  #models:
  #  - model: "my-fine-tune"
  #    input_per_1k: "0.012"
  #    output_per_1k: "0.024"
  #    max_tokens: 128000

limits:
  # Cost limits in USD, written as strings. Empty means no limit.
  #daily_cost_limit: "10.00"
  #monthly_cost_limit: "200.00"

  # Token limits. Zero means no limit.
  #daily_token_limit: 0
  #monthly_token_limit: 0

  # Fraction of a limit at which warnings begin, in (0, 1].
  #warning_ratio: "0.8"

  # Block tracked calls once a limit is exceeded. Off means breaches
  # are reported through callbacks only.
  #enforce_hard_limit: false

ledger:
  # Aggregate statistics store: file, sqlite, or memory.
  #backend: "file"
  #path: "~/.spendguard/stats.json"
  #sqlite_path: "~/.spendguard/ledger.db"

  # Closed periods retained for history and projections.
  #daily_history: 90
  #monthly_history: 24

  # Persist state inside every commit. Turning this off trades crash
  # durability for fewer writes.
  #auto_save: true

journal:
  # Per-event history. Queries, exports, and anomaly context all come
  # from here.
  #enabled: true

  # Journal store: sqlite or memory.
  #backend: "sqlite"

  #sqlite:
  #  path: "~/.spendguard/journal.db"
  #  max_open_conns: 10
  #  max_idle_conns: 5
  #  busy_timeout: 5s

  #recorder:
  #  # Async write buffer. A full buffer drops entries rather than
  #  # block tracking.
  #  buffer: 1000
  #  write_timeout: 5s

  #retention:
  #  # Days of history to keep. Zero keeps entries forever.
  #  days: 90
  #  # Journal size cap. Zero means unlimited.
  #  max_entries: 0
  #  # Cron schedule for automatic pruning in daemon mode.
  #  schedule: "0 3 * * *"
  #  # Export pruned entries to JSON before deleting them.
  #  archive_before_delete: false
  #  archive_path: "~/.spendguard/archives"

telemetry:
  logging:
    # debug, info, warn, or error.
    #level: "info"
    # json or text.
    #format: "text"
    #add_source: false

  metrics:
    #enabled: true
    # Daemon metrics listener, host:port. Empty disables the listener.
    #listen_address: ""
    #path: "/metrics"
    #namespace: "spendguard"
`
