package config

import "time"

// TopLevel namespaces the whole config file under a single key so that
// env var overrides resolve unambiguously.
type TopLevel struct {
	Banques WithinTopLevel `json:"banques" mapstructure:"banques"`
}

type WithinTopLevel struct {
	Server App `json:"server" mapstructure:"server"`
}

type App struct {
	BindAddress     string        `json:"bind_address" mapstructure:"bind_address"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Postgres        Postgres      `json:"postgres" mapstructure:"postgres"`
	ApmClient       *ApmClient    `json:"apm,omitempty" mapstructure:"apm"`
	Auth            *Auth         `json:"auth,omitempty" mapstructure:"auth"`
	Logging         *Logging      `json:"logging,omitempty" mapstructure:"logging"`
	Accounts        Accounts      `json:"accounts" mapstructure:"accounts"`
	Transfers       Transfers     `json:"transfers" mapstructure:"transfers"`
	Reconciler      Reconciler    `json:"reconciler" mapstructure:"reconciler"`
}

type Logging struct {
	Json  *bool   `json:"json,omitempty" mapstructure:"json"`
	File  *string `json:"file,omitempty" mapstructure:"file"`
	Level *string `json:"level,omitempty" mapstructure:"level"`
}

type Postgres struct {
	Address  string         `json:"address" mapstructure:"address"`
	Database string         `json:"database" mapstructure:"database"`
	User     *BasicAuthUser `json:"user,omitempty" mapstructure:"user"`
	SslMode  string         `json:"ssl_mode" mapstructure:"ssl_mode"`
	MaxConns uint           `json:"max_conns" mapstructure:"max_conns"`
}

type ApmClient struct {
	Address     *string `json:"address,omitempty" mapstructure:"address"`
	SecretToken *string `json:"secret_token,omitempty" mapstructure:"secret_token"`
}

type Accounts struct {
	Defaults StreamDefaults `json:"defaults" mapstructure:"defaults"`
	// DedupTransactionTtl is how long processed transaction ids are
	// remembered for duplicate detection, in seconds of business time.
	DedupTransactionTtl uint64 `json:"dedup_transaction_ttl" mapstructure:"dedup_transaction_ttl"`
}

type Transfers struct {
	Defaults StreamDefaults `json:"defaults" mapstructure:"defaults"`
}

type StreamDefaults struct {
	ConflictRetryTimes uint `json:"conflict_retry_times" mapstructure:"conflict_retry_times"`
	SnapshotEvery      uint `json:"snapshot_every" mapstructure:"snapshot_every"`
}

type Reconciler struct {
	RunInterval time.Duration `json:"run_interval" mapstructure:"run_interval"`
	// ScanChunkSize bounds how many aggregates one sweep pass inspects
	// per query.
	ScanChunkSize uint `json:"scan_chunk_size" mapstructure:"scan_chunk_size"`
}

type Auth struct {
	BasicAuth []BasicAuthUser `json:"basic_auth" mapstructure:"basic_auth"`
}

type BasicAuthUser struct {
	Name     string `json:"name" mapstructure:"name"`
	Password string `json:"password" mapstructure:"password"`
}
