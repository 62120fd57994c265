// Package config holds the coordinator's tunables (spec §6's "build-time
// constants; named not configured") as a loadable struct, grounded on the
// teacher's viper-based pkg/config.Load. The spec calls these build-time
// constants; this module exposes them as defaulted, overridable settings
// instead, since a Go library has no preprocessor to flip between
// production and test values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// VerificationPolicy selects how the verification stage aggregates
// candidate rows into primary-table scan specs (spec §4.4).
type VerificationPolicy int

const (
	// PolicyAggregated builds one scan spec per incoming staging batch,
	// deduplicating rows against a running last_row state. This is the
	// production policy.
	PolicyAggregated VerificationPolicy = iota
	// PolicyPerRow builds one scan spec per candidate row. Retained to
	// exercise readahead-queue saturation at small queue limits (spec
	// §4.4's "alternative policy").
	PolicyPerRow
)

// Config is the coordinator's tunable set.
type Config struct {
	// QueueLimit bounds the Readahead Queue (spec §3, §5). Default 40.
	QueueLimit int
	// TmpCutoff is the byte threshold past which the Candidate Set
	// switches from in-memory to staging-table mode (spec §4.3). Default
	// 1 MiB.
	TmpCutoff uint64
	// Namespace is the reserved namespace staging tables are created
	// under (spec §6). Default "/tmp".
	Namespace string
	// ScanTimeout bounds each child scan/mutator operation.
	ScanTimeout time.Duration
	// LauncherSlack is the outstanding-scanner threshold at or below which
	// the readahead launcher fires again (spec §4.4, §9's open question).
	// 0 matches production behavior; 1 matches the source's test variant.
	LauncherSlack int
	// VerificationPolicy selects aggregated vs per-row spec construction.
	VerificationPolicy VerificationPolicy
	// ReadaheadWorkers bounds the goroutine pool the readahead launcher
	// draws from (SPEC_FULL.md's domain stack: github.com/panjf2000/ants).
	ReadaheadWorkers int
}

// Default returns the production tunables from spec §6.
func Default() Config {
	return Config{
		QueueLimit:          40,
		TmpCutoff:           1 << 20,
		Namespace:           "/tmp",
		ScanTimeout:         30 * time.Second,
		LauncherSlack:      0,
		VerificationPolicy: PolicyAggregated,
		ReadaheadWorkers:   8,
	}
}

// Test returns the tunables the source's test variant uses: a tiny queue
// limit and a cutoff of a single byte, so every insertion forces the
// staging path (spec §6).
func Test() Config {
	cfg := Default()
	cfg.QueueLimit = 4
	cfg.TmpCutoff = 1
	cfg.LauncherSlack = 1
	cfg.ReadaheadWorkers = 2
	return cfg
}

// Load overlays environment variables prefixed SECIDX_ (and an optional
// .env file) onto the production defaults, grounded on the teacher's
// pkg/config.Load.
func Load() (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(".env")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// best effort: an optional file with a parse error still lets
			// environment variables below take effect.
		}
	}

	const prefix = "SECIDX_"
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key, value := pair[0], pair[1]
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		propKey := strings.ToLower(strings.TrimPrefix(key, prefix))
		v.Set(propKey, value)
	}

	if v.IsSet("queue_limit") {
		cfg.QueueLimit = v.GetInt("queue_limit")
	}
	if v.IsSet("tmp_cutoff") {
		cfg.TmpCutoff = uint64(v.GetInt64("tmp_cutoff"))
	}
	if v.IsSet("namespace") {
		cfg.Namespace = v.GetString("namespace")
	}
	if v.IsSet("scan_timeout_ms") {
		cfg.ScanTimeout = time.Duration(v.GetInt64("scan_timeout_ms")) * time.Millisecond
	}
	if v.IsSet("launcher_slack") {
		cfg.LauncherSlack = v.GetInt("launcher_slack")
	}
	if v.IsSet("verification_policy") {
		if v.GetString("verification_policy") == "per_row" {
			cfg.VerificationPolicy = PolicyPerRow
		}
	}

	if cfg.QueueLimit <= 0 {
		return cfg, fmt.Errorf("config: queue_limit must be positive, got %d", cfg.QueueLimit)
	}
	return cfg, nil
}
