// Package vaultstore implements the vault data model (spec.md §3), the
// persistent Vault Store (§4.4), and the Entry Index & Query surface
// (§4.6).
package vaultstore

import "keyvault/internal/audit"

// Environment is one of the four fixed deployment tiers an Entry can be
// tagged with.
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvTesting     Environment = "testing"
)

// colorPalette is the fixed set of display-hint colors randomly assigned
// to new entries at creation time.
var colorPalette = []string{
	"slate", "red", "orange", "amber", "green",
	"teal", "blue", "indigo", "violet", "pink",
}

// Entry represents one stored secret. Ciphertext is opaque envelope bytes
// produced by internal/entrycodec and is never exposed by query operations
// (see EntryView).
type Entry struct {
	ID           string      `yaml:"id"`
	ServiceName  string      `yaml:"service_name"`
	Ciphertext   []byte      `yaml:"ciphertext"`
	Environment  Environment `yaml:"environment"`
	Tags         []string    `yaml:"tags"`
	Domains      []string    `yaml:"domains"`
	Notes        string      `yaml:"notes"`
	Color        string      `yaml:"color"`
	Favorite     bool        `yaml:"favorite"`
	CreatedAt    int64       `yaml:"created_at"`
	LastUsedAt   *int64      `yaml:"last_used_at,omitempty"`
	ExpiresAt    *int64      `yaml:"expires_at,omitempty"`
	UsageCount   int64       `yaml:"usage_count"`
	RateLimit    string      `yaml:"rate_limit"`
}

// EntryView is an Entry with Ciphertext omitted — safe to surface to any
// host UI or query result (spec.md GLOSSARY).
type EntryView struct {
	ID          string      `json:"id"`
	ServiceName string      `json:"service_name"`
	Environment Environment `json:"environment"`
	Tags        []string    `json:"tags"`
	Domains     []string    `json:"domains"`
	Notes       string      `json:"notes"`
	Color       string      `json:"color"`
	Favorite    bool        `json:"favorite"`
	CreatedAt   int64       `json:"created_at"`
	LastUsedAt  *int64      `json:"last_used_at,omitempty"`
	ExpiresAt   *int64      `json:"expires_at,omitempty"`
	UsageCount  int64       `json:"usage_count"`
	RateLimit   string      `json:"rate_limit"`
}

// View strips the ciphertext, returning the metadata-only projection.
func (e *Entry) View() EntryView {
	return EntryView{
		ID:          e.ID,
		ServiceName: e.ServiceName,
		Environment: e.Environment,
		Tags:        append([]string(nil), e.Tags...),
		Domains:     append([]string(nil), e.Domains...),
		Notes:       e.Notes,
		Color:       e.Color,
		Favorite:    e.Favorite,
		CreatedAt:   e.CreatedAt,
		LastUsedAt:  e.LastUsedAt,
		ExpiresAt:   e.ExpiresAt,
		UsageCount:  e.UsageCount,
		RateLimit:   e.RateLimit,
	}
}

// Settings is the vault's configuration record (spec.md §6).
type Settings struct {
	AutoLockMinutes        int    `yaml:"auto_lock_minutes"`
	ClipboardClearSeconds  int    `yaml:"clipboard_clear_seconds"`
	MaskKeys               bool   `yaml:"mask_keys"`
	EnableAuditLog         bool   `yaml:"enable_audit_log"`
	EnableAutoFill         bool   `yaml:"enable_auto_fill"`
	ShowUsageStats         bool   `yaml:"show_usage_stats"`
	ShowExpirationWarnings bool   `yaml:"show_expiration_warnings"`
	ExpirationWarningDays  int    `yaml:"expiration_warning_days"`
	Theme                  string `yaml:"theme"`
}

// DefaultSettings returns the settings a freshly initialized vault starts
// with.
func DefaultSettings() Settings {
	return Settings{
		AutoLockMinutes:        5,
		ClipboardClearSeconds:  30,
		MaskKeys:               true,
		EnableAuditLog:         true,
		EnableAutoFill:         true,
		ShowUsageStats:         true,
		ShowExpirationWarnings: true,
		ExpirationWarningDays:  14,
		Theme:                  "auto",
	}
}

// CurrentFormatVersion is the Vault.FormatVersion written by fresh
// initializations.
const CurrentFormatVersion = 1

// Vault is the root persistent record (spec.md §3).
type Vault struct {
	FormatVersion int             `yaml:"format_version"`
	Initialized   bool            `yaml:"initialized"`
	Verifier      []byte          `yaml:"verifier"`
	Entries       map[string]*Entry `yaml:"entries"`
	Settings      Settings        `yaml:"settings"`
	AuditLog      []audit.Record  `yaml:"audit_log"`
	LastActivity  int64           `yaml:"last_activity"`

	// Unknown preserves any top-level keys this version of the code does
	// not recognize, so round-tripping a vault.json written by a newer
	// version never silently discards data (spec.md §4.4: "forward
	// compatible ... unknown fields preserved on round-trip"). yaml.v3
	// collects unrecognized mapping keys into an inline map field.
	Unknown map[string]interface{} `yaml:",inline"`
}

// RandomColor picks a display color from the fixed palette using the
// given random index source (0..len(colorPalette)-1).
func RandomColor(idx int) string {
	if idx < 0 {
		idx = -idx
	}
	return colorPalette[idx%len(colorPalette)]
}
