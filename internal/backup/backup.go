// Package backup implements the Backup Envelope (spec.md §4.7): a
// full-vault export encrypted under a (possibly different) password, and
// import with a configurable merge policy against advisory service-name
// uniqueness.
package backup

import (
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"keyvault/internal/entrycodec"
	"keyvault/internal/vaultstore"
	"keyvault/internal/vaulterrors"
)

// AssociatedData binds the backup envelope to its purpose, so a backup
// blob can never be mistaken for (or swapped in as) a live entry envelope
// even if both happen to decrypt under the same key (spec.md §4.1).
var AssociatedData = []byte("backup:v1")

// Policy controls how Import resolves a service_name collision against the
// advisory uniqueness spec.md §3 describes.
type Policy string

const (
	PolicySkipDuplicate Policy = "skip_duplicate"
	PolicyOverwrite     Policy = "overwrite"
	PolicyRename        Policy = "rename"
)

// snapshot is the plaintext structure sealed inside a backup envelope.
type snapshot struct {
	Entries         []snapshotEntry    `yaml:"entries"`
	Settings        vaultstore.Settings `yaml:"settings"`
	ExportTimestamp int64              `yaml:"export_timestamp"`
}

type snapshotEntry struct {
	ID          string                 `yaml:"id"`
	ServiceName string                 `yaml:"service_name"`
	Plaintext   string                 `yaml:"plaintext"`
	Environment vaultstore.Environment `yaml:"environment"`
	Tags        []string               `yaml:"tags"`
	Domains     []string               `yaml:"domains"`
	Notes       string                 `yaml:"notes"`
	Color       string                 `yaml:"color"`
	Favorite    bool                   `yaml:"favorite"`
	CreatedAt   int64                  `yaml:"created_at"`
	LastUsedAt  *int64                 `yaml:"last_used_at,omitempty"`
	ExpiresAt   *int64                 `yaml:"expires_at,omitempty"`
	UsageCount  int64                  `yaml:"usage_count"`
	RateLimit   string                 `yaml:"rate_limit"`
}

// Decryptor decrypts an entry's ciphertext under the vault's current master
// key. Export needs this to collect plaintext for the snapshot.
type Decryptor func(ciphertext []byte) ([]byte, error)

// Export collects a snapshot of every entry in v (plaintext, via decrypt),
// plus settings and the export timestamp, then seals the whole blob under
// a key derived from backupPassword.
func Export(v *vaultstore.Vault, decrypt Decryptor, backupPassword string, now int64) ([]byte, error) {
	snap := snapshot{
		Settings:        v.Settings,
		ExportTimestamp: now,
	}
	for _, e := range v.Entries {
		pt, err := decrypt(e.Ciphertext)
		if err != nil {
			return nil, vaulterrors.Wrap(err, "decrypt entry for export")
		}
		snap.Entries = append(snap.Entries, snapshotEntry{
			ID:          e.ID,
			ServiceName: e.ServiceName,
			Plaintext:   string(pt),
			Environment: e.Environment,
			Tags:        e.Tags,
			Domains:     e.Domains,
			Notes:       e.Notes,
			Color:       e.Color,
			Favorite:    e.Favorite,
			CreatedAt:   e.CreatedAt,
			LastUsedAt:  e.LastUsedAt,
			ExpiresAt:   e.ExpiresAt,
			UsageCount:  e.UsageCount,
			RateLimit:   e.RateLimit,
		})
	}

	serialized, err := yaml.Marshal(&snap)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "marshal backup snapshot")
	}

	envelope, err := entrycodec.Seal([]byte(backupPassword), serialized, AssociatedData)
	if err != nil {
		return nil, err
	}
	return envelope, nil
}

// Report counts the outcome of an Import.
type Report struct {
	Inserted   int
	Skipped    int
	Overwritten int
	Renamed    int
}

// Encryptor re-encrypts plaintext under the destination vault's current
// master key, producing a ciphertext envelope ready for vaultstore.Entry.
type Encryptor func(plaintext []byte) ([]byte, error)

// Import unwraps data under backupPassword, then merges each entry into v
// per policy, re-encrypting every plaintext under the destination vault's
// current key via encrypt. IDs are preserved when they don't collide with
// an existing entry; otherwise a fresh ID is minted. v is mutated in place;
// the caller is responsible for committing it atomically.
func Import(data []byte, backupPassword string, policy Policy, v *vaultstore.Vault, encrypt Encryptor, now int64) (*Report, error) {
	plaintext, err := entrycodec.Open([]byte(backupPassword), data, AssociatedData)
	if err != nil {
		if vaulterrors.Is(err, vaulterrors.ErrAuthFailure) {
			return nil, vaulterrors.ErrBadBackupPassword
		}
		return nil, err
	}

	var snap snapshot
	if err := yaml.Unmarshal(plaintext, &snap); err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.ErrInvalidEnvelope, err.Error())
	}

	report := &Report{}
	for _, se := range snap.Entries {
		if err := importOne(v, se, policy, encrypt, now, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func importOne(v *vaultstore.Vault, se snapshotEntry, policy Policy, encrypt Encryptor, now int64, report *Report) error {
	existing := v.FindByServiceName(se.ServiceName)

	if existing != nil {
		switch policy {
		case PolicyOverwrite:
			ct, err := encrypt([]byte(se.Plaintext))
			if err != nil {
				return err
			}
			v.Update(existing.ID, vaultstore.UpdateInput{
				Ciphertext: ct,
				Tags:       se.Tags, TagsSet: true,
				Domains: se.Domains, DomainsSet: true,
			})
			report.Overwritten++
			return nil
		case PolicyRename:
			se.ServiceName = se.ServiceName + " (imported)"
			se.ID = "" // force a fresh id since the name changed
			report.Renamed++
		case PolicySkipDuplicate, "":
			report.Skipped++
			return nil
		default:
			report.Skipped++
			return nil
		}
	} else {
		report.Inserted++
	}

	id := se.ID
	if id == "" || v.Get(id) != nil {
		id = uuid.NewString()
	}

	ct, err := encrypt([]byte(se.Plaintext))
	if err != nil {
		return err
	}

	v.Add(vaultstore.AddInput{
		ID:          id,
		ServiceName: se.ServiceName,
		Ciphertext:  ct,
		Environment: se.Environment,
		Tags:        se.Tags,
		Domains:     se.Domains,
		Notes:       se.Notes,
		Color:       se.Color,
		Favorite:    se.Favorite,
		ExpiresAt:   se.ExpiresAt,
		RateLimit:   se.RateLimit,
	}, se.CreatedAt)

	// usage count and last-used are preserved verbatim on a fresh import,
	// since Add only sets CreatedAt — restore them directly.
	imported := v.Get(id)
	imported.UsageCount = se.UsageCount
	imported.LastUsedAt = se.LastUsedAt
	if imported.CreatedAt == 0 {
		imported.CreatedAt = now
	}
	return nil
}
