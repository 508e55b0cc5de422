package vaultstore

import "strings"

// AddInput describes a new entry. Ciphertext must already be produced by
// internal/entrycodec — the store never sees plaintext.
type AddInput struct {
	ID          string // optional; generated by the caller if empty
	ServiceName string
	Ciphertext  []byte
	Environment Environment
	Tags        []string
	Domains     []string
	Notes       string
	Favorite    bool
	ExpiresAt   *int64
	RateLimit   string
	Color       string
}

// Add inserts a new entry and returns it. createdAt is the caller-supplied
// clock reading (spec.md keeps all timestamps as an explicit input so the
// core never calls time.Now() itself, which would make auto-lock and
// usage-monotonicity tests non-deterministic).
func (v *Vault) Add(in AddInput, createdAt int64) *Entry {
	if v.Entries == nil {
		v.Entries = make(map[string]*Entry)
	}
	e := &Entry{
		ID:          in.ID,
		ServiceName: in.ServiceName,
		Ciphertext:  in.Ciphertext,
		Environment: in.Environment,
		Tags:        dedupe(in.Tags),
		Domains:     dedupe(in.Domains),
		Notes:       in.Notes,
		Color:       in.Color,
		Favorite:    in.Favorite,
		CreatedAt:   createdAt,
		ExpiresAt:   in.ExpiresAt,
		RateLimit:   in.RateLimit,
	}
	if e.Environment == "" {
		e.Environment = EnvProduction
	}
	v.Entries[e.ID] = e
	return e
}

// UpdateInput carries optional partial-update fields; nil means "leave
// unchanged".
type UpdateInput struct {
	ServiceName *string
	Environment *Environment
	Tags        []string
	TagsSet     bool
	Domains     []string
	DomainsSet  bool
	Notes       *string
	Favorite    *bool
	ExpiresAt   **int64 // double pointer: present-and-nil clears expiry
	RateLimit   *string
	Ciphertext  []byte // present when the secret itself is being rotated
}

// Update applies a partial update to the entry with id, returning false if
// no such entry exists.
func (v *Vault) Update(id string, in UpdateInput) bool {
	e, ok := v.Entries[id]
	if !ok {
		return false
	}
	if in.ServiceName != nil {
		e.ServiceName = *in.ServiceName
	}
	if in.Environment != nil {
		e.Environment = *in.Environment
	}
	if in.TagsSet {
		e.Tags = dedupe(in.Tags)
	}
	if in.DomainsSet {
		e.Domains = dedupe(in.Domains)
	}
	if in.Notes != nil {
		e.Notes = *in.Notes
	}
	if in.Favorite != nil {
		e.Favorite = *in.Favorite
	}
	if in.ExpiresAt != nil {
		e.ExpiresAt = *in.ExpiresAt
	}
	if in.RateLimit != nil {
		e.RateLimit = *in.RateLimit
	}
	if in.Ciphertext != nil {
		e.Ciphertext = in.Ciphertext
	}
	return true
}

// Delete removes the entry with id, returning false if it did not exist.
func (v *Vault) Delete(id string) bool {
	if _, ok := v.Entries[id]; !ok {
		return false
	}
	delete(v.Entries, id)
	return true
}

// Get returns the entry with id, or nil.
func (v *Vault) Get(id string) *Entry {
	return v.Entries[id]
}

// FindByServiceName returns the first entry whose ServiceName matches name
// case-insensitively, or nil. Uniqueness here is advisory only (spec.md
// §3): callers decide what to do about duplicates.
func (v *Vault) FindByServiceName(name string) *Entry {
	for _, e := range v.Entries {
		if strings.EqualFold(e.ServiceName, name) {
			return e
		}
	}
	return nil
}

// RecordUsage sets LastUsedAt, increments UsageCount, and unions domain
// into Domains if non-empty (spec.md §4.6). Returns false if id does not
// exist.
func (v *Vault) RecordUsage(id string, domain string, now int64) bool {
	e, ok := v.Entries[id]
	if !ok {
		return false
	}
	e.LastUsedAt = &now
	e.UsageCount++
	if domain != "" {
		found := false
		for _, d := range e.Domains {
			if strings.EqualFold(d, domain) {
				found = true
				break
			}
		}
		if !found {
			e.Domains = append(e.Domains, domain)
		}
	}
	return true
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
