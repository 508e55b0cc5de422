package vaultstore

import (
	"sort"
	"strings"
)

// Filter selects entries for List (spec.md §4.6). A zero-value field means
// "don't filter on this dimension".
type Filter struct {
	Domain             string
	Environment         Environment
	Tag                 string
	Favorite            *bool
	ExpiredWithinDays   *int
}

// List returns metadata-only views matching filter, sorted favorites-first
// (stable), then by LastUsedAt descending (nulls last), then by CreatedAt
// descending, with ties broken lexicographically on ID.
func (v *Vault) List(filter Filter, now int64) []EntryView {
	matched := make([]*Entry, 0, len(v.Entries))
	for _, e := range v.Entries {
		if matchesFilter(e, filter, now) {
			matched = append(matched, e)
		}
	}
	sortEntries(matched)

	views := make([]EntryView, len(matched))
	for i, e := range matched {
		views[i] = e.View()
	}
	return views
}

// Search performs a case-insensitive substring match over service_name,
// tags, environment, and notes (spec.md §4.6), returned in the same sort
// order as List.
func (v *Vault) Search(query string, now int64) []EntryView {
	q := strings.ToLower(query)
	matched := make([]*Entry, 0, len(v.Entries))
	for _, e := range v.Entries {
		if matchesQuery(e, q) {
			matched = append(matched, e)
		}
	}
	sortEntries(matched)

	views := make([]EntryView, len(matched))
	for i, e := range matched {
		views[i] = e.View()
	}
	return views
}

func matchesQuery(e *Entry, q string) bool {
	if strings.Contains(strings.ToLower(e.ServiceName), q) {
		return true
	}
	if strings.Contains(strings.ToLower(string(e.Environment)), q) {
		return true
	}
	if strings.Contains(strings.ToLower(e.Notes), q) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func matchesFilter(e *Entry, f Filter, now int64) bool {
	if f.Domain != "" {
		found := false
		for _, d := range e.Domains {
			if strings.EqualFold(d, f.Domain) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Environment != "" && e.Environment != f.Environment {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, t := range e.Tags {
			if strings.EqualFold(t, f.Tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Favorite != nil && *f.Favorite && !e.Favorite {
		return false
	}
	if f.ExpiredWithinDays != nil {
		if e.ExpiresAt == nil {
			return false
		}
		threshold := now + int64(*f.ExpiredWithinDays)*86_400_000
		if *e.ExpiresAt > threshold {
			return false
		}
	}
	return true
}

func sortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		if a.Favorite != b.Favorite {
			return a.Favorite // favorites first
		}

		aLast, bLast := a.LastUsedAt, b.LastUsedAt
		if aLast != nil || bLast != nil {
			switch {
			case aLast == nil:
				return false // nil sorts last
			case bLast == nil:
				return true
			case *aLast != *bLast:
				return *aLast > *bLast // descending
			}
		}

		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt // descending
		}

		return a.ID < b.ID // tie-break
	})
}
