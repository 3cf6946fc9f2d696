// Package snapshot holds the rule collection currently used for pricing.
//
// Readers call Load and get an immutable view; writers build a new Snapshot
// and publish it with Update. A published snapshot is never modified.
package snapshot

import (
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/TimurManjosov/gopricer/internal/rules"
	"github.com/TimurManjosov/gopricer/internal/ruleset"
)

type Snapshot struct {
	ETag      string              `json:"etag"`
	Source    string              `json:"source,omitempty"`
	Rules     []rules.PricingRule `json:"rules"`
	Catalog   rules.Catalog       `json:"catalog"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

var current atomic.Pointer[Snapshot]

// Load returns the published snapshot, or an empty one before the first Update.
func Load() *Snapshot {
	if s := current.Load(); s != nil {
		return s
	}
	return &Snapshot{Rules: []rules.PricingRule{}, UpdatedAt: time.Now().UTC()}
}

// Build creates a snapshot from a loaded rule file. Rules are copied so
// later edits to doc do not leak into the snapshot.
func Build(doc *ruleset.Document, source string) *Snapshot {
	rs := make([]rules.PricingRule, len(doc.Rules))
	for i, r := range doc.Rules {
		rs[i] = r.Clone()
	}
	s := &Snapshot{
		Source:    source,
		Rules:     rs,
		Catalog:   doc.Catalog,
		UpdatedAt: time.Now().UTC(),
	}
	s.ETag = etag(s.Rules, s.Catalog)
	return s
}

// etag is a weak validator over the content only, so rebuilding from an
// unchanged file yields the same value.
func etag(rs []rules.PricingRule, cat rules.Catalog) string {
	blob, _ := json.Marshal(struct {
		Rules   []rules.PricingRule `json:"rules"`
		Catalog rules.Catalog       `json:"catalog"`
	}{rs, cat})
	return `W/"` + strconv.FormatUint(xxhash.Sum64(blob), 16) + `"`
}

// Update publishes s and notifies subscribers.
func Update(s *Snapshot) {
	current.Store(s)
	publishUpdate(s.ETag)
}

// LifecycleCounts tallies enabled and disabled rules by their lifecycle at now.
func (s *Snapshot) LifecycleCounts(now time.Time, loc *time.Location) map[rules.Status]map[rules.Lifecycle]int {
	out := map[rules.Status]map[rules.Lifecycle]int{
		rules.StatusEnabled:  {},
		rules.StatusDisabled: {},
	}
	for _, r := range s.Rules {
		byLifecycle, ok := out[r.Status]
		if !ok {
			byLifecycle = map[rules.Lifecycle]int{}
			out[r.Status] = byLifecycle
		}
		byLifecycle[rules.LifecycleOf(r, now, loc)]++
	}
	return out
}
