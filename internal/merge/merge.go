// Package merge unions normalized per-source lead tables into one canonical,
// deduplicated table.
package merge

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SourceTable is one source's normalized output. The JSON shape is what the
// normalize command writes and the merge command reads.
type SourceTable struct {
	Source string       `json:"source"`
	Leads  []model.Lead `json:"leads"`
}

// Merger resolves cross-source duplicates by source priority.
type Merger struct {
	priority map[string]int
}

// New creates a Merger. Sources earlier in the priority list win dedup
// collisions; sources not listed rank after all listed ones, in input order.
func New(priority []string) *Merger {
	p := make(map[string]int, len(priority))
	for i, name := range priority {
		p[name] = i
	}
	return &Merger{priority: p}
}

// ErrAllSourcesFailed is returned when no source produced a table at all.
// Zero rows from live sources is not an error; a header-only table is valid
// output.
var ErrAllSourcesFailed = eris.New("merge: all sources failed")

// Merge concatenates the tables in priority order and keeps the first
// occurrence of each dedup key. Missing canonical columns in a source table
// are already empty strings on model.Lead, so nothing here treats them as
// structural errors.
func (m *Merger) Merge(tables []SourceTable) ([]model.Lead, error) {
	if len(tables) == 0 {
		return nil, ErrAllSourcesFailed
	}

	// Ranks come from the original input positions, fixed before sorting.
	type ranked struct {
		table SourceTable
		rank  int
	}
	ordered := make([]ranked, len(tables))
	for i, t := range tables {
		ordered[i] = ranked{table: t, rank: m.rank(t.Source, i)}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].rank < ordered[j].rank
	})

	seen := make(map[string]string) // dedup key -> winning source
	var out []model.Lead
	dropped := 0

	for _, rt := range ordered {
		for _, lead := range rt.table.Leads {
			key := lead.DedupKey()
			if winner, dup := seen[key]; dup {
				dropped++
				zap.L().Debug("merge: duplicate dropped",
					zap.String("key", key),
					zap.String("kept_source", winner),
					zap.String("dropped_source", lead.Source),
				)
				continue
			}
			seen[key] = lead.Source
			out = append(out, lead)
		}
	}

	zap.L().Info("merge: complete",
		zap.Int("sources", len(tables)),
		zap.Int("rows", len(out)),
		zap.Int("duplicates_dropped", dropped),
	)
	return out, nil
}

func (m *Merger) rank(source string, inputPos int) int {
	if r, ok := m.priority[source]; ok {
		return r
	}
	// Unlisted sources sort after every listed one, preserving input order.
	return len(m.priority) + inputPos
}
