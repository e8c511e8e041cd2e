package pipeline

import (
	"fmt"

	"coachdb/internal/config"
	"coachdb/internal/storage"
)

// DedupeReport shows exactly what a maintenance pass would change. In
// dry-run mode (the default) it is the only output; nothing is written.
type DedupeReport struct {
	SchoolsMerged  int
	CoachesMoved   int
	NamesRepaired  int
	RowsRemoved    int
	MissingSchools []string
}

// Deduper runs the destructive maintenance pass: school merges from the
// declarative config, malformed-name repair, and duplicate coach removal.
type Deduper struct {
	db      *storage.DB
	aliases config.AliasConfig
}

func NewDeduper(db *storage.DB, aliases config.AliasConfig) *Deduper {
	return &Deduper{db: db, aliases: aliases}
}

// Run executes the full pass. With apply=false every decision is made and
// reported but nothing is committed.
func (p *Deduper) Run(apply bool) (DedupeReport, error) {
	var report DedupeReport

	for _, merge := range p.aliases.Merges {
		keep, err := p.db.SchoolBySlug(merge.Keep)
		if err != nil {
			return report, err
		}
		remove, err := p.db.SchoolBySlug(merge.Remove)
		if err != nil {
			return report, err
		}
		if keep == nil || remove == nil {
			report.MissingSchools = append(report.MissingSchools, merge.Keep+"/"+merge.Remove)
			continue
		}

		affected, err := p.db.CountCoachesAtSchool(remove.ID)
		if err != nil {
			return report, err
		}

		fmt.Printf("  merge school %q (id %d) into %q (id %d): %d coaches\n",
			remove.Name, remove.ID, keep.Name, keep.ID, affected)
		if apply {
			moved, err := p.db.MergeSchools(keep.ID, remove.ID)
			if err != nil {
				return report, err
			}
			report.CoachesMoved += moved
		} else {
			report.CoachesMoved += affected
		}
		report.SchoolsMerged++
	}

	coaches, err := p.db.ListCoachNames()
	if err != nil {
		return report, err
	}
	for _, coach := range coaches {
		repaired := RepairName(coach.Name)
		if repaired == coach.Name {
			continue
		}
		fmt.Printf("  repair name: %q -> %q\n", coach.Name, repaired)
		report.NamesRepaired++
		if apply {
			if err := p.db.RenameCoach(coach.ID, repaired); err != nil {
				return report, err
			}
		}
	}

	groups, err := p.db.DuplicateCoachGroups()
	if err != nil {
		return report, err
	}
	for _, group := range groups {
		// Keep the lowest id: the earliest-created row wins, deterministically.
		remove := group.IDs[1:]
		fmt.Printf("  duplicate: %q at school %d, keeping id %d, removing %v\n",
			group.Name, group.SchoolID, group.IDs[0], remove)
		report.RowsRemoved += len(remove)
		if apply {
			if err := p.db.DeleteCoaches(remove); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}
