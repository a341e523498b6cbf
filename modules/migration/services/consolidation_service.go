package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/wildroots/wildroots/modules/core/domain/entities/evidence"
	"github.com/wildroots/wildroots/modules/core/domain/entities/membership"
	"github.com/wildroots/wildroots/modules/core/domain/entities/school"
	"github.com/wildroots/wildroots/modules/migration/domain/events"
	"github.com/wildroots/wildroots/pkg/composables"
	"github.com/wildroots/wildroots/pkg/eventbus"
)

// ConsolidationService repairs duplicate school records produced by imports
// that ran before name normalization existed. Schools whose names differ
// only in case or whitespace are merged into a single survivor.
type ConsolidationService struct {
	schools     school.Repository
	memberships membership.Repository
	evidence    evidence.Repository
	publisher   eventbus.EventBus
	inTx        TxFunc
}

type ConsolidationServiceConfig struct {
	Schools     school.Repository
	Memberships membership.Repository
	Evidence    evidence.Repository
	Publisher   eventbus.EventBus
	InTx        TxFunc
}

func NewConsolidationService(cfg ConsolidationServiceConfig) *ConsolidationService {
	inTx := cfg.InTx
	if inTx == nil {
		inTx = composables.InTx
	}
	return &ConsolidationService{
		schools:     cfg.Schools,
		memberships: cfg.Memberships,
		evidence:    cfg.Evidence,
		publisher:   cfg.Publisher,
		inTx:        inTx,
	}
}

type ConsolidationGroupError struct {
	SurvivorName string `json:"survivorName"`
	Reason       string `json:"reason"`
}

type ConsolidationReport struct {
	GroupsFound        int                       `json:"groupsFound"`
	SchoolsDeleted     int                       `json:"schoolsDeleted"`
	MembershipsMoved   int                       `json:"membershipsMoved"`
	MembershipsDeleted int                       `json:"membershipsDeleted"`
	EvidenceMoved      int64                     `json:"evidenceMoved"`
	Errors             []ConsolidationGroupError `json:"errors,omitempty"`
}

// ConsolidateDuplicates merges every duplicate group it finds. Each group
// commits in its own transaction; one group failing mid-merge leaves that
// group intact and the rest of the pass unaffected. Running the pass twice
// is a no-op the second time.
func (s *ConsolidationService) ConsolidateDuplicates(ctx context.Context) (*ConsolidationReport, error) {
	groups, err := s.findDuplicateGroups(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsolidationReport{GroupsFound: len(groups)}
	logger := composables.UseLogger(ctx)

	for _, group := range groups {
		survivor := group[0]
		duplicates := group[1:]
		if err := s.mergeGroup(ctx, survivor, duplicates, report); err != nil {
			logger.WithError(err).Warnf("failed to consolidate duplicates of %q", survivor.Name)
			report.Errors = append(report.Errors, ConsolidationGroupError{
				SurvivorName: survivor.Name,
				Reason:       err.Error(),
			})
		}
	}

	if s.publisher != nil {
		s.publisher.Publish(&events.ConsolidationCompleted{
			GroupsFound:    report.GroupsFound,
			SchoolsDeleted: report.SchoolsDeleted,
		})
	}
	return report, nil
}

// findDuplicateGroups buckets all schools by normalized name and returns the
// buckets with more than one member, each sorted survivor-first. The oldest
// record survives; creation time ties break on the lower id.
func (s *ConsolidationService) findDuplicateGroups(ctx context.Context) ([][]*school.School, error) {
	all, err := s.schools.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing schools: %w", err)
	}

	byName := make(map[string][]*school.School)
	order := make([]string, 0)
	for _, sc := range all {
		normalized := school.NormalizeName(sc.Name)
		if _, ok := byName[normalized]; !ok {
			order = append(order, normalized)
		}
		byName[normalized] = append(byName[normalized], sc)
	}

	var groups [][]*school.School
	for _, name := range order {
		group := byName[name]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].ID.String() < group[j].ID.String()
			}
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *ConsolidationService) mergeGroup(
	ctx context.Context,
	survivor *school.School,
	duplicates []*school.School,
	report *ConsolidationReport,
) error {
	// Counters are staged locally and folded into the report only after the
	// group's transaction commits; a rollback must not inflate the totals.
	var staged ConsolidationReport
	err := s.inTx(ctx, func(txCtx context.Context) error {
		for _, dup := range duplicates {
			memberships, err := s.memberships.ListBySchool(txCtx, dup.ID)
			if err != nil {
				return fmt.Errorf("listing memberships of %s: %w", dup.ID, err)
			}
			for _, m := range memberships {
				alreadyMember, err := s.memberships.Exists(txCtx, m.UserID, survivor.ID)
				if err != nil {
					return fmt.Errorf("checking membership of user %d: %w", m.UserID, err)
				}
				if alreadyMember {
					// Moving it would violate the (user, school) uniqueness
					// constraint; the user already belongs to the survivor.
					if err := s.memberships.Delete(txCtx, m.ID); err != nil {
						return fmt.Errorf("deleting membership %d: %w", m.ID, err)
					}
					staged.MembershipsDeleted++
					continue
				}
				if err := s.memberships.Reassign(txCtx, m.ID, survivor.ID); err != nil {
					return fmt.Errorf("reassigning membership %d: %w", m.ID, err)
				}
				staged.MembershipsMoved++
			}

			moved, err := s.evidence.ReassignSchool(txCtx, dup.ID, survivor.ID)
			if err != nil {
				return fmt.Errorf("reassigning evidence of %s: %w", dup.ID, err)
			}
			staged.EvidenceMoved += moved

			if err := s.schools.Delete(txCtx, dup.ID); err != nil {
				return fmt.Errorf("deleting school %s: %w", dup.ID, err)
			}
			staged.SchoolsDeleted++
		}
		return nil
	})
	if err != nil {
		return err
	}
	report.SchoolsDeleted += staged.SchoolsDeleted
	report.MembershipsMoved += staged.MembershipsMoved
	report.MembershipsDeleted += staged.MembershipsDeleted
	report.EvidenceMoved += staged.EvidenceMoved
	return nil
}
