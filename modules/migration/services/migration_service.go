package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wildroots/wildroots/modules/core/domain/aggregates/user"
	"github.com/wildroots/wildroots/modules/core/domain/entities/membership"
	"github.com/wildroots/wildroots/modules/core/domain/entities/school"
	"github.com/wildroots/wildroots/modules/core/domain/value_objects/internet"
	"github.com/wildroots/wildroots/modules/migration/domain/entities/migrationlog"
	"github.com/wildroots/wildroots/modules/migration/domain/events"
	"github.com/wildroots/wildroots/modules/migration/domain/importing"
	"github.com/wildroots/wildroots/pkg/composables"
	"github.com/wildroots/wildroots/pkg/eventbus"
)

// ErrRunInProgress is returned when another run's log is still in "running"
// state and younger than the stale threshold. The running status doubles as
// an advisory lock; two concurrent runs would race on school identities.
var ErrRunInProgress = errors.New("another migration run is in progress")

type TxFunc func(ctx context.Context, fn func(context.Context) error) error

type MigrationServiceConfig struct {
	Logs        migrationlog.Repository
	Users       user.Repository
	Schools     school.Repository
	Memberships membership.Repository
	Credentials *CredentialGenerator
	Publisher   eventbus.EventBus

	StaleRunThreshold time.Duration
	// InTx defaults to composables.InTx; tests swap in a pass-through.
	InTx TxFunc
}

type MigrationService struct {
	logs        migrationlog.Repository
	users       user.Repository
	schools     school.Repository
	memberships membership.Repository
	creds       *CredentialGenerator
	publisher   eventbus.EventBus

	staleRunThreshold time.Duration
	inTx              TxFunc
}

func NewMigrationService(cfg MigrationServiceConfig) *MigrationService {
	inTx := cfg.InTx
	if inTx == nil {
		inTx = composables.InTx
	}
	staleThreshold := cfg.StaleRunThreshold
	if staleThreshold <= 0 {
		staleThreshold = time.Hour
	}
	return &MigrationService{
		logs:              cfg.Logs,
		users:             cfg.Users,
		schools:           cfg.Schools,
		memberships:       cfg.Memberships,
		creds:             cfg.Credentials,
		publisher:         cfg.Publisher,
		staleRunThreshold: staleThreshold,
		inTx:              inTx,
	}
}

type RunOptions struct {
	CSVContent string
	DryRun     bool
}

// Run executes the import pipeline. Dry and live runs walk the identical
// parse, validate and resolve path; the only difference is whether the
// final write step executes. Partial success is success: skipped and failed
// rows are expected per-row outcomes, not pipeline faults.
func (s *MigrationService) Run(ctx context.Context, opts RunOptions) (*migrationlog.MigrationLog, error) {
	if err := s.checkNoActiveRun(ctx); err != nil {
		return nil, err
	}

	log, err := s.logs.Create(ctx, opts.DryRun)
	if err != nil {
		return nil, fmt.Errorf("creating migration log: %w", err)
	}

	run := &migrationRun{
		service:       s,
		logID:         log.ID,
		dryRun:        opts.DryRun,
		seenEmails:    make(map[string]struct{}),
		seenLegacyIDs: make(map[string]struct{}),
	}
	if err := run.buildSchoolCache(ctx); err != nil {
		return s.finalizeFailed(ctx, log.ID, run, err)
	}

	validator := importing.NewValidator(run.lookups())

	rows := importing.Parse(opts.CSVContent)
	run.counters.TotalRows = len(rows)

	for _, row := range rows {
		validated, err := validator.Validate(ctx, row)
		if err != nil {
			// Storage fault, not a row problem: the whole run fails, but
			// rows committed before this point stay committed.
			return s.finalizeFailed(ctx, log.ID, run, err)
		}
		run.applyRow(ctx, validated)
	}

	status := migrationlog.StatusCompleted
	report := run.report()
	if err := s.logs.Finalize(ctx, log.ID, run.counters, report, status); err != nil {
		return nil, fmt.Errorf("finalizing migration log: %w", err)
	}

	if opts.DryRun {
		composables.UseLogger(ctx).Infof(
			"dry run %s: would create %d schools, %d users",
			log.ID, run.wouldCreateSchools, run.wouldCreateUsers,
		)
	}

	s.publish(&events.MigrationCompleted{
		LogID:    log.ID,
		DryRun:   opts.DryRun,
		Status:   status,
		Counters: run.counters,
	})

	return s.logs.GetByID(ctx, log.ID)
}

func (s *MigrationService) Logs(ctx context.Context) ([]*migrationlog.MigrationLog, error) {
	return s.logs.List(ctx)
}

func (s *MigrationService) Log(ctx context.Context, id uuid.UUID) (*migrationlog.MigrationLog, error) {
	return s.logs.GetByID(ctx, id)
}

func (s *MigrationService) checkNoActiveRun(ctx context.Context) error {
	running, err := s.logs.FindRunning(ctx)
	if err != nil {
		return fmt.Errorf("checking for active runs: %w", err)
	}
	for _, r := range running {
		if time.Since(r.StartedAt) < s.staleRunThreshold {
			return ErrRunInProgress
		}
		composables.UseLogger(ctx).Warnf(
			"migration log %s has been running since %s; treating it as abandoned",
			r.ID, r.StartedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func (s *MigrationService) finalizeFailed(
	ctx context.Context,
	logID uuid.UUID,
	run *migrationRun,
	cause error,
) (*migrationlog.MigrationLog, error) {
	if err := s.logs.Finalize(ctx, logID, run.counters, run.report(), migrationlog.StatusFailed); err != nil {
		composables.UseLogger(ctx).WithError(err).Error("failed to finalize aborted migration run")
	}
	s.publish(&events.MigrationCompleted{
		LogID:    logID,
		DryRun:   run.dryRun,
		Status:   migrationlog.StatusFailed,
		Counters: run.counters,
	})
	log, getErr := s.logs.GetByID(ctx, logID)
	if getErr != nil {
		return nil, cause
	}
	return log, cause
}

func (s *MigrationService) publish(event any) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

// migrationRun carries the per-run state: counters, the resolver-local
// school cache, and the within-run identity sets that keep a dry run's
// outcome counts identical to the live run it previews.
type migrationRun struct {
	service *MigrationService
	logID   uuid.UUID
	dryRun  bool

	counters           migrationlog.Counters
	credentials        []migrationlog.CredentialEntry
	wouldCreateUsers   int
	wouldCreateSchools int

	// schoolsByName is built once per run. It guards against duplicate
	// schools from rows of the same file only; duplicates across separate
	// runs are the consolidator's job.
	schoolsByName map[string]uuid.UUID

	seenEmails    map[string]struct{}
	seenLegacyIDs map[string]struct{}
}

func (r *migrationRun) buildSchoolCache(ctx context.Context) error {
	schools, err := r.service.schools.List(ctx)
	if err != nil {
		return fmt.Errorf("loading schools: %w", err)
	}
	r.schoolsByName = make(map[string]uuid.UUID, len(schools))
	for _, s := range schools {
		normalized := school.NormalizeName(s.Name)
		// List returns oldest first; keep the oldest per name so resolution
		// lands on the same school the consolidator would pick as survivor.
		if _, ok := r.schoolsByName[normalized]; !ok {
			r.schoolsByName[normalized] = s.ID
		}
	}
	return nil
}

// lookups layer the within-run identity sets over the persistent read
// queries, so a row consumed earlier in this same file rejects a later
// duplicate in both dry and live mode.
func (r *migrationRun) lookups() importing.Lookups {
	return importing.Lookups{
		EmailExists: func(ctx context.Context, email string) (bool, error) {
			if _, ok := r.seenEmails[strings.ToLower(email)]; ok {
				return true, nil
			}
			return r.service.users.ExistsByEmail(ctx, email)
		},
		LegacyIDExists: func(ctx context.Context, legacyID string) (bool, error) {
			if _, ok := r.seenLegacyIDs[legacyID]; ok {
				return true, nil
			}
			return r.service.users.ExistsByLegacyID(ctx, legacyID)
		},
	}
}

func (r *migrationRun) applyRow(ctx context.Context, validated importing.ValidatedRow) {
	switch validated.Outcome {
	case importing.OutcomeSkipped:
		r.counters.SkippedRows++
		return
	case importing.OutcomeFailed:
		r.recordFailure(ctx, validated.Row, validated.Reason)
		return
	}

	cand := importing.NewCandidate(validated.Row, school.NormalizeName)

	schoolID, ok := r.schoolsByName[cand.NormalizedSchoolName]
	createSchool := false
	if !ok {
		schoolID = uuid.New()
		createSchool = true
	}

	if r.dryRun {
		r.counters.ValidRows++
		r.wouldCreateUsers++
		if createSchool {
			r.wouldCreateSchools++
			r.schoolsByName[cand.NormalizedSchoolName] = schoolID
		}
		r.markConsumed(cand)
		return
	}

	credential, err := r.commitRow(ctx, cand, schoolID, createSchool)
	if err != nil {
		// One row's write failure never aborts the batch; the row is
		// recorded and the run moves on. Not retried here: re-running the
		// file is idempotent against already-migrated legacy ids.
		r.recordFailure(ctx, validated.Row, fmt.Sprintf("write failed: %v", err))
		return
	}

	r.counters.ValidRows++
	r.counters.UsersCreated++
	if createSchool {
		r.counters.SchoolsCreated++
		r.schoolsByName[cand.NormalizedSchoolName] = schoolID
	}
	r.credentials = append(r.credentials, *credential)
	r.markConsumed(cand)
}

// commitRow writes one row in its own small transaction, so a later row's
// failure cannot roll back earlier successful rows.
func (r *migrationRun) commitRow(
	ctx context.Context,
	cand importing.Candidate,
	schoolID uuid.UUID,
	createSchool bool,
) (*migrationlog.CredentialEntry, error) {
	password, err := r.service.creds.TempPassword()
	if err != nil {
		return nil, fmt.Errorf("generating credential: %w", err)
	}

	err = r.service.inTx(ctx, func(txCtx context.Context) error {
		if createSchool {
			if _, err := r.service.schools.Create(txCtx, &school.School{
				ID:      schoolID,
				Name:    cand.SchoolName,
				Country: cand.Country,
				Stage:   school.StageSeedling,
			}); err != nil {
				return fmt.Errorf("creating school: %w", err)
			}
		}

		email, err := internet.NewEmail(cand.Email)
		if err != nil {
			return err
		}
		entity := user.New(
			cand.FirstName,
			cand.LastName,
			email,
			user.WithMigratedFrom(cand.LegacyUserID, time.Now()),
			user.WithNeedsEvidenceResubmission(true),
		)
		entity, err = entity.SetPassword(password)
		if err != nil {
			return err
		}
		created, err := r.service.users.Create(txCtx, entity)
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		if _, err := r.service.memberships.Create(txCtx, &membership.Membership{
			UserID:   created.ID(),
			SchoolID: schoolID,
			Role:     membership.RoleTeacher,
		}); err != nil {
			return fmt.Errorf("creating membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &migrationlog.CredentialEntry{
		Email:             cand.Email,
		TemporaryPassword: password,
		SchoolName:        cand.SchoolName,
	}, nil
}

func (r *migrationRun) markConsumed(cand importing.Candidate) {
	r.seenEmails[strings.ToLower(cand.Email)] = struct{}{}
	r.seenLegacyIDs[cand.LegacyUserID] = struct{}{}
}

func (r *migrationRun) recordFailure(ctx context.Context, row importing.RawRow, reason string) {
	r.counters.FailedRows++
	rowErr := migrationlog.RowError{
		Row:    row.Line,
		Email:  strings.TrimSpace(row.Email),
		Reason: reason,
	}
	if err := r.service.logs.AppendError(ctx, r.logID, rowErr); err != nil {
		composables.UseLogger(ctx).WithError(err).Warn("failed to append migration row error")
	}
}

// report returns the credential report for live runs; dry runs never have
// one because nothing was created.
func (r *migrationRun) report() *migrationlog.CredentialReport {
	if r.dryRun || len(r.credentials) == 0 {
		return nil
	}
	return &migrationlog.CredentialReport{UserCredentials: r.credentials}
}
