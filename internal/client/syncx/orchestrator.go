package syncx

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dkrivenko/marksync/internal/client/api"
	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/client/repositories/session"
	"github.com/dkrivenko/marksync/internal/client/store"
	"github.com/dkrivenko/marksync/internal/common"
	"github.com/dkrivenko/marksync/internal/logging"
)

// Options tune the orchestrator; zero values fall back to defaults.
type Options struct {
	// SchoolsMinInterval gates the schools snapshot refresh (default 24h).
	SchoolsMinInterval time.Duration
	// Clock is injectable for tests (default time.Now).
	Clock func() time.Time
}

// Orchestrator is the single serialized driver of all outbound and inbound
// synchronization. One cycle runs at a time; a concurrent trigger is a
// no-op. Step order is fixed: schools, assessments, submissions, grade-push,
// grading-pull. Pushing local edits before pulling snapshots is what keeps a
// stale pull from clobbering an unsynced local edit.
type Orchestrator struct {
	repos    *store.Repositories
	api      api.Client
	uploader *Uploader
	log      logging.Logger
	clock    func() time.Time

	schoolsMinInterval time.Duration

	running atomic.Bool
	events  *broadcaster
}

func NewOrchestrator(repos *store.Repositories, apiClient api.Client, log logging.Logger, opts Options) *Orchestrator {
	if opts.SchoolsMinInterval <= 0 {
		opts.SchoolsMinInterval = 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Orchestrator{
		repos:              repos,
		api:                apiClient,
		uploader:           NewUploader(repos.Assets, apiClient, log),
		log:                log,
		clock:              opts.Clock,
		schoolsMinInterval: opts.SchoolsMinInterval,
		events:             newBroadcaster(),
	}
}

// Subscribe returns a status event channel and an unsubscribe handle.
func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	return o.events.subscribe()
}

// Running reports whether a cycle is currently in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Run executes one full sync cycle. If a cycle is already in flight it
// returns common.ErrSyncInProgress without doing any work. Each step is
// best-effort: a failing step is logged and the cycle moves on, because the
// grade-merge rule (push before pull, pull masks unsynced edits) keeps
// later steps safe regardless.
//
// force bypasses the schools refresh time gate.
func (o *Orchestrator) Run(ctx context.Context, force bool) error {
	if !o.running.CompareAndSwap(false, true) {
		return common.ErrSyncInProgress
	}
	// The guard release must survive any step error or panic.
	defer func() {
		o.running.Store(false)
		o.events.publish(Event{Kind: CycleFinished})
	}()

	o.events.publish(Event{Kind: CycleStarted})
	o.log.Info(ctx, "sync cycle started", "force", force)

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"schools", func(ctx context.Context) error { return o.syncSchools(ctx, force) }},
		{"assessments", o.syncAssessments},
		{"submissions", o.syncSubmissions},
		{"grades-push", o.pushGrades},
		{"grading-pull", o.pullGrading},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.fn(ctx); err != nil {
			o.log.Error(ctx, "sync step failed", "step", step.name, "error", err)
			o.events.publish(Event{Kind: StepFailed, Step: step.name, Err: err.Error()})
			continue
		}
		o.events.publish(Event{Kind: StepCompleted, Step: step.name})
	}

	o.log.Info(ctx, "sync cycle finished")
	return nil
}

// syncSchools refreshes the schools snapshot at most once per the minimum
// interval, unless forced.
func (o *Orchestrator) syncSchools(ctx context.Context, force bool) error {
	if !force {
		stamp, err := o.repos.Session.Get(ctx, session.KeySchoolsSyncedAt)
		if err != nil {
			return err
		}
		if len(stamp) > 0 {
			last, err := strconv.ParseInt(string(stamp), 10, 64)
			if err == nil && o.clock().Sub(time.Unix(last, 0)) < o.schoolsMinInterval {
				o.log.Debug(ctx, "schools snapshot is fresh, skipping")
				return nil
			}
		}
	}

	schools, err := o.api.FetchSchools(ctx)
	if err != nil {
		return err
	}
	if err := o.repos.Reference.ReplaceSchools(ctx, schools); err != nil {
		return err
	}
	stamp := strconv.FormatInt(o.clock().Unix(), 10)
	return o.repos.Session.Set(ctx, session.KeySchoolsSyncedAt, []byte(stamp))
}

// syncAssessments refreshes unconditionally: the snapshot is cheap and
// read-mostly.
func (o *Orchestrator) syncAssessments(ctx context.Context) error {
	assessments, err := o.api.FetchAssessments(ctx)
	if err != nil {
		return err
	}
	return o.repos.Reference.ReplaceAssessments(ctx, assessments)
}

// syncSubmissions drains the outbox sequentially. A failing record is marked
// failed and the cycle moves to the next one; its sync is never partially
// applied.
func (o *Orchestrator) syncSubmissions(ctx context.Context) error {
	outbox, err := o.repos.Submissions.GetOutbox(ctx)
	if err != nil {
		return err
	}
	for _, sub := range outbox {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.syncSubmission(ctx, sub); err != nil {
			o.log.Error(ctx, "submission sync failed",
				"local_id", sub.LocalID, "correlation_id", sub.CorrelationID, "error", err)
			o.events.publish(Event{Kind: SubmissionFailed, LocalID: sub.LocalID, Err: err.Error()})
			continue
		}
	}
	return nil
}

func (o *Orchestrator) syncSubmission(ctx context.Context, sub *models.OfflineSubmission) error {
	if err := o.repos.Submissions.MarkSyncing(ctx, sub.LocalID); err != nil {
		return err
	}

	urls, err := o.uploader.UploadPending(ctx, sub.LocalID)
	if err != nil {
		o.markFailed(ctx, sub.LocalID, err)
		return err
	}

	answers := make(map[string]models.Answer, len(sub.Answers))
	for id, a := range sub.Answers {
		answers[id] = a
	}
	for fieldID, url := range urls {
		a := answers[fieldID]
		a.FileURL = url
		answers[fieldID] = a
	}

	// Grades recorded against the pre-sync record ride along inside the
	// submission payload instead of the grade-push batch.
	localRef := models.LocalRef(sub.CorrelationID)
	pending, err := o.repos.Grades.GetByOwner(ctx, localRef)
	if err != nil {
		o.markFailed(ctx, sub.LocalID, err)
		return err
	}
	complete := false
	for _, g := range pending {
		a := answers[g.FieldID]
		marks := g.Marks
		a.Marks = &marks
		answers[g.FieldID] = a
		if g.Complete {
			complete = true
		}
	}

	// Persist resolved URLs and folded marks so a retry after a lost
	// response resends the identical payload.
	if err := o.repos.Submissions.UpdateAnswers(ctx, sub.LocalID, answers); err != nil {
		o.markFailed(ctx, sub.LocalID, err)
		return err
	}

	result, err := o.api.SubmitSubmission(ctx, &api.SubmissionRequest{
		CorrelationID: sub.CorrelationID,
		AssessmentID:  sub.AssessmentID,
		StudentName:   sub.StudentName,
		Answers:       answers,
		Complete:      complete,
	})
	if err != nil {
		o.markFailed(ctx, sub.LocalID, err)
		return err
	}

	// Reconcile server-computed per-field values (e.g. auto-graded marks).
	changed := false
	for fieldID, srv := range result.Answers {
		if srv.Marks == nil {
			continue
		}
		a := answers[fieldID]
		a.Marks = srv.Marks
		answers[fieldID] = a
		changed = true
	}
	if changed {
		if err := o.repos.Submissions.UpdateAnswers(ctx, sub.LocalID, answers); err != nil {
			return err
		}
	}

	if err := o.repos.Submissions.MarkSynced(ctx, sub.LocalID, result.ID, o.clock().Unix()); err != nil {
		return err
	}
	// The folded-in grades are redundant now that the submission landed.
	if err := o.repos.Grades.DeleteByOwner(ctx, localRef); err != nil {
		return err
	}

	o.log.Info(ctx, "submission synced", "local_id", sub.LocalID, "server_id", result.ID)
	o.events.publish(Event{Kind: SubmissionSynced, LocalID: sub.LocalID, ServerID: result.ID})
	return nil
}

func (o *Orchestrator) markFailed(ctx context.Context, localID int64, cause error) {
	if err := o.repos.Submissions.MarkFailed(ctx, localID, cause.Error()); err != nil {
		o.log.Error(ctx, "failed to mark submission failed", "local_id", localID, "error", err)
	}
}

// pushGrades sends all unsynced marks against server-owned submissions in
// one idempotent batch. Grades still keyed to local records are skipped
// here; they are folded into their submission's payload instead.
func (o *Orchestrator) pushGrades(ctx context.Context) error {
	unsynced, err := o.repos.Grades.GetUnsynced(ctx)
	if err != nil {
		return err
	}

	var batch []api.GradePush
	var pushed []*models.PendingGrade
	for _, g := range unsynced {
		if g.Owner.Kind != models.RefRemote {
			continue
		}
		batch = append(batch, api.GradePush{
			SubmissionID: g.Owner.ServerID,
			FieldID:      g.FieldID,
			Marks:        g.Marks,
			Complete:     g.Complete,
		})
		pushed = append(pushed, g)
	}
	if len(batch) == 0 {
		return nil
	}

	if err := o.api.PushGrades(ctx, batch); err != nil {
		return err
	}

	// Flag exactly the values that went out. A grade edited while the push
	// was in flight keeps its unsynced newer value.
	for _, g := range pushed {
		if err := o.repos.Grades.MarkSynced(ctx, g.Owner, g.FieldID, g.UpdatedAt); err != nil {
			return err
		}
	}
	o.log.Info(ctx, "grades pushed", "count", len(batch))
	return nil
}

// pullGrading replaces the mirror with the server's grading snapshot — except
// for fields that still carry an unsynced local edit. The local edit always
// wins until it has been confirmed pushed.
func (o *Orchestrator) pullGrading(ctx context.Context) error {
	snapshot, err := o.api.FetchGrading(ctx)
	if err != nil {
		return err
	}

	unsynced, err := o.repos.Grades.GetUnsynced(ctx)
	if err != nil {
		return err
	}
	mask := make(map[string]map[string]*models.PendingGrade)
	for _, g := range unsynced {
		if g.Owner.Kind != models.RefRemote {
			continue
		}
		key := g.Owner.Key()
		if mask[key] == nil {
			mask[key] = make(map[string]*models.PendingGrade)
		}
		mask[key][g.FieldID] = g
	}

	now := o.clock().UTC()
	for i := range snapshot {
		sub := &snapshot[i]
		sub.FetchedAt = now
		local, ok := mask[models.RemoteRef(sub.ServerID).Key()]
		if !ok {
			continue
		}
		for fieldID, g := range local {
			a := sub.Answers[fieldID]
			marks := g.Marks
			a.Marks = &marks
			sub.Answers[fieldID] = a
			if g.Complete {
				sub.Complete = true
			}
		}
	}

	return o.repos.Mirror.Replace(ctx, snapshot)
}
