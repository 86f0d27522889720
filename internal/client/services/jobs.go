package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/client/repositories/synced"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

// pullJob fetches and merges one repository. Run delivers on success;
// Abandon delivers when the queue gives up. Exactly one of them sends.
type pullJob struct {
	svc   *SyncService
	repo  synced.Repository
	since *time.Time
	save  bool
	done  chan PullResult
	ctx   context.Context
}

func (j *pullJob) Run(ctx context.Context) error {
	j.ctx = ctx
	db := j.repo.Database()
	since := j.repo.Cursor()
	if j.since != nil {
		since = *j.since
	}

	lines, err := j.svc.client.Pull(ctx, db, since, j.svc.session.UserID)
	if err != nil {
		j.svc.logger.Warn(ctx, "pull failed", "database", db.String(), "error", err)
		return jobError(err)
	}

	res := j.svc.merge(ctx, j.repo, lines)
	if j.save {
		res.SaveErr = j.svc.save(ctx, j.repo)
	}
	j.done <- res
	close(j.done)
	return nil
}

func (j *pullJob) Abandon(err error) {
	db := j.repo.Database()
	operationFailures.WithLabelValues(db.String(), "pull").Inc()
	res := PullResult{
		Database: db,
		State:    models.StateFromError(err),
		Cursor:   j.repo.Cursor(),
		Err:      err,
	}
	if j.save {
		res.SaveErr = j.svc.save(j.context(), j.repo)
	}
	j.done <- res
	close(j.done)
}

func (j *pullJob) context() context.Context {
	if j.ctx != nil {
		return j.ctx
	}
	return context.Background()
}

// merge applies pulled lines in order and advances the cursor to the newest
// timestamp seen. An empty response leaves the cursor alone.
func (s *SyncService) merge(ctx context.Context, repo synced.Repository, lines []models.Line) PullResult {
	db := repo.Database()
	res := PullResult{
		Database: db,
		State:    models.Unchanged,
		Received: len(lines),
		States:   make(map[models.SyncState]int),
	}

	var newest time.Time
	for _, line := range lines {
		rec, st := s.decodeLine(db, line)
		if !st.IsError() {
			st = repo.PushChange(rec)
		}
		if rec.URI.Valid() && rec.Timestamp.After(newest) {
			newest = rec.Timestamp
		}

		res.States[st]++
		pulledRecords.WithLabelValues(db.String(), st.String()).Inc()
		if st.Applied() {
			res.Applied++
		}
		if st.IsError() {
			s.logger.Warn(ctx, "pulled line rejected", "database", db.String(), "uri", line.URI, "state", st.String())
		}
	}

	if !newest.IsZero() {
		repo.AdvanceCursor(newest)
	}
	if res.Applied > 0 {
		res.State = models.Updated
	}
	res.Cursor = repo.Cursor()
	s.logger.Info(ctx, "pull finished", "database", db.String(), "received", res.Received, "applied", res.Applied, "cursor", res.Cursor)
	return res
}

// decodeLine turns a wire line into a record. Addressing problems are left
// to PushChange so the repository reports them, except lines scoped to
// another user. Payloads are stored in the canonical text form of the
// record's codec.
func (s *SyncService) decodeLine(db resource.Database, line models.Line) (models.Record, models.SyncState) {
	ref, _ := resource.Parse(line.URI)
	rec := models.Record{
		URI:       ref.URI,
		Method:    models.ParseMethod(ref.Method),
		Timestamp: ref.Timestamp,
		Value:     line.Payload,
	}
	if !ref.URI.Valid() || ref.URI.Database() != db || ref.URI.Key() == "" {
		return rec, models.Unchanged
	}
	if ref.URI.Scoped() && ref.URI.User() != s.session.UserID {
		return rec, models.ErrorInvalidRepo
	}
	if ref.Timestamp.IsZero() {
		return rec, models.ErrorMalformattedData
	}
	if rec.Tombstone() {
		rec.Value = ""
		return rec, models.Unchanged
	}

	c, err := s.codecs.Lookup(db)
	if err != nil {
		return rec, models.ErrorMalformattedData
	}
	if rec.Value, err = c.Canonical(line.Payload); err != nil {
		return rec, models.ErrorMalformattedData
	}
	return rec, models.Unchanged
}

// pushJob sends one repository's dirty records.
type pushJob struct {
	svc   *SyncService
	repo  synced.Repository
	batch string
	save  bool
	done  chan PushResult
	ctx   context.Context
}

func (j *pushJob) Run(ctx context.Context) error {
	j.ctx = ctx
	db := j.repo.Database()
	changes := j.repo.GetChanges()
	if len(changes) == 0 {
		j.deliver(PushResult{Database: db, State: models.Unchanged})
		return nil
	}

	lines := make([]models.Line, 0, len(changes))
	for _, rec := range changes {
		lines = append(lines, models.Line{URI: resource.FormatReference(rec.Reference()), Payload: rec.Value})
	}

	acks, err := j.svc.client.Push(ctx, j.batch, lines)
	if err != nil {
		j.svc.logger.Warn(ctx, "push failed", "database", db.String(), "batch", j.batch, "error", err)
		return jobError(err)
	}

	res := PushResult{Database: db, State: models.SendToServer, Sent: len(lines)}
	for _, ack := range acks {
		ref, ok := resource.Parse(ack.URI)
		if !ok {
			j.svc.logger.Warn(ctx, "ignoring ack with invalid uri", "uri", ack.URI)
			continue
		}
		if !ack.OK {
			res.Rejected = append(res.Rejected, Rejection{URI: ack.URI, Reason: ack.Reason})
			pushedRecords.WithLabelValues(db.String(), "rejected").Inc()
			continue
		}
		if j.repo.Acknowledge(ref.URI, ref.Timestamp) {
			res.Acknowledged++
			pushedRecords.WithLabelValues(db.String(), "acknowledged").Inc()
		}
	}
	res.Pending = len(j.repo.GetChanges())

	if j.save {
		res.SaveErr = j.svc.save(ctx, j.repo)
	}
	j.svc.logger.Info(ctx, "push finished", "database", db.String(), "batch", j.batch,
		"sent", res.Sent, "acknowledged", res.Acknowledged, "rejected", len(res.Rejected), "pending", res.Pending)
	j.deliver(res)
	return nil
}

func (j *pushJob) Abandon(err error) {
	db := j.repo.Database()
	operationFailures.WithLabelValues(db.String(), "push").Inc()
	res := PushResult{
		Database: db,
		State:    models.StateFromError(err),
		Pending:  len(j.repo.GetChanges()),
		Err:      err,
	}
	if j.save {
		ctx := j.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		res.SaveErr = j.svc.save(ctx, j.repo)
	}
	j.deliver(res)
}

func (j *pushJob) deliver(res PushResult) {
	j.done <- res
	close(j.done)
}
