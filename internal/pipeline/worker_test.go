package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/dedup"
	"github.com/Jdubz/job-finder-worker-sub014/internal/match"
	"github.com/Jdubz/job-finder-worker-sub014/internal/model"
	"github.com/Jdubz/job-finder-worker-sub014/internal/policy"
	"github.com/Jdubz/job-finder-worker-sub014/internal/queue"
	"github.com/Jdubz/job-finder-worker-sub014/internal/scoring"
)

type fakeQueue struct {
	success  map[string]string
	skipped  map[string]string
	failed   map[string]string
	requeued map[string]string

	requeueErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		success:  map[string]string{},
		skipped:  map[string]string{},
		failed:   map[string]string{},
		requeued: map[string]string{},
	}
}

func (f *fakeQueue) ClaimNext(context.Context) (*queue.Item, error) {
	return nil, queue.ErrNotFound
}
func (f *fakeQueue) MarkSuccess(_ context.Context, id, msg string) error {
	f.success[id] = msg
	return nil
}
func (f *fakeQueue) MarkSkipped(_ context.Context, id, msg string) error {
	f.skipped[id] = msg
	return nil
}
func (f *fakeQueue) MarkFailed(_ context.Context, id, details string) error {
	f.failed[id] = details
	return nil
}
func (f *fakeQueue) Requeue(_ context.Context, id, reason string) error {
	if f.requeueErr != nil {
		return f.requeueErr
	}
	f.requeued[id] = reason
	return nil
}

type fakeGuard struct {
	result dedup.Result
	err    error
	block  bool // wait for ctx cancellation instead of answering
}

func (f *fakeGuard) CheckSave(ctx context.Context, _ string) (dedup.Result, error) {
	if f.block {
		<-ctx.Done()
		return dedup.Result{}, ctx.Err()
	}
	return f.result, f.err
}

type fakeMatches struct {
	insertID string
	created  bool
	err      error
	inserted []match.Record
}

func (f *fakeMatches) InsertIfAbsent(_ context.Context, r match.Record) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	f.inserted = append(f.inserted, r)
	return f.insertID, f.created, nil
}

type fakeCompanies struct {
	upserted []model.CompanyInfo
	knownID  string
	size     string
	findErr  error
}

func (f *fakeCompanies) Upsert(_ context.Context, info model.CompanyInfo) (string, error) {
	f.upserted = append(f.upserted, info)
	return "c-1", nil
}
func (f *fakeCompanies) FindByName(context.Context, string) (string, string, error) {
	return f.knownID, f.size, f.findErr
}

type fakePolicies struct {
	title policy.TitleFilterPolicy
	stop  policy.StopList
}

func (f *fakePolicies) TitleFilter(context.Context) policy.TitleFilterPolicy { return f.title }
func (f *fakePolicies) StopList(context.Context) policy.StopList             { return f.stop }
func (f *fakePolicies) Technology(context.Context) policy.TechnologyPolicy {
	return policy.DefaultTechnology()
}
func (f *fakePolicies) CandidateProfile(context.Context) policy.CandidateProfile {
	return policy.DefaultProfile()
}

type fakeSink struct{ types []string }

func (f *fakeSink) Publish(_ context.Context, eventType, _ string, _ map[string]string) {
	f.types = append(f.types, eventType)
}

type deps struct {
	queue     *fakeQueue
	guard     *fakeGuard
	matches   *fakeMatches
	companies *fakeCompanies
	sink      *fakeSink
}

func newWorker(t *testing.T) (*Worker, *deps) {
	t.Helper()
	d := &deps{
		queue:     newFakeQueue(),
		guard:     &fakeGuard{},
		matches:   &fakeMatches{insertID: "m-1", created: true},
		companies: &fakeCompanies{},
		sink:      &fakeSink{},
	}
	w := New(
		Config{PollInterval: time.Millisecond, ItemTimeout: time.Second},
		d.queue, d.guard, d.matches, d.companies, &fakePolicies{}, scoring.NewEngine(zap.NewNop()), d.sink, zap.NewNop(),
	)
	return w, d
}

func jobItem(t *testing.T, p model.Posting) *queue.Item {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return &queue.Item{
		ID:            "q-1",
		Type:          queue.TypeJob,
		Status:        queue.StatusProcessing,
		URL:           p.URL,
		NormalizedURL: "https://x.com/job/1",
		RawData:       raw,
		MaxRetries:    3,
	}
}

func TestProcess_JobSavedAsMatch(t *testing.T) {
	w, d := newWorker(t)

	w.process(context.Background(), jobItem(t, model.Posting{
		URL:         "https://x.com/job/1",
		Title:       "Backend Engineer",
		CompanyName: "Acme",
		Description: "We use go and postgresql.",
		Location:    "Berlin",
	}))

	require.Len(t, d.matches.inserted, 1)
	rec := d.matches.inserted[0]
	assert.Equal(t, "https://x.com/job/1", rec.NormalizedURL)
	assert.Equal(t, "q-1", rec.QueueItemID)
	assert.Equal(t, rec.Scoring.FinalScore, rec.MatchScore)

	assert.Contains(t, d.queue.success["q-1"], "matched as m-1")
	assert.Equal(t, []string{"MATCH_CREATED", "ITEM_FINISHED"}, d.sink.types)
}

func TestProcess_TitleGateSkips(t *testing.T) {
	w, d := newWorker(t)
	pols := &fakePolicies{title: policy.TitleFilterPolicy{ExcludedKeywords: []string{"intern"}}}
	w.policies = pols

	w.process(context.Background(), jobItem(t, model.Posting{
		URL: "https://x.com/job/1", Title: "Engineering Intern", CompanyName: "Acme",
	}))

	assert.Equal(t, "excluded title keyword: intern", d.queue.skipped["q-1"])
	assert.Empty(t, d.matches.inserted, "gated postings are never scored or saved")
}

func TestProcess_SaveCheckpointDuplicateSkips(t *testing.T) {
	w, d := newWorker(t)
	d.guard.result = dedup.Result{Found: true, ExistingID: "m-9", Store: dedup.StoreMatches}

	w.process(context.Background(), jobItem(t, model.Posting{
		URL: "https://x.com/job/1", Title: "Backend Engineer", CompanyName: "Acme",
	}))

	assert.Equal(t, "duplicate of m-9", d.queue.skipped["q-1"])
	assert.Empty(t, d.matches.inserted)
}

func TestProcess_LostSaveRaceSkips(t *testing.T) {
	w, d := newWorker(t)
	d.matches.insertID = "m-7"
	d.matches.created = false

	w.process(context.Background(), jobItem(t, model.Posting{
		URL: "https://x.com/job/1", Title: "Backend Engineer", CompanyName: "Acme",
	}))

	assert.Equal(t, "duplicate of m-7", d.queue.skipped["q-1"])
}

func TestProcess_GuardUnavailableRequeues(t *testing.T) {
	w, d := newWorker(t)
	d.guard.err = dedup.ErrGuardUnavailable

	w.process(context.Background(), jobItem(t, model.Posting{
		URL: "https://x.com/job/1", Title: "Backend Engineer", CompanyName: "Acme",
	}))

	assert.Contains(t, d.queue.requeued, "q-1")
	assert.Empty(t, d.queue.failed)
}

func TestProcess_RetriesExhaustedFails(t *testing.T) {
	w, d := newWorker(t)
	d.guard.err = dedup.ErrGuardUnavailable
	d.queue.requeueErr = queue.ErrRetriesExhausted

	w.process(context.Background(), jobItem(t, model.Posting{
		URL: "https://x.com/job/1", Title: "Backend Engineer", CompanyName: "Acme",
	}))

	require.Contains(t, d.queue.failed, "q-1")
	assert.Contains(t, d.queue.failed["q-1"], "duplicate guard unavailable")
}

// A timed-out item with retry budget left goes back to PENDING, not FAILED.
func TestProcess_TimeoutRequeuesWhileBudgetRemains(t *testing.T) {
	w, d := newWorker(t)
	w.cfg.ItemTimeout = 20 * time.Millisecond
	d.guard.block = true

	w.process(context.Background(), jobItem(t, model.Posting{
		URL: "https://x.com/job/1", Title: "Backend Engineer", CompanyName: "Acme",
	}))

	assert.Equal(t, "timeout", d.queue.requeued["q-1"])
	assert.Empty(t, d.queue.failed)
}

func TestProcess_TimeoutFailsOnceRetriesExhausted(t *testing.T) {
	w, d := newWorker(t)
	w.cfg.ItemTimeout = 20 * time.Millisecond
	d.guard.block = true
	d.queue.requeueErr = queue.ErrRetriesExhausted

	item := jobItem(t, model.Posting{
		URL: "https://x.com/job/1", Title: "Backend Engineer", CompanyName: "Acme",
	})
	item.RetryCount = item.MaxRetries
	w.process(context.Background(), item)

	assert.Equal(t, "timeout", d.queue.failed["q-1"])
	assert.Empty(t, d.queue.requeued)
}

// Rejection reasons are recorded verbatim, percent signs included.
func TestProcess_SkipReasonWithPercentKeptVerbatim(t *testing.T) {
	w, d := newWorker(t)
	w.policies = &fakePolicies{title: policy.TitleFilterPolicy{ExcludedKeywords: []string{"100% commission"}}}

	w.process(context.Background(), jobItem(t, model.Posting{
		URL: "https://x.com/job/1", Title: "100% commission sales engineer", CompanyName: "Acme",
	}))

	assert.Equal(t, "excluded title keyword: 100% commission", d.queue.skipped["q-1"])
}

// A broken company store is a transient failure, not a silent "unknown
// company" score.
func TestProcess_CompanyLookupFailureRequeues(t *testing.T) {
	w, d := newWorker(t)
	d.companies.findErr = errors.New("connection refused")

	w.process(context.Background(), jobItem(t, model.Posting{
		URL: "https://x.com/job/1", Title: "Backend Engineer", CompanyName: "Acme",
	}))

	assert.Contains(t, d.queue.requeued["q-1"], "company lookup")
	assert.Empty(t, d.matches.inserted)
}

func TestProcess_UndecodablePayloadFailsPermanently(t *testing.T) {
	w, d := newWorker(t)

	w.process(context.Background(), &queue.Item{
		ID: "q-1", Type: queue.TypeJob, RawData: json.RawMessage(`{not json`),
	})

	require.Contains(t, d.queue.failed, "q-1")
	assert.Empty(t, d.queue.requeued, "decode failures are not retryable")
}

func TestProcess_CompanyItemUpserts(t *testing.T) {
	w, d := newWorker(t)
	raw, err := json.Marshal(model.CompanyInfo{Name: "Acme", Size: "200"})
	require.NoError(t, err)

	w.process(context.Background(), &queue.Item{
		ID: "q-2", Type: queue.TypeCompany, RawData: raw,
	})

	require.Len(t, d.companies.upserted, 1)
	assert.Equal(t, "Acme", d.companies.upserted[0].Name)
	assert.Equal(t, "company c-1", d.queue.success["q-2"])
}

func TestProcess_UnknownTypeFails(t *testing.T) {
	w, d := newWorker(t)

	w.process(context.Background(), &queue.Item{
		ID: "q-3", Type: queue.ItemType("mystery"), RawData: json.RawMessage(`{}`),
	})

	assert.Contains(t, d.queue.failed["q-3"], "unknown item type")
}

func TestRun_StopsOnCancel(t *testing.T) {
	w, _ := newWorker(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
