package policy

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadim/asset-qc/internal/domain/asset/dao"
	"github.com/vadim/asset-qc/internal/domain/asset/entity"
	"github.com/vadim/asset-qc/internal/domain/asset/service"
)

type memRepo struct {
	mu     sync.Mutex
	assets map[int64]entity.Asset
	nextID int64
	calls  map[string]int

	// onSnapshots runs after the snapshot is taken, outside the lock
	onSnapshots func()
}

func newMemRepo() *memRepo {
	return &memRepo{assets: map[int64]entity.Asset{}, calls: map[string]int{}}
}

func (m *memRepo) Create(_ context.Context, a *entity.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	m.assets[a.ID] = *a
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*entity.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memRepo) Save(_ context.Context, a *entity.Asset, expected entity.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.assets[a.ID]
	if !ok || stored.Status != expected || stored.Version != a.Version {
		return false, nil
	}
	a.Version++
	m.assets[a.ID] = *a
	return true, nil
}

func (m *memRepo) List(_ context.Context, filter dao.AssetFilter, _ dao.ListOptions) ([]entity.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Asset
	for id := int64(1); id <= m.nextID; id++ {
		a, ok := m.assets[id]
		if !ok {
			continue
		}
		for _, s := range filter.Statuses {
			if a.Status == s {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (m *memRepo) Count(context.Context, dao.AssetFilter) (int64, error) {
	return int64(len(m.assets)), nil
}

func (m *memRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.assets[id]
	return ok, nil
}

func (m *memRepo) ListQCSnapshots(context.Context) ([]entity.QCSnapshot, error) {
	m.mu.Lock()
	m.calls["snapshots"]++
	var out []entity.QCSnapshot
	for _, a := range m.assets {
		out = append(out, entity.QCSnapshot{QCStatus: a.QCStatus, QCScore: a.QCScore})
	}
	hook := m.onSnapshots
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

type fakeCache struct {
	stats       *entity.QCStatistics
	storedGen   int64
	generation  int64
	invalidated int
	sets        int
	getErr      error
}

func (c *fakeCache) Get(context.Context) (*entity.QCStatistics, int64, bool, error) {
	if c.getErr != nil {
		return nil, 0, false, c.getErr
	}
	if c.stats == nil || c.storedGen != c.generation {
		return nil, c.generation, false, nil
	}
	return c.stats, c.generation, true, nil
}

func (c *fakeCache) Set(_ context.Context, s *entity.QCStatistics, generation int64) error {
	c.sets++
	c.stats = s
	c.storedGen = generation
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidated++
	c.generation++
	c.stats = nil
	return nil
}

type fakeFiles struct {
	uploaded []string
	deleted  []string
}

func (f *fakeFiles) Upload(_ context.Context, in FileUpload) (*StoredFile, error) {
	key := "assets/" + in.Filename
	f.uploaded = append(f.uploaded, key)
	return &StoredFile{Key: key, URL: "http://files/" + key}, nil
}

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeRecorder struct {
	counts map[string]int
}

func (r *fakeRecorder) IncTransition(transition, result string) {
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[transition+"/"+result]++
}

type fixture struct {
	policy  *Policy
	repo    *memRepo
	cache   *fakeCache
	files   *fakeFiles
	metrics *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemRepo()
	f := &fixture{
		repo:    repo,
		cache:   &fakeCache{},
		files:   &fakeFiles{},
		metrics: &fakeRecorder{},
	}
	f.policy = New(service.New(repo), f.cache, f.files, f.metrics, zap.NewNop())
	return f
}

func intPtr(v int) *int { return &v }

func (f *fixture) submitted(t *testing.T) *entity.Asset {
	t.Helper()
	ctx := context.Background()
	a, err := f.policy.CreateAsset(ctx, service.CreateInput{
		Name:         "Landing hero",
		SEOScore:     intPtr(80),
		GrammarScore: intPtr(90),
	})
	require.NoError(t, err)
	a, err = f.policy.Submit(ctx, a.ID, nil)
	require.NoError(t, err)
	return a
}

func TestPolicy_TransitionsRecordMetricsAndInvalidateCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.submitted(t)
	before := f.cache.invalidated

	_, err := f.policy.Approve(ctx, ReviewInput{AssetID: a.ID, Score: intPtr(88)})
	require.NoError(t, err)

	assert.Equal(t, before+1, f.cache.invalidated)
	assert.Equal(t, 1, f.metrics.counts["submit/ok"])
	assert.Equal(t, 1, f.metrics.counts["approve/ok"])
}

func TestPolicy_TransitionFailureResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submitted(t)

	_, err := f.policy.Reject(ctx, ReviewInput{AssetID: a.ID, Remarks: "  "})
	var vErr *entity.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = f.policy.Publish(ctx, a.ID, nil)
	var stateErr *entity.InvalidStateTransitionError
	require.ErrorAs(t, err, &stateErr)

	_, err = f.policy.Archive(ctx, 999)
	require.ErrorIs(t, err, entity.ErrAssetNotFound)

	assert.Equal(t, 1, f.metrics.counts["reject/validation_error"])
	assert.Equal(t, 1, f.metrics.counts["publish/invalid_transition"])
	assert.Equal(t, 1, f.metrics.counts["archive/not_found"])
}

func TestPolicy_GetStatisticsReadThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submitted(t)

	first, err := f.policy.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Pending)
	assert.Equal(t, 1, f.repo.calls["snapshots"])

	second, err := f.policy.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.repo.calls["snapshots"], "second read should be served from cache")
}

func TestPolicy_GetStatisticsCacheErrorFallsBack(t *testing.T) {
	f := newFixture(t)
	f.cache.getErr = errors.New("redis down")

	stats, err := f.policy.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 1, f.repo.calls["snapshots"])
	assert.Equal(t, 0, f.cache.sets, "snapshot is not stored without a known generation")
}

func TestPolicy_GetStatisticsTransitionDuringComputeNotServedStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submitted(t)

	// approve lands after the snapshot was read but before it is cached
	f.repo.onSnapshots = func() {
		f.repo.onSnapshots = nil
		_, err := f.policy.Approve(ctx, ReviewInput{AssetID: a.ID, Score: intPtr(90)})
		require.NoError(t, err)
	}

	stale, err := f.policy.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stale.Pending)

	fresh, err := f.policy.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Pending)
	assert.Equal(t, 1, fresh.Approved)
	assert.Equal(t, 2, f.repo.calls["snapshots"])
}

func TestPolicy_GetStatisticsWithoutCache(t *testing.T) {
	repo := newMemRepo()
	p := New(service.New(repo), nil, nil, nil, nil)

	_, err := p.GetStatistics(context.Background())
	require.NoError(t, err)
	_, err = p.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls["snapshots"])
}

func TestPolicy_ListPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.submitted(t)
	rework := f.submitted(t)
	_, err := f.policy.RequestRework(ctx, ReviewInput{AssetID: rework.ID, Remarks: "fix alt text"})
	require.NoError(t, err)

	tests := []struct {
		filter PendingFilter
		want   []int64
	}{
		{PendingFilterPending, []int64{pending.ID}},
		{"", []int64{pending.ID}},
		{PendingFilterRework, []int64{rework.ID}},
		{PendingFilterAll, []int64{pending.ID, rework.ID}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			assets, err := f.policy.ListPending(ctx, tt.filter, 50)
			require.NoError(t, err)
			var ids []int64
			for _, a := range assets {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err = f.policy.ListPending(ctx, "Approved", 50)
	assert.Equal(t, ErrInvalidPendingFilter, err)
}

func TestPolicy_UploadFileReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.policy.CreateAsset(ctx, service.CreateInput{Name: "Brochure"})
	require.NoError(t, err)

	a, err = f.policy.UploadFile(ctx, UploadFileInput{AssetID: a.ID, File: FileUpload{
		Reader: strings.NewReader("v1"), Filename: "v1.pdf", ContentType: "application/pdf", Size: 2,
	}})
	require.NoError(t, err)
	assert.Equal(t, "assets/v1.pdf", a.FileKey)
	assert.Empty(t, f.files.deleted)

	a, err = f.policy.UploadFile(ctx, UploadFileInput{AssetID: a.ID, File: FileUpload{
		Reader: strings.NewReader("v2"), Filename: "v2.pdf", ContentType: "application/pdf", Size: 2,
	}})
	require.NoError(t, err)
	assert.Equal(t, "http://files/assets/v2.pdf", a.FileURL)
	assert.Equal(t, []string{"assets/v1.pdf"}, f.files.deleted)
}

func TestPolicy_UploadFileRejectedOutsideEditableStates(t *testing.T) {
	f := newFixture(t)
	a := f.submitted(t)

	_, err := f.policy.UploadFile(context.Background(), UploadFileInput{AssetID: a.ID, File: FileUpload{
		Reader: strings.NewReader("x"), Filename: "x.png",
	}})
	var stateErr *entity.InvalidStateTransitionError
	require.ErrorAs(t, err, &stateErr)
	assert.Empty(t, f.files.uploaded)
}

func TestPolicy_UploadFileWithoutStorage(t *testing.T) {
	p := New(service.New(newMemRepo()), nil, nil, nil, zap.NewNop())
	_, err := p.UploadFile(context.Background(), UploadFileInput{AssetID: 1})
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
