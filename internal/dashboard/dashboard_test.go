package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/harrylevesque/taskboard/internal/files"
	"github.com/harrylevesque/taskboard/internal/models"
	"github.com/harrylevesque/taskboard/internal/normalize"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

var now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.Local)

type posted struct {
	path    string
	payload map[string]any
}

type fakeSource struct {
	mu      sync.Mutex
	bodies  map[normalize.Kind]string
	health  map[normalize.Kind]normalize.Health
	errs    map[normalize.Kind]error
	block   chan struct{}
	fetches int
	posts   []posted
	reply   string
	postErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		bodies: map[normalize.Kind]string{},
		health: map[normalize.Kind]normalize.Health{},
		errs:   map[normalize.Kind]error{},
		reply:  `{"success":true,"message":"ok"}`,
	}
}

func (f *fakeSource) Fetch(ctx context.Context, kind normalize.Kind) ([]byte, normalize.Health, error) {
	f.mu.Lock()
	f.fetches++
	block := f.block
	body, h, err := f.bodies[kind], f.health[kind], f.errs[kind]
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, normalize.Health{}, ctx.Err()
		}
	}
	if err != nil {
		return nil, normalize.Health{}, err
	}
	return []byte(body), h, nil
}

func (f *fakeSource) Post(ctx context.Context, path string, payload, out any) error {
	data, _ := json.Marshal(payload)
	var m map[string]any
	json.Unmarshal(data, &m)
	f.mu.Lock()
	f.posts = append(f.posts, posted{path: path, payload: m})
	reply, err := f.reply, f.postErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if out != nil {
		return json.Unmarshal([]byte(reply), out)
	}
	return nil
}

func (f *fakeSource) set(kind normalize.Kind, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[kind] = body
}

func (f *fakeSource) lastPost() posted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[len(f.posts)-1]
}

type memCache struct {
	p     *models.CachedProfile
	saves int
}

func (m *memCache) Load() (models.CachedProfile, error) {
	if m.p == nil {
		return models.CachedProfile{}, files.ErrNotFound
	}
	return *m.p, nil
}

func (m *memCache) Save(p models.CachedProfile) error {
	m.p = &p
	m.saves++
	return nil
}

func newController(src Source, cache ProfileCache) *Controller {
	c := NewController(src, cache, nil)
	c.SetClock(func() time.Time { return now })
	return c
}

const tasksBody = `{"tasks":[
	{"task_id":"a","task_name":"A","status":"pending","due_date":"2025-03-10","priority_score":90},
	{"task_id":"b","task_name":"B","status":"pending","due_date":"2025-03-08"},
	{"task_id":"c","task_name":"C","status":"done","due_date":"2025-03-09"}
]}`

func TestLoadBuildsState(t *testing.T) {
	src := newFakeSource()
	src.set(normalize.KindTasks, tasksBody)
	src.set(normalize.KindGoals, `{"pekerjaan":"Designer","goals":[{"Launch":"Ship it"}]}`)
	src.set(normalize.KindProfile, `{"tasks":[{"category":"Engineer","mental_problem":"Stress","motivational_quote":"Go"}]}`)
	cache := &memCache{}

	st, err := newController(src, cache).Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, st.Tasks, 3)
	assert.Equal(t, []string{"a"}, taskIDs(st.Buckets.Priority))
	assert.Equal(t, []string{"b"}, taskIDs(st.Buckets.Overdue))
	assert.Equal(t, []string{"c"}, taskIDs(st.Buckets.Completed))
	assert.Equal(t, 1, st.Summary.Done)
	require.Len(t, st.Goals, 1)
	assert.Equal(t, "Designer", st.Profile.Job, "goals pekerjaan wins over category")
	assert.Equal(t, "Stress", st.Profile.Status)
	assert.Equal(t, "Go", st.Profile.MotivationalQuote)
	assert.False(t, st.ProfileFromCache)
	assert.Empty(t, st.Degraded)
	assert.Equal(t, Fingerprint(st.Tasks), st.Hash)

	require.NotNil(t, cache.p)
	assert.Equal(t, models.CachedProfile{Job: "Engineer", Status: "Stress", MotivationalQuote: "Go", MentalProblem: "Stress"}, *cache.p)
}

func TestLoadFallsBackToCachedProfile(t *testing.T) {
	src := newFakeSource()
	src.errs[normalize.KindProfile] = errors.New("connection refused")
	src.health[normalize.KindGoals] = normalize.Degraded("status 502")
	cache := &memCache{p: &models.CachedProfile{Job: "Nurse", Status: "None", MentalProblem: "Tired"}}

	st, err := newController(src, cache).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, st.ProfileFromCache)
	assert.Equal(t, "Nurse", st.Profile.Job)
	assert.Equal(t, "Tired", st.Profile.Status)
	assert.Empty(t, st.Tasks)
	assert.Len(t, st.Degraded, 2)
	assert.Equal(t, 0, cache.saves)
}

func TestLoadWithoutAnything(t *testing.T) {
	st, err := newController(newFakeSource(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "-", st.Profile.Job)
	assert.Equal(t, "-", st.Profile.Status)
	assert.False(t, st.ProfileFromCache)
}

func TestLoadUnauthorized(t *testing.T) {
	src := newFakeSource()
	src.errs[normalize.KindTasks] = ErrUnauthorized
	_, err := newController(src, nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefresh(t *testing.T) {
	src := newFakeSource()
	src.set(normalize.KindTasks, tasksBody)
	c := newController(src, nil)
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	changed, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "same content")

	src.set(normalize.KindTasks, `{"tasks":[{"task_id":"c","status":"done","due_date":"2025-03-09"},{"task_id":"b","status":"pending","due_date":"2025-03-08"},{"task_id":"a","status":"pending","due_date":"2025-03-10","priority_score":90}]}`)
	changed, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "reordering does not change the fingerprint")

	src.set(normalize.KindTasks, `{"tasks":[{"task_id":"a","status":"done","due_date":"2025-03-10"}]}`)
	changed, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"a"}, taskIDs(c.State().Buckets.Completed))
}

func TestRefreshKeepsStateWhenDegraded(t *testing.T) {
	src := newFakeSource()
	src.set(normalize.KindTasks, tasksBody)
	c := newController(src, nil)
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	src.mu.Lock()
	src.health[normalize.KindTasks] = normalize.Degraded("status 500")
	src.bodies[normalize.KindTasks] = `{"tasks":[]}`
	src.mu.Unlock()

	changed, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, c.State().Tasks, 3)

	src.mu.Lock()
	src.health[normalize.KindTasks] = normalize.OK
	src.bodies[normalize.KindTasks] = `{"tasks":[`
	src.mu.Unlock()
	changed, _ = c.Refresh(context.Background())
	assert.False(t, changed)
	assert.Len(t, c.State().Tasks, 3)
}

func TestRefreshInFlight(t *testing.T) {
	src := newFakeSource()
	src.block = make(chan struct{})
	c := newController(src, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Refresh(context.Background())
	}()
	require.Eventually(t, c.Refreshing, time.Second, time.Millisecond)

	_, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInFlight)

	close(src.block)
	<-done
	assert.False(t, c.Refreshing())
}

func TestFingerprint(t *testing.T) {
	a := []models.Task{{TaskID: "1", Status: "pending", DueDate: "2025-03-01"}, {TaskID: "2", Status: "done"}}
	b := []models.Task{{TaskID: "2", Status: "DONE"}, {TaskID: "1", Status: "pending", DueDate: "2025-03-01", TaskName: "renamed"}}
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	b[1].DueDate = "2025-03-02"
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.Len(t, Fingerprint(nil), 64)
}

func TestBuildProfileView(t *testing.T) {
	cat, problem, empty := "Engineer", "Stress", ""
	p := models.Profile{Category: &cat, MentalProblem: &problem}

	v := BuildProfileView(p, normalize.GoalList{})
	assert.Equal(t, "Engineer", v.Job)
	assert.Equal(t, "Stress", v.Status)

	job, status := "Designer", "Calm"
	v = BuildProfileView(p, normalize.GoalList{Pekerjaan: &job, GoalState: &status})
	assert.Equal(t, "Designer", v.Job)
	assert.Equal(t, "Calm", v.Status)

	v = BuildProfileView(p, normalize.GoalList{Pekerjaan: &empty})
	assert.Equal(t, "Engineer", v.Job, "empty pekerjaan falls through")
}

func taskIDs(ts []models.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.TaskID
	}
	return out
}
