package normalize

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/taskboard/internal/models"
)

func fixed() *Normalizer {
	n := New(nil)
	n.Now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local) }
	return n
}

func TestTasksShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"wrapped", `{"tasks":[{"task_id":"T1","task_name":"Write report","status":"pending"}]}`},
		{"bare list", `[{"task_id":"T1","task_name":"Write report","status":"pending"}]`},
		{"first value list", `{"data":[{"task_id":"T1","task_name":"Write report","status":"pending"}],"meta":1}`},
		{"list of wrapper", `[{"tasks":[{"task_id":"T1","task_name":"Write report","status":"pending"}]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fixed().Tasks([]byte(tt.raw))
			assert.False(t, got.Health.Degraded)
			require.Len(t, got.Tasks, 1)
			assert.Equal(t, "T1", got.Tasks[0].TaskID)
			assert.Equal(t, "Write report", got.Tasks[0].TaskName)
			assert.Equal(t, 50, got.Tasks[0].PriorityScore)
		})
	}
}

func TestTasksKeyedObject(t *testing.T) {
	raw := `{"a":"Buy milk","b":{"title":"Call mom","description":"Sunday","priority_score":80},"c":{"task_name":"Gym","status":"done","due_date":"2025-03-01","category":"Health"}}`
	got := fixed().Tasks([]byte(raw))
	require.Len(t, got.Tasks, 3)

	a := got.Tasks[0]
	assert.Equal(t, models.Task{
		TaskID:        "a",
		TaskName:      "Buy milk",
		DueDate:       "2025-03-10",
		Category:      "Other",
		Reasoning:     "",
		Status:        "pending",
		PriorityScore: 50,
	}, a)

	b := got.Tasks[1]
	assert.Equal(t, "b", b.TaskID)
	assert.Equal(t, "Call mom", b.TaskName)
	assert.Equal(t, "Sunday", b.Reasoning)
	assert.Equal(t, 80, b.PriorityScore)

	c := got.Tasks[2]
	assert.Equal(t, "Gym", c.TaskName)
	assert.Equal(t, "done", c.Status)
	assert.Equal(t, "2025-03-01", c.DueDate)
	assert.Equal(t, "Health", c.Category)
}

func TestTasksKeyedFallsBackToKey(t *testing.T) {
	got := fixed().Tasks([]byte(`{"k1":{"status":"pending"},"k2":42}`))
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "k1", got.Tasks[0].TaskName)
	assert.Equal(t, "k2", got.Tasks[1].TaskName)
}

func TestTasksKeyOrderPreserved(t *testing.T) {
	got := fixed().Tasks([]byte(`{"z":"last letter","a":"first letter","m":"middle"}`))
	require.Len(t, got.Tasks, 3)
	assert.Equal(t, []string{"z", "a", "m"}, []string{got.Tasks[0].TaskID, got.Tasks[1].TaskID, got.Tasks[2].TaskID})
}

func TestTasksFieldCoercion(t *testing.T) {
	raw := `{"tasks":[
		{"task_id":17,"task_name":"a","priority_score":"75"},
		{"task_id":"x","priority_score":"high"},
		{"task_id":"y","priority_score":0},
		{"task_id":"z","priority_score":250.7,"source":2,"completed_date":"2025-03-09T10:00:00Z"},
		"not an object",
		null
	]}`
	got := fixed().Tasks([]byte(raw))
	require.Len(t, got.Tasks, 4)
	assert.Equal(t, "17", got.Tasks[0].TaskID)
	assert.Equal(t, 75, got.Tasks[0].PriorityScore)
	assert.Equal(t, 50, got.Tasks[1].PriorityScore)
	assert.Equal(t, 0, got.Tasks[2].PriorityScore)
	assert.Equal(t, 100, got.Tasks[3].PriorityScore)
	assert.Equal(t, models.SourceAI, got.Tasks[3].Source)
	require.NotNil(t, got.Tasks[3].CompletedDate)
	assert.Equal(t, "2025-03-09T10:00:00Z", *got.Tasks[3].CompletedDate)
}

func TestTasksFailures(t *testing.T) {
	empty := fixed().Tasks(nil)
	assert.Empty(t, empty.Tasks)
	assert.NotNil(t, empty.Tasks)
	assert.False(t, empty.Health.Degraded)

	blank := fixed().Tasks([]byte("  \n"))
	assert.False(t, blank.Health.Degraded)

	bad := fixed().Tasks([]byte(`{"tasks":[`))
	assert.Empty(t, bad.Tasks)
	assert.True(t, bad.Health.Degraded)
	assert.Equal(t, "invalid json", bad.Health.Reason)

	scalar := fixed().Tasks([]byte(`"hello"`))
	assert.Empty(t, scalar.Tasks)
	assert.True(t, scalar.Health.Degraded)

	trailing := fixed().Tasks([]byte(`{} {}`))
	assert.True(t, trailing.Health.Degraded)
}

func TestTasksEncodeAsList(t *testing.T) {
	out, err := json.Marshal(fixed().Tasks(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":[]}`, string(out))
}

func TestGoalsFromList(t *testing.T) {
	raw := `[{"Learn Go":"Finish the tour"},{"Run":42},{"pekerjaan":"Designer","Read":"Two books"},"skip"]`
	got := fixed().Goals([]byte(raw))
	require.Len(t, got.Goals, 3)

	g := got.Goals[0]
	assert.Equal(t, "goal_001", g.ID)
	assert.Equal(t, "Learn Go", g.Title)
	assert.Equal(t, "Finish the tour", g.Description)
	assert.Equal(t, models.GoalInProgress, g.Status)
	assert.Equal(t, 0, g.Progress)
	require.NotNil(t, g.TargetDate)
	assert.Equal(t, "2025-06-08", *g.TargetDate)
	assert.Equal(t, "General", g.Category)

	assert.Equal(t, "No description", got.Goals[1].Description)
	assert.Equal(t, "goal_003", got.Goals[2].ID)
	assert.Equal(t, "Read", got.Goals[2].Title)
	require.NotNil(t, got.Pekerjaan)
	assert.Equal(t, "Designer", *got.Pekerjaan)
}

func TestGoalsWrapped(t *testing.T) {
	raw := `{"Pekerjaan":"Upper","goals":[{"Ship v2":"Release"}],"pekerjaan":"Engineer","Status":"Calm"}`
	got := fixed().Goals([]byte(raw))
	require.Len(t, got.Goals, 1)
	assert.Equal(t, "Ship v2", got.Goals[0].Title)
	require.NotNil(t, got.Pekerjaan)
	assert.Equal(t, "Engineer", *got.Pekerjaan)
	require.NotNil(t, got.GoalState)
	assert.Equal(t, "Calm", *got.GoalState)
}

func TestGoalsFlatMappingSkipsReserved(t *testing.T) {
	raw := `{"Save money":"10 percent","pekerjaan":"Nurse","status":"Focused","Status":"ignored","Exercise":"Daily"}`
	got := fixed().Goals([]byte(raw))
	require.Len(t, got.Goals, 2)
	assert.Equal(t, "Save money", got.Goals[0].Title)
	assert.Equal(t, "Exercise", got.Goals[1].Title)
	assert.Equal(t, "goal_002", got.Goals[1].ID)
	assert.Equal(t, "Nurse", *got.Pekerjaan)
	assert.Equal(t, "Focused", *got.GoalState)
}

func TestGoalsNativeRecords(t *testing.T) {
	raw := `{"goals":[{"id":"g-9","title":"Marathon","description":"Run 42k","status":"completed","progress":100,"target_date":null,"category":"Health"},{"title":"Nap","status":"sleeping","progress":"30"}]}`
	got := fixed().Goals([]byte(raw))
	require.Len(t, got.Goals, 2)
	assert.Equal(t, models.Goal{
		ID:          "g-9",
		Title:       "Marathon",
		Description: "Run 42k",
		Status:      models.GoalCompleted,
		Progress:    100,
		Category:    "Health",
	}, got.Goals[0])
	assert.Equal(t, "goal_002", got.Goals[1].ID)
	assert.Equal(t, models.GoalInProgress, got.Goals[1].Status)
	assert.Equal(t, 30, got.Goals[1].Progress)
}

func TestGoalsFailures(t *testing.T) {
	bad := fixed().Goals([]byte("<html>"))
	assert.True(t, bad.Health.Degraded)
	assert.NotNil(t, bad.Goals)

	empty := fixed().Goals([]byte(""))
	assert.False(t, empty.Health.Degraded)
	assert.Empty(t, empty.Goals)

	num := fixed().Goals([]byte("12"))
	assert.True(t, num.Health.Degraded)
}

func TestProfileShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"wrapped", `{"tasks":[{"category":"Engineer","mental_problem":"Stress","recommended_priority_slots":3},{"category":"ignored"}]}`},
		{"bare object", `{"category":"Engineer","mental_problem":"Stress","recommended_priority_slots":"3"}`},
		{"list", `[{"category":"Engineer","mental_problem":"Stress","recommended_priority_slots":3}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fixed().Profile([]byte(tt.raw))
			require.Len(t, got.Tasks, 1)
			rec := got.Record()
			require.NotNil(t, rec.Category)
			assert.Equal(t, "Engineer", *rec.Category)
			assert.Equal(t, "Stress", *rec.MentalProblem)
			assert.Nil(t, rec.MentalSolution)
			assert.Nil(t, rec.MotivationalQuote)
			require.NotNil(t, rec.RecommendedPrioritySlots)
			assert.Equal(t, 3, *rec.RecommendedPrioritySlots)
		})
	}
}

func TestProfileAlwaysOneRecord(t *testing.T) {
	for _, raw := range []string{"", `{"tasks":[]}`, `[]`, `nope`, `true`} {
		got := fixed().Profile([]byte(raw))
		require.Len(t, got.Tasks, 1, "input %q", raw)
		assert.True(t, got.Record().IsEmpty())
	}
	assert.True(t, fixed().Profile([]byte("nope")).Health.Degraded)
	assert.False(t, fixed().Profile([]byte(`{"tasks":[]}`)).Health.Degraded)
}

func TestProfileOmitsAbsentFields(t *testing.T) {
	out, err := json.Marshal(fixed().Profile([]byte(`{"motivational_quote":"Keep going"}`)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":[{"motivational_quote":"Keep going"}]}`, string(out))
}

func TestNormalizeDispatch(t *testing.T) {
	n := fixed()
	assert.IsType(t, TaskList{}, n.Normalize(KindTasks, nil))
	assert.IsType(t, GoalList{}, n.Normalize(KindGoals, nil))
	assert.IsType(t, ProfileList{}, n.Normalize(KindProfile, nil))
	assert.True(t, n.Normalize(Kind("users"), nil).Status().Degraded)

	e := Empty(KindGoals, Degraded("status 502"))
	assert.Equal(t, "status 502", e.Status().Reason)
	assert.True(t, KindProfile.IsValid())
	assert.False(t, Kind("x").IsValid())
}

func TestGoalsReservedElementIsNotAGoal(t *testing.T) {
	got := fixed().Goals([]byte(`[{"Launch MVP":"Ship v1"},{"pekerjaan":"Engineer"}]`))
	require.Len(t, got.Goals, 1)
	assert.Equal(t, "Launch MVP", got.Goals[0].Title)
	assert.Equal(t, "Ship v1", got.Goals[0].Description)
	require.NotNil(t, got.Pekerjaan)
	assert.Equal(t, "Engineer", *got.Pekerjaan)
	assert.Nil(t, got.GoalState)
}

func TestDescribe(t *testing.T) {
	s := Describe([]byte(`{"b":1,"tasks":[],"a":2}`))
	assert.Equal(t, Shape{Valid: true, DataType: "object", Keys: []string{"b", "tasks", "a"}, HasTasks: true}, s)

	s = Describe([]byte(`[1,2,3]`))
	assert.True(t, s.IsArray)
	assert.Equal(t, 3, s.Length)

	assert.False(t, Describe([]byte(`{`)).Valid)
	assert.Equal(t, "null", Describe([]byte(`null`)).DataType)
}

func TestTasksDeepNestingIsDegraded(t *testing.T) {
	raw := strings.Repeat("[", 3_000_000) + strings.Repeat("]", 3_000_000)
	got := fixed().Tasks([]byte(raw))
	assert.True(t, got.Health.Degraded)
	assert.Equal(t, "invalid json", got.Health.Reason)
	assert.Empty(t, got.Tasks)

	obj := strings.Repeat(`{"a":`, maxDepth+1) + "1" + strings.Repeat("}", maxDepth+1)
	_, err := decodeOrdered([]byte(obj))
	assert.ErrorIs(t, err, errTooDeep)
}

func TestDecodeAtMaxDepth(t *testing.T) {
	raw := strings.Repeat("[", maxDepth) + strings.Repeat("]", maxDepth)
	_, err := decodeOrdered([]byte(raw))
	assert.NoError(t, err)
}
