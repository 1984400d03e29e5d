package advice

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/scheduler"
)

func samplePlan() scheduler.Plan {
	accs := []model.Account{
		{ID: 1, Name: "A", Current: 60, Max: 100},
		{ID: 2, Name: "B", Current: 80, Max: 100},
	}
	rows, target := scheduler.EqualizePlan(accs, 30)
	return scheduler.Plan{Rows: rows, TargetSeconds: target}
}

func TestNewRecord(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecord(samplePlan(), 30, at)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, at, rec.Timestamp)
	assert.Equal(t, 1200, rec.TargetSeconds)
	assert.False(t, rec.Optimal)
	require.Len(t, rec.Rows, 2)
	assert.Equal(t, 20, rec.Rows[1].UseNow)

	other := NewRecord(samplePlan(), 30, at)
	assert.NotEqual(t, rec.ID, other.ID)
}

func TestRecord_JSON(t *testing.T) {
	data, err := json.Marshal(NewRecord(samplePlan(), 30, time.Unix(0, 0)))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"id", "timestamp", "cooldown", "target_seconds", "optimal", "rows"} {
		assert.Contains(t, m, k)
	}
}

func TestQuery_Match(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecord(samplePlan(), 30, base)
	cases := []struct {
		name string
		q    Query
		want bool
	}{
		{"empty", Query{}, true},
		{"before start", Query{Start: base.Add(time.Minute)}, false},
		{"after end", Query{End: base.Add(-time.Minute)}, false},
		{"window", Query{Start: base.Add(-time.Minute), End: base.Add(time.Minute)}, true},
		{"account present", Query{AccountID: 2}, true},
		{"account absent", Query{AccountID: 9}, false},
		{"actions only", Query{ActionsOnly: true}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.q.Match(rec))
		})
	}
	optimal := rec
	optimal.Optimal = true
	assert.False(t, Query{ActionsOnly: true}.Match(optimal))
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, "memory", c.Backend)
	assert.Equal(t, 1000, c.MaxRecords)
	require.NoError(t, c.Validate())

	c = Config{Backend: "sqlite"}
	c.SetDefaults()
	assert.Equal(t, "advice.db", c.Path)

	assert.Error(t, Config{Backend: "redis"}.Validate())
	assert.Error(t, Config{Backend: "jsonl"}.Validate())
}

func TestNewStoreBackends(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		cfg  Config
		kind any
	}{
		{Config{}, &MemoryStore{}},
		{Config{Backend: "jsonl", Path: dir + "/a.jsonl"}, &JSONLStore{}},
		{Config{Backend: "jsonl", Path: dir + "/r.jsonl", MaxSizeMB: 1}, &RotatingJSONLStore{}},
		{Config{Backend: "sqlite", Path: dir + "/a.db"}, &SQLiteStore{}},
	}
	for _, tc := range cases {
		st, err := NewStore(tc.cfg)
		require.NoError(t, err)
		assert.IsType(t, tc.kind, st)
		require.NoError(t, st.Close())
	}
	_, err := NewStore(Config{Backend: "redis"})
	assert.Error(t, err)
}

func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.Append(ctx, NewRecord(samplePlan(), 30, base.Add(time.Duration(i)*time.Hour))))
	}
	optimal := scheduler.Plan{Rows: []scheduler.PlanRow{{ID: 7, Current: 10, Max: 10}}}
	require.NoError(t, st.Append(ctx, NewRecord(optimal, 30, base.Add(4*time.Hour))))

	all, err := st.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, all[0].Timestamp.Before(all[3].Timestamp))

	window, err := st.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(150 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	byAccount, err := st.Query(ctx, Query{AccountID: 7})
	require.NoError(t, err)
	require.Len(t, byAccount, 1)
	assert.True(t, byAccount[0].Optimal)

	actions, err := st.Query(ctx, Query{ActionsOnly: true})
	require.NoError(t, err)
	assert.Len(t, actions, 3)

	last, err := st.Query(ctx, Query{Limit: 2})
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, all[3].ID, last[1].ID)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(10))
}

func TestMemoryStore_Cap(t *testing.T) {
	st := NewMemoryStore(2)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, st.Append(ctx, Record{ID: string(rune('a' + i))}))
	}
	out, err := st.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "e", out[1].ID)
}

func TestJSONLStore(t *testing.T) {
	st, err := NewJSONLStore(t.TempDir() + "/advice.jsonl")
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	exerciseStore(t, st)
}

func TestSQLiteStore(t *testing.T) {
	st, err := NewSQLiteStore("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	exerciseStore(t, st)
}
