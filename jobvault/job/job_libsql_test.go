package job

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobvault/jobvault/jobvault/db"
	"github.com/jobvault/jobvault/jobvault/store"
)

// End-to-end against the durable backend: train once, hit the cache from
// a duplicate handle, rerun, clear the namespace.
func TestScenarioLibSQL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobvault-test.db")
	conn, err := db.Connect(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	st := store.NewLibSQL(conn, "default", zerolog.Nop())
	f := NewFactory(st, zerolog.Nop())
	data, labels := testData()

	before := fitCalls.Load()

	first, err := f.NewJob(ctx, "counting", data, labels, map[string]any{})
	require.NoError(t, err)
	assert.False(t, first.Duplicate())

	artifact, err := first.Run(ctx, "")
	require.NoError(t, err)
	require.Equal(t, before+1, fitCalls.Load())

	fitted, ok := artifact.(*countingLearner)
	require.True(t, ok)
	assert.Equal(t, labels, fitted.Predict(data))

	res, found, err := first.Result(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.IsType(t, &countingLearner{}, res)

	second, err := f.NewJob(ctx, "counting", data, labels, map[string]any{})
	require.NoError(t, err)
	assert.True(t, second.Duplicate())

	cached, err := second.Run(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, before+1, fitCalls.Load(), "duplicate run must not retrain")
	restored, ok := cached.(*countingLearner)
	require.True(t, ok)
	assert.Equal(t, fitted.Weights, restored.Weights)
	assert.Equal(t, fitted.Bias, restored.Bias)

	_, err = second.Rerun(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+2, fitCalls.Load())

	require.NoError(t, f.ClearJobs(ctx))
	fresh, err := f.NewJob(ctx, "counting", data, labels, map[string]any{})
	require.NoError(t, err)
	assert.False(t, fresh.Duplicate())
}
