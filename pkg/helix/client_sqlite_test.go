//go:build sqlite

package helix

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkConcurrentSQLiteWriters(t *testing.T) {
	ctx := context.Background()
	client, err := New(Options{StoreKind: "sqlite", DBPath: filepath.Join(t.TempDir(), "helix.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	summary, err := client.Benchmark(ctx, BenchmarkRequest{
		RunRequest:  RunRequest{Scape: "sphere", Threshold: -1, MaxGenerations: 1, Population: 8},
		Seeds:       32,
		Parallelism: 16,
	})
	require.NoError(t, err)
	require.Len(t, summary.Runs, 32)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	assert.Len(t, runs, 32)
	for _, run := range summary.Runs {
		champion, err := client.Champion(ctx, LookupRequest{RunID: run.RunID})
		require.NoError(t, err)
		assert.Len(t, champion.Values, 2)
	}
}
