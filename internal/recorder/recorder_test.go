package recorder

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmitUplenchwar2687/accesstrace/internal/replay"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRecorder_StreamAndLoad(t *testing.T) {
	var buf bytes.Buffer
	rec := New(&buf)

	require.NoError(t, rec.Record(replay.Result{Line: 2, Record: trace.KeyOnly("a"), Time: epoch}))
	require.NoError(t, rec.Record(replay.Result{Line: 3, Record: trace.KeyOnly("a"), Hit: true, Time: epoch}))

	assert.Equal(t, 2, rec.Len())
	assert.Equal(t, 1, rec.Misses())
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))

	got, err := Load(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Record.Key)
	assert.False(t, got[0].Hit)
	assert.True(t, got[1].Hit)
	assert.True(t, got[1].Time.Equal(epoch))
}

func TestRecorder_Concurrent(t *testing.T) {
	rec := New(&bytes.Buffer{})

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Callback()(replay.Result{Line: i, Record: trace.KeyOnly("k")})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, rec.Len())
	assert.NoError(t, rec.Err())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRecorder_WriteErrorSticks(t *testing.T) {
	rec := New(failingWriter{})

	err := rec.Record(replay.Result{Line: 2})
	require.ErrorIs(t, err, trace.ErrOutputWrite)

	rec.Callback()(replay.Result{Line: 3})
	assert.Equal(t, err, rec.Err())
	assert.Zero(t, rec.Len())
}

func TestCreate_Compressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.ndjson.zst")

	rec, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, rec.Record(replay.Result{Line: 2, Record: trace.KeyOnly("z")}))
	require.NoError(t, rec.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"z"`)

	f, err := trace.OpenInput(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := Load(f)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "z", got[0].Record.Key)
}
