package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmitUplenchwar2687/accesstrace/internal/replay"
)

const loopFixture = "timestamp,command,key,size,ttl\n" +
	"0,0,a,0,0\n0,0,b,0,0\n0,0,c,0,0\n" +
	"0,0,a,0,0\n0,0,b,0,0\n0,0,c,0,0\n" +
	"0,0,a,0,0\n0,0,b,0,0\n0,0,c,0,0\n" +
	"0,0,a,0,0\n0,0,b,0,0\n0,0,c,0,0\n"

func TestCurveCmd_CSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "loop.csv", loopFixture)

	out, err := runCmd(t, "curve", "--file", path, "--policies", "lru,fifo", "--max-capacity", "3", "--points", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "policy,sample_rate,capacity,miss_ratio,hits,misses", lines[0])
	assert.Equal(t, "lru,1,1,1.000000,0,12", lines[1])
	assert.Equal(t, "lru,1,3,0.250000,9,3", lines[3])
	assert.Equal(t, "fifo,1,3,0.250000,9,3", lines[6])
}

func TestCurveCmd_JSONFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "loop.csv", loopFixture)
	outPath := filepath.Join(dir, "mrc.json")

	_, err := runCmd(t, "curve", "--file", path, "--output", outPath, "--format", "json",
		"--policies", "lfu,2q", "--sample-rates", "1,0.5", "--max-capacity", "4", "--points", "2")
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var curves []replay.Curve
	require.NoError(t, json.Unmarshal(data, &curves))
	require.Len(t, curves, 4)

	assert.Equal(t, "lfu", curves[0].Policy)
	assert.InDelta(t, 1.0, curves[0].SampleRate, 1e-9)
	assert.Equal(t, "lfu", curves[1].Policy)
	assert.InDelta(t, 0.5, curves[1].SampleRate, 1e-9)
	assert.Equal(t, "2q", curves[2].Policy)
	for _, c := range curves {
		assert.Equal(t, 12, c.Accesses)
		require.Len(t, c.Points, 2)
		assert.Equal(t, []uint64{2, 4}, []uint64{c.Points[0].Capacity, c.Points[1].Capacity})
	}
	// Four slots hold all three keys.
	assert.InDelta(t, 0.25, curves[0].Points[1].MissRatio, 1e-9)
}

func TestCurveCmd_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "loop.csv", loopFixture)
	cfg := writeFile(t, dir, "accesstrace.toml", `
[curve]
input = "`+filepath.ToSlash(path)+`"
policies = ["fifo"]
max_capacity = 3
points = 1
keys = ["a"]
`)

	out, err := runCmd(t, "curve", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "policy,sample_rate,capacity,miss_ratio,hits,misses\nfifo,1,3,0.250000,3,1\n", out)
}

func TestCurveCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "loop.csv", loopFixture)

	_, err := runCmd(t, "curve", "--file", path, "--policies", "mru")
	assert.Error(t, err)

	_, err = runCmd(t, "curve", "--file", path, "--sample-rates", "0")
	assert.Error(t, err)

	_, err = runCmd(t, "curve", "--file", filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitInputNotFound, ExitCode(err))

	_, err = runCmd(t, "curve", "--file", path, "--output", path)
	require.Error(t, err)
	assert.Equal(t, ExitOutputWrite, ExitCode(err))
	assert.Equal(t, loopFixture, readFile(t, path))
}
