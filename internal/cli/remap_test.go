package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemapCmd_TwitterDefaults(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "twitter.csv", "10,key-a,120,get,0\n\n11,key-b,64,set,0\n")
	outPath := filepath.Join(dir, "out.csv")

	out, err := runCmd(t, "remap", "--input", in, "--output", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 records")
	assert.Equal(t, "timestamp,command,key,size,ttl\n10,0,key-a,120,0\n11,0,key-b,64,0\n", readFile(t, outPath))
}

func TestRemapCmd_CustomColumns(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "kv.csv", "ts,op,k\n5,1,abc\n")
	outPath := filepath.Join(dir, "out.csv")

	_, err := runCmd(t, "remap", "--input", in, "--output", outPath,
		"--timestamp", "1", "--command", "2", "--key", "3", "--size", "0", "--skip-header")
	require.NoError(t, err)
	assert.Equal(t, "timestamp,command,key,size,ttl\n5,1,abc,0,0\n", readFile(t, outPath))
}

func TestRemapCmd_RequiresInput(t *testing.T) {
	_, err := runCmd(t, "remap", "--output", filepath.Join(t.TempDir(), "o.csv"))
	assert.Error(t, err)
}

func TestRemapCmd_KeyZeroInvalid(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "kv.csv", "1,2,3\n")
	_, err := runCmd(t, "remap", "--input", in, "--key", "0")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
}
