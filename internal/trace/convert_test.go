package trace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cloud.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestConvert(t *testing.T) {
	in := writeInput(t, "2024-01-01,GET,abc,def,L42\n2024-01-02,PUT,x,y,L43\n2024-01-03,GET,p,q,L42\n")
	out := filepath.Join(t.TempDir(), "access_records.csv")

	opts := DefaultOptions()
	opts.InputPath, opts.OutputPath = in, out

	sum, err := Convert(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Rows)
	assert.Zero(t, sum.Skipped)

	assert.Equal(t, []string{
		"timestamp,command,key,size,ttl",
		"0,0,L42,0,0",
		"0,0,L43,0,0",
		"0,0,L42,0,0",
	}, readLines(t, out))
}

func TestConvert_LineCountAndFields(t *testing.T) {
	var sb strings.Builder
	const n = 500
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d,R,%d,4096,%d\n", i, i*8, i%37)
	}
	in := writeInput(t, sb.String())
	out := filepath.Join(t.TempDir(), "out.csv")

	_, err := Convert(context.Background(), Options{InputPath: in, OutputPath: out, Column: 5})
	require.NoError(t, err)

	lines := readLines(t, out)
	require.Len(t, lines, n+1)
	assert.Equal(t, Header, lines[0])
	for i, line := range lines[1:] {
		f := strings.Split(line, ",")
		require.Len(t, f, 5)
		assert.Equal(t, "0", f[0])
		assert.Equal(t, "0", f[1])
		assert.Equal(t, fmt.Sprint(i%37), f[2])
		assert.Equal(t, "0", f[3])
		assert.Equal(t, "0", f[4])
	}
}

func TestConvert_EmptyInput(t *testing.T) {
	in := writeInput(t, "")
	out := filepath.Join(t.TempDir(), "out.csv")

	sum, err := Convert(context.Background(), Options{InputPath: in, OutputPath: out, Column: 5})
	require.NoError(t, err)
	assert.Zero(t, sum.Rows)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, Header+"\n", string(data))
}

func TestConvert_Idempotent(t *testing.T) {
	in := writeInput(t, "a,b,c,d,k1\r\na,b,c,d,k2\n")
	out := filepath.Join(t.TempDir(), "out.csv")
	opts := Options{InputPath: in, OutputPath: out, Column: 5}

	_, err := Convert(context.Background(), opts)
	require.NoError(t, err)
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	_, err = Convert(context.Background(), opts)
	require.NoError(t, err)
	second, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "timestamp,command,key,size,ttl\n0,0,k1,0,0\n0,0,k2,0,0\n", string(second))
}

func TestConvert_ShortRow(t *testing.T) {
	in := writeInput(t, "1,2,3,4,k1\na,b,c\n")

	t.Run("default policy errors", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.csv")
		_, err := Convert(context.Background(), Options{InputPath: in, OutputPath: out, Column: 5})
		require.ErrorIs(t, err, ErrMalformedRow)

		// Rows before the failure stay on disk.
		assert.Equal(t, []string{Header, "0,0,k1,0,0"}, readLines(t, out))
	})

	t.Run("empty policy", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.csv")
		sum, err := Convert(context.Background(), Options{InputPath: in, OutputPath: out, Column: 5, OnMalformed: PolicyEmpty})
		require.NoError(t, err)
		assert.Equal(t, 2, sum.Rows)
		assert.Equal(t, []string{Header, "0,0,k1,0,0", "0,0,,0,0"}, readLines(t, out))
	})

	t.Run("skip policy", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.csv")
		sum, err := Convert(context.Background(), Options{InputPath: in, OutputPath: out, Column: 5, OnMalformed: PolicySkip})
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Rows)
		assert.Equal(t, 1, sum.Skipped)
		assert.Equal(t, []string{Header, "0,0,k1,0,0"}, readLines(t, out))
	})
}

func TestConvert_MissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")

	_, err := Convert(context.Background(), Options{InputPath: filepath.Join(dir, "nope.csv"), OutputPath: out, Column: 5})
	require.ErrorIs(t, err, ErrInputNotFound)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// The output is never created when the input cannot be opened.
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvert_UnwritableOutput(t *testing.T) {
	in := writeInput(t, "1,2,3,4,k1\n")
	out := filepath.Join(t.TempDir(), "missing-dir", "out.csv")

	_, err := Convert(context.Background(), Options{InputPath: in, OutputPath: out, Column: 5})
	require.ErrorIs(t, err, ErrOutputWrite)
}

func TestConvertStream(t *testing.T) {
	var buf bytes.Buffer
	sum, err := ConvertStream(context.Background(), strings.NewReader("x,y\n"), &buf, 2, PolicyError)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Rows)
	assert.Equal(t, Header+"\n0,0,y,0,0\n", buf.String())
}
