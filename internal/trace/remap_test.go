package trace

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemapStream(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    RemapOptions
		want    string
		wantErr error
	}{
		{
			name:  "twitter trace",
			input: "0, key-a , 100,get,0\n\n1,key-b,20,set,0\n",
			opts:  RemapOptions{Mapping: TwitterMapping},
			want:  Header + "\n0,0,key-a,100,0\n1,0,key-b,20,0\n",
		},
		{
			name:  "skip header",
			input: "ts,key,size\n7,k,1\n",
			opts:  RemapOptions{Mapping: TwitterMapping, SkipHeader: true},
			want:  Header + "\n7,0,k,1,0\n",
		},
		{
			name:  "all columns",
			input: "k,5,1,9,3\n",
			opts:  RemapOptions{Mapping: Mapping{Timestamp: 4, Command: 2, Key: 1, Size: 3, TTL: 5}},
			want:  Header + "\n9,5,k,1,3\n",
		},
		{
			name:    "short row errors",
			input:   "1,a,3\n1,b\n",
			opts:    RemapOptions{Mapping: TwitterMapping},
			wantErr: ErrMalformedRow,
		},
		{
			name:  "short row skipped",
			input: "1,a,3\n1,b\n",
			opts:  RemapOptions{Mapping: TwitterMapping, OnMalformed: PolicySkip},
			want:  Header + "\n1,0,a,3,0\n",
		},
		{
			name:  "short row emptied",
			input: "1,b\n",
			opts:  RemapOptions{Mapping: TwitterMapping, OnMalformed: PolicyEmpty},
			want:  Header + "\n1,0,b,,0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := RemapStream(context.Background(), strings.NewReader(tt.input), &buf, tt.opts)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestMapping_Validate(t *testing.T) {
	assert.NoError(t, TwitterMapping.Validate())
	assert.Error(t, Mapping{}.Validate())
	assert.Error(t, Mapping{Key: 1, Size: -1}.Validate())
}

func TestRemap_Compressed(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cluster52.csv.zst")
	out := filepath.Join(dir, "access.csv")

	w, err := CreateOutput(in)
	require.NoError(t, err)
	_, err = w.Write([]byte("3,alpha,11,get,0\n4,beta,12,get,0\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	sum, err := Remap(context.Background(), RemapOptions{InputPath: in, OutputPath: out, Mapping: TwitterMapping})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Rows)
	assert.Equal(t, []string{Header, "3,0,alpha,11,0", "4,0,beta,12,0"}, readLines(t, out))
}
