package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("boom"), ExitFailure},
		{fmt.Errorf("open: %w", trace.ErrInputNotFound), ExitInputNotFound},
		{fmt.Errorf("write: %w", trace.ErrOutputWrite), ExitOutputWrite},
		{&trace.MalformedRowError{Line: 3, Fields: 2, Index: 5}, ExitMalformedRow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}
