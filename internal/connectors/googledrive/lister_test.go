package googledrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/calder-labs/mirador/internal/core/domain"
)

func TestParseConfig(t *testing.T) {
	cfg := ParseConfig(map[string]string{
		"access_token": "tok",
		"folder_id":    "folder1",
		"page_size":    "50",
	})

	assert.Equal(t, "tok", cfg.AccessToken)
	assert.Equal(t, "folder1", cfg.FolderID)
	assert.EqualValues(t, 50, cfg.PageSize)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg := ParseConfig(map[string]string{"access_token": "tok", "page_size": "garbage"})

	assert.EqualValues(t, DefaultPageSize, cfg.PageSize)
	assert.Empty(t, cfg.FolderID)
}

func TestNew_RequiresAccessToken(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery(t *testing.T) {
	l := &Lister{cfg: Config{}}
	assert.Equal(t, "trashed = false", l.query())

	l = &Lister{cfg: Config{FolderID: "abc"}}
	assert.Equal(t, "trashed = false and 'abc' in parents", l.query())
}

func TestRateLimiter_BackoffBlocksUntilRetryAt(t *testing.T) {
	r := NewRateLimiter()
	r.RecordRateLimitError(0) // default 60s backoff

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsRateLimited(t *testing.T) {
	retryAfter, ok := IsRateLimited(&googleapi.Error{
		Code:   http.StatusTooManyRequests,
		Header: http.Header{"Retry-After": []string{"17"}},
	})
	require.True(t, ok)
	assert.Equal(t, 17, retryAfter)

	retryAfter, ok = IsRateLimited(&googleapi.Error{Code: http.StatusTooManyRequests})
	require.True(t, ok)
	assert.Zero(t, retryAfter)

	_, ok = IsRateLimited(&googleapi.Error{Code: http.StatusForbidden})
	assert.False(t, ok)

	_, ok = IsRateLimited(errors.New("connection reset"))
	assert.False(t, ok)
}

func TestNoteRateLimit_TriggersBackoff(t *testing.T) {
	l := &Lister{limiter: NewRateLimiter()}

	l.noteRateLimit(fmt.Errorf("listing drive files: %w",
		&googleapi.Error{Code: http.StatusTooManyRequests}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.limiter.Wait(ctx), context.DeadlineExceeded)
}

func TestNoteRateLimit_IgnoresOtherErrors(t *testing.T) {
	l := &Lister{limiter: NewRateLimiter()}

	l.noteRateLimit(&googleapi.Error{Code: http.StatusNotFound})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, l.limiter.Wait(ctx))
}
