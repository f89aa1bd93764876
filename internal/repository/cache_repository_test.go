package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/siiau-planner-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "siiau:form-options", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "siiau:form-options", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "siiau:*"))
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())
}
