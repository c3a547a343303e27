package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/promptchain/provider"
	"github.com/randalmurphal/promptchain/provider/providertest"
)

func fastRetry(attempts int) provider.RetryConfig {
	return provider.RetryConfig{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func transient() error {
	return provider.NewTransientError("fake", "complete", provider.ErrRateLimited)
}

func TestWithRetry_RecoversFromTransient(t *testing.T) {
	fake := providertest.New(providertest.Fail(transient()), providertest.Fail(transient()), providertest.Text("done"))
	client := provider.WithRetry(fake, fastRetry(3))

	resp, err := client.Complete(context.Background(), provider.Request{})
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Content)
	assert.Equal(t, 3, fake.Calls())
}

func TestWithRetry_GivesUp(t *testing.T) {
	fake := providertest.New(providertest.Fail(transient()), providertest.Fail(transient()), providertest.Text("late"))
	client := provider.WithRetry(fake, fastRetry(2))

	_, err := client.Complete(context.Background(), provider.Request{})
	require.Error(t, err)
	assert.True(t, provider.IsTransient(err))
	assert.Equal(t, 2, fake.Calls())
}

func TestWithRetry_QuotaIsFatal(t *testing.T) {
	fake := providertest.New(
		providertest.Fail(provider.NewQuotaError("fake", "complete", errors.New("no credit"))),
		providertest.Text("never"),
	)
	client := provider.WithRetry(fake, fastRetry(5))

	_, err := client.Complete(context.Background(), provider.Request{})
	require.Error(t, err)
	assert.True(t, provider.IsQuota(err))
	assert.Equal(t, 1, fake.Calls())
}

func TestWithRetry_NonTransientIsFatal(t *testing.T) {
	fake := providertest.New(providertest.Fail(provider.NewError("fake", "complete", provider.ErrInvalidRequest, false)))
	client := provider.WithRetry(fake, fastRetry(5))

	_, err := client.Complete(context.Background(), provider.Request{})
	assert.ErrorIs(t, err, provider.ErrInvalidRequest)
	assert.Equal(t, 1, fake.Calls())
}

func TestWithRetry_Disabled(t *testing.T) {
	fake := providertest.New(providertest.Fail(transient()), providertest.Text("unused"))
	client := provider.WithRetry(fake, provider.DefaultRetryConfig())

	_, err := client.Complete(context.Background(), provider.Request{})
	require.Error(t, err)
	assert.Equal(t, 1, fake.Calls())
}
