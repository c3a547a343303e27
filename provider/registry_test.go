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

func testConfig() provider.Config {
	return provider.DefaultConfig().WithProvider("fake").WithModel("fake-model")
}

func TestRegistry_RegisterAndNew(t *testing.T) {
	reg := provider.NewRegistry()
	fake := providertest.New(providertest.Text("hi"))
	reg.Register("fake", func(provider.Config) (provider.Client, error) { return fake, nil })

	assert.True(t, reg.IsRegistered("fake"))
	assert.Equal(t, []string{"fake"}, reg.Available())

	client, err := reg.New(testConfig())
	require.NoError(t, err)
	assert.Equal(t, "fake", client.Provider())
}

func TestRegistry_IndependentInstances(t *testing.T) {
	a := provider.NewRegistry()
	b := provider.NewRegistry()
	a.Register("fake", func(provider.Config) (provider.Client, error) { return providertest.New(), nil })

	assert.True(t, a.IsRegistered("fake"))
	assert.False(t, b.IsRegistered("fake"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	reg := provider.NewRegistry()
	f := func(provider.Config) (provider.Client, error) { return providertest.New(), nil }
	reg.Register("dup", f)
	assert.Panics(t, func() { reg.Register("dup", f) })
}

func TestRegistry_UnknownProvider(t *testing.T) {
	_, err := provider.NewRegistry().New(testConfig())
	assert.ErrorIs(t, err, provider.ErrUnknownProvider)
}

func TestRegistry_InvalidConfig(t *testing.T) {
	_, err := provider.NewRegistry().New(provider.Config{})
	assert.ErrorIs(t, err, provider.ErrInvalidRequest)
}

func TestRegistry_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	reg := provider.NewRegistry()
	reg.Register("fake", func(provider.Config) (provider.Client, error) { return nil, boom })

	_, err := reg.New(testConfig())
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_AppliesDecorators(t *testing.T) {
	fake := providertest.New(
		providertest.Fail(provider.NewTransientError("fake", "complete", provider.ErrUnavailable)),
		providertest.Text("ok"),
	)
	reg := provider.NewRegistry()
	reg.Register("fake", func(provider.Config) (provider.Client, error) { return fake, nil })

	cfg := testConfig()
	cfg.Retry = provider.RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	cfg.Cache = provider.CacheConfig{TTL: time.Minute}

	client, err := reg.New(cfg)
	require.NoError(t, err)

	req := provider.Request{Messages: []provider.Message{provider.NewTextMessage(provider.RoleUser, "q")}}
	resp, err := client.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)

	resp, err = client.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, fake.Calls(), "second call must come from cache")
}
