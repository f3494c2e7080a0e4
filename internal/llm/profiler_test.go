package llm

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/weather-agent/internal/api"
)

func newTestProfiler(t *testing.T, costs map[string]ModelCost) (*Profiler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	p := NewProfiler(rdb, costs)
	p.now = func() time.Time { return time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC) }
	return p, mr
}

func TestProfiler_DefaultProfile(t *testing.T) {
	p, mr := newTestProfiler(t, nil)
	ctx := context.Background()

	profile, err := p.GetProfile(ctx, "gemini/gemini-2.0-flash-exp")
	require.NoError(t, err)
	assert.Equal(t, StatusOnline, profile.Status)
	assert.EqualValues(t, defaultLatencyMS, profile.AvgLatencyMS)

	assert.Equal(t, StatusOnline, mr.HGet("profile:gemini/gemini-2.0-flash-exp", "status"))

	again, err := p.GetProfile(ctx, "gemini/gemini-2.0-flash-exp")
	require.NoError(t, err)
	assert.Equal(t, profile.AvgLatencyMS, again.AvgLatencyMS)
	assert.Zero(t, again.CostSpentMonthly)
}

func TestProfiler_SuccessAndFailure(t *testing.T) {
	model := "openai/gpt-4o"
	p, mr := newTestProfiler(t, map[string]ModelCost{model: {Input: 0.001, Output: 0.002}})
	ctx := context.Background()
	_, err := p.GetProfile(ctx, model)
	require.NoError(t, err)

	p.UpdateProfileOnSuccess(ctx, model, 1000*time.Millisecond, api.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150})
	p.UpdateProfileOnFailure(ctx, model)

	profile, err := p.GetProfile(ctx, model)
	require.NoError(t, err)
	// 0.1*1000 + 0.9*2000
	assert.EqualValues(t, 1900, profile.AvgLatencyMS)
	assert.EqualValues(t, 1, profile.TotalSuccesses)
	assert.EqualValues(t, 1, profile.TotalFailures)
	assert.InDelta(t, 0.5, profile.ErrorRate, 1e-9)
	assert.EqualValues(t, 100, profile.TotalInputTokens)
	assert.EqualValues(t, 50, profile.TotalOutputTokens)
	assert.Equal(t, StatusDegraded, profile.Status)
	assert.InDelta(t, 0.2, profile.CostSpentMonthly, 1e-9)
	assert.True(t, mr.Exists("cost:openai/gpt-4o:2025-04"))
}

func TestProfiler_SuccessWithoutProfileSeedsLatency(t *testing.T) {
	p, _ := newTestProfiler(t, nil)
	ctx := context.Background()

	p.UpdateProfileOnSuccess(ctx, "mistral/mistral-small", 300*time.Millisecond, api.Usage{})

	profile, err := p.GetProfile(ctx, "mistral/mistral-small")
	require.NoError(t, err)
	assert.EqualValues(t, 300, profile.AvgLatencyMS)
	assert.Equal(t, StatusOnline, profile.Status)
	assert.Zero(t, profile.ErrorRate)
}

func TestProfiler_HealthCheckControlsAvailability(t *testing.T) {
	p, _ := newTestProfiler(t, nil)
	ctx := context.Background()
	model := "gemini/gemini-1.5-pro"

	assert.True(t, p.IsAvailable(ctx, model), "unknown models are available")

	p.UpdateProfileOnHealthCheck(ctx, model, false)
	assert.False(t, p.IsAvailable(ctx, model))

	profile, err := p.GetProfile(ctx, model)
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, profile.Status)
	assert.Equal(t, p.now().UTC(), profile.LastHealthCheck.UTC())

	p.UpdateProfileOnHealthCheck(ctx, model, true)
	assert.True(t, p.IsAvailable(ctx, model))

	p.UpdateProfileOnFailure(ctx, model)
	assert.True(t, p.IsAvailable(ctx, model), "degraded models still receive traffic")
}

func TestProfiler_RedisDownFailsOpen(t *testing.T) {
	p, mr := newTestProfiler(t, nil)
	mr.Close()

	assert.True(t, p.IsAvailable(context.Background(), "openai/gpt-4o"))
	p.UpdateProfileOnFailure(context.Background(), "openai/gpt-4o")
	_, err := p.GetProfile(context.Background(), "openai/gpt-4o")
	assert.Error(t, err)
}

func TestProfiler_NilIsNoop(t *testing.T) {
	var p *Profiler
	assert.Nil(t, NewProfiler(nil, nil))
	assert.True(t, p.IsAvailable(context.Background(), "x"))
	p.UpdateProfileOnSuccess(context.Background(), "x", time.Second, api.Usage{})
	p.UpdateProfileOnFailure(context.Background(), "x")
	p.UpdateProfileOnHealthCheck(context.Background(), "x", true)
	_, err := p.GetProfile(context.Background(), "x")
	assert.Error(t, err)
}
