// In file: internal/llm/profiler.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dileep-u-k/weather-agent/internal/api"
)

// Model status values stored in a profile.
const (
	StatusOnline   = "online"
	StatusDegraded = "degraded"
	StatusOffline  = "offline"
)

const (
	latencyAlpha          = 0.1
	defaultLatencyMS      = 2000
	monthlyCostKeyTTL     = 35 * 24 * time.Hour
	profileKeyPrefix      = "profile:"
	monthlyCostKeyPattern = "cost:%s:%s"
)

// ModelCost is the USD price of one token.
type ModelCost struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// ModelProfile tracks reliability, latency and spend of one model.
type ModelProfile struct {
	ModelID           string    `json:"model_id"`
	Status            string    `json:"status"`
	AvgLatencyMS      int64     `json:"avg_latency_ms"`
	ErrorRate         float64   `json:"error_rate"`
	TotalSuccesses    int64     `json:"total_successes"`
	TotalFailures     int64     `json:"total_failures"`
	TotalInputTokens  int64     `json:"total_input_tokens"`
	TotalOutputTokens int64     `json:"total_output_tokens"`
	LastHealthCheck   time.Time `json:"last_health_check"`
	CostSpentMonthly  float64   `json:"cost_spent_monthly"`
}

// Profiler keeps model profiles in Redis hashes keyed "profile:<provider/model>".
// A nil *Profiler is valid and records nothing.
type Profiler struct {
	rdb   redis.UniversalClient
	costs map[string]ModelCost
	now   func() time.Time
}

// NewProfiler returns nil when rdb is nil, which disables tracking.
func NewProfiler(rdb redis.UniversalClient, costs map[string]ModelCost) *Profiler {
	if rdb == nil {
		return nil
	}
	if costs == nil {
		costs = map[string]ModelCost{}
	}
	return &Profiler{rdb: rdb, costs: costs, now: time.Now}
}

func profileKey(modelID string) string {
	return profileKeyPrefix + modelID
}

func (p *Profiler) costKey(modelID string) string {
	return fmt.Sprintf(monthlyCostKeyPattern, modelID, p.now().Format("2006-01"))
}

// GetProfile retrieves a model's profile, creating a default one if it doesn't exist.
func (p *Profiler) GetProfile(ctx context.Context, modelID string) (*ModelProfile, error) {
	if p == nil {
		return nil, errors.New("profiler disabled")
	}
	data, err := p.rdb.HGetAll(ctx, profileKey(modelID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return p.createDefaultProfile(ctx, modelID)
	}

	profile := &ModelProfile{ModelID: modelID, Status: data["status"]}
	profile.AvgLatencyMS, _ = strconv.ParseInt(data["avg_latency_ms"], 10, 64)
	profile.ErrorRate, _ = strconv.ParseFloat(data["error_rate"], 64)
	profile.TotalSuccesses, _ = strconv.ParseInt(data["total_successes"], 10, 64)
	profile.TotalFailures, _ = strconv.ParseInt(data["total_failures"], 10, 64)
	profile.TotalInputTokens, _ = strconv.ParseInt(data["total_input_tokens"], 10, 64)
	profile.TotalOutputTokens, _ = strconv.ParseInt(data["total_output_tokens"], 10, 64)
	profile.LastHealthCheck, _ = time.Parse(time.RFC3339Nano, data["last_health_check"])

	profile.CostSpentMonthly, err = p.rdb.Get(ctx, p.costKey(modelID)).Float64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	return profile, nil
}

func (p *Profiler) createDefaultProfile(ctx context.Context, modelID string) (*ModelProfile, error) {
	profile := &ModelProfile{
		ModelID:         modelID,
		Status:          StatusOnline,
		AvgLatencyMS:    defaultLatencyMS,
		LastHealthCheck: p.now(),
	}

	_, err := p.rdb.HSet(ctx, profileKey(modelID),
		"model_id", profile.ModelID,
		"status", profile.Status,
		"avg_latency_ms", profile.AvgLatencyMS,
		"error_rate", profile.ErrorRate,
		"total_successes", profile.TotalSuccesses,
		"total_failures", profile.TotalFailures,
		"last_health_check", profile.LastHealthCheck.Format(time.RFC3339Nano),
	).Result()
	if err != nil {
		return nil, err
	}
	log.Printf("Created profile for %s", modelID)
	return profile, nil
}

// IsAvailable reports whether the router may send traffic to the model. Only an
// explicit offline status excludes it; any Redis problem fails open.
func (p *Profiler) IsAvailable(ctx context.Context, modelID string) bool {
	if p == nil {
		return true
	}
	status, err := p.rdb.HGet(ctx, profileKey(modelID), "status").Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("WARNING: profile lookup for %s failed, assuming available: %v", modelID, err)
		}
		return true
	}
	return status != StatusOffline
}

// UpdateProfileOnSuccess folds the call latency into the moving average and
// adds token usage and spend.
func (p *Profiler) UpdateProfileOnSuccess(ctx context.Context, modelID string, latency time.Duration, usage api.Usage) {
	if p == nil {
		return
	}
	key := profileKey(modelID)

	err := p.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "avg_latency_ms").Int64()
		if errors.Is(err, redis.Nil) {
			current = latency.Milliseconds()
		} else if err != nil {
			return err
		}
		next := int64(latencyAlpha*float64(latency.Milliseconds()) + (1.0-latencyAlpha)*float64(current))
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", next)
			return nil
		})
		return err
	}, key)
	if err != nil {
		log.Printf("Error updating latency for %s: %v", modelID, err)
	}

	pipe := p.rdb.Pipeline()
	successes := pipe.HIncrBy(ctx, key, "total_successes", 1)
	failures := pipe.HGet(ctx, key, "total_failures")
	pipe.HIncrBy(ctx, key, "total_input_tokens", int64(usage.PromptTokens))
	pipe.HIncrBy(ctx, key, "total_output_tokens", int64(usage.CompletionTokens))
	pipe.HSet(ctx, key, "model_id", modelID, "status", StatusOnline)

	cost := p.costs[modelID]
	callCost := float64(usage.PromptTokens)*cost.Input + float64(usage.CompletionTokens)*cost.Output
	if callCost > 0 {
		costKey := p.costKey(modelID)
		pipe.IncrByFloat(ctx, costKey, callCost)
		pipe.Expire(ctx, costKey, monthlyCostKeyTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("Error in success update pipeline for %s: %v", modelID, err)
		return
	}

	totalFailures, _ := strconv.ParseInt(failures.Val(), 10, 64)
	p.writeErrorRate(ctx, key, successes.Val(), totalFailures)
}

// UpdateProfileOnFailure counts a failed call and marks the model degraded.
func (p *Profiler) UpdateProfileOnFailure(ctx context.Context, modelID string) {
	if p == nil {
		return
	}
	key := profileKey(modelID)
	pipe := p.rdb.Pipeline()
	failures := pipe.HIncrBy(ctx, key, "total_failures", 1)
	successes := pipe.HGet(ctx, key, "total_successes")
	pipe.HSet(ctx, key, "model_id", modelID, "status", StatusDegraded)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("Error in failure update pipeline for %s: %v", modelID, err)
		return
	}

	totalSuccesses, _ := strconv.ParseInt(successes.Val(), 10, 64)
	p.writeErrorRate(ctx, key, totalSuccesses, failures.Val())
}

func (p *Profiler) writeErrorRate(ctx context.Context, key string, successes, failures int64) {
	total := successes + failures
	if total == 0 {
		return
	}
	if err := p.rdb.HSet(ctx, key, "error_rate", float64(failures)/float64(total)).Err(); err != nil {
		log.Printf("Error writing error rate for %s: %v", key, err)
	}
}

// UpdateProfileOnHealthCheck records the outcome of a proactive probe.
func (p *Profiler) UpdateProfileOnHealthCheck(ctx context.Context, modelID string, isHealthy bool) {
	if p == nil {
		return
	}
	// Make sure a full profile exists before writing partial fields.
	if _, err := p.GetProfile(ctx, modelID); err != nil {
		log.Printf("Error ensuring profile exists during health check for %s: %v", modelID, err)
	}

	status := StatusOffline
	if isHealthy {
		status = StatusOnline
	}
	err := p.rdb.HSet(ctx, profileKey(modelID),
		"status", status,
		"last_health_check", p.now().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		log.Printf("Error updating health check for %s: %v", modelID, err)
	}
}
