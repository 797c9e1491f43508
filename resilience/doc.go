// Package resilience protects calls to unreliable external services.
//
// It provides a three-state circuit breaker (CLOSED/OPEN/HALF_OPEN) per
// dependency and a Caller that wraps a single outbound call with a timeout,
// exponential backoff retry with jitter, optional rate limiting, and breaker
// gating. Breaker state lives in process memory: each worker instance trips
// and recovers independently, with no cross-instance coordination.
//
//	cb := resilience.NewBreaker("claude", resilience.BreakerConfig{})
//	caller := resilience.NewCaller(resilience.CallerConfig{}, cb, nil, logger)
//	err := caller.Do(ctx, func(ctx context.Context) error {
//	    return callExternalService(ctx)
//	})
package resilience
