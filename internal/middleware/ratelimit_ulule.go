package middleware

import (
	"fmt"
	"net/http"

	"github.com/emrepbu/loginflow/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const defaultRatelimitRate = "5-S"

// RateLimit limits requests per client IP at rate (ulule format, e.g.
// "5-S" or "100-M"). Counters live in Redis so every server instance shares
// them; a nil client keeps them in memory.
func RateLimit(redisClient *redis.Client, rate, keyPrefix string, log *zap.Logger) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = defaultRatelimitRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix: keyPrefix + ":ratelimit",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: keyPrefix + ":ratelimit"})
	}

	instance := limiter.New(store, parsed)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			RespondError(w, r, http.StatusTooManyRequests, "Too many sign-in attempts, please wait", log)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("rate_limit_store_error", zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "Rate limiter unavailable", log)
		}),
	)
	return mw.Handler, nil
}
