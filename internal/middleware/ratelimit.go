package middleware

import (
	"fmt"
	"net"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	stdmiddleware "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"gymstay/backend/internal/httpjson"
)

// NewLimiterStore uses Redis when a client is given, otherwise process memory.
func NewLimiterStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	if rdb == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix}), nil
	}
	store, err := redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:   prefix,
		MaxRetry: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return store, nil
}

// RateLimit limits by peer address with a rate such as "20-M". Forwarding headers
// are only honoured when the router rewrote RemoteAddr behind a trusted proxy. A bad rate disables
// limiting rather than failing boot.
func RateLimit(store limiter.Store, rateStr string, log *logrus.Logger) func(http.Handler) http.Handler {
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		log.WithError(err).WithField("rate", rateStr).Error("invalid rate limit, limiting disabled")
		return func(next http.Handler) http.Handler { return next }
	}

	mw := stdmiddleware.NewMiddleware(
		limiter.New(store, rate),
		stdmiddleware.WithKeyGetter(ClientIP),
		stdmiddleware.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			httpjson.Error(w, http.StatusTooManyRequests, "too many requests")
		}),
		stdmiddleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.WithError(err).Warn("rate limiter store error")
			httpjson.Error(w, http.StatusInternalServerError, "rate limiter unavailable")
		}),
	)
	return mw.Handler
}

// ClientIP is the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
