package middlewares

import (
	"net/http"
	"time"

	"github.com/clinicalai/apiv1/utils"
	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"go.uber.org/zap"
)

// RateLimit allows perSecond requests per client IP through to the wrapped routes.
func RateLimit(perSecond float64, logger *zap.Logger) func(http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookups([]string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"})
	lmt.SetMessage(utils.GENERIC_RATE_LIMIT_ERROR)
	lmt.SetMessageContentType("text/plain; charset=utf-8")
	lmt.SetOnLimitReached(func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("rate limit reached",
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
	return func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	}
}
