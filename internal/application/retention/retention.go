package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
)

// PruneRefreshTokens deletes refresh-token records that were revoked or expired more than
// retainDays ago. Active records are never touched. retainDays 0 = no-op, which is the
// default: records are kept as the audit trail unless an operator opts in.
func PruneRefreshTokens(ctx context.Context, tokens ports.RefreshTokenStore, retainDays int, now time.Time) (int64, error) {
	if retainDays <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-time.Duration(retainDays) * 24 * time.Hour)
	return tokens.DeleteInactiveBefore(ctx, cutoff)
}

// Run calls PruneRefreshTokens every interval until ctx is done. Failures are logged and retried
// on the next tick.
func Run(ctx context.Context, tokens ports.RefreshTokenStore, retainDays int, interval time.Duration, log zerolog.Logger) error {
	if retainDays <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := PruneRefreshTokens(ctx, tokens, retainDays, time.Now())
			if err != nil {
				log.Warn().Err(err).Msg("prune refresh tokens")
				continue
			}
			if n > 0 {
				log.Info().Int64("deleted", n).Msg("pruned refresh tokens")
			}
		}
	}
}
