package session

import (
	"context"
	"errors"
	"fmt"
)

const refreshKey = "access-token-refresh"

var errEmptyAccessToken = errors.New("refresh response carries no access token")

// RefreshAccessToken obtains a new access token using the stored refresh
// token.
//
// At most one refresh round trip is in flight at any time: concurrent callers
// wait for the same attempt and get the same outcome. The round trip is not
// tied to any single caller's cancellation; a caller whose ctx ends stops
// waiting but the attempt still settles for the others.
//
// On any failure the whole session is cleared and a non-nil error returned.
func (s *Store) RefreshAccessToken(ctx context.Context) (string, error) {
	ch := s.group.DoChan(refreshKey, func() (any, error) {
		return s.performRefresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Store) performRefresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	refreshToken := s.RefreshToken(ctx)
	if refreshToken == "" {
		s.failRefresh(ctx, epoch, ErrNoRefreshToken)
		return "", ErrNoRefreshToken
	}

	access, err := s.refresher.Refresh(ctx, refreshToken)
	if err == nil && access == "" {
		err = errEmptyAccessToken
	}
	if err != nil {
		s.failRefresh(ctx, epoch, err)
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		s.metrics.ObserveRefresh(false)
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, ErrSessionCleared)
	}

	s.access = access
	if err := s.persistLocked(ctx, access, s.refresh); err != nil {
		s.log.Warn(ctx, "failed to persist refreshed access token", "error", err)
	}
	s.metrics.ObserveRefresh(true)
	s.log.Debug(ctx, "access token refreshed")
	return access, nil
}

// failRefresh clears the session unless someone already cleared it since
// the attempt started.
func (s *Store) failRefresh(ctx context.Context, epoch uint64, cause error) {
	s.metrics.ObserveRefresh(false)
	s.log.Warn(ctx, "token refresh failed, clearing session", "error", cause)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return
	}
	s.clearLocked()
	if err := s.repo(s.db).Delete(ctx, AccessTokenKey, RefreshTokenKey); err != nil {
		s.log.Warn(ctx, "failed to remove tokens from storage", "error", err)
	}
}
