// Package sweeper runs the periodic inactivity sweep that revokes reward
// roles from members who stopped posting.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/logging"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/metrics"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/platform/correlation"
	"github.com/andrewc156/DiscordLangaugeStreakBot/internal/streak"
)

const revokeReason = "Streak inactivity"

// Sweeper scans every guild on a fixed interval and revokes reward roles
// from members whose last activity is older than the inactivity window.
type Sweeper struct {
	store      *streak.Store
	gateway    domain.Gateway
	clock      clockwork.Clock
	interval   time.Duration
	windowDays int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSweeper creates a sweeper. interval is how often a sweep runs,
// windowDays is the inactivity threshold in days.
func NewSweeper(store *streak.Store, gateway domain.Gateway, clock clockwork.Clock, interval time.Duration, windowDays int) *Sweeper {
	return &Sweeper{
		store:      store,
		gateway:    gateway,
		clock:      clock,
		interval:   interval,
		windowDays: windowDays,
	}
}

// Start launches the sweep loop. A sweep runs immediately, then on every
// interval tick. Returns an error if the sweeper is already running.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("sweeper already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	return nil
}

// Stop cancels the loop and waits for the in-flight sweep to finish.
// Safe to call on a sweeper that was never started.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.Sweep(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Sweep(ctx)
		}
	}
}

// Sweep performs a single pass over all guilds. Each member is handled
// independently; one failing revocation never aborts the rest of the run.
func (s *Sweeper) Sweep(ctx context.Context) {
	runID := uuid.NewString()
	ctx = correlation.WithID(ctx, runID)
	started := s.clock.Now()
	today := domain.DateOf(started)

	slog.InfoContext(ctx, "starting inactivity sweep", slog.String("run_id", runID))

	var revoked, memberErrors int
	for _, guildID := range s.store.GuildIDs() {
		if ctx.Err() != nil {
			metrics.SweepRunsTotal.WithLabelValues("cancelled").Inc()
			return
		}

		view, ok := s.store.Snapshot(guildID)
		if !ok || len(view.RoleRewards) == 0 {
			continue
		}

		candidates := RevocationCandidates(view, today, s.windowDays)
		for userID, rewardRoles := range candidates {
			n, err := s.revokeHeld(ctx, guildID, userID, rewardRoles)
			if err != nil {
				memberErrors++
				metrics.SweepMemberErrors.Inc()
				slog.WarnContext(ctx, "failed to revoke roles during sweep",
					logging.WithGuild(guildID), logging.WithUser(userID), logging.WithError(err))
				continue
			}
			revoked += n
		}
	}

	metrics.SweepRunsTotal.WithLabelValues("completed").Inc()
	metrics.SweepDuration.Observe(s.clock.Since(started).Seconds())
	slog.InfoContext(ctx, "inactivity sweep finished",
		slog.String("run_id", runID),
		slog.Int("roles_revoked", revoked),
		slog.Int("member_errors", memberErrors))
}

// revokeHeld removes the reward roles the member actually holds, returning
// how many were revoked. Members no longer in the guild are skipped.
func (s *Sweeper) revokeHeld(ctx context.Context, guildID, userID string, rewardRoles []string) (int, error) {
	currentRoles, err := s.gateway.MemberRoles(ctx, guildID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to look up member roles: %w", err)
	}

	held := make(map[string]struct{}, len(currentRoles))
	for _, roleID := range currentRoles {
		held[roleID] = struct{}{}
	}

	var toRevoke []string
	for _, roleID := range rewardRoles {
		if _, ok := held[roleID]; ok {
			toRevoke = append(toRevoke, roleID)
		}
	}
	if len(toRevoke) == 0 {
		return 0, nil
	}
	sort.Strings(toRevoke)

	if err := s.gateway.RevokeRoles(ctx, guildID, userID, toRevoke, revokeReason); err != nil {
		return 0, fmt.Errorf("failed to revoke roles: %w", err)
	}
	metrics.RolesRevokedTotal.Add(float64(len(toRevoke)))
	return len(toRevoke), nil
}

// RevocationCandidates returns, per inactive user, the reward role IDs that
// are up for revocation. A user is inactive when their last activity is
// strictly more than windowDays days before today. Users with no recorded
// activity are never candidates.
func RevocationCandidates(view streak.GuildView, today domain.Date, windowDays int) map[string][]string {
	if len(view.RoleRewards) == 0 {
		return nil
	}

	rewardRoles := make([]string, 0, len(view.RoleRewards))
	for _, roleID := range view.RoleRewards {
		rewardRoles = append(rewardRoles, roleID)
	}
	sort.Strings(rewardRoles)

	candidates := make(map[string][]string)
	for userID, u := range view.Users {
		if u.LastDate.IsZero() {
			continue
		}
		if today.DaysSince(u.LastDate) > windowDays {
			candidates[userID] = rewardRoles
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates
}
