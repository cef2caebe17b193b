// workers/profile_sync_worker.go
package workers

import (
	"context"
	"fmt"
	"time"

	"crdo-backend/metrics"
	"crdo-backend/models"
	"crdo-backend/services"

	"github.com/sirupsen/logrus"
)

// UserLister pages through the identity provider's users.
type UserLister interface {
	ListUsers(ctx context.Context, page, perPage int) ([]services.IdentityUser, error)
}

// ProfileMirror is the local runner_profiles table.
type ProfileMirror interface {
	UpsertProfile(ctx context.Context, p models.RunnerProfile) error
	LastUpdatedAt(ctx context.Context) (time.Time, error)
}

// ProfileSyncWorker keeps runner_profiles in step with the identity provider
// so friend requests can resolve users by email without a remote call.
type ProfileSyncWorker struct {
	users    UserLister
	mirror   ProfileMirror
	metrics  *metrics.Recorder
	interval time.Duration
	perPage  int
	maxPages int
}

func NewProfileSyncWorker(users UserLister, mirror ProfileMirror, interval time.Duration, rec *metrics.Recorder) *ProfileSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ProfileSyncWorker{
		users:    users,
		mirror:   mirror,
		metrics:  rec,
		interval: interval,
		perPage:  200,
		maxPages: 500,
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	logrus.WithField("component", "profile-sync").Info("🔁 Starting profile sync worker (identity provider → runner_profiles)")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	log := logrus.WithField("component", "profile-sync")

	// Initial sync backfills the whole mirror.
	if _, err := w.SyncOnce(ctx); err != nil {
		log.WithError(err).Warn("⚠️ initial sync failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				log.WithError(err).Error("❌ sync batch failed")
			}
		case <-ctx.Done():
			log.Info("⏹️ profile sync worker stopped")
			return
		}
	}
}

// SyncOnce walks every page of users and upserts those changed after the
// newest mirrored update. It returns how many profiles were written.
func (w *ProfileSyncWorker) SyncOnce(ctx context.Context) (int, error) {
	log := logrus.WithField("component", "profile-sync")

	since, err := w.mirror.LastUpdatedAt(ctx)
	if err != nil {
		log.WithError(err).Warn("could not read last sync time, doing a full sync")
		since = time.Time{}
	}

	var upserted, failed int
	for page := 1; page <= w.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return upserted, err
		}
		users, err := w.users.ListUsers(ctx, page, w.perPage)
		if err != nil {
			w.metrics.ProfilesSynced(upserted)
			return upserted, fmt.Errorf("list users page %d: %w", page, err)
		}

		for _, u := range users {
			if u.ID == "" || u.Email == "" {
				continue
			}
			if !since.IsZero() && !u.UpdatedAt.After(since) {
				continue
			}
			profile := models.RunnerProfile{
				ExternalUserID: u.ID,
				Email:          u.Email,
				CreatedAt:      u.CreatedAt,
				UpdatedAt:      u.UpdatedAt,
			}
			if err := w.mirror.UpsertProfile(ctx, profile); err != nil {
				failed++
				log.WithError(err).WithField("user_id", u.ID).Warn("⚠️ failed to upsert runner profile")
				continue
			}
			upserted++
		}

		if len(users) < w.perPage {
			break
		}
	}

	w.metrics.ProfilesSynced(upserted)
	log.WithFields(logrus.Fields{
		"upserted": upserted,
		"failed":   failed,
		"since":    since.UTC().Format(time.RFC3339),
	}).Debug("✅ profile sync finished")
	return upserted, nil
}
