package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/focusloop/backend/internal/socialgraph"
)

// Reconciler recounts the denormalized counters from the edge records and
// corrects any drift. Counters are a cache of a derivable value; this job is
// the consistency backstop behind the transactional engine.
type Reconciler struct {
	store  socialgraph.Store
	engine *socialgraph.Engine
}

// NewReconciler creates a new Reconciler
func NewReconciler(store socialgraph.Store, engine *socialgraph.Engine) *Reconciler {
	return &Reconciler{store: store, engine: engine}
}

// Run recounts every user. Per-user failures are logged and skipped so one
// bad document does not starve the rest of the sweep.
func (r *Reconciler) Run(ctx context.Context) error {
	ids, err := r.store.UserIDs(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	var corrected int
	for _, id := range ids {
		fixed, err := r.ReconcileUser(ctx, id)
		if err != nil {
			log.Printf("reconcile: user %s: %v", id, err)
			continue
		}
		if fixed {
			corrected++
		}
	}
	log.Printf("reconcile: swept %d users in %s, corrected %d", len(ids), time.Since(start), corrected)
	return nil
}

// ReconcileUser recounts one user's followers, following and mutual
// friendships from the edge set and applies the correction through the
// engine's transactional boundary. Returns true if a correction was applied.
func (r *Reconciler) ReconcileUser(ctx context.Context, userID string) (bool, error) {
	following, err := r.store.Following(ctx, userID)
	if err != nil {
		return false, err
	}
	followers, err := r.store.Followers(ctx, userID)
	if err != nil {
		return false, err
	}

	followerSet := make(map[string]struct{}, len(followers))
	for _, id := range followers {
		followerSet[id] = struct{}{}
	}
	var mutual int64
	for _, id := range following {
		if _, ok := followerSet[id]; ok {
			mutual++
		}
	}

	before, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	drifted := before.FollowerCount != int64(len(followers)) ||
		before.FollowingCount != int64(len(following)) ||
		before.MutualFriendshipCount != mutual

	if err := r.engine.ReconcileCounters(ctx, userID, int64(len(followers)), int64(len(following)), mutual); err != nil {
		return false, err
	}
	return drifted, nil
}

// Job adapts the reconciler to cron's Job interface.
type Job struct {
	Reconciler *Reconciler
	Timeout    time.Duration
}

func (j Job) Run() {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := j.Reconciler.Run(ctx); err != nil {
		log.Printf("reconcile: sweep failed: %v", err)
	}
}
