package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/pulse/internal/model"
)

// edgeState inspects both sides of an edge so tests can assert the
// follows/fans mirror invariant directly.
func edgeState(t *testing.T, e *env, followerID, followeeID string) (bool, bool) {
	t.Helper()
	var follows, fans int64
	require.NoError(t, e.db.Model(&model.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&follows).Error)
	require.NoError(t, e.db.Model(&model.Fan{}).
		Where("user_id = ? AND fan_id = ?", followeeID, followerID).
		Count(&fans).Error)
	return follows > 0, fans > 0
}

func TestToggleFollowIsItsOwnInverse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "rf-a", "a@example.com")
	b := e.user(t, "rf-b", "b@example.com")

	for i := 0; i < 5; i++ {
		following, err := e.relations.ToggleFollow(ctx, a.ID, b.ID)
		require.NoError(t, err)

		wantEdge := i%2 == 0 // odd number of calls so far
		assert.Equal(t, wantEdge, following)
		forward, reverse := edgeState(t, e, a.ID, b.ID)
		assert.Equal(t, wantEdge, forward, "follow side after %d toggles", i+1)
		assert.Equal(t, wantEdge, reverse, "fan side after %d toggles", i+1)
	}
}

func TestToggleFollowSelf(t *testing.T) {
	e := newEnv(t)
	a := e.user(t, "rs-a", "self@example.com")

	_, err := e.relations.ToggleFollow(context.Background(), a.ID, a.ID)
	assert.ErrorIs(t, err, ErrInvalid)

	var cnt int64
	require.NoError(t, e.db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.EqualValues(t, 0, cnt)
}

func TestToggleFollowMissingUser(t *testing.T) {
	e := newEnv(t)
	a := e.user(t, "rm-a", "rm@example.com")

	_, err := e.relations.ToggleFollow(context.Background(), a.ID, "no-such-user")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.relations.ToggleFollow(context.Background(), "no-such-user", a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFollowNotifiesTargetOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "rn-a", "rna@example.com")
	b := e.user(t, "rn-b", "rnb@example.com")

	_, err := e.relations.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.notificationCount(t))

	var n model.Notification
	require.NoError(t, e.db.First(&n).Error)
	assert.Equal(t, model.NotificationFollow, n.Type)
	assert.Equal(t, a.ID, n.FromUserID)
	assert.Equal(t, b.ID, n.ToUserID)

	// Unfollow emits nothing.
	_, err = e.relations.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.notificationCount(t))
}

func TestToggleFollowLostInsertRaceEmitsNoNotification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "rr-a", "rra@example.com")
	b := e.user(t, "rr-b", "rrb@example.com")

	// A rival request inserts the edge between the membership check and this
	// call's insert.
	injected := false
	require.NoError(t, e.db.Callback().Create().Before("gorm:create").Register("rival_follow", func(tx *gorm.DB) {
		if injected || tx.Statement.Table != "follows" {
			return
		}
		injected = true
		if _, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO follows (id, follower_id, followee_id) VALUES (?, ?, ?)",
			uuid.New().String(), a.ID, b.ID); err != nil {
			_ = tx.AddError(err)
		}
	}))
	t.Cleanup(func() { _ = e.db.Callback().Create().Remove("rival_follow") })

	following, err := e.relations.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, following)
	assert.True(t, injected)

	forward, reverse := edgeState(t, e, a.ID, b.ID)
	assert.True(t, forward)
	assert.True(t, reverse)
	// The loser of the insert race must not notify the target a second time.
	assert.EqualValues(t, 0, e.notificationCount(t))
}

func TestFollowingAndFollowersListings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "rl-a", "rla@example.com")
	b := e.user(t, "rl-b", "rlb@example.com")
	c := e.user(t, "rl-c", "rlc@example.com")

	_, err := e.relations.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = e.relations.ToggleFollow(ctx, a.ID, c.ID)
	require.NoError(t, err)
	_, err = e.relations.ToggleFollow(ctx, b.ID, c.ID)
	require.NoError(t, err)

	following, err := e.relations.Following(ctx, a.ID, 1, 10)
	require.NoError(t, err)
	ids := make([]string, len(following))
	for i, s := range following {
		ids[i] = s.ID
	}
	assert.ElementsMatch(t, []string{b.ID, c.ID}, ids)

	followers, err := e.relations.Followers(ctx, c.ID, 1, 10)
	require.NoError(t, err)
	ids = ids[:0]
	for _, s := range followers {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}
