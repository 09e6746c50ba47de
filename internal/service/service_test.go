package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/pulse/internal/identity"
	"github.com/d60-Lab/pulse/internal/imagestore"
	"github.com/d60-Lab/pulse/internal/model"
	"github.com/d60-Lab/pulse/internal/repository"
)

// env wires every service against one in-memory database, the static
// identity provider and the in-memory image store.
type env struct {
	db       *gorm.DB
	provider *identity.StaticProvider
	images   *imagestore.MemoryStore

	users         UserService
	relations     RelationshipService
	engagement    EngagementService
	content       ContentService
	notifications NotificationService

	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Follow{}, &model.Fan{},
		&model.Post{}, &model.PostLike{}, &model.Comment{}, &model.Notification{},
	))

	provider := identity.NewStaticProvider()
	images := imagestore.NewMemoryStore()

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	return &env{
		db:               db,
		provider:         provider,
		images:           images,
		users:            NewUserService(userRepo, followRepo, fanRepo, provider, images),
		relations:        NewRelationshipService(db, userRepo, followRepo, fanRepo),
		engagement:       NewEngagementService(db, userRepo, postRepo, likeRepo),
		content:          NewContentService(db, userRepo, postRepo, commentRepo, likeRepo, images),
		notifications:    NewNotificationService(notificationRepo, userRepo, postRepo, commentRepo),
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}
}

// user registers a provider account and resolves it into a local record.
func (e *env) user(t *testing.T, principal, email string) *model.User {
	t.Helper()
	e.provider.Register(identity.Account{ID: principal, Email: email})
	u, _, err := e.users.Resolve(context.Background(), principal)
	require.NoError(t, err)
	return u
}

func (e *env) notificationCount(t *testing.T) int64 {
	t.Helper()
	var cnt int64
	require.NoError(t, e.db.Model(&model.Notification{}).Count(&cnt).Error)
	return cnt
}
