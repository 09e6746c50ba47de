package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/pulse/config"
	"github.com/d60-Lab/pulse/internal/identity"
	"github.com/d60-Lab/pulse/internal/imagestore"
	"github.com/d60-Lab/pulse/internal/repository"
	"github.com/d60-Lab/pulse/internal/service"
	"github.com/d60-Lab/pulse/pkg/database"
	"github.com/d60-Lab/pulse/pkg/logger"
)

// NewSeedCommand fills a dev database with demo users, follows and posts,
// going through the real services so every invariant holds in the seeded
// data too.
func NewSeedCommand() *cobra.Command {
	var (
		users int
		posts int
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed demo data into the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Server.Mode); err != nil {
				return err
			}
			return seed(cmd, cfg, users, posts)
		},
	}
	cmd.Flags().IntVar(&users, "users", 20, "number of demo users")
	cmd.Flags().IntVar(&posts, "posts", 5, "posts per user")
	return cmd
}

func seed(cmd *cobra.Command, cfg *config.Config, users, posts int) error {
	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	provider := identity.NewStaticProvider()
	images := imagestore.NewMemoryStore()

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	userSvc := service.NewUserService(userRepo, followRepo, fanRepo, provider, images)
	relSvc := service.NewRelationshipService(db, userRepo, followRepo, fanRepo)
	engSvc := service.NewEngagementService(db, userRepo, postRepo, likeRepo)
	contentSvc := service.NewContentService(db, userRepo, postRepo, commentRepo, likeRepo, images)

	ctx := cmd.Context()
	ids := make([]string, 0, users)
	for i := 0; i < users; i++ {
		principal := fmt.Sprintf("seed-user-%03d", i)
		provider.Register(identity.Account{
			ID:        principal,
			Email:     fmt.Sprintf("demo%03d@example.com", i),
			FirstName: "Demo",
			LastName:  fmt.Sprintf("User%03d", i),
		})
		u, _, err := userSvc.Resolve(ctx, principal)
		if err != nil {
			return err
		}
		ids = append(ids, u.ID)
	}

	for i, id := range ids {
		for j := 0; j < posts; j++ {
			post, err := contentSvc.CreatePost(ctx, id, service.CreatePostInput{
				Content: fmt.Sprintf("hello from demo user %d, post %d", i, j),
			})
			if err != nil {
				return err
			}
			// A neighbor likes and comments on the first post of each user.
			if j == 0 && len(ids) > 1 {
				other := ids[(i+1)%len(ids)]
				if _, err := engSvc.ToggleLike(ctx, other, post.ID); err != nil {
					return err
				}
				if _, err := contentSvc.CreateComment(ctx, other, post.ID, "nice one"); err != nil {
					return err
				}
			}
		}
		// Everyone follows the next two neighbors.
		for k := 1; k <= 2 && k < len(ids); k++ {
			if _, err := relSvc.ToggleFollow(ctx, id, ids[(i+k)%len(ids)]); err != nil {
				return err
			}
		}
	}

	logger.Info("seed complete")
	return nil
}
