package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/pulse/internal/identity"
	"github.com/d60-Lab/pulse/internal/imagestore"
	"github.com/d60-Lab/pulse/internal/model"
	"github.com/d60-Lab/pulse/internal/repository"
)

// ProfileView is the public profile with graph counts.
type ProfileView struct {
	model.User
	FollowingCount int64 `json:"following_count"`
	FollowerCount  int64 `json:"follower_count"`
}

// UpdateProfileInput carries only the fields the caller wants changed.
type UpdateProfileInput struct {
	FirstName      *string
	LastName       *string
	Bio            *string
	Location       *string
	ProfilePicture *imagestore.Image
	BannerImage    *imagestore.Image
}

type UserService interface {
	// Resolve maps an authenticated principal to the local user record,
	// creating it on first sight. The second return reports whether a new
	// record was created. Resolution is idempotent: concurrent first-sight
	// calls for one principal yield a single record.
	Resolve(ctx context.Context, principalID string) (*model.User, bool, error)
	Current(ctx context.Context, principalID string) (*model.User, error)
	Profile(ctx context.Context, username string) (*ProfileView, error)
	UpdateProfile(ctx context.Context, principalID string, in UpdateProfileInput) (*model.User, error)
}

type userService struct {
	users    repository.UserRepository
	follows  repository.FollowRepository
	fans     repository.FanRepository
	provider identity.Provider
	images   imagestore.Store
}

func NewUserService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	fans repository.FanRepository,
	provider identity.Provider,
	images imagestore.Store,
) UserService {
	return &userService{users: users, follows: follows, fans: fans, provider: provider, images: images}
}

func (s *userService) Resolve(ctx context.Context, principalID string) (*model.User, bool, error) {
	if u, err := s.users.GetByExternalID(ctx, principalID); err == nil {
		return u, false, nil
	} else if !repository.IsNotFound(err) {
		return nil, false, err
	}

	acct, err := s.provider.FetchAccount(ctx, principalID)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return nil, false, fmt.Errorf("%w: principal %s", ErrNotFound, principalID)
		}
		return nil, false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	username, err := s.pickUsername(ctx, acct)
	if err != nil {
		return nil, false, err
	}
	u := &model.User{
		ID:             uuid.New().String(),
		ExternalID:     principalID,
		Username:       username,
		Email:          acct.Email,
		FirstName:      acct.FirstName,
		LastName:       acct.LastName,
		ProfilePicture: acct.ImageURL,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, err
		}
		// Another first-sight resolution claimed the username between the
		// availability check and this insert; retry once with a suffix.
		u.Username = u.Username + "-" + uuid.New().String()[:8]
		if err := s.users.Create(ctx, u); err != nil {
			return nil, false, err
		}
	}

	// The insert is conflict-tolerant on external_id, so re-read to learn
	// whether we won the race or another request created the record first.
	stored, err := s.users.GetByExternalID(ctx, principalID)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID == u.ID, nil
}

// pickUsername derives the default username from the email local part and
// appends a short suffix when it is already taken.
func (s *userService) pickUsername(ctx context.Context, acct *identity.Account) (string, error) {
	base := acct.ID
	if at := strings.Index(acct.Email, "@"); at > 0 {
		base = acct.Email[:at]
	}
	taken, err := s.users.UsernameTaken(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	return base + "-" + uuid.New().String()[:8], nil
}

func (s *userService) Current(ctx context.Context, principalID string) (*model.User, error) {
	u, err := s.users.GetByExternalID(ctx, principalID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) Profile(ctx context.Context, username string) (*ProfileView, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
		}
		return nil, err
	}
	following, err := s.follows.CountFollowing(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	followers, err := s.fans.CountFans(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: *u, FollowingCount: following, FollowerCount: followers}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, principalID string, in UpdateProfileInput) (*model.User, error) {
	u, err := s.Current(ctx, principalID)
	if err != nil {
		return nil, err
	}

	if in.ProfilePicture != nil {
		url, err := s.upload(ctx, *in.ProfilePicture, imagestore.FolderProfiles)
		if err != nil {
			return nil, err
		}
		u.ProfilePicture = url
	}
	if in.BannerImage != nil {
		url, err := s.upload(ctx, *in.BannerImage, imagestore.FolderBanners)
		if err != nil {
			return nil, err
		}
		u.BannerImage = url
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Location != nil {
		u.Location = *in.Location
	}
	u.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) upload(ctx context.Context, img imagestore.Image, folder string) (string, error) {
	if err := validateImage(img); err != nil {
		return "", err
	}
	url, err := s.images.Upload(ctx, img, folder)
	if err != nil {
		return "", fmt.Errorf("%w: image upload: %v", ErrUpstream, err)
	}
	return url, nil
}

const maxImageBytes = 5 << 20 // 5MB, matching the upload middleware limit

// validateImage rejects oversized or non-image payloads before any bytes
// leave the process. Validation failures are caller errors, not upstream
// ones.
func validateImage(img imagestore.Image) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("%w: empty image payload", ErrInvalid)
	}
	if len(img.Data) > maxImageBytes {
		return fmt.Errorf("%w: image exceeds 5MB limit", ErrInvalid)
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return fmt.Errorf("%w: only image files are allowed", ErrInvalid)
	}
	return nil
}
