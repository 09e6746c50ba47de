package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/pulse/internal/imagestore"
	"github.com/d60-Lab/pulse/internal/model"
	"github.com/d60-Lab/pulse/internal/repository"
)

// PostView is a post with its author snapshot and engagement tallies.
type PostView struct {
	model.Post
	Author       model.Snapshot `json:"author"`
	Likes        []string       `json:"likes"`
	CommentCount int64          `json:"comment_count"`
}

// PostDetail additionally inlines the post's comments, newest first.
type PostDetail struct {
	PostView
	Comments []CommentView `json:"comments"`
}

type CommentView struct {
	model.Comment
	Author model.Snapshot `json:"author"`
}

type CreatePostInput struct {
	Content string
	Image   *imagestore.Image
}

// ContentService owns the post/comment lifecycle, including the cascades
// that keep the comment back-references consistent.
type ContentService interface {
	CreatePost(ctx context.Context, userID string, in CreatePostInput) (*model.Post, error)
	GetPost(ctx context.Context, postID string) (*PostDetail, error)
	ListPosts(ctx context.Context, page, pageSize int) ([]PostView, error)
	ListUserPosts(ctx context.Context, username string, page, pageSize int) ([]PostView, error)
	DeletePost(ctx context.Context, userID, postID string) error

	CreateComment(ctx context.Context, userID, postID, content string) (*model.Comment, error)
	ListComments(ctx context.Context, postID string, page, pageSize int) ([]CommentView, error)
	DeleteComment(ctx context.Context, userID, commentID string) error
}

type contentService struct {
	db       *gorm.DB
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	likes    repository.LikeRepository
	images   imagestore.Store
}

func NewContentService(
	db *gorm.DB,
	users repository.UserRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	likes repository.LikeRepository,
	images imagestore.Store,
) ContentService {
	return &contentService{db: db, users: users, posts: posts, comments: comments, likes: likes, images: images}
}

func (s *contentService) CreatePost(ctx context.Context, userID string, in CreatePostInput) (*model.Post, error) {
	if strings.TrimSpace(in.Content) == "" && in.Image == nil {
		return nil, ErrEmptyPost
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, userLookupErr(err)
	}

	// The upload happens before (and outside) the insert: a failed upload
	// must leave no post behind, and a failed insert merely strands an
	// unreferenced object on the image host.
	var imageURL string
	if in.Image != nil {
		if err := validateImage(*in.Image); err != nil {
			return nil, err
		}
		url, err := s.images.Upload(ctx, *in.Image, imagestore.FolderPosts)
		if err != nil {
			return nil, fmt.Errorf("%w: image upload: %v", ErrUpstream, err)
		}
		imageURL = url
	}

	post := &model.Post{
		ID:        uuid.New().String(),
		AuthorID:  userID,
		Content:   strings.TrimSpace(in.Content),
		Image:     imageURL,
		Cursor:    nextCursor(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *contentService) GetPost(ctx context.Context, postID string) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: post", ErrNotFound)
		}
		return nil, err
	}
	views, err := s.buildViews(ctx, []*model.Post{post})
	if err != nil {
		return nil, err
	}
	// Page through the whole thread; the detail view carries every comment.
	const commentBatch = 100
	comments := make([]CommentView, 0, commentBatch)
	for page := 1; ; page++ {
		batch, err := s.ListComments(ctx, postID, page, commentBatch)
		if err != nil {
			return nil, err
		}
		comments = append(comments, batch...)
		if len(batch) < commentBatch {
			break
		}
	}
	return &PostDetail{PostView: views[0], Comments: comments}, nil
}

func (s *contentService) ListPosts(ctx context.Context, page, pageSize int) ([]PostView, error) {
	offset, limit := pageBounds(page, pageSize)
	posts, err := s.posts.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, posts)
}

func (s *contentService) ListUserPosts(ctx context.Context, username string, page, pageSize int) ([]PostView, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
		}
		return nil, err
	}
	offset, limit := pageBounds(page, pageSize)
	posts, err := s.posts.ListByAuthor(ctx, u.ID, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, posts)
}

func (s *contentService) DeletePost(ctx context.Context, userID, postID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: post", ErrNotFound)
		}
		return err
	}
	if post.AuthorID != userID {
		return fmt.Errorf("%w: you can only delete your own posts", ErrForbidden)
	}

	// Comments go first so a torn run leaves an orphan-free post rather
	// than orphaned comments.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&model.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", postID).Delete(&model.Post{}).Error
	})
}

func (s *contentService) CreateComment(ctx context.Context, userID, postID, content string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyComment
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, userLookupErr(err)
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: post", ErrNotFound)
		}
		return nil, err
	}

	comment := &model.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		AuthorID:  userID,
		Content:   strings.TrimSpace(content),
		Cursor:    nextCursor(),
		CreatedAt: time.Now(),
	}
	// Comment row and notification are one unit: if either write fails the
	// comment is never observable and no notification goes out.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return emitNotification(tx, userID, post.AuthorID, model.NotificationComment, &post.ID, &comment.ID)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *contentService) ListComments(ctx context.Context, postID string, page, pageSize int) ([]CommentView, error) {
	offset, limit := pageBounds(page, pageSize)
	comments, err := s.comments.ListByPost(ctx, postID, offset, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.AuthorID
	}
	authors, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(authors))
	for _, u := range authors {
		byID[u.ID] = u
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		v := CommentView{Comment: *c}
		if u, ok := byID[c.AuthorID]; ok {
			v.Author = u.Snapshot()
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *contentService) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: comment", ErrNotFound)
		}
		return err
	}
	if comment.AuthorID != userID {
		return fmt.Errorf("%w: you can only delete your own comments", ErrForbidden)
	}
	// The row is both the comment and its membership in the post's list, so
	// one delete keeps the invariant and preserves the order of the rest.
	return s.db.WithContext(ctx).Where("id = ?", commentID).Delete(&model.Comment{}).Error
}

var cursorSeq atomic.Int64

// nextCursor hands out strictly increasing ordering keys. Wall-clock
// nanoseconds seed the sequence so cursors stay monotonic across restarts.
func nextCursor() int64 {
	for {
		now := time.Now().UnixNano()
		prev := cursorSeq.Load()
		if now <= prev {
			now = prev + 1
		}
		if cursorSeq.CompareAndSwap(prev, now) {
			return now
		}
	}
}

func (s *contentService) buildViews(ctx context.Context, posts []*model.Post) ([]PostView, error) {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.AuthorID
	}
	authors, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(authors))
	for _, u := range authors {
		byID[u.ID] = u
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		v := PostView{Post: *p, Likes: []string{}}
		if u, ok := byID[p.AuthorID]; ok {
			v.Author = u.Snapshot()
		}
		likes, err := s.likes.ListUserIDs(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if likes != nil {
			v.Likes = likes
		}
		cnt, err := s.comments.CountByPost(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		v.CommentCount = cnt
		views = append(views, v)
	}
	return views, nil
}
