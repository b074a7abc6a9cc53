package service

import (
	"context"
	"errors"
	"log"

	"github.com/jmoiron/sqlx"

	"yochat/internal/model"
	"yochat/internal/queue"
	"yochat/internal/repository"
)

// FeedService applies the visibility rule: a viewer sees a post iff they wrote it
// or are currently friends with its author. Nothing here is cached.
type FeedService struct {
	postRepo   repository.PostRepository
	savedRepo  repository.SavedPostRepository
	friendRepo repository.FriendRepository
	notifRepo  repository.NotificationRepository
	tx         repository.Transactor
	publisher  queue.Publisher
}

func NewFeedService(
	postRepo repository.PostRepository,
	savedRepo repository.SavedPostRepository,
	friendRepo repository.FriendRepository,
	notifRepo repository.NotificationRepository,
	tx repository.Transactor,
	publisher queue.Publisher,
) *FeedService {
	return &FeedService{
		postRepo:   postRepo,
		savedRepo:  savedRepo,
		friendRepo: friendRepo,
		notifRepo:  notifRepo,
		tx:         tx,
		publisher:  publisher,
	}
}

// GetVisiblePosts returns the viewer's feed, newest first.
func (s *FeedService) GetVisiblePosts(ctx context.Context, viewerID int64) (*model.FeedResponse, error) {
	posts, err := s.postRepo.GetVisible(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return &model.FeedResponse{Posts: posts}, nil
}

// authorizeInTx locks postID and returns its author, or ErrForbidden when viewerID may not see it.
// The friendship edge stays share-locked until tx ends, so an unfriend cannot interleave with the write.
func (s *FeedService) authorizeInTx(ctx context.Context, tx *sqlx.Tx, viewerID, postID int64) (int64, error) {
	authorID, err := s.postRepo.LockForUpdate(ctx, tx, postID)
	if err != nil {
		return 0, err
	}
	if authorID == viewerID {
		return authorID, nil
	}

	friends, err := s.friendRepo.LockFriendship(ctx, tx, viewerID, authorID)
	if err != nil {
		return 0, err
	}
	if !friends {
		return 0, model.ErrForbidden
	}
	return authorID, nil
}

// ToggleReaction flips the viewer's reaction on postID and returns the resulting state and count.
// The post row is locked for the toggle so that concurrent toggles cannot lose an update.
func (s *FeedService) ToggleReaction(ctx context.Context, viewerID, postID int64) (*model.ReactionResult, error) {
	result := &model.ReactionResult{}
	var notif *model.Notification
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		authorID, err := s.authorizeInTx(ctx, tx, viewerID, postID)
		if err != nil {
			return err
		}

		removed, err := s.postRepo.RemoveReaction(ctx, tx, postID, viewerID)
		if err != nil {
			return err
		}
		if removed {
			result.TotalLikes, err = s.postRepo.IncrementReactionCount(ctx, tx, postID, -1)
			return err
		}

		added, err := s.postRepo.AddReaction(ctx, tx, postID, viewerID)
		if err != nil {
			return err
		}
		result.Liked = true
		delta := 0
		if added {
			delta = 1
		}
		result.TotalLikes, err = s.postRepo.IncrementReactionCount(ctx, tx, postID, delta)
		if err != nil {
			return err
		}

		if !added || authorID == viewerID {
			return nil
		}
		notif = &model.Notification{
			RecipientID: authorID,
			SenderID:    viewerID,
			Type:        model.NotificationTypeLike,
			PostID:      &postID,
		}
		return s.notifRepo.Create(ctx, tx, notif)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[FeedService] Reaction toggled: post=%d viewer=%d liked=%v total=%d",
		postID, viewerID, result.Liked, result.TotalLikes)
	if notif != nil {
		publishAfterCommit(ctx, s.publisher, "FeedService", queue.NewNotificationCreatedEvent(notif.ID, notif.RecipientID))
	}
	return result, nil
}

// SavePost bookmarks a visible post. Saving twice succeeds with AlreadySaved set.
func (s *FeedService) SavePost(ctx context.Context, viewerID, postID int64) (*model.SaveResult, error) {
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.authorizeInTx(ctx, tx, viewerID, postID); err != nil {
			return err
		}
		return s.savedRepo.Create(ctx, tx, viewerID, postID)
	})
	if errors.Is(err, model.ErrDuplicateSave) {
		return &model.SaveResult{Saved: true, AlreadySaved: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.SaveResult{Saved: true}, nil
}

// UnsavePost removes a bookmark. Only the bookmark has to exist; the post may no longer be visible.
func (s *FeedService) UnsavePost(ctx context.Context, viewerID, postID int64) error {
	return s.savedRepo.Delete(ctx, viewerID, postID)
}

// ListSavedPosts returns every bookmark of viewerID regardless of current friendship.
func (s *FeedService) ListSavedPosts(ctx context.Context, viewerID int64) ([]model.SavedPost, error) {
	return s.savedRepo.ListByUser(ctx, viewerID)
}
