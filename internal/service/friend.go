package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"yochat/internal/model"
	"yochat/internal/queue"
	"yochat/internal/repository"
)

// FriendService owns the friend request lifecycle and the friendship edges it produces.
// Every transition and the notification it emits commit in the same transaction.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	blockRepo  repository.BlockRepository
	notifRepo  repository.NotificationRepository
	tx         repository.Transactor
	publisher  queue.Publisher
}

func NewFriendService(
	friendRepo repository.FriendRepository,
	userRepo repository.UserRepository,
	blockRepo repository.BlockRepository,
	notifRepo repository.NotificationRepository,
	tx repository.Transactor,
	publisher queue.Publisher,
) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		blockRepo:  blockRepo,
		notifRepo:  notifRepo,
		tx:         tx,
		publisher:  publisher,
	}
}

// SendRequest creates a pending request from actorID to receiverID and notifies the receiver.
// The pending-pair uniqueness is enforced by storage, so concurrent sends for one pair
// yield exactly one success and ErrDuplicatePending for the rest.
func (s *FriendService) SendRequest(ctx context.Context, actorID, receiverID int64) (*model.FriendRequest, error) {
	if actorID == receiverID {
		return nil, model.ErrInvalidTarget
	}

	exists, err := s.userRepo.Exists(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	blocked, err := s.blockRepo.IsBlockedEither(ctx, actorID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, model.ErrBlocked
	}

	friends, err := s.friendRepo.AreFriends(ctx, actorID, receiverID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, model.ErrAlreadyFriends
	}

	var req *model.FriendRequest
	notif := &model.Notification{
		RecipientID: receiverID,
		SenderID:    actorID,
		Type:        model.NotificationTypeFriendRequest,
	}
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		req, err = s.friendRepo.CreateRequest(ctx, tx, actorID, receiverID)
		if err != nil {
			return err
		}
		return s.notifRepo.Create(ctx, tx, notif)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[FriendService] Request sent: sender=%d receiver=%d request=%d", actorID, receiverID, req.ID)
	publishAfterCommit(ctx, s.publisher, "FriendService", queue.NewNotificationCreatedEvent(notif.ID, receiverID))
	return req, nil
}

// AcceptRequest accepts the pending senderID->actorID request and creates the friendship.
func (s *FriendService) AcceptRequest(ctx context.Context, actorID, senderID int64) error {
	if actorID == senderID {
		return model.ErrInvalidTarget
	}

	notif := &model.Notification{
		RecipientID: senderID,
		SenderID:    actorID,
		Type:        model.NotificationTypeFriendAccept,
	}
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.friendRepo.ResolveRequest(ctx, tx, senderID, actorID, model.RequestStatusAccepted); err != nil {
			return err
		}
		if err := s.friendRepo.CreateFriendship(ctx, tx, senderID, actorID); err != nil {
			return err
		}
		return s.notifRepo.Create(ctx, tx, notif)
	})
	if err != nil {
		return err
	}

	log.Printf("[FriendService] Request accepted: sender=%d receiver=%d", senderID, actorID)
	publishAfterCommit(ctx, s.publisher, "FriendService", queue.NewNotificationCreatedEvent(notif.ID, senderID))
	return nil
}

// DeclineRequest declines the pending senderID->actorID request and notifies the sender.
func (s *FriendService) DeclineRequest(ctx context.Context, actorID, senderID int64) error {
	if actorID == senderID {
		return model.ErrInvalidTarget
	}

	notif := &model.Notification{
		RecipientID: senderID,
		SenderID:    actorID,
		Type:        model.NotificationTypeFriendDecline,
	}
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.friendRepo.ResolveRequest(ctx, tx, senderID, actorID, model.RequestStatusDeclined); err != nil {
			return err
		}
		return s.notifRepo.Create(ctx, tx, notif)
	})
	if err != nil {
		return err
	}

	log.Printf("[FriendService] Request declined: sender=%d receiver=%d", senderID, actorID)
	publishAfterCommit(ctx, s.publisher, "FriendService", queue.NewNotificationCreatedEvent(notif.ID, senderID))
	return nil
}

// CancelRequest withdraws the actor's own pending request. No notification is emitted.
func (s *FriendService) CancelRequest(ctx context.Context, actorID, receiverID int64) error {
	if actorID == receiverID {
		return model.ErrInvalidTarget
	}

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.friendRepo.ResolveRequest(ctx, tx, actorID, receiverID, model.RequestStatusCancelled)
		return err
	})
	if err != nil {
		return err
	}

	log.Printf("[FriendService] Request cancelled: sender=%d receiver=%d", actorID, receiverID)
	return nil
}

// Unfriend removes the edge and any pending request between the pair. No notification is emitted.
func (s *FriendService) Unfriend(ctx context.Context, actorID, otherID int64) error {
	if actorID == otherID {
		return model.ErrInvalidTarget
	}

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.friendRepo.DeleteFriendship(ctx, tx, actorID, otherID); err != nil {
			return err
		}
		_, err := s.friendRepo.CancelPendingBetween(ctx, tx, actorID, otherID)
		return err
	})
	if err != nil {
		return err
	}

	log.Printf("[FriendService] Unfriended: actor=%d other=%d", actorID, otherID)
	publishAfterCommit(ctx, s.publisher, "FriendService", queue.NewFriendshipRemovedEvent(actorID, otherID))
	return nil
}

// Block severs any friendship and pending request with targetID and prevents new requests either way.
func (s *FriendService) Block(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return model.ErrInvalidTarget
	}

	exists, err := s.userRepo.Exists(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrUserNotFound
	}

	wereFriends := false
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.blockRepo.Create(ctx, tx, actorID, targetID); err != nil {
			return err
		}
		switch err := s.friendRepo.DeleteFriendship(ctx, tx, actorID, targetID); {
		case err == nil:
			wereFriends = true
		case !errors.Is(err, model.ErrNotFriends):
			return err
		}
		_, err := s.friendRepo.CancelPendingBetween(ctx, tx, actorID, targetID)
		return err
	})
	if err != nil {
		return fmt.Errorf("block user: %w", err)
	}

	log.Printf("[FriendService] Blocked: actor=%d target=%d severed=%v", actorID, targetID, wereFriends)
	if wereFriends {
		publishAfterCommit(ctx, s.publisher, "FriendService", queue.NewFriendshipRemovedEvent(actorID, targetID))
	}
	return nil
}

func (s *FriendService) Unblock(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return model.ErrInvalidTarget
	}
	return s.blockRepo.Delete(ctx, actorID, targetID)
}

func (s *FriendService) ListBlocked(ctx context.Context, actorID int64) ([]model.BlockedUser, error) {
	return s.blockRepo.List(ctx, actorID)
}

// AreFriends is symmetric: AreFriends(a, b) == AreFriends(b, a).
func (s *FriendService) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	return s.friendRepo.AreFriends(ctx, a, b)
}

func (s *FriendService) ListFriends(ctx context.Context, userID int64) ([]model.Friend, error) {
	return s.friendRepo.GetFriends(ctx, userID)
}

// ListFriendsByUsername resolves username first; ErrUserNotFound when it does not exist.
func (s *FriendService) ListFriendsByUsername(ctx context.Context, username string) (*model.FriendListResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	friends, err := s.friendRepo.GetFriends(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &model.FriendListResponse{Username: user.Username, Friends: friends}, nil
}

// ListPending returns requests waiting for userID to respond.
func (s *FriendService) ListPending(ctx context.Context, userID int64) ([]model.PendingRequest, error) {
	return s.friendRepo.GetPendingReceived(ctx, userID)
}

// ListSent returns requests userID has sent that are still pending.
func (s *FriendService) ListSent(ctx context.Context, userID int64) ([]model.PendingRequest, error) {
	return s.friendRepo.GetPendingSent(ctx, userID)
}
