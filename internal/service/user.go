package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"yochat/internal/model"
	"yochat/internal/repository"
)

// UserService handles business logic for user operations
type UserService struct {
	repo       repository.UserRepository
	friendRepo repository.FriendRepository
}

func NewUserService(repo repository.UserRepository, friendRepo repository.FriendRepository) *UserService {
	return &UserService{
		repo:       repo,
		friendRepo: friendRepo,
	}
}

func validateUsername(username string) error {
	if n := len(username); n < model.MinUsernameLength || n > model.MaxUsernameLength {
		return fmt.Errorf("%w: must be %d-%d characters", model.ErrInvalidUsername, model.MinUsernameLength, model.MaxUsernameLength)
	}
	return nil
}

// Register creates a new user account with optional profile image metadata.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if len(req.Password) < model.MinPasswordLength {
		return nil, fmt.Errorf("%w: must be at least %d characters", model.ErrPasswordTooShort, model.MinPasswordLength)
	}
	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, model.ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:        req.Username,
		PasswordHashed:  string(hashedPassword),
		ProfileImageURL: req.ProfileImageURL,
		ProfileImageKey: req.ProfileImageKey,
	}
	if req.DisplayName != "" {
		user.DisplayName = &req.DisplayName
	}

	// A concurrent registration can still win the race; the repository maps that to ErrUsernameExists.
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateProfile edits the username, display name and profile image of userID.
// A username change is validated and checked for uniqueness the same way as at registration.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.ProfileUpdate, error) {
	if req.Username == nil && req.DisplayName == nil && req.ProfileImageURL == nil {
		return nil, model.ErrNothingToUpdate
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		if username != user.Username {
			exists, err := s.repo.ExistsByUsername(ctx, username)
			if err != nil {
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
			if exists {
				return nil, model.ErrUsernameExists
			}
			user.Username = username
		}
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		user.DisplayName = nil
		if name != "" {
			user.DisplayName = &name
		}
	}

	update := &model.ProfileUpdate{User: user}
	if req.ProfileImageURL != nil {
		update.ReplacedImageKey = user.ProfileImageKey
		user.ProfileImageURL = req.ProfileImageURL
		user.ProfileImageKey = req.ProfileImageKey
	}

	// Same race as Register: the unique index has the final say on the username.
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return update, nil
}

// Login authenticates a user with username and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		// Don't reveal whether username exists or not
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Search finds users by username prefix and annotates each hit with the viewer's relationship.
// Relationship lookups are batched so the cost does not grow with the hit count.
func (s *UserService) Search(ctx context.Context, query string, viewerID int64) ([]model.UserSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.UserSearchResult{}, nil
	}

	users, err := s.repo.Search(ctx, query, viewerID, model.MaxSearchResults)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	friends, err := s.friendRepo.CheckFriends(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	pending, err := s.friendRepo.CheckPending(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	results := make([]model.UserSearchResult, len(users))
	for i, u := range users {
		results[i] = model.UserSearchResult{
			UserSummary:    u,
			IsFriend:       friends[u.ID],
			RequestPending: pending[u.ID],
		}
	}
	return results, nil
}
