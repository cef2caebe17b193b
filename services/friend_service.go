// services/friend_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"crdo-backend/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FriendView is one side of a friend relationship as seen by the caller.
type FriendView struct {
	ID             string              `json:"id"`
	Email          string              `json:"email"`
	RelationshipID string              `json:"relationshipId"`
	Status         models.FriendStatus `json:"status"`
	RequestedAt    time.Time           `json:"requestedAt"`
	RespondedAt    *time.Time          `json:"respondedAt"`
}

type FriendList struct {
	Friends              []FriendView `json:"friends"`
	PendingRequests      []FriendView `json:"pendingRequests"`
	SentRequests         []FriendView `json:"sentRequests"`
	TotalFriends         int          `json:"totalFriends"`
	TotalPendingRequests int          `json:"totalPendingRequests"`
	TotalSentRequests    int          `json:"totalSentRequests"`
}

// FriendAction is the addressee's answer to a pending request.
type FriendAction string

const (
	FriendAccept FriendAction = "accept"
	FriendReject FriendAction = "reject"
)

type FriendService struct {
	DB       *gorm.DB
	Profiles *ProfileRepository
	Now      func() time.Time
}

func NewFriendService(db *gorm.DB, profiles *ProfileRepository) *FriendService {
	return &FriendService{DB: db, Profiles: profiles, Now: time.Now}
}

// SendRequest creates a pending request from userID to the runner with
// friendEmail. An earlier rejected request does not block a new one.
func (s *FriendService) SendRequest(ctx context.Context, userID, friendEmail string) (*models.Friend, error) {
	if strings.TrimSpace(friendEmail) == "" {
		return nil, &ValidationError{Message: "Missing required field: friendEmail"}
	}

	friend, err := s.Profiles.FindByEmail(ctx, friendEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, dependency("find runner by email", err)
	}
	if friend.ExternalUserID == userID {
		return nil, ErrSelfFriendRequest
	}

	var existing models.Friend
	err = s.DB.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", userID, friend.ExternalUserID, friend.ExternalUserID, userID).
		Where("status IN ?", []models.FriendStatus{models.FriendStatusAccepted, models.FriendStatusPending}).
		First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == models.FriendStatusAccepted {
			return nil, ErrAlreadyFriends
		}
		return nil, ErrFriendRequestPending
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, dependency("check existing friend request", err)
	}

	req := &models.Friend{
		ID:          uuid.NewString(),
		UserID:      userID,
		FriendID:    friend.ExternalUserID,
		Status:      models.FriendStatusPending,
		RequestedAt: s.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(req).Error; err != nil {
		return nil, dependency("create friend request", err)
	}

	logrus.WithFields(logrus.Fields{"component": "friends", "user_id": userID, "friend_id": req.FriendID}).Info("friend request sent")
	return req, nil
}

// Respond accepts or rejects a pending request addressed to userID.
func (s *FriendService) Respond(ctx context.Context, userID, requestID string, action FriendAction) (models.FriendStatus, error) {
	if requestID == "" || action == "" {
		return "", &ValidationError{Message: "Missing required fields: requestId, action"}
	}

	var status models.FriendStatus
	switch action {
	case FriendAccept:
		status = models.FriendStatusAccepted
	case FriendReject:
		status = models.FriendStatusRejected
	default:
		return "", &ValidationError{Message: "Invalid action. Must be 'accept' or 'reject'"}
	}

	now := s.Now().UTC()
	res := s.DB.WithContext(ctx).
		Model(&models.Friend{}).
		Where("id = ? AND friend_id = ? AND status = ?", requestID, userID, models.FriendStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": &now,
		})
	if res.Error != nil {
		return "", dependency("update friend request", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", ErrFriendRequestNotFound
	}
	return status, nil
}

// List splits every relationship of userID into friends, incoming and sent
// requests. Relationships whose other side is not mirrored locally are skipped.
func (s *FriendService) List(ctx context.Context, userID string) (*FriendList, error) {
	var rels []models.Friend
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? OR friend_id = ?", userID, userID).
		Order("requested_at DESC").
		Find(&rels).Error; err != nil {
		return nil, dependency("list friends", err)
	}

	ids := make([]string, 0, len(rels))
	for _, r := range rels {
		ids = append(ids, otherSide(r, userID))
	}
	profiles, err := s.Profiles.ByExternalIDs(ctx, ids)
	if err != nil {
		return nil, dependency("load friend profiles", err)
	}

	return groupFriends(rels, profiles, userID), nil
}

func otherSide(r models.Friend, userID string) string {
	if r.UserID == userID {
		return r.FriendID
	}
	return r.UserID
}

func groupFriends(rels []models.Friend, profiles map[string]models.RunnerProfile, userID string) *FriendList {
	out := &FriendList{
		Friends:         []FriendView{},
		PendingRequests: []FriendView{},
		SentRequests:    []FriendView{},
	}
	for _, r := range rels {
		p, ok := profiles[otherSide(r, userID)]
		if !ok {
			continue
		}
		v := FriendView{
			ID:             p.ExternalUserID,
			Email:          p.Email,
			RelationshipID: r.ID,
			Status:         r.Status,
			RequestedAt:    r.RequestedAt,
			RespondedAt:    r.RespondedAt,
		}
		switch {
		case r.Status == models.FriendStatusAccepted:
			out.Friends = append(out.Friends, v)
		case r.Status == models.FriendStatusPending && r.UserID == userID:
			out.SentRequests = append(out.SentRequests, v)
		case r.Status == models.FriendStatusPending:
			out.PendingRequests = append(out.PendingRequests, v)
		}
	}
	out.TotalFriends = len(out.Friends)
	out.TotalPendingRequests = len(out.PendingRequests)
	out.TotalSentRequests = len(out.SentRequests)
	return out
}
