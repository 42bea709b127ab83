package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lmoren/listly-be/internal/apperr"
	"github.com/lmoren/listly-be/internal/docstore"
	"github.com/lmoren/listly-be/internal/models"
	ws "github.com/lmoren/listly-be/internal/websocket"
)

const (
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8

	// codeAttempts bounds the re-roll loop when a freshly minted code
	// collides with an existing one.
	codeAttempts = 5
)

// SharingServiceProvider defines the interface for list-sharing services.
type SharingServiceProvider interface {
	ConvertToSharedList(ctx context.Context, listID, userID string) (string, error)
	JoinSharedList(ctx context.Context, invitationCode, userID string) (string, error)
	ShareListWithUser(ctx context.Context, listID, username string) error
	GetSharedLists(ctx context.Context, userID string) ([]models.List, error)
}

// SharingService provides business logic for invitation codes and shared
// list membership. It layers on the same list documents the ListService
// owns; membership writes touch only the sharedWith and invitationCode
// fields.
type SharingService struct {
	store  docstore.Store
	lists  ListServiceProvider
	users  UserServiceProvider
	events EventServiceProvider
	hub    Publisher
}

// NewSharingService creates a new SharingService.
func NewSharingService(store docstore.Store, lists ListServiceProvider, users UserServiceProvider, events EventServiceProvider, hub Publisher) *SharingService {
	return &SharingService{store: store, lists: lists, users: users, events: events, hub: hub}
}

// GenerateInvitationCode produces an 8-character code drawn uniformly from
// the 62-character alphanumeric alphabet. Uniqueness against existing codes
// is the caller's concern.
func GenerateInvitationCode() (string, error) {
	code := make([]byte, codeLength)
	buf := make([]byte, 1)
	for i := 0; i < codeLength; {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		// Rejection sampling keeps the draw uniform: 248 is the largest
		// multiple of 62 below 256.
		if buf[0] >= 248 {
			continue
		}
		code[i] = codeAlphabet[int(buf[0])%len(codeAlphabet)]
		i++
	}
	return string(code), nil
}

// ConvertToSharedList marks a list as shared by the given user and returns a
// fresh invitation code. The membership add is idempotent; the code is
// rotated on every call, invalidating any previously issued code.
func (s *SharingService) ConvertToSharedList(ctx context.Context, listID, userID string) (string, error) {
	list, err := s.lists.GetListByID(ctx, listID)
	if err != nil {
		return "", err
	}

	code, err := s.mintUniqueCode(ctx, listID)
	if err != nil {
		return "", err
	}

	sharedWith := list.SharedWith
	if userID != "" && !list.HasMember(userID) {
		sharedWith = append(sharedWith, userID)
	}

	err = s.store.ReplaceFields(ctx, docstore.CollectionLists, listID, docstore.Fields{
		"sharedWith":     sharedWith,
		"invitationCode": code,
	})
	if err == docstore.ErrNotFound {
		return "", apperr.NotFound("list", listID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to share list: %w", err)
	}

	s.appendEvent(ctx, "list.share", fmt.Sprintf("List %q was shared.", list.Name), listID)
	s.notify(listID, ws.ActionListShared, map[string]string{"listId": listID})
	return code, nil
}

// JoinSharedList adds userID to the list behind the invitation code and
// returns the list id. Joining a list the user already belongs to succeeds
// without duplicating the membership.
func (s *SharingService) JoinSharedList(ctx context.Context, invitationCode, userID string) (string, error) {
	invitationCode = strings.TrimSpace(invitationCode)
	if invitationCode == "" {
		return "", apperr.Validation("invitation code must not be empty")
	}

	docs, err := s.store.QueryEquals(ctx, docstore.CollectionLists, "invitationCode", invitationCode)
	if err != nil {
		return "", fmt.Errorf("failed to look up invitation code: %w", err)
	}
	if len(docs) == 0 {
		return "", apperr.NotFound("invitation code", invitationCode)
	}

	var list models.List
	if err := docstore.Decode(docs[0].Fields, &list); err != nil {
		return "", err
	}
	list.ID = docs[0].ID

	if !list.HasMember(userID) {
		sharedWith := append(list.SharedWith, userID)
		err = s.store.ReplaceFields(ctx, docstore.CollectionLists, list.ID, docstore.Fields{"sharedWith": sharedWith})
		if err == docstore.ErrNotFound {
			return "", apperr.NotFound("list", list.ID)
		}
		if err != nil {
			return "", fmt.Errorf("failed to join list: %w", err)
		}

		s.appendEvent(ctx, "list.join", fmt.Sprintf("A user joined list %q.", list.Name), list.ID)
		s.notify(list.ID, ws.ActionMemberJoined, map[string]string{"listId": list.ID, "userId": userID})
	}
	return list.ID, nil
}

// ShareListWithUser grants a user access to a list directly by username,
// without an invitation code. Sharing twice with the same user is a no-op.
func (s *SharingService) ShareListWithUser(ctx context.Context, listID, username string) error {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	list, err := s.lists.GetListByID(ctx, listID)
	if err != nil {
		return err
	}
	if list.HasMember(user.ID) {
		return nil
	}

	sharedWith := append(list.SharedWith, user.ID)
	err = s.store.ReplaceFields(ctx, docstore.CollectionLists, listID, docstore.Fields{"sharedWith": sharedWith})
	if err == docstore.ErrNotFound {
		return apperr.NotFound("list", listID)
	}
	if err != nil {
		return fmt.Errorf("failed to share list: %w", err)
	}

	s.appendEvent(ctx, "list.member.add", fmt.Sprintf("User %q was added to list %q.", user.Username, list.Name), listID)
	s.notify(listID, ws.ActionMemberJoined, map[string]string{"listId": listID, "userId": user.ID})
	return nil
}

// GetSharedLists returns every list whose sharedWith contains userID.
func (s *SharingService) GetSharedLists(ctx context.Context, userID string) ([]models.List, error) {
	docs, err := s.store.QueryArrayContains(ctx, docstore.CollectionLists, "sharedWith", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shared lists: %w", err)
	}
	return decodeLists(docs)
}

// mintUniqueCode generates codes until one does not collide with a code held
// by another list, giving up after codeAttempts tries.
func (s *SharingService) mintUniqueCode(ctx context.Context, listID string) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := GenerateInvitationCode()
		if err != nil {
			return "", err
		}

		docs, err := s.store.QueryEquals(ctx, docstore.CollectionLists, "invitationCode", code)
		if err != nil {
			return "", fmt.Errorf("failed to check code uniqueness: %w", err)
		}

		clash := false
		for _, doc := range docs {
			if doc.ID != listID {
				clash = true
				break
			}
		}
		if !clash {
			return code, nil
		}
		log.Warn().Str("list_id", listID).Int("attempt", attempt+1).Msg("Invitation code collision, re-rolling")
	}
	return "", apperr.Conflict("could not mint a unique invitation code after %d attempts", codeAttempts)
}

func (s *SharingService) appendEvent(ctx context.Context, eventType, message, listID string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, eventType, "info", message, &listID); err != nil {
		log.Error().Err(err).Str("list_id", listID).Str("type", eventType).Msg("Failed to append event")
	}
}

func (s *SharingService) notify(listID, action string, payload any) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastTo(listID, ws.NewMessage(action, payload))
}
