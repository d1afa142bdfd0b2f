package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/todosuite/user-service/internal/domain"
	"github.com/todosuite/user-service/internal/observability"
	"github.com/todosuite/user-service/internal/repository"
	"github.com/todosuite/user-service/internal/security"
)

var (
	ErrNoStaff       = errors.New("No staff found.")
	ErrInvalidStatus = errors.New("Invalid user status")
)

const userListNamespace = "users"

// UserService covers the profile and admin surface: lookups, the listing
// query, profile edits and the role/status mutations. Listing responses are
// cached per query string and every mutation drops the whole namespace.
type UserService struct {
	userRepo  repository.UserRepository
	listCache UserListCacheStore
	cacheTTL  time.Duration
	logger    *slog.Logger
}

func NewUserService(userRepo repository.UserRepository, listCache UserListCacheStore, cacheTTL time.Duration, logger *slog.Logger) *UserService {
	return &UserService{userRepo: userRepo, listCache: listCache, cacheTTL: cacheTTL, logger: logger}
}

func (s *UserService) GetByID(id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetStaffs lists id and email of every app-1 staff member, for the client's
// notification fan-out.
func (s *UserService) GetStaffs() ([]repository.StaffContact, error) {
	staff, err := s.userRepo.ListStaff()
	if err != nil {
		return nil, err
	}
	if len(staff) == 0 {
		return nil, ErrNoStaff
	}
	return staff, nil
}

type UserListInput struct {
	Search string
	// Sort is "field" or "field,dir".
	Sort  string
	Page  int
	Limit int
	All   bool
}

type UserListPage struct {
	TotalUsers int64         `json:"totalUsers"`
	TotalPage  int           `json:"totalPage"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Users      []domain.User `json:"users"`
}

// List runs the searchable, sortable, paginated user listing. Results are
// served from the list cache when an identical query was answered within the
// TTL; the second return reports a cache hit.
func (s *UserService) List(ctx context.Context, in UserListInput) (*UserListPage, bool, error) {
	key := fmt.Sprintf("search=%s&sort=%s&page=%d&limit=%d&all=%t", in.Search, in.Sort, in.Page, in.Limit, in.All)
	if payload, ok, err := s.listCache.Get(ctx, userListNamespace, key); err != nil {
		s.logger.WarnContext(ctx, "user list cache read failed", "error", err)
	} else if ok {
		var page UserListPage
		if err := json.Unmarshal(payload, &page); err == nil {
			observability.RecordListCacheEvent(ctx, "hit")
			return &page, true, nil
		}
	}
	observability.RecordListCacheEvent(ctx, "miss")

	sortBy, sortDesc := parseSort(in.Sort)
	result, err := s.userRepo.Search(repository.UserQuery{
		Search:   in.Search,
		SortBy:   sortBy,
		SortDesc: sortDesc,
		Page:     repository.PageRequest{Page: in.Page, PageSize: in.Limit, All: in.All},
	})
	if err != nil {
		return nil, false, err
	}

	page := &UserListPage{
		TotalUsers: result.Total,
		TotalPage:  result.TotalPages,
		Page:       result.Page,
		Limit:      result.PageSize,
		Users:      result.Items,
	}
	if payload, err := json.Marshal(page); err == nil {
		if err := s.listCache.Set(ctx, userListNamespace, key, payload, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "user list cache write failed", "error", err)
		}
	}
	return page, false, nil
}

type UpdateProfileInput struct {
	PersonalID      string
	Name            string
	Email           string
	Image           string
	Address         string
	PhoneNumber     string
	Password        string
	ConfirmPassword string
}

// UpdateProfile patches the caller's own record. A new password rides along
// only when provided and passes the same checks as sign-up.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.User, error) {
	if in.Password != "" {
		if in.Password != in.ConfirmPassword {
			return nil, ErrPasswordMismatch
		}
		if !validPassword(in.Password) {
			return nil, ErrWeakPassword
		}
	}
	if len(in.Name) < 3 {
		return nil, ErrNameTooShort
	}
	// Unreachable behind the length check; kept for the distinct message.
	if in.Name == "" {
		return nil, ErrNameEmpty
	}

	fields := map[string]any{
		"personal_id":  in.PersonalID,
		"name":         in.Name,
		"email":        in.Email,
		"image":        in.Image,
		"address":      in.Address,
		"phone_number": in.PhoneNumber,
	}
	if in.Password != "" {
		hash, err := security.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}
	if err := s.userRepo.UpdateFields(userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.invalidateListCache(ctx)
	return s.GetByID(userID)
}

// UpdateRole merges the requested role list into the user's current roles
// with the positional patch semantics of MergeRoles. The request is validated
// before the target user is even looked up.
func (s *UserService) UpdateRole(ctx context.Context, userID string, requested []domain.Role) (domain.RoleList, error) {
	for _, r := range requested {
		if !domain.IsAssignable(r) {
			return nil, ErrInvalidRole
		}
	}
	if len(requested) > domain.MaxRolesPerUser {
		return nil, ErrTooManyRoles
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	merged, err := MergeRoles(user.Roles, requested)
	if err != nil {
		return nil, err
	}
	user.Roles = merged
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	return merged, nil
}

func (s *UserService) UpdateStatus(ctx context.Context, userID, status string) error {
	switch domain.UserStatus(status) {
	case domain.StatusActive, domain.StatusInactive:
	default:
		return ErrInvalidStatus
	}
	if err := s.userRepo.UpdateFields(userID, map[string]any{"status": status}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

// SetImage records the object key of the stored profile image.
func (s *UserService) SetImage(ctx context.Context, userID, objectKey string) error {
	if err := s.userRepo.UpdateFields(userID, map[string]any{"image": objectKey}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

func (s *UserService) invalidateListCache(ctx context.Context) {
	if err := s.listCache.InvalidateNamespace(ctx, userListNamespace); err != nil {
		s.logger.WarnContext(ctx, "user list cache invalidation failed", "error", err)
		return
	}
	observability.RecordListCacheEvent(ctx, "invalidate")
}

func parseSort(sort string) (string, bool) {
	if sort == "" {
		return "name", false
	}
	parts := strings.SplitN(sort, ",", 2)
	field := strings.TrimSpace(parts[0])
	if field == "" {
		field = "name"
	}
	desc := len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "desc")
	return field, desc
}
