package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"github.com/todosuite/user-service/internal/domain"
	"github.com/todosuite/user-service/internal/repository"
	repogomock "github.com/todosuite/user-service/internal/repository/gomock"
)

type userFixture struct {
	repo  *repogomock.MockUserRepository
	cache *InMemoryUserListCacheStore
	svc   *UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	cache := NewInMemoryUserListCacheStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &userFixture{
		repo:  repo,
		cache: cache,
		svc:   NewUserService(repo, cache, time.Minute, logger),
	}
}

func TestGetByIDMapsNotFound(t *testing.T) {
	fx := newUserFixture(t)
	fx.repo.EXPECT().FindByID("u-404").Return(nil, gorm.ErrRecordNotFound)
	if _, err := fx.svc.GetByID("u-404"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestGetStaffs(t *testing.T) {
	t.Run("empty list is an error", func(t *testing.T) {
		fx := newUserFixture(t)
		fx.repo.EXPECT().ListStaff().Return(nil, nil)
		if _, err := fx.svc.GetStaffs(); !errors.Is(err, ErrNoStaff) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("returns contacts", func(t *testing.T) {
		fx := newUserFixture(t)
		want := []repository.StaffContact{{ID: "u-1", Email: "staff@example.com"}}
		fx.repo.EXPECT().ListStaff().Return(want, nil)
		got, err := fx.svc.GetStaffs()
		if err != nil {
			t.Fatalf("staffs: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %v", got)
		}
	})
}

func samplePage() *repository.PageResult[domain.User] {
	return &repository.PageResult[domain.User]{
		Items:      []domain.User{{ID: "u-1", Name: "Grace"}},
		Page:       1,
		PageSize:   10,
		Total:      1,
		TotalPages: 1,
	}
}

func TestListCachesIdenticalQueries(t *testing.T) {
	fx := newUserFixture(t)
	ctx := context.Background()
	in := UserListInput{Search: "grace", Sort: "name,desc", Page: 1, Limit: 10}

	fx.repo.EXPECT().Search(repository.UserQuery{
		Search:   "grace",
		SortBy:   "name",
		SortDesc: true,
		Page:     repository.PageRequest{Page: 1, PageSize: 10},
	}).Return(samplePage(), nil).Times(1)

	first, cached, err := fx.svc.List(ctx, in)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if cached {
		t.Fatal("first call must be a miss")
	}
	if first.TotalUsers != 1 || first.TotalPage != 1 || first.Page != 1 || first.Limit != 10 {
		t.Fatalf("page = %+v", first)
	}

	second, cached, err := fx.svc.List(ctx, in)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !cached {
		t.Fatal("second identical call must hit the cache")
	}
	if !reflect.DeepEqual(first.Users, second.Users) {
		t.Fatal("cached payload differs")
	}
}

func TestListCacheIsInvalidatedByMutations(t *testing.T) {
	fx := newUserFixture(t)
	ctx := context.Background()
	in := UserListInput{Page: 1, Limit: 10}

	fx.repo.EXPECT().Search(gomock.Any()).Return(samplePage(), nil).Times(2)

	if _, _, err := fx.svc.List(ctx, in); err != nil {
		t.Fatalf("list: %v", err)
	}

	fx.repo.EXPECT().UpdateFields("u-1", map[string]any{"status": "inactive"}).Return(nil)
	if err := fx.svc.UpdateStatus(ctx, "u-1", "inactive"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if _, cached, err := fx.svc.List(ctx, in); err != nil || cached {
		t.Fatalf("expected fresh query after invalidation: cached=%v err=%v", cached, err)
	}
}

func TestListAllBypassesPaging(t *testing.T) {
	fx := newUserFixture(t)
	fx.repo.EXPECT().Search(repository.UserQuery{
		SortBy: "name",
		Page:   repository.PageRequest{All: true},
	}).Return(&repository.PageResult[domain.User]{
		Items:      []domain.User{{ID: "u-1"}, {ID: "u-2"}},
		Page:       1,
		PageSize:   2,
		Total:      2,
		TotalPages: 1,
	}, nil)

	page, _, err := fx.svc.List(context.Background(), UserListInput{All: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalUsers != 2 || page.Limit != 2 {
		t.Fatalf("page = %+v", page)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	fx := newUserFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.UpdateProfile(ctx, "u-1", UpdateProfileInput{Name: "Grace", Password: "Password123", ConfirmPassword: "Other1"}); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("got %v", err)
	}
	if _, err := fx.svc.UpdateProfile(ctx, "u-1", UpdateProfileInput{Name: "Grace", Password: "weak", ConfirmPassword: "weak"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("got %v", err)
	}
	if _, err := fx.svc.UpdateProfile(ctx, "u-1", UpdateProfileInput{Name: "Al"}); !errors.Is(err, ErrNameTooShort) {
		t.Fatalf("got %v", err)
	}
}

func TestUpdateProfilePatchesFieldsAndRefetches(t *testing.T) {
	fx := newUserFixture(t)
	in := UpdateProfileInput{
		PersonalID:  "EMP-7",
		Name:        "Grace",
		Email:       "grace@example.com",
		Image:       "profile-images/u-1/a.png",
		Address:     "12 Harbor St",
		PhoneNumber: "555-0102",
	}
	var fields map[string]any
	fx.repo.EXPECT().UpdateFields("u-1", gomock.Any()).DoAndReturn(func(_ string, f map[string]any) error {
		fields = f
		return nil
	})
	fx.repo.EXPECT().FindByID("u-1").Return(&domain.User{ID: "u-1", Name: "Grace"}, nil)

	got, err := fx.svc.UpdateProfile(context.Background(), "u-1", in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ID != "u-1" {
		t.Fatalf("user = %+v", got)
	}
	if _, ok := fields["password_hash"]; ok {
		t.Fatal("password must not be written when not provided")
	}
	for _, key := range []string{"personal_id", "name", "email", "image", "address", "phone_number"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing field %q in patch", key)
		}
	}
}

func TestUpdateRoleValidatesBeforeLookup(t *testing.T) {
	fx := newUserFixture(t)
	ctx := context.Background()

	// No FindByID expectation: validation rejects first.
	if _, err := fx.svc.UpdateRole(ctx, "u-1", []domain.Role{domain.RoleAdminApp2}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("got %v", err)
	}
	four := []domain.Role{domain.RoleUser, domain.RoleUser, domain.RoleUser, domain.RoleUser}
	if _, err := fx.svc.UpdateRole(ctx, "u-1", four); !errors.Is(err, ErrTooManyRoles) {
		t.Fatalf("got %v", err)
	}
}

func TestUpdateRoleMergesPositionally(t *testing.T) {
	fx := newUserFixture(t)
	user := &domain.User{ID: "u-1", Roles: domain.RoleList{domain.RoleUser, domain.RoleAdminApp1}}
	fx.repo.EXPECT().FindByID("u-1").Return(user, nil)
	var saved *domain.User
	fx.repo.EXPECT().Update(gomock.Any()).DoAndReturn(func(u *domain.User) error {
		saved = u
		return nil
	})

	merged, err := fx.svc.UpdateRole(context.Background(), "u-1", []domain.Role{domain.RoleStaffApp1})
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	want := domain.RoleList{domain.RoleStaffApp1, domain.RoleAdminApp1}
	if !reflect.DeepEqual(merged, want) {
		t.Fatalf("merged = %v, want %v", merged, want)
	}
	if !reflect.DeepEqual(saved.Roles, want) {
		t.Fatalf("saved roles = %v", saved.Roles)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	fx := newUserFixture(t)
	if err := fx.svc.UpdateStatus(context.Background(), "u-1", "suspended"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("got %v", err)
	}
}

func TestSetImageRecordsObjectKey(t *testing.T) {
	fx := newUserFixture(t)
	fx.repo.EXPECT().UpdateFields("u-1", map[string]any{"image": "profile-images/u-1/x.png"}).Return(nil)
	if err := fx.svc.SetImage(context.Background(), "u-1", "profile-images/u-1/x.png"); err != nil {
		t.Fatalf("set image: %v", err)
	}
}
