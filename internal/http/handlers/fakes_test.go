package handlers_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/nigmanand/portfolio-api/internal/domain/audit"
	"github.com/nigmanand/portfolio-api/internal/domain/content"
	"github.com/nigmanand/portfolio-api/internal/domain/user"
	"github.com/nigmanand/portfolio-api/internal/http/middlewares"
	"github.com/nigmanand/portfolio-api/internal/repo/postgres"
)

// Make sure Gin does not spam the console during the tests

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake repository implementations with per-test function fields.

type fakeContentStore struct {
	listFn       func(ctx context.Context, kind content.Kind, filter content.ListFilter) ([]content.Item, int, error)
	getFn        func(ctx context.Context, kind content.Kind, id string) (content.Item, error)
	getBySlugFn  func(ctx context.Context, slug string, publicOnly bool) (content.Item, error)
	slugExistsFn func(ctx context.Context, slug string) (bool, error)
	createFn     func(ctx context.Context, it content.Item) (content.Item, error)
	patchFn      func(ctx context.Context, kind content.Kind, id string, p content.Patch) (content.Item, error)
	deleteFn     func(ctx context.Context, kind content.Kind, id string) error
}

func (f *fakeContentStore) List(ctx context.Context, kind content.Kind, filter content.ListFilter) ([]content.Item, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, kind, filter)
	}

	return []content.Item{}, 0, nil
}

func (f *fakeContentStore) GetByID(ctx context.Context, kind content.Kind, id string) (content.Item, error) {
	if f.getFn != nil {
		return f.getFn(ctx, kind, id)
	}

	return content.Item{}, content.ErrNotFound
}

func (f *fakeContentStore) GetBySlug(ctx context.Context, slug string, publicOnly bool) (content.Item, error) {
	if f.getBySlugFn != nil {
		return f.getBySlugFn(ctx, slug, publicOnly)
	}

	return content.Item{}, content.ErrNotFound
}

func (f *fakeContentStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	if f.slugExistsFn != nil {
		return f.slugExistsFn(ctx, slug)
	}

	return false, nil
}

func (f *fakeContentStore) Create(ctx context.Context, it content.Item) (content.Item, error) {
	if f.createFn != nil {
		return f.createFn(ctx, it)
	}

	it.ID = "generated-id"
	return it, nil
}

func (f *fakeContentStore) Patch(ctx context.Context, kind content.Kind, id string, p content.Patch) (content.Item, error) {
	if f.patchFn != nil {
		return f.patchFn(ctx, kind, id, p)
	}

	return content.Item{}, content.ErrNotFound
}

func (f *fakeContentStore) Delete(ctx context.Context, kind content.Kind, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, kind, id)
	}

	return content.ErrNotFound
}

type fakeUserStore struct {
	createFn     func(ctx context.Context, email, passwordHash, name, role string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	getByIDFn    func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, email, passwordHash, name, role string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, passwordHash, name, role)
	}

	return user.User{}, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return user.User{}, user.ErrNotFound
}

type fakeProfileStore struct {
	getFn    func(ctx context.Context, visibleOnly bool) (postgres.Profile, error)
	upsertFn func(ctx context.Context, userID string, visibility *bool, attrs json.RawMessage) (postgres.Profile, bool, error)
}

func (f *fakeProfileStore) Get(ctx context.Context, visibleOnly bool) (postgres.Profile, error) {
	if f.getFn != nil {
		return f.getFn(ctx, visibleOnly)
	}

	return postgres.Profile{}, postgres.ErrProfileNotFound
}

func (f *fakeProfileStore) Upsert(ctx context.Context, userID string, visibility *bool, attrs json.RawMessage) (postgres.Profile, bool, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, userID, visibility, attrs)
	}

	return postgres.Profile{}, false, nil
}

// fakeRecorder captures audit entries synchronously so tests can assert on the
// side effect of each mutation.
type fakeRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (f *fakeRecorder) Record(_ context.Context, e audit.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append(f.entries, e)
}

func (f *fakeRecorder) recorded() []audit.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]audit.Entry, len(f.entries))
	copy(out, f.entries)

	return out
}

// identity helpers

var adminIdentity = middlewares.Identity{
	ID:    "admin-1",
	Email: "admin@example.com",
	Role:  user.RoleAdmin,
}

// asIdentity stands in for the auth middleware and stashes a fixed identity.
func asIdentity(ident middlewares.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		middlewares.SetIdentity(c, ident)
		c.Next()
	}
}

// setupRouter mounts one handler (plus optional middleware) per test.
func setupRouter(method, path string, chain ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, chain...)

	return r
}
