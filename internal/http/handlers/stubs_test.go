package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/entitlement"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/genai"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/middleware"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/quota"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/watch"
)

type fakeAccountRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: make(map[string]*domain.Account)}
}

func (f *fakeAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == a.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	stored := *a
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Subscription.Status == "" {
		stored.Subscription.Status = domain.SubscriptionFree
		stored.Subscription.Plan = domain.PlanFree
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	f.byID[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == email {
			out := *a
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAccountRepo) Activate(_ context.Context, id, plan, billingRef string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a.Subscription.Status = domain.SubscriptionActive
	a.Subscription.Plan = plan
	if billingRef != "" {
		a.Subscription.BillingRef = billingRef
	}
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

func (f *fakeAccountRepo) Deactivate(_ context.Context, billingRef string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if billingRef != "" && a.Subscription.BillingRef == billingRef {
			a.Subscription.Status = domain.SubscriptionFree
			a.Subscription.Plan = domain.PlanFree
			a.UpdatedAt = time.Now()
			out := *a
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeFavoriteRepo struct {
	mu   sync.Mutex
	favs map[string]*domain.Favorite
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{favs: make(map[string]*domain.Favorite)}
}

func (f *fakeFavoriteRepo) Create(_ context.Context, fav *domain.Favorite) (*domain.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *fav
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now()
	f.favs[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeFavoriteRepo) ListByAccount(_ context.Context, accountID string, limit int) ([]domain.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Favorite
	for _, fav := range f.favs {
		if fav.AccountID == accountID {
			out = append(out, *fav)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeFavoriteRepo) Delete(_ context.Context, accountID, favoriteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fav, ok := f.favs[favoriteID]
	if !ok || fav.AccountID != accountID {
		return domain.ErrNotFound
	}
	delete(f.favs, favoriteID)
	return nil
}

// stubGenerator records how often the provider was reached so tests can
// assert that denied requests never cost a provider call.
type stubGenerator struct {
	mu    sync.Mutex
	calls int
	items []string
	err   error
}

func (s *stubGenerator) Generate(_ context.Context, _ genai.Request) (*genai.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	items := s.items
	if items == nil {
		items = []string{"first idea", "second idea", "third idea"}
	}
	return &genai.Result{Items: items, Model: "stub"}, nil
}

func (s *stubGenerator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type testFixture struct {
	app       *App
	accounts  *fakeAccountRepo
	favorites *fakeFavoriteRepo
	generator *stubGenerator
	gate      *entitlement.Gate
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	accounts := newFakeAccountRepo()
	favorites := newFakeFavoriteRepo()
	generator := &stubGenerator{}
	gate := entitlement.New(quota.NewLocal(), quota.NewLocal(), entitlement.Config{DailyLimit: 3})
	app := &App{
		Logger:    zerolog.Nop(),
		Accounts:  accounts,
		Favorites: favorites,
		Gate:      gate,
		Generator: generator,
		Hub:       watch.NewHub(zerolog.Nop()),
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
	return &testFixture{
		app:       app,
		accounts:  accounts,
		favorites: favorites,
		generator: generator,
		gate:      gate,
	}
}

// seedAccount registers an account directly in the fake store.
func (f *testFixture) seedAccount(t *testing.T, email string, status domain.SubscriptionStatus) *domain.Account {
	t.Helper()
	plan := domain.PlanFree
	if status == domain.SubscriptionActive {
		plan = domain.PlanPro
	}
	account, err := f.accounts.Create(context.Background(), &domain.Account{
		Email:        email,
		PasswordHash: "x",
		Locale:       "en",
		Subscription: domain.Subscription{Status: status, Plan: plan},
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

// asAccount stamps the request context the way the auth middleware would.
func asAccount(r *http.Request, accountID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), accountID))
}

func do(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}
