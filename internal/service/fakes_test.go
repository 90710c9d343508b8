package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.User
	rated  map[uint64][]uint64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[uint64]*model.User{}, rated: map[uint64][]uint64{}}
}

func (f *fakeUsers) EmailExists(_ context.Context, email string, excludeID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.rows {
		if id != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.rows {
		if strings.EqualFold(ex.Email, u.Email) {
			return 0, repository.ErrDuplicate
		}
	}
	f.nextID++
	cp := *u
	cp.ID = f.nextID
	f.rows[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) List(_ context.Context, flt model.UserFilter) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.rows {
		if flt.Role != "" && u.Role != flt.Role {
			continue
		}
		if flt.Name != "" && !strings.Contains(u.Name, flt.Name) {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, id uint64, upd model.UserUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Address != nil {
		u.Address = upd.Address
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.rows, id)
	return f.rated[id], nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

type fakeTokens struct {
	mu   sync.Mutex
	rows map[string]*model.RefreshToken
}

func newFakeTokens() *fakeTokens { return &fakeTokens{rows: map[string]*model.RefreshToken{}} }

func (f *fakeTokens) Store(_ context.Context, userID uint64, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[token]; ok {
		return repository.ErrDuplicate
	}
	f.rows[token] = &model.RefreshToken{ID: uint64(len(f.rows) + 1), UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeTokens) FindActive(_ context.Context, token string, now time.Time) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.rows[token]
	if !ok || !rt.ExpiresAt.After(now) {
		return nil, repository.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (f *fakeTokens) Delete(_ context.Context, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[token]; !ok {
		return 0, nil
	}
	delete(f.rows, token)
	return 1, nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeStores struct {
	mu         sync.Mutex
	nextID     uint64
	rows       map[uint64]*model.Store
	recomputed []uint64
}

func newFakeStores() *fakeStores { return &fakeStores{rows: map[uint64]*model.Store{}} }

func (f *fakeStores) add(s model.Store) uint64 {
	id, _ := f.Create(context.Background(), &s)
	return id
}

func (f *fakeStores) EmailExists(_ context.Context, email string, excludeID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.rows {
		if id != excludeID && strings.EqualFold(s.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStores) Create(_ context.Context, s *model.Store) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *s
	cp.ID = f.nextID
	f.rows[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeStores) Exists(_ context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakeStores) GetView(_ context.Context, id uint64) (*model.StoreView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.StoreView{ID: s.ID, Name: s.Name, Email: s.Email, Address: s.Address, OwnerID: s.OwnerID}, nil
}

func (f *fakeStores) GetByOwner(_ context.Context, ownerID uint64) (*model.Store, *float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.OwnerID != nil && *s.OwnerID == ownerID {
			cp := *s
			if cp.AverageRating == 0 {
				return &cp, nil, nil
			}
			avg := cp.AverageRating
			return &cp, &avg, nil
		}
	}
	return nil, nil, repository.ErrNotFound
}

func (f *fakeStores) List(_ context.Context, _ model.StoreFilter) ([]model.StoreView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StoreView
	for _, s := range f.rows {
		out = append(out, model.StoreView{ID: s.ID, Name: s.Name, Email: s.Email, Address: s.Address, OwnerID: s.OwnerID})
	}
	return out, nil
}

func (f *fakeStores) ListForUser(_ context.Context, _ uint64, _ model.StoreFilter) ([]model.UserStoreView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.UserStoreView
	for _, s := range f.rows {
		out = append(out, model.UserStoreView{StoreID: s.ID, StoreName: s.Name, StoreAddress: s.Address})
	}
	return out, nil
}

func (f *fakeStores) Update(_ context.Context, id uint64, upd model.StoreUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.Name != nil {
		s.Name = *upd.Name
	}
	if upd.Email != nil {
		s.Email = *upd.Email
	}
	if upd.Address != nil {
		s.Address = *upd.Address
	}
	if upd.ClearOwner {
		s.OwnerID = nil
	} else if upd.OwnerID != nil {
		s.OwnerID = upd.OwnerID
	}
	return nil
}

func (f *fakeStores) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeStores) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

func (f *fakeStores) RecomputeAverage(_ context.Context, storeID uint64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputed = append(f.recomputed, storeID)
	if _, ok := f.rows[storeID]; !ok {
		return 0, repository.ErrNotFound
	}
	return f.rows[storeID].AverageRating, nil
}

type fakeRatings struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Rating
}

func newFakeRatings() *fakeRatings { return &fakeRatings{rows: map[uint64]*model.Rating{}} }

func (f *fakeRatings) Create(_ context.Context, r *model.Rating) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.rows {
		if ex.UserID == r.UserID && ex.StoreID == r.StoreID {
			return 0, repository.ErrDuplicate
		}
	}
	f.nextID++
	cp := *r
	cp.ID = f.nextID
	f.rows[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeRatings) GetByID(_ context.Context, id uint64) (*model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRatings) ExistsForUser(_ context.Context, userID, storeID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.UserID == userID && r.StoreID == storeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRatings) UpdateValue(_ context.Context, id uint64, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Rating = value
	return nil
}

func (f *fakeRatings) ListForStore(_ context.Context, storeID uint64) ([]model.ReceivedRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ReceivedRating{}
	for _, r := range f.rows {
		if r.StoreID == storeID {
			out = append(out, model.ReceivedRating{UserID: r.UserID, SubmittedRating: r.Rating})
		}
	}
	return out, nil
}

func (f *fakeRatings) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

// plainHasher keeps tests fast; bcrypt itself is covered in utils.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }
func (plainHasher) Verify(h, p string) bool      { return h == "h:"+p }

type recordingScheduler struct {
	mu  sync.Mutex
	ids []uint64
}

func (r *recordingScheduler) Schedule(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *recordingScheduler) scheduled() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.ids...)
}

type countingObserver struct {
	mu     sync.Mutex
	events map[string]int
	recomp int
}

func (o *countingObserver) AuthEvent(op, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.events == nil {
		o.events = map[string]int{}
	}
	o.events[op+"/"+outcome]++
}

func (o *countingObserver) AverageRecomputed(bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recomp++
}
