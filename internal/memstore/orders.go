package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/epharmacy/internal/domain"
)

type orderStore struct{ s *Store }

func (st orderStore) Get(_ context.Context, id string) (*domain.Order, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	for _, o := range st.s.orders {
		if o.ID == id {
			return copyOrder(o), nil
		}
	}
	return nil, domain.ErrNoDocument
}

// List returns matches newest first.
func (st orderStore) List(_ context.Context, f domain.OrderFilter) ([]domain.Order, int, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var matches []domain.Order
	for i := len(st.s.orders) - 1; i >= 0; i-- {
		o := st.s.orders[i]
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		matches = append(matches, *copyOrder(o))
	}
	return paginate(matches, f.Page), len(matches), nil
}

func (st orderStore) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	for _, o := range st.s.orders {
		if o.ID == id {
			o.Status = status
			o.UpdatedAt = st.s.now().UTC()
			return copyOrder(o), nil
		}
	}
	return nil, domain.ErrNoDocument
}

type reviewStore struct{ s *Store }

func reviewKey(userID, productID string) string {
	return userID + "|" + productID
}

func (rs reviewStore) Create(_ context.Context, r *domain.Review) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	key := reviewKey(r.UserID, r.ProductID)
	if _, exists := rs.s.reviewKeys[key]; exists {
		return domain.ErrDuplicate
	}
	r.ID = newID()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = rs.s.now().UTC()
	}
	stored := *r
	rs.s.reviews = append(rs.s.reviews, &stored)
	rs.s.reviewKeys[key] = struct{}{}
	return nil
}

func (rs reviewStore) List(_ context.Context, f domain.ReviewFilter) ([]domain.Review, int, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	// Reverse insertion order is newest first; stable sorts below keep it
	// as the tie-breaker.
	var matches []domain.Review
	for i := len(rs.s.reviews) - 1; i >= 0; i-- {
		r := rs.s.reviews[i]
		if f.ProductID != "" && r.ProductID != f.ProductID {
			continue
		}
		matches = append(matches, *r)
	}

	switch f.Sort {
	case domain.ReviewSortOldest:
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
	case domain.ReviewSortRatingAsc:
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Rating < matches[j].Rating })
	case domain.ReviewSortRatingDesc:
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Rating > matches[j].Rating })
	}
	return paginate(matches, f.Page), len(matches), nil
}

func (rs reviewStore) Stats(_ context.Context, productID string) (domain.ReviewStats, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	var st domain.ReviewStats
	sum := 0
	for _, r := range rs.s.reviews {
		if productID != "" && r.ProductID != productID {
			continue
		}
		st.Count++
		sum += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			st.Distribution[r.Rating]++
		}
	}
	if st.Count > 0 {
		st.AvgRating = roundTo2(float64(sum) / float64(st.Count))
	}
	return st, nil
}

type userStore struct{ s *Store }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (us userStore) Create(_ context.Context, u *domain.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	email := normalizeEmail(u.Email)
	if _, taken := us.s.emails[email]; taken {
		return domain.ErrDuplicate
	}
	u.ID = newID()
	u.Email = email
	now := us.s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	stored := *u
	us.s.users[u.ID] = &stored
	us.s.emails[email] = u.ID
	return nil
}

func (us userStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	u, ok := us.s.users[id]
	if !ok {
		return nil, domain.ErrNoDocument
	}
	out := *u
	return &out, nil
}

func (us userStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	id, ok := us.s.emails[normalizeEmail(email)]
	if !ok {
		return nil, domain.ErrNoDocument
	}
	out := *us.s.users[id]
	return &out, nil
}

func (us userStore) Update(_ context.Context, u *domain.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	cur, ok := us.s.users[u.ID]
	if !ok {
		return domain.ErrNoDocument
	}
	email := normalizeEmail(u.Email)
	if owner, taken := us.s.emails[email]; taken && owner != u.ID {
		return domain.ErrDuplicate
	}
	delete(us.s.emails, cur.Email)
	u.Email = email
	u.UpdatedAt = us.s.now().UTC()

	stored := *u
	us.s.users[u.ID] = &stored
	us.s.emails[email] = u.ID
	return nil
}

func (us userStore) List(_ context.Context, page domain.PageRequest) ([]domain.User, int, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	all := make([]domain.User, 0, len(us.s.users))
	for _, u := range us.s.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page), len(all), nil
}

type tokenStore struct{ s *Store }

func (ts tokenStore) Revoke(_ context.Context, hash string, expiresAt time.Time) error {
	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()

	ts.s.tokens[hash] = expiresAt
	return nil
}

func (ts tokenStore) IsRevoked(_ context.Context, hash string) (bool, error) {
	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()

	exp, ok := ts.s.tokens[hash]
	if !ok {
		return false, nil
	}
	if ts.s.now().After(exp) {
		delete(ts.s.tokens, hash)
		return false, nil
	}
	return true, nil
}

func (ts tokenStore) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()

	var n int64
	for hash, exp := range ts.s.tokens {
		if exp.Before(cutoff) {
			delete(ts.s.tokens, hash)
			n++
		}
	}
	return n, nil
}
