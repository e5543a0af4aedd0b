package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/complaint-desk/internal/models"
	"github.com/noah-isme/complaint-desk/internal/repository"
)

var errStoreDown = errors.New("store down")

// memoryStore backs the repository fakes. Every write advances the clock by one second.
type memoryStore struct {
	mu         sync.Mutex
	now        time.Time
	nextID     int64
	users      map[string]*models.User
	complaints []*models.Complaint
	messages   []*models.ComplaintMessage
	failWith   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		now:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		users: map[string]*models.User{},
	}
}

func (s *memoryStore) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *memoryStore) addUser(id, name string, role models.Role) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.tick()
	user := &models.User{ID: id, Email: id + "@example.com", Name: name, Role: role, CreatedAt: ts, UpdatedAt: ts}
	s.users[id] = user
	copy := *user
	return &copy
}

func (s *memoryStore) user(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *s.users[id]
	return &copy
}

type fakeUserRepo struct{ s *memoryStore }

func (r fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	user, ok := r.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *user
	return &copy, nil
}

func (r fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	for _, user := range r.s.users {
		if user.Email == strings.ToLower(email) {
			copy := *user
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return r.s.failWith
	}
	user.Email = strings.ToLower(user.Email)
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	ts := r.s.tick()
	user.CreatedAt, user.UpdatedAt = ts, ts
	copy := *user
	r.s.users[user.ID] = &copy
	return nil
}

func (r fakeUserRepo) List(ctx context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	users := make([]models.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r fakeUserRepo) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	user, ok := r.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	user.Role = role
	user.UpdatedAt = r.s.tick()
	copy := *user
	return &copy, nil
}

type fakeComplaintRepo struct{ s *memoryStore }

func (r fakeComplaintRepo) Create(ctx context.Context, complaint *models.Complaint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return r.s.failWith
	}
	r.s.nextID++
	ts := r.s.tick()
	complaint.ID = r.s.nextID
	complaint.Status = models.ComplaintActive
	complaint.CreatedAt, complaint.UpdatedAt = ts, ts
	copy := *complaint
	r.s.complaints = append(r.s.complaints, &copy)
	return nil
}

func (r fakeComplaintRepo) FindByID(ctx context.Context, id int64) (*models.Complaint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	for _, c := range r.s.complaints {
		if c.ID == id {
			copy := *c
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeComplaintRepo) ListAll(ctx context.Context) ([]models.Complaint, error) {
	return r.list(func(models.Complaint) bool { return true })
}

func (r fakeComplaintRepo) ListByUser(ctx context.Context, userID string) ([]models.Complaint, error) {
	return r.list(func(c models.Complaint) bool { return c.UserID == userID })
}

func (r fakeComplaintRepo) list(keep func(models.Complaint) bool) ([]models.Complaint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	out := []models.Complaint{}
	for _, c := range r.s.complaints {
		if keep(*c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r fakeComplaintRepo) Close(ctx context.Context, id int64) (*models.Complaint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	for _, c := range r.s.complaints {
		if c.ID == id {
			if c.Status != models.ComplaintClosed {
				c.Status = models.ComplaintClosed
				c.UpdatedAt = r.s.tick()
			}
			copy := *c
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeMessageRepo struct{ s *memoryStore }

func (r fakeMessageRepo) Create(ctx context.Context, msg *models.ComplaintMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return r.s.failWith
	}
	r.s.nextID++
	msg.ID = r.s.nextID
	msg.CreatedAt = r.s.tick()
	if sender, ok := r.s.users[msg.SenderID]; ok {
		msg.SenderName = sender.Name
	}
	copy := *msg
	r.s.messages = append(r.s.messages, &copy)
	return nil
}

func (r fakeMessageRepo) ListByComplaint(ctx context.Context, complaintID int64) ([]models.ComplaintMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	out := []models.ComplaintMessage{}
	for _, m := range r.s.messages {
		if m.ComplaintID == complaintID {
			out = append(out, *m)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []models.ComplaintMessage
}

func (p *recordingPublisher) Publish(msg models.ComplaintMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}
