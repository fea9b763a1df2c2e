package repositorytest

import (
	"sort"
	"sync"

	"taqsit/internal/models"
	"taqsit/internal/repositories"
)

// UserStore is an in-memory implementation of
// repositories.UserRepository.
type UserStore struct {
	mu     sync.Mutex
	users  map[uint]models.User
	nextID uint
}

// NewUserStore creates an empty in-memory user repository.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uint]models.User)}
}

// SeedUser inserts a user, assigning an ID when missing.
func (s *UserStore) SeedUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextID++
		u.ID = s.nextID
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	if u.TokenVersion == 0 {
		u.TokenVersion = 1
	}
	s.users[u.ID] = u
	return u
}

func (s *UserStore) Create(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email || u.Phone == user.Phone {
			return repositories.ErrDuplicateUser
		}
	}
	s.nextID++
	user.ID = s.nextID
	if user.TokenVersion == 0 {
		user.TokenVersion = 1
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) GetByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *UserStore) GetByPhone(phone string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Phone == phone })
}

func (s *UserStore) Update(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) IncrementTokenVersion(userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.TokenVersion++
	s.users[userID] = u
	return nil
}

func (s *UserStore) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if u := s.users[id]; match(u) {
			uu := u
			return &uu, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}
