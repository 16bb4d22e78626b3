package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByMobile(ctx context.Context, mobile string, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if id, ok := repo.db.usersByMob[mobile]; ok {
		return *repo.db.users[id], nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr.ID = uuid.New().String()
	u := usr
	repo.db.users[u.ID] = &u
	repo.db.usersByMob[u.Mobile] = u.ID

	if tx := txOf(exec); tx != nil {
		tx.register(func() {
			delete(repo.db.users, u.ID)
			delete(repo.db.usersByMob, u.Mobile)
		})
	}
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	if id, ok := repo.db.usersByMob[usr.Mobile]; ok {
		orig := *repo.db.users[id]
		usr.ID = id
		usr.CreatedAt = orig.CreatedAt
		u := usr
		repo.db.users[id] = &u

		if tx := txOf(exec); tx != nil {
			tx.register(func() { repo.db.users[id] = &orig })
		}
		repo.db.mu.Unlock()
		return usr, nil
	}
	repo.db.mu.Unlock()
	return repo.CreateUser(ctx, usr, exec...)
}

func (repo *userRepository) SetUserActive(ctx context.Context, id string, isActive bool, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	orig := usr.IsActive
	usr.IsActive = isActive

	if tx := txOf(exec); tx != nil {
		tx.register(func() { usr.IsActive = orig })
	}
	return nil
}
