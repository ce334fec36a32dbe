package memstore

import (
	"context"

	"github.com/shopspring/decimal"

	"renTrentoBack/internal/models"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	err := r.s.write(ctx, func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return models.ErrDuplicate
		}
		for _, u := range st.users {
			if u.Email == user.Email || u.UserName == user.UserName {
				return models.ErrDuplicate
			}
		}
		st.users[user.ID] = user
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.s.read(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return models.ErrNoRecord
		}
		user = u
		return nil
	})
	return user, err
}

func (r *userRepo) GetUserByIDForUpdate(ctx context.Context, id string) (models.User, error) {
	return r.GetUserByID(ctx, id)
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) GetUserByUserName(ctx context.Context, userName string) (models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.UserName == userName })
}

func (r *userRepo) find(ctx context.Context, match func(models.User) bool) (models.User, error) {
	var user models.User
	err := r.s.read(ctx, func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				user = u
				return nil
			}
		}
		return models.ErrNoRecord
	})
	return user, err
}

func (r *userRepo) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	users := []models.User{}
	err := r.s.read(ctx, func(st *state) error {
		for _, u := range st.users {
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			users = append(users, u)
		}
		return nil
	})
	sortByCreated(users, func(u models.User) (int64, string) { return u.CreatedAt.UnixNano(), u.ID })
	return users, err
}

func (r *userRepo) UpdateUser(ctx context.Context, user models.User) error {
	return r.s.write(ctx, func(st *state) error {
		current, ok := st.users[user.ID]
		if !ok {
			return models.ErrNoRecord
		}
		for id, u := range st.users {
			if id != user.ID && (u.Email == user.Email || u.UserName == user.UserName) {
				return models.ErrDuplicate
			}
		}
		// wallet moves only through UpdateWallet
		user.Wallet = current.Wallet
		st.users[user.ID] = user
		return nil
	})
}

func (r *userRepo) UpdateWallet(ctx context.Context, id string, wallet decimal.Decimal) error {
	return r.s.write(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return models.ErrNoRecord
		}
		u.Wallet = wallet
		st.users[id] = u
		return nil
	})
}

func (r *userRepo) DeleteUser(ctx context.Context, id string) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return models.ErrNoRecord
		}
		delete(st.users, id)
		return nil
	})
}
