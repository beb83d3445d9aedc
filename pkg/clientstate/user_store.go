package clientstate

import (
	"context"
	"errors"

	"github.com/Skotchmaster/shopfront/pkg/apiclient"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

type UserState struct {
	User         *User
	Loading      bool
	CheckingAuth bool
}

type SignupInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type UserStore struct {
	*Store[UserState]
	api    *apiclient.Client
	notify Notifier
}

func NewUserStore(api *apiclient.Client, n Notifier) *UserStore {
	if n == nil {
		n = LogNotifier{}
	}
	return &UserStore{
		Store:  NewStore(UserState{CheckingAuth: true}),
		api:    api,
		notify: n,
	}
}

// ClearOnExpiry logs the store out whenever coord gives up on the session.
func (s *UserStore) ClearOnExpiry(coord *apiclient.Coordinator) {
	coord.OnSessionExpired(s.ClearSession)
}

func (s *UserStore) setLoading(v bool) {
	s.Update(func(st UserState) UserState {
		st.Loading = v
		return st
	})
}

func (s *UserStore) setUser(u *User) {
	s.Update(func(st UserState) UserState {
		st.User = u
		st.Loading = false
		return st
	})
}

func (s *UserStore) fail(err error) error {
	s.setLoading(false)
	s.notify.Error(message(err, defaultErrorMessage))
	return err
}

func (s *UserStore) Signup(ctx context.Context, in SignupInput) error {
	s.setLoading(true)
	if in.Password != in.ConfirmPassword {
		s.setLoading(false)
		s.notify.Error("Passwords do not match")
		return ErrPasswordMismatch
	}

	var u User
	body := map[string]string{"name": in.Name, "email": in.Email, "password": in.Password}
	if err := s.api.Post(ctx, "/auth/signup", body, &u); err != nil {
		return s.fail(err)
	}
	s.setUser(&u)
	return nil
}

func (s *UserStore) Login(ctx context.Context, email, password string) error {
	s.setLoading(true)

	var u User
	body := map[string]string{"email": email, "password": password}
	if err := s.api.Post(ctx, "/auth/login", body, &u); err != nil {
		return s.fail(err)
	}
	s.setUser(&u)
	return nil
}

func (s *UserStore) CheckAuth(ctx context.Context) error {
	s.Update(func(st UserState) UserState {
		st.CheckingAuth = true
		return st
	})

	var u User
	if err := s.api.Get(ctx, "/auth/profile", &u); err != nil {
		s.Update(func(st UserState) UserState {
			st.CheckingAuth = false
			st.User = nil
			return st
		})
		s.notify.Error(message(err, defaultErrorMessage))
		return err
	}
	s.Update(func(st UserState) UserState {
		st.CheckingAuth = false
		st.User = &u
		return st
	})
	return nil
}

func (s *UserStore) Logout(ctx context.Context) error {
	if err := s.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
		s.notify.Error(message(err, defaultErrorMessage))
		return err
	}
	s.ClearSession()
	return nil
}

func (s *UserStore) ClearSession() {
	s.Update(func(st UserState) UserState {
		st.User = nil
		st.Loading = false
		return st
	})
}

func (s *UserStore) LoggedIn() bool {
	return s.Get().User != nil
}
