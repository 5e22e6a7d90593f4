package ledger

import (
	"context"
	"slices"
	"strings"

	"billing/internal/domain"
)

type UserInput struct {
	Username string
	Name     string
	Email    string
	Role     domain.UserRole
	Status   domain.UserStatus
}

type UserStats struct {
	TotalUsers  int `json:"total_users"`
	ActiveUsers int `json:"active_users"`
	Admins      int `json:"admins"`
	Users       int `json:"users"`
}

func (in *UserInput) normalize() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = domain.UserRole(strings.ToLower(strings.TrimSpace(string(in.Role))))
	in.Status = domain.UserStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))
	if in.Username == "" {
		return invalid("username is required")
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if in.Role != domain.RoleAdmin && in.Role != domain.RoleUser {
		return invalid("role must be admin or user")
	}
	if in.Status == "" {
		in.Status = domain.StatusActive
	}
	if in.Status != domain.StatusActive && in.Status != domain.StatusInactive {
		return invalid("status must be active or inactive")
	}
	return nil
}

func (l *Ledger) usernameTaken(username string, exceptID int64) bool {
	return slices.ContainsFunc(l.users, func(u domain.User) bool {
		return u.ID != exceptID && strings.EqualFold(u.Username, username)
	})
}

func (l *Ledger) CreateUser(ctx context.Context, in UserInput) (domain.User, error) {
	if err := in.normalize(); err != nil {
		return domain.User{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.usernameTaken(in.Username, 0) {
		return domain.User{}, ErrConflict
	}
	user := domain.User{
		ID:        l.lastUserID + 1,
		Username:  in.Username,
		Name:      in.Name,
		Email:     in.Email,
		Role:      in.Role,
		Status:    in.Status,
		CreatedAt: l.now().UTC(),
	}
	users := make([]domain.User, 0, len(l.users)+1)
	users = append(users, l.users...)
	users = append(users, user)

	var cs domain.Changeset
	cs.SetUsers(users)
	if err := l.commit(ctx, cs); err != nil {
		return domain.User{}, err
	}
	l.lastUserID = user.ID
	l.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user created")
	return user, nil
}

func (l *Ledger) UpdateUser(ctx context.Context, id int64, in UserInput) (domain.User, error) {
	if err := in.normalize(); err != nil {
		return domain.User{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findUser(id)
	if idx < 0 {
		return domain.User{}, notFound("user", id)
	}
	if l.usernameTaken(in.Username, id) {
		return domain.User{}, ErrConflict
	}
	users := slices.Clone(l.users)
	user := &users[idx]
	user.Username = in.Username
	user.Name = in.Name
	user.Email = in.Email
	user.Role = in.Role
	user.Status = in.Status

	var cs domain.Changeset
	cs.SetUsers(users)
	if err := l.commit(ctx, cs); err != nil {
		return domain.User{}, err
	}
	l.log.Info().Int64("user_id", id).Msg("user updated")
	return *user, nil
}

func (l *Ledger) ToggleUserStatus(ctx context.Context, id int64) (domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findUser(id)
	if idx < 0 {
		return domain.User{}, notFound("user", id)
	}
	users := slices.Clone(l.users)
	user := &users[idx]
	if user.Status == domain.StatusActive {
		user.Status = domain.StatusInactive
	} else {
		user.Status = domain.StatusActive
	}

	var cs domain.Changeset
	cs.SetUsers(users)
	if user.Status == domain.StatusInactive && l.sessionHeldBy(id) {
		cs.ClearSession()
	}
	if err := l.commit(ctx, cs); err != nil {
		return domain.User{}, err
	}
	l.log.Info().Int64("user_id", id).Str("status", string(user.Status)).Msg("user status toggled")
	return *user, nil
}

// DeleteUser removes an account. The default administrator is protected.
func (l *Ledger) DeleteUser(ctx context.Context, id int64) error {
	if id == domain.BootstrapUserID {
		return ErrProtectedAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findUser(id)
	if idx < 0 {
		return notFound("user", id)
	}
	users := slices.Delete(slices.Clone(l.users), idx, idx+1)

	var cs domain.Changeset
	cs.SetUsers(users)
	if l.sessionHeldBy(id) {
		cs.ClearSession()
	}
	if err := l.commit(ctx, cs); err != nil {
		return err
	}
	l.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (l *Ledger) GetUser(id int64) (domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findUser(id)
	if idx < 0 {
		return domain.User{}, notFound("user", id)
	}
	return l.users[idx], nil
}

// UserByUsername matches case-insensitively.
func (l *Ledger) UserByUsername(username string) (domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	username = strings.TrimSpace(username)
	for _, u := range l.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return domain.User{}, notFound("user", username)
}

func (l *Ledger) ListUsers() []domain.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.users)
}

func (l *Ledger) UserStats() UserStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := UserStats{TotalUsers: len(l.users)}
	for _, u := range l.users {
		if u.Status == domain.StatusActive {
			stats.ActiveUsers++
		}
		switch u.Role {
		case domain.RoleAdmin:
			stats.Admins++
		case domain.RoleUser:
			stats.Users++
		}
	}
	return stats
}

// StartSession records userID as the logged-in user. Credentials are
// checked elsewhere.
func (l *Ledger) StartSession(ctx context.Context, userID int64) (domain.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findUser(userID)
	if idx < 0 {
		return domain.Session{}, notFound("user", userID)
	}
	user := l.users[idx]
	if user.Status != domain.StatusActive {
		return domain.Session{}, ErrInactiveUser
	}
	session := domain.Session{
		UserID:    user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Role:      user.Role,
		StartedAt: l.now().UTC(),
	}
	if err := l.store.SaveSession(ctx, &session); err != nil {
		return domain.Session{}, err
	}
	l.session = &session
	l.log.Info().Int64("user_id", user.ID).Msg("session started")
	return session, nil
}

func (l *Ledger) EndSession(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.SaveSession(ctx, nil); err != nil {
		return err
	}
	l.session = nil
	return nil
}

// sessionHeldBy reports whether userID is the logged-in user. Callers hold l.mu.
func (l *Ledger) sessionHeldBy(userID int64) bool {
	return l.session != nil && l.session.UserID == userID
}

// CurrentSession returns the logged-in user record, if any.
func (l *Ledger) CurrentSession() (domain.Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.session == nil {
		return domain.Session{}, false
	}
	return *l.session, true
}
