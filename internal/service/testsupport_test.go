package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	mail "github.com/wneessen/go-mail"

	"github.com/starter-kit/account-service/internal/domain"
	"github.com/starter-kit/account-service/internal/events"
	"github.com/starter-kit/account-service/internal/repository"
)

// memoryUserRepo is an in-memory repository.UserRepository for tests.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[string]*domain.User{}}
}

func cloneUser(u *domain.User) *domain.User {
	copied := *u
	return &copied
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.DateJoined = time.Now()
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memoryUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memoryUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneUser(user), nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return cloneUser(user), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryUserRepo) List(_ context.Context, filter repository.ListFilter) ([]*domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]*domain.User, 0, len(r.users))
	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, user := range r.users {
		if needle != "" &&
			!strings.Contains(strings.ToLower(user.FirstName), needle) &&
			!strings.Contains(strings.ToLower(user.LastName), needle) &&
			!strings.Contains(strings.ToLower(user.Email), needle) {
			continue
		}
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		matched = append(matched, cloneUser(user))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].DateJoined.After(matched[j].DateJoined)
	})

	total := len(matched)
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = repository.DefaultPageSize
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *memoryUserRepo) CountByRole(_ context.Context) (repository.RoleCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := repository.RoleCounts{Total: len(r.users)}
	for _, user := range r.users {
		switch user.Role {
		case domain.RoleAdmin:
			counts.Admins++
		case domain.RoleManager:
			counts.Managers++
		case domain.RoleDefault:
			counts.Default++
		}
	}
	return counts, nil
}

func (r *memoryUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *memoryUserRepo) seed(user *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now()
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user)
}

// eventRecorder captures every published event.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newEventRecorder(dispatcher events.Dispatcher) *eventRecorder {
	recorder := &eventRecorder{}
	for _, eventType := range []events.EventType{
		events.EventUserRegistered,
		events.EventUserLoggedIn,
		events.EventUserActivated,
		events.EventPasswordChanged,
	} {
		dispatcher.Subscribe(eventType, recorder.record)
	}
	return recorder
}

func (r *eventRecorder) record(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event{}, r.events...)
}

func (r *eventRecorder) ofType(eventType events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []events.Event
	for _, event := range r.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

// stubRenderer returns a fixed HTML body and records the last binding.
type stubRenderer struct {
	mu       sync.Mutex
	template string
	binding  map[string]any
}

func (r *stubRenderer) Render(out io.Writer, template string, binding interface{}, _ ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.template = template
	if m, ok := binding.(map[string]any); ok {
		r.binding = m
	}
	_, err := io.WriteString(out, "<html><body>stub</body></html>")
	return err
}

func (r *stubRenderer) lastBinding() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.binding
}

// channelSender records sent messages on a channel.
type channelSender struct {
	sent chan *mail.Msg
}

func newChannelSender() *channelSender {
	return &channelSender{sent: make(chan *mail.Msg, 16)}
}

func (s *channelSender) Send(msg *mail.Msg) error {
	s.sent <- msg
	return nil
}
