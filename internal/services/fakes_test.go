package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jobportal/apiserver/internal/auth"
	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

type memUsers struct {
	mu    sync.Mutex
	users map[int]types.User
	next  int
}

func newMemUsers(users ...types.User) *memUsers {
	m := &memUsers{users: map[int]types.User{}}
	for _, u := range users {
		m.users[u.ID] = u
		if u.ID > m.next {
			m.next = u.ID
		}
	}
	return m
}

func (m *memUsers) GetByID(ctx context.Context, id int) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) GetByGoogleID(ctx context.Context, googleID string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.GoogleID != "" && u.GoogleID == googleID {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) Create(ctx context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return types.User{}, store.ErrConflict
		}
	}
	m.next++
	user.ID = m.next
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) Update(ctx context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) Counts(ctx context.Context, id int) (types.UserCounts, error) {
	return types.UserCounts{}, nil
}

func (m *memUsers) List(ctx context.Context, filter types.UserFilter) ([]types.UserProfile, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.UserProfile
	for _, u := range m.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, types.UserProfile{User: u})
		}
	}
	return out, len(out), nil
}

func (m *memUsers) ListContacts(ctx context.Context, excludeID int, roles []types.Role) ([]types.PublicUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.PublicUser
	for _, u := range m.users {
		if u.ID == excludeID {
			continue
		}
		if len(roles) > 0 && !containsRole(roles, u.Role) {
			continue
		}
		out = append(out, u.Public())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func containsRole(roles []types.Role, role types.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

type memChat struct {
	mu       sync.Mutex
	messages []types.ChatMessage
	clock    time.Time
	failNext error
}

func newMemChat() *memChat {
	return &memChat{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memChat) Create(ctx context.Context, msg types.ChatMessage) (types.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return types.ChatMessage{}, err
	}
	m.clock = m.clock.Add(time.Second)
	msg.ID = int64(len(m.messages) + 1)
	msg.CreatedAt = m.clock
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memChat) History(ctx context.Context, a, b, limit int) ([]types.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pair []types.ChatMessage
	for _, msg := range m.messages {
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			pair = append(pair, msg)
		}
	}
	if len(pair) > limit {
		pair = pair[len(pair)-limit:]
	}
	return pair, nil
}

func (m *memChat) Conversations(ctx context.Context, userID int) ([]types.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[int]types.ChatMessage{}
	for _, msg := range m.messages {
		var other int
		switch userID {
		case msg.SenderID:
			other = msg.ReceiverID
		case msg.ReceiverID:
			other = msg.SenderID
		default:
			continue
		}
		latest[other] = msg
	}
	out := make([]types.Conversation, 0, len(latest))
	for other, msg := range latest {
		out = append(out, types.Conversation{
			User:          types.PublicUser{ID: other},
			LastMessage:   msg,
			LastMessageAt: msg.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

type memJobs struct {
	jobs map[int]types.Job
	next int
}

func newMemJobs(jobs ...types.Job) *memJobs {
	m := &memJobs{jobs: map[int]types.Job{}}
	for _, j := range jobs {
		m.jobs[j.ID] = j
		if j.ID > m.next {
			m.next = j.ID
		}
	}
	return m
}

func (m *memJobs) List(ctx context.Context, filter types.JobFilter) ([]types.JobSummary, int, error) {
	var out []types.JobSummary
	for _, j := range m.jobs {
		out = append(out, types.JobSummary{Job: j})
	}
	return out, len(out), nil
}

func (m *memJobs) ListByRecruiter(ctx context.Context, recruiterID int) ([]types.JobSummary, error) {
	var out []types.JobSummary
	for _, j := range m.jobs {
		if recruiterID == 0 || j.RecruiterID == recruiterID {
			out = append(out, types.JobSummary{Job: j})
		}
	}
	return out, nil
}

func (m *memJobs) Get(ctx context.Context, id int) (types.Job, error) {
	j, ok := m.jobs[id]
	if !ok {
		return types.Job{}, store.ErrNotFound
	}
	return j, nil
}

func (m *memJobs) GetWithRecruiter(ctx context.Context, id int) (types.Job, types.PublicUser, error) {
	j, err := m.Get(ctx, id)
	return j, types.PublicUser{ID: j.RecruiterID}, err
}

func (m *memJobs) Create(ctx context.Context, job types.Job) (types.Job, error) {
	m.next++
	job.ID = m.next
	m.jobs[job.ID] = job
	return job, nil
}

func (m *memJobs) Update(ctx context.Context, job types.Job) (types.Job, error) {
	if _, ok := m.jobs[job.ID]; !ok {
		return types.Job{}, store.ErrNotFound
	}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *memJobs) Delete(ctx context.Context, id int) error {
	if _, ok := m.jobs[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

type memApplications struct {
	apps []types.Application
}

func (m *memApplications) Get(ctx context.Context, id int) (types.Application, error) {
	for _, a := range m.apps {
		if a.ID == id {
			return a, nil
		}
	}
	return types.Application{}, store.ErrNotFound
}

func (m *memApplications) Exists(ctx context.Context, userID, jobID int) (bool, error) {
	for _, a := range m.apps {
		if a.UserID == userID && a.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memApplications) Create(ctx context.Context, app types.Application) (types.Application, error) {
	if ok, _ := m.Exists(ctx, app.UserID, app.JobID); ok {
		return types.Application{}, store.ErrConflict
	}
	app.ID = len(m.apps) + 1
	m.apps = append(m.apps, app)
	return app, nil
}

func (m *memApplications) UpdateStatus(ctx context.Context, id int, status types.ApplicationStatus) (types.Application, error) {
	for i, a := range m.apps {
		if a.ID == id {
			m.apps[i].Status = status
			return m.apps[i], nil
		}
	}
	return types.Application{}, store.ErrNotFound
}

func (m *memApplications) ListByJob(ctx context.Context, jobID int) ([]types.ApplicationWithUser, error) {
	var out []types.ApplicationWithUser
	for _, a := range m.apps {
		if a.JobID == jobID {
			out = append(out, types.ApplicationWithUser{Application: a})
		}
	}
	return out, nil
}

func (m *memApplications) ListByUser(ctx context.Context, userID int) ([]types.ApplicationWithJob, error) {
	var out []types.ApplicationWithJob
	for _, a := range m.apps {
		if a.UserID == userID {
			out = append(out, types.ApplicationWithJob{Application: a})
		}
	}
	return out, nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) Publish(ctx context.Context, event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordedEvents) names() []events.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]events.Name, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.EventName())
	}
	return names
}

type fakeTokens struct{}

func (fakeTokens) IssuePair(userID int) (auth.Pair, error) {
	return auth.Pair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (fakeTokens) ParseAccess(token string) (int, error) {
	return 0, auth.ErrMissingSubject
}

func (fakeTokens) ParseRefresh(token string) (int, error) {
	if token == "refresh-1" {
		return 1, nil
	}
	return 0, auth.ErrWrongTokenType
}
