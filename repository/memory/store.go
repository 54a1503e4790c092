// Package memory keeps every repository in process memory. It backs the test suites and
// the STORAGE=memory boot mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/repository"
)

type timeKey struct {
	userID string
	taskID string
}

type state struct {
	users      map[string]domain.User
	userOrder  []string
	teams      map[string]domain.Team
	teamOrder  []string
	tasks      map[string]domain.Task
	taskOrder  []string
	logs       map[string]domain.ActivityLog
	spent      map[timeKey]int64
	spentOrder []timeKey
	timeLogs   []domain.TimeLog
	sessions   map[string]domain.Session
}

func newState() *state {
	return &state{
		users:    make(map[string]domain.User),
		teams:    make(map[string]domain.Team),
		tasks:    make(map[string]domain.Task),
		logs:     make(map[string]domain.ActivityLog),
		spent:    make(map[timeKey]int64),
		sessions: make(map[string]domain.Session),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.teams {
		v.Members = append([]string(nil), v.Members...)
		c.teams[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = *v.Clone()
	}
	for k, v := range s.logs {
		v.Entries = append([]domain.ActivityEntry(nil), v.Entries...)
		c.logs[k] = v
	}
	for k, v := range s.spent {
		c.spent[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	c.userOrder = append([]string(nil), s.userOrder...)
	c.teamOrder = append([]string(nil), s.teamOrder...)
	c.taskOrder = append([]string(nil), s.taskOrder...)
	c.spentOrder = append([]timeKey(nil), s.spentOrder...)
	c.timeLogs = append([]domain.TimeLog(nil), s.timeLogs...)
	return c
}

// Store implements every repository interface on top of maps guarded by one mutex.
// Transactions are serialized and roll back by restoring a snapshot.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *state
	now  func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// WithClock makes the store stamp CreatedAt/UpdatedAt from now.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if repository.InTx(ctx) {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.st.clone()
	s.mu.RUnlock()

	if err := fn(repository.MarkTx(ctx)); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// Users

func (s *Store) Users() repository.UserRepository { return userRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.st.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range r.s.st.userOrder {
		if user := r.s.st.users[id]; user.Username == username {
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r userRepo) GetMany(_ context.Context, ids []string) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		user, ok := r.s.st.users[id]
		if !ok {
			return nil, domain.ErrUserNotFound
		}
		users = append(users, user)
	}
	return users, nil
}

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkUnique(user); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.st.users[user.ID] = *user
	r.s.st.userOrder = append(r.s.st.userOrder, user.ID)
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.st.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if err := r.s.checkUnique(user); err != nil {
		return err
	}
	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = r.s.now()
	r.s.st.users[user.ID] = *user
	return nil
}

func (r userRepo) Search(_ context.Context, q repository.UserSearch) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.User
	for _, id := range r.s.st.userOrder {
		user := r.s.st.users[id]
		if matchUser(user, q) {
			out = append(out, user)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchUser(user domain.User, q repository.UserSearch) bool {
	if q.UsernamePrefix != "" {
		return strings.HasPrefix(strings.ToLower(user.Username), strings.ToLower(q.UsernamePrefix))
	}
	first := q.FirstName != "" && strings.EqualFold(user.FirstName, q.FirstName)
	last := q.LastName != "" && strings.EqualFold(user.LastName, q.LastName)
	if q.MatchBoth {
		return first && last
	}
	return first || last
}

func (s *Store) checkUnique(user *domain.User) error {
	for id, other := range s.st.users {
		if id == user.ID {
			continue
		}
		if other.Username == user.Username {
			return domain.ErrUsernameTaken
		}
		if strings.EqualFold(other.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}
	return nil
}

// Teams

func (s *Store) Teams() repository.TeamRepository { return teamRepo{s} }

type teamRepo struct{ s *Store }

func (r teamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	team, ok := r.s.st.teams[id]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	team.Members = append([]string(nil), team.Members...)
	return &team, nil
}

func (r teamRepo) ListForUser(_ context.Context, userID string) ([]domain.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Team
	for _, id := range r.s.st.teamOrder {
		team := r.s.st.teams[id]
		if team.HasMember(userID) {
			team.Members = append([]string(nil), team.Members...)
			out = append(out, team)
		}
	}
	return out, nil
}

func (r teamRepo) Create(_ context.Context, team *domain.Team) (*domain.Team, error) {
	if team == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	team.CreatedAt = r.s.now()
	stored := *team
	stored.Members = append([]string(nil), team.Members...)
	r.s.st.teams[team.ID] = stored
	r.s.st.teamOrder = append(r.s.st.teamOrder, team.ID)
	return team, nil
}

func (r teamRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.teams[id]; !ok {
		return domain.ErrTeamNotFound
	}
	delete(r.s.st.teams, id)
	r.s.st.teamOrder = without(r.s.st.teamOrder, id)
	for _, taskID := range append([]string(nil), r.s.st.taskOrder...) {
		if r.s.st.tasks[taskID].TeamID == id {
			r.s.deleteTaskLocked(taskID)
		}
	}
	return nil
}

func (r teamRepo) AddMembers(_ context.Context, teamID string, userIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team, ok := r.s.st.teams[teamID]
	if !ok {
		return domain.ErrTeamNotFound
	}
	team.Members = appendUnique(team.Members, userIDs)
	r.s.st.teams[teamID] = team
	return nil
}

func (r teamRepo) RemoveMembers(_ context.Context, teamID string, userIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team, ok := r.s.st.teams[teamID]
	if !ok {
		return domain.ErrTeamNotFound
	}
	team.Members = without(team.Members, userIDs...)
	r.s.st.teams[teamID] = team
	return nil
}

// Tasks

func (s *Store) Tasks() repository.TaskRepository { return taskRepo{s} }

type taskRepo struct{ s *Store }

func (r taskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	task, ok := r.s.st.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return task.Clone(), nil
}

func (r taskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Task
	for _, id := range r.s.st.taskOrder {
		task := r.s.st.tasks[id]
		if matchTask(&task, filter) {
			out = append(out, *task.Clone())
		}
	}
	switch filter.Sort {
	case repository.SortDueAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	case repository.SortDueDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.After(out[j].DueDate) })
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchTask(task *domain.Task, f repository.TaskFilter) bool {
	if len(f.TeamIDs) > 0 && !contains(f.TeamIDs, task.TeamID) {
		return false
	}
	if f.AssignedTo != "" && !task.IsAssigned(f.AssignedTo) {
		return false
	}
	if f.Priority != "" && task.Priority != f.Priority {
		return false
	}
	if f.Completed != nil && task.Completed != *f.Completed {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(task.Title), needle) &&
			!strings.Contains(strings.ToLower(task.Description), needle) {
			return false
		}
	}
	return true
}

func (r taskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.teams[task.TeamID]; !ok {
		return nil, domain.ErrTeamNotFound
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := r.s.now()
	task.CreatedAt, task.UpdatedAt = now, now
	r.s.st.tasks[task.ID] = *task.Clone()
	r.s.st.taskOrder = append(r.s.st.taskOrder, task.ID)
	return task, nil
}

func (r taskRepo) Update(_ context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.st.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	updated := *task.Clone()
	updated.TeamID = current.TeamID
	updated.AssignedTo = current.AssignedTo
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = r.s.now()
	r.s.st.tasks[task.ID] = updated
	task.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r taskRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	r.s.deleteTaskLocked(id)
	return nil
}

func (r taskRepo) AddAssignees(_ context.Context, taskID string, userIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task, ok := r.s.st.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.AssignedTo = appendUnique(task.AssignedTo, userIDs)
	r.s.st.tasks[taskID] = task
	return nil
}

func (r taskRepo) RemoveAssignees(_ context.Context, taskID string, userIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task, ok := r.s.st.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.AssignedTo = without(task.AssignedTo, userIDs...)
	r.s.st.tasks[taskID] = task
	return nil
}

func (s *Store) deleteTaskLocked(id string) {
	delete(s.st.tasks, id)
	s.st.taskOrder = without(s.st.taskOrder, id)
	s.resetTimeLocked(func(k timeKey) bool { return k.taskID == id })
}

// Activity logs

func (s *Store) Activity() repository.ActivityRepository { return activityRepo{s} }

type activityRepo struct{ s *Store }

func (r activityRepo) Get(_ context.Context, userID string) (*domain.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	log, ok := r.s.st.logs[userID]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	log.Entries = append([]domain.ActivityEntry(nil), log.Entries...)
	return &log, nil
}

func (r activityRepo) GetOrCreate(_ context.Context, userID string) (*domain.ActivityLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	log, ok := r.s.st.logs[userID]
	if !ok {
		log = domain.ActivityLog{UserID: userID, Entries: []domain.ActivityEntry{}, UpdatedAt: r.s.now()}
		r.s.st.logs[userID] = log
	}
	log.Entries = append([]domain.ActivityEntry(nil), log.Entries...)
	return &log, nil
}

func (r activityRepo) Save(_ context.Context, log *domain.ActivityLog) error {
	if log == nil || log.UserID == "" {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *log
	stored.Entries = append([]domain.ActivityEntry(nil), log.Entries...)
	stored.UpdatedAt = r.s.now()
	r.s.st.logs[log.UserID] = stored
	return nil
}

func (r activityRepo) Append(_ context.Context, userID string, entries []domain.ActivityEntry) error {
	if userID == "" {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	log, ok := r.s.st.logs[userID]
	if !ok {
		log = domain.ActivityLog{UserID: userID}
	}
	log.Entries = append(append([]domain.ActivityEntry(nil), log.Entries...), entries...)
	log.UpdatedAt = r.s.now()
	r.s.st.logs[userID] = log
	return nil
}

// Time tracking

func (s *Store) Time() repository.TimeRepository { return timeRepo{s} }

type timeRepo struct{ s *Store }

func (r timeRepo) AddTime(_ context.Context, userID, taskID string, seconds int64, at time.Time) (*domain.TimeSpent, error) {
	if seconds < 0 {
		return nil, domain.Invalidf("time values must not be negative")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.tasks[taskID]; !ok {
		return nil, domain.ErrTaskNotFound
	}
	key := timeKey{userID: userID, taskID: taskID}
	if _, ok := r.s.st.spent[key]; !ok {
		r.s.st.spentOrder = append(r.s.st.spentOrder, key)
	}
	r.s.st.spent[key] += seconds
	r.s.st.timeLogs = append(r.s.st.timeLogs, domain.TimeLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		TaskID:    taskID,
		Seconds:   seconds,
		Timestamp: at,
	})
	return &domain.TimeSpent{UserID: userID, TaskID: taskID, Seconds: r.s.st.spent[key]}, nil
}

func (r timeRepo) TotalForTask(_ context.Context, taskID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total int64
	for key, seconds := range r.s.st.spent {
		if key.taskID == taskID {
			total += seconds
		}
	}
	return total, nil
}

func (r timeRepo) ListSpent(_ context.Context, userID string) ([]domain.TimeSpent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.TimeSpent
	for _, key := range r.s.st.spentOrder {
		if key.userID == userID {
			out = append(out, domain.TimeSpent{UserID: key.userID, TaskID: key.taskID, Seconds: r.s.st.spent[key]})
		}
	}
	return out, nil
}

func (r timeRepo) ListLogs(_ context.Context, userID string) ([]domain.TimeLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.TimeLog
	for _, entry := range r.s.st.timeLogs {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r timeRepo) ResetUser(_ context.Context, userID, taskID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.resetTimeLocked(func(k timeKey) bool { return k.userID == userID && k.taskID == taskID })
	return nil
}

func (r timeRepo) ResetTask(_ context.Context, taskID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.resetTimeLocked(func(k timeKey) bool { return k.taskID == taskID })
	return nil
}

func (s *Store) resetTimeLocked(match func(timeKey) bool) {
	order := s.st.spentOrder[:0]
	for _, key := range s.st.spentOrder {
		if match(key) {
			delete(s.st.spent, key)
			continue
		}
		order = append(order, key)
	}
	s.st.spentOrder = order

	logs := s.st.timeLogs[:0]
	for _, entry := range s.st.timeLogs {
		if match(timeKey{userID: entry.UserID, taskID: entry.TaskID}) {
			continue
		}
		logs = append(logs, entry)
	}
	s.st.timeLogs = logs
}

// Sessions

func (s *Store) Sessions() repository.SessionRepository { return sessionRepo{s} }

type sessionRepo struct{ s *Store }

func (r sessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	session, ok := r.s.st.sessions[id]
	if !ok || session.IsExpired(r.s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r sessionRepo) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.st.sessions[session.ID] = *session
	return nil
}

func (r sessionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.st.sessions, id)
	return nil
}

func (r sessionRepo) DeleteForUser(_ context.Context, userID, keepID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, session := range r.s.st.sessions {
		if session.UserID == userID && id != keepID {
			delete(r.s.st.sessions, id)
		}
	}
	return nil
}

func appendUnique(list []string, ids []string) []string {
	for _, id := range ids {
		if !contains(list, id) {
			list = append(list, id)
		}
	}
	return list
}

func without(list []string, ids ...string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if !contains(ids, v) {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
