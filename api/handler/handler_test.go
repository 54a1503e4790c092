package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/internal/infrastructure/monitor"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/pkg/httpcontext"
	"github.com/fastygo/teamtasks/repository/memory"
	"github.com/fastygo/teamtasks/usecase"
	activityUC "github.com/fastygo/teamtasks/usecase/activity"
	authUC "github.com/fastygo/teamtasks/usecase/auth"
	notificationUC "github.com/fastygo/teamtasks/usecase/notification"
	profileUC "github.com/fastygo/teamtasks/usecase/profile"
	taskUC "github.com/fastygo/teamtasks/usecase/task"
	teamUC "github.com/fastygo/teamtasks/usecase/team"
	timeUC "github.com/fastygo/teamtasks/usecase/timetrack"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type app struct {
	clock        *clock.Fixed
	auth         *AuthHandler
	profile      *ProfileHandler
	team         *TeamHandler
	task         *TaskHandler
	notification *NotificationHandler
	activity     *ActivityHandler
	time         *TimeHandler
}

func newApp(t *testing.T) *app {
	t.Helper()
	clk := clock.NewFixed(time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC))
	store := memory.New().WithClock(clk.Now)
	dispatcher := usecase.NewDispatcher()
	recorder := activityUC.New(store.Activity(), store, clk, activityUC.Config{}, nil)
	recorder.Register(dispatcher)

	auth := authUC.New(store.Users(), store.Sessions(), nil, dispatcher, clk, nil, authUC.WithHashCost(bcrypt.MinCost))
	teams := teamUC.New(store.Teams(), store.Tasks(), store.Users(), store, dispatcher, clk, nil)
	adapter := httpcontext.NewAdapter(time.Second)

	return &app{
		clock:        clk,
		auth:         NewAuthHandler(auth, adapter, nil),
		profile:      NewProfileHandler(profileUC.New(store.Users(), auth, dispatcher, clk, nil), adapter, nil),
		team:         NewTeamHandler(teams, adapter, nil),
		task:         NewTaskHandler(taskUC.New(store.Tasks(), store.Teams(), store.Users(), store, dispatcher, clk, nil), adapter, nil),
		notification: NewNotificationHandler(notificationUC.New(store.Teams(), store.Tasks(), clk, nil), adapter, nil),
		activity:     NewActivityHandler(recorder, teams, adapter, nil),
		time:         NewTimeHandler(timeUC.New(store.Time(), store.Tasks(), store.Teams(), store, clk, nil), adapter, nil),
	}
}

type request struct {
	user   *domain.User
	body   string
	query  string
	params map[string]string
}

func call(t *testing.T, handler fasthttp.RequestHandler, req request) (int, envelope) {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetBodyString(req.body)
	ctx.Request.URI().SetQueryString(req.query)
	if req.user != nil {
		ctx.SetUserValue(httpcontext.UserValueUser, req.user)
	}
	for k, v := range req.params {
		ctx.SetUserValue(k, v)
	}

	handler(ctx)

	var env envelope
	if err := json.Unmarshal(ctx.Response.Body(), &env); err != nil {
		t.Fatalf("decode response %q: %v", ctx.Response.Body(), err)
	}
	return ctx.Response.StatusCode(), env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func (a *app) signUp(t *testing.T, username string) *domain.User {
	t.Helper()
	body := `{"username":"` + username + `","first_name":"First","last_name":"Last","email":"` +
		strings.TrimPrefix(username, "@") + `@example.com","password":"Secret123","confirmation":"Secret123"}`
	status, env := call(t, a.auth.SignUp, request{body: body})
	if status != http.StatusCreated {
		t.Fatalf("signup %s: %d %+v", username, status, env.Error)
	}
	var user domain.User
	decodeData(t, env, &user)
	return &user
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrNotTeamAdmin, http.StatusForbidden},
		{domain.Invalidf("bad"), http.StatusBadRequest},
		{domain.ErrTaskNotFound, http.StatusNotFound},
		{domain.ErrUsernameTaken, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if status, _ := mapError(tc.err); status != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, status)
		}
	}
}

func TestSignUpAndLogin(t *testing.T) {
	a := newApp(t)
	a.signUp(t, "@alice")

	status, env := call(t, a.auth.SignUp, request{body: `{"username":"@alice","first_name":"A","last_name":"B","email":"x@example.com","password":"Secret123","confirmation":"Secret123"}`})
	if status != http.StatusConflict || env.Code != string(domain.ErrCodeConflict) {
		t.Fatalf("expected conflict on duplicate username, got %d %s", status, env.Code)
	}

	status, env = call(t, a.auth.Login, request{body: `{"username":"@alice","password":"Secret123"}`})
	if status != http.StatusCreated {
		t.Fatalf("login: %d %+v", status, env.Error)
	}
	var result struct {
		User    domain.User    `json:"user"`
		Session domain.Session `json:"session"`
	}
	decodeData(t, env, &result)
	if result.User.Username != "@alice" || result.Session.ID == "" {
		t.Fatalf("unexpected login result: %+v", result)
	}

	status, env = call(t, a.auth.Login, request{body: `{"username":"@alice","password":"nope"}`})
	if status != http.StatusUnauthorized || env.Error == nil {
		t.Fatalf("expected 401 on bad password, got %d", status)
	}

	if status, _ := call(t, a.auth.Login, request{body: `{not json`}); status != http.StatusBadRequest {
		t.Fatalf("expected 400 on malformed body, got %d", status)
	}
}

func TestProtectedHandlersRequireUser(t *testing.T) {
	a := newApp(t)
	for name, h := range map[string]fasthttp.RequestHandler{
		"profile":       a.profile.GetProfile,
		"teams":         a.team.List,
		"notifications": a.notification.List,
		"report":        a.time.Summary,
	} {
		if status, env := call(t, h, request{}); status != http.StatusUnauthorized || env.Code != string(domain.ErrCodeUnauthorized) {
			t.Fatalf("%s: expected 401, got %d", name, status)
		}
	}
}

func TestTeamTaskNotificationFlow(t *testing.T) {
	a := newApp(t)
	alice := a.signUp(t, "@alice")
	bob := a.signUp(t, "@bob")

	status, env := call(t, a.team.Create, request{user: alice, body: `{"name":"Platform"}`})
	if status != http.StatusCreated {
		t.Fatalf("create team: %d %+v", status, env.Error)
	}
	var team domain.Team
	decodeData(t, env, &team)

	if status, _ := call(t, a.team.AddMember, request{user: bob, body: `{"username":"@alice"}`, params: map[string]string{"id": team.ID}}); status != http.StatusForbidden {
		t.Fatalf("non-admin add member: expected 403, got %d", status)
	}
	if status, _ := call(t, a.team.AddMember, request{user: alice, body: `{"username":"@bob"}`, params: map[string]string{"id": team.ID}}); status != http.StatusOK {
		t.Fatalf("add member: %d", status)
	}

	status, env = call(t, a.task.Create, request{
		user:   alice,
		body:   `{"title":"Ship","due_date":"2024-03-05","priority":"high","reminder_days":0}`,
		params: map[string]string{"id": team.ID},
	})
	if status != http.StatusCreated {
		t.Fatalf("create task: %d %+v", status, env.Error)
	}
	var task domain.Task
	decodeData(t, env, &task)

	if status, _ := call(t, a.task.Create, request{user: alice, body: `{"title":"Bad","due_date":"05/03/2024"}`, params: map[string]string{"id": team.ID}}); status != http.StatusBadRequest {
		t.Fatalf("bad due date: expected 400, got %d", status)
	}

	if status, env := call(t, a.task.SetAssignees, request{user: alice, body: `{"usernames":["@bob"]}`, params: map[string]string{"id": task.ID}}); status != http.StatusOK {
		t.Fatalf("assign: %d %+v", status, env.Error)
	}

	status, env = call(t, a.notification.List, request{user: bob})
	if status != http.StatusOK {
		t.Fatalf("notifications: %d", status)
	}
	var items []notificationUC.Notification
	decodeData(t, env, &items)
	if len(items) != 1 || items[0].Message != "Reminder: High priority task 'Ship' is due on 2024-03-05." {
		t.Fatalf("unexpected notifications: %+v", items)
	}

	if status, _ := call(t, a.notification.MarkSeen, request{user: bob, params: map[string]string{"id": task.ID}}); status != http.StatusOK {
		t.Fatalf("mark seen: %d", status)
	}
	_, env = call(t, a.notification.List, request{user: bob})
	items = nil
	decodeData(t, env, &items)
	if len(items) != 0 {
		t.Fatalf("expected no notifications after seen, got %+v", items)
	}

	status, env = call(t, a.task.List, request{user: bob, query: "priority=high&completed=false", params: map[string]string{"id": team.ID}})
	var listed []domain.Task
	decodeData(t, env, &listed)
	if status != http.StatusOK || len(listed) != 1 {
		t.Fatalf("filtered list: %d %+v", status, listed)
	}
	if status, _ := call(t, a.task.List, request{user: bob, query: "sort=sideways", params: map[string]string{"id": team.ID}}); status != http.StatusBadRequest {
		t.Fatalf("bad sort: expected 400, got %d", status)
	}

	if status, _ := call(t, a.task.ToggleCompletion, request{user: bob, params: map[string]string{"id": task.ID}}); status != http.StatusOK {
		t.Fatalf("assignee toggle: %d", status)
	}
}

func TestTimeAndActivityHandlers(t *testing.T) {
	a := newApp(t)
	alice := a.signUp(t, "@alice")

	_, env := call(t, a.team.Create, request{user: alice, body: `{"name":"Platform"}`})
	var team domain.Team
	decodeData(t, env, &team)
	_, env = call(t, a.task.Create, request{user: alice, body: `{"title":"Ship","due_date":"2024-03-09"}`, params: map[string]string{"id": team.ID}})
	var task domain.Task
	decodeData(t, env, &task)

	if status, _ := call(t, a.time.Submit, request{user: alice, body: `{"hours":-1}`, params: map[string]string{"id": task.ID}}); status != http.StatusBadRequest {
		t.Fatalf("negative time: expected 400, got %d", status)
	}
	for i := 0; i < 2; i++ {
		if status, env := call(t, a.time.Submit, request{user: alice, body: `{"hours":1,"minutes":1,"seconds":1}`, params: map[string]string{"id": task.ID}}); status != http.StatusOK {
			t.Fatalf("submit: %d %+v", status, env.Error)
		}
	}
	_, env = call(t, a.time.Total, request{user: alice, params: map[string]string{"id": task.ID}})
	var total struct {
		Seconds   int64  `json:"seconds"`
		Formatted string `json:"formatted"`
	}
	decodeData(t, env, &total)
	if total.Seconds != 7322 || total.Formatted != "2h 2m 2s " {
		t.Fatalf("unexpected total: %+v", total)
	}

	status, env := call(t, a.activity.Page, request{user: alice, params: map[string]string{"id": team.ID, "userID": alice.ID}})
	if status != http.StatusOK {
		t.Fatalf("activity: %d %+v", status, env.Error)
	}
	var page activityUC.Page
	decodeData(t, env, &page)
	if page.Total == 0 || page.Entries[0].Message != "@alice created a new task with title 'Ship'" {
		t.Fatalf("unexpected activity page: %+v", page)
	}

	if status, _ := call(t, a.activity.Page, request{user: alice, params: map[string]string{"id": team.ID, "userID": "stranger"}}); status != http.StatusNotFound {
		t.Fatalf("non-member log: expected 404, got %d", status)
	}
}

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

type staticBreaker gobreaker.State

func (s staticBreaker) State() gobreaker.State { return gobreaker.State(s) }

func TestHealth(t *testing.T) {
	healthy := NewHealthHandler(staticStatus{Storage: "memory", Database: true, Redis: true}, staticBreaker(gobreaker.StateClosed), nil, nil)
	if status, env := call(t, healthy.Check, request{}); status != http.StatusOK || env.Status != "success" {
		t.Fatalf("expected healthy, got %d", status)
	}

	degraded := NewHealthHandler(staticStatus{Storage: "postgres", Redis: true}, nil, nil, nil)
	if status, env := call(t, degraded.Check, request{}); status != http.StatusServiceUnavailable || env.Code != "DEGRADED" {
		t.Fatalf("expected degraded, got %d %s", status, env.Code)
	}
}

func TestParseFilterCapsLimit(t *testing.T) {
	cases := map[string]int{"": 100, "0": 100, "-3": 100, "25": 25, "100": 100, "5000": 100}
	for raw, want := range cases {
		args := fasthttp.AcquireArgs()
		if raw != "" {
			args.Set("limit", raw)
		}
		filter, err := parseFilter(args)
		fasthttp.ReleaseArgs(args)
		if err != nil {
			t.Fatalf("limit %q: %v", raw, err)
		}
		if filter.Limit != want {
			t.Fatalf("limit %q: got %d, want %d", raw, filter.Limit, want)
		}
	}
}
