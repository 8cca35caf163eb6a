package cuims

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const fakeCaptcha = "XK4P9A"

// fakePortal mimics the ASP.NET login flow of the live portal: a user
// id submission renders a captcha, a correct captcha plus credentials
// redirects to the home page and mints a session cookie. Everything
// else bounces back to the login form.
type fakePortal struct {
	server *httptest.Server

	mu              sync.Mutex
	sessions        map[string]bool
	captchaRequests int
	loginAttempts   int
	rejectLogins    bool
	pages           map[string]string
}

func newFakePortal(t *testing.T) *fakePortal {
	p := &fakePortal{
		sessions: map[string]bool{},
		pages:    map[string]string{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/Login.aspx", p.handleLogin)
	mux.HandleFunc("/captcha.png", p.handleCaptcha)
	mux.HandleFunc("/StudentHome.aspx", p.handleHome)
	mux.HandleFunc("/", p.handlePage)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

const loginFormHtml = `<html><body><form method="post">
<input type="hidden" name="__VIEWSTATE" value="viewstate" />
<input type="hidden" name="__EVENTVALIDATION" value="eventvalidation" />
<input type="text" name="txtUserId" />
</form></body></html>`

const challengeHtml = `<html><body><form method="post">
<input type="hidden" name="__VIEWSTATE" value="viewstate2" />
<input type="hidden" name="__EVENTVALIDATION" value="eventvalidation2" />
<input type="password" name="txtLoginPassword" />
<img id="imgCaptcha" src="/captcha.png" />
<input type="text" name="txtcaptcha" />
</form></body></html>`

func (p *fakePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		fmt.Fprint(w, loginFormHtml)
		return
	}

	r.ParseForm()
	if r.PostForm.Get("btnNext") != "" {
		if r.PostForm.Get("__VIEWSTATE") == "" {
			http.Error(w, "missing form state", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, challengeHtml)
		return
	}

	p.mu.Lock()
	p.loginAttempts++
	accept := !p.rejectLogins && r.PostForm.Get("txtcaptcha") == fakeCaptcha
	p.mu.Unlock()

	if !accept {
		fmt.Fprint(w, loginFormHtml)
		return
	}

	p.mu.Lock()
	id := fmt.Sprintf("session-%d", len(p.sessions)+1)
	p.sessions[id] = true
	p.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: id, Path: "/"})
	http.Redirect(w, r, "/StudentHome.aspx", http.StatusFound)
}

func (p *fakePortal) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.captchaRequests++
	p.mu.Unlock()
	w.Header().Set("Content-Type", "image/png")
	w.Write([]byte("not-really-a-png"))
}

func (p *fakePortal) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie("ASP.NET_SessionId")
	if err != nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[cookie.Value]
}

func (p *fakePortal) handleHome(w http.ResponseWriter, r *http.Request) {
	if !p.authenticated(r) {
		http.Redirect(w, r, "/Login.aspx", http.StatusFound)
		return
	}
	fmt.Fprint(w, "<html><body>Welcome</body></html>")
}

func (p *fakePortal) handlePage(w http.ResponseWriter, r *http.Request) {
	if !p.authenticated(r) {
		http.Redirect(w, r, "/Login.aspx", http.StatusFound)
		return
	}
	p.mu.Lock()
	page, ok := p.pages[r.URL.Path]
	p.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, page)
}

func (p *fakePortal) expireSessions() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.sessions {
		p.sessions[id] = false
	}
}

type solverFunc func(ctx context.Context, image []byte) (string, error)

func (f solverFunc) Solve(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

func correctSolver() Solver {
	return solverFunc(func(ctx context.Context, image []byte) (string, error) {
		return fakeCaptcha, nil
	})
}

func newTestClient(t *testing.T, portal *fakePortal, solver Solver) *Client {
	client, err := NewClient(context.Background(), ClientOptions{
		BaseUrl: portal.server.URL,
		Solver:  solver,
	})
	require.NoError(t, err)
	return client
}

var quickLogin = LoginOptions{MaxAttempts: 3, Backoff: time.Millisecond}

func TestLogin(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal, correctSolver())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	ok, err := client.CheckSession(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	err = client.Login(ctx, "23BCS12345", "hunter2", quickLogin)
	require.NoError(t, err)

	ok, err = client.CheckSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, portal.captchaRequests)
}

func TestSessionReuse(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal, correctSolver())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := client.Login(ctx, "23BCS12345", "hunter2", quickLogin)
	require.NoError(t, err)

	token, err := client.ExportSession()
	require.NoError(t, err)

	// a separate client restoring the snapshot must authenticate
	// without ever touching the captcha flow
	before := portal.captchaRequests
	restored := newTestClient(t, portal, nil)
	err = restored.RestoreSession(token)
	require.NoError(t, err)

	ok, err := restored.CheckSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, before, portal.captchaRequests)
}

func TestExpiredSession(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal, correctSolver())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	err := client.Login(ctx, "23BCS12345", "hunter2", quickLogin)
	require.NoError(t, err)

	portal.expireSessions()

	ok, err := client.CheckSession(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, client.ClearSession())
	err = client.Login(ctx, "23BCS12345", "hunter2", quickLogin)
	require.NoError(t, err)

	ok, err = client.CheckSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLoginAbandoned(t *testing.T) {
	portal := newFakePortal(t)
	unsolvable := solverFunc(func(ctx context.Context, image []byte) (string, error) {
		return "", nil
	})
	client := newTestClient(t, portal, unsolvable)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	err := client.Login(ctx, "23BCS12345", "hunter2", quickLogin)
	require.ErrorIs(t, err, ErrLoginAbandoned)
	// an empty solve never reaches the submission step
	require.Equal(t, 0, portal.loginAttempts)
	require.Equal(t, 3, portal.captchaRequests)
}

func TestWrongCaptchaRetries(t *testing.T) {
	portal := newFakePortal(t)
	var solves int
	eventually := solverFunc(func(ctx context.Context, image []byte) (string, error) {
		solves++
		if solves < 3 {
			return "wrong", nil
		}
		return fakeCaptcha, nil
	})
	client := newTestClient(t, portal, eventually)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	err := client.Login(ctx, "23BCS12345", "hunter2", quickLogin)
	require.NoError(t, err)
	require.Equal(t, 3, portal.loginAttempts)

	ok, err := client.CheckSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}
