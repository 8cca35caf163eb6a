package studentdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cuims-backend/lib/scrapers/cuims"
	"cuims-backend/lib/sessionstore"
	"cuims-backend/lib/testutil"
	"cuims-backend/services/studentdata/db"

	"github.com/stretchr/testify/require"
)

const testCaptcha = "QW3RT8"

// a trimmed-down copy of the live portal: captcha-gated login, session
// cookies and a handful of canned pages
type testPortal struct {
	server *httptest.Server

	mu              sync.Mutex
	sessions        map[string]bool
	captchaRequests int
	pages           map[string]string
}

func newTestPortal(t *testing.T) *testPortal {
	p := &testPortal{
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

func (p *testPortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		fmt.Fprint(w, `<html><body><form>
<input type="hidden" name="__VIEWSTATE" value="viewstate" />
</form></body></html>`)
		return
	}
	r.ParseForm()
	if r.PostForm.Get("btnNext") != "" {
		fmt.Fprint(w, `<html><body><form>
<input type="hidden" name="__VIEWSTATE" value="viewstate2" />
<img id="imgCaptcha" src="/captcha.png" />
</form></body></html>`)
		return
	}
	if r.PostForm.Get("txtcaptcha") != testCaptcha {
		fmt.Fprint(w, "<html><body>wrong captcha</body></html>")
		return
	}

	p.mu.Lock()
	id := fmt.Sprintf("session-%d", len(p.sessions)+1)
	p.sessions[id] = true
	p.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: id, Path: "/"})
	http.Redirect(w, r, "/StudentHome.aspx", http.StatusFound)
}

func (p *testPortal) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.captchaRequests++
	p.mu.Unlock()
	w.Write([]byte("png bytes"))
}

func (p *testPortal) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie("ASP.NET_SessionId")
	if err != nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[cookie.Value]
}

func (p *testPortal) handleHome(w http.ResponseWriter, r *http.Request) {
	if !p.authenticated(r) {
		http.Redirect(w, r, "/Login.aspx", http.StatusFound)
		return
	}
	fmt.Fprint(w, "<html><body>Welcome</body></html>")
}

func (p *testPortal) handlePage(w http.ResponseWriter, r *http.Request) {
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

type solverFunc func(ctx context.Context, image []byte) (string, error)

func (f solverFunc) Solve(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

const testAttendancePage = `<html><body>
<table id="SortTable"><tbody>
<tr>
<td>CST-301</td><td>Operating Systems</td>
<td>0</td><td>0</td><td>0</td><td>0</td><td>0</td><td>0</td>
<td>20</td><td>20</td><td>100.00</td>
</tr>
</tbody></table>
</body></html>`

const testTimetablePage = `<html><body>
<table><tbody>
<tr><th>Code</th><th>Name</th></tr>
<tr><td>CST-301</td><td>Operating Systems</td></tr>
</tbody></table>
<table id="ContentPlaceHolder1_grdMain"><tbody>
<tr><th>Timing</th><th>Mon</th></tr>
<tr><td>10:30-11:20</td><td>CST-301:Lecture::By John Doe at Block A-101</td>
<td></td><td></td><td></td><td></td><td></td><td></td></tr>
</tbody></table>
</body></html>`

const testMarksPage = `<html><body>
<h3 class="ui-accordion-header" aria-controls="panel_0">CST-301: Operating Systems</h3>
<div id="panel_0"><table><tbody>
<tr><td>Experiment 1</td><td>10</td><td>8</td></tr>
</tbody></table></div>
</body></html>`

func setupTest(t *testing.T, portal *testPortal) (Service, func()) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/studentdata",
		DbSchema: db.Schema,
	})

	sessions, err := sessionstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })

	service := NewService(Options{
		DB:           setup.DB,
		SessionStore: sessions,
		Solver: solverFunc(func(ctx context.Context, image []byte) (string, error) {
			return testCaptcha, nil
		}),
		BaseUrl: portal.server.URL,
		Login:   cuims.LoginOptions{MaxAttempts: 2, Backoff: time.Millisecond},
	})
	return service, cleanup
}

func TestRefreshInitial(t *testing.T) {
	portal := newTestPortal(t)
	portal.pages["/frmStudentCourseWiseAttendanceSummary.aspx"] = testAttendancePage
	portal.pages["/frmMyTimeTable.aspx"] = testTimetablePage
	service, cleanup := setupTest(t, portal)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	err := service.Refresh(ctx, "23BCS12345", "hunter2", DomainInitial)
	require.NoError(t, err)

	records, err := service.Records(ctx, "23BCS12345")
	require.NoError(t, err)
	require.Len(t, records, 3)

	record, err := service.Record(ctx, "23BCS12345", DomainAttendance)
	require.NoError(t, err)

	var projections []CourseProjection
	require.NoError(t, json.Unmarshal([]byte(record.Payload), &projections))
	require.Len(t, projections, 1)
	require.Equal(t, StatusSafe, projections[0].Status)
	require.Equal(t, "You can miss 6 more classes", projections[0].Message)

	status, err := service.Status(ctx, "23BCS12345")
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339, status)
	require.NoError(t, err)
}

func TestRefreshSingleDomain(t *testing.T) {
	portal := newTestPortal(t)
	portal.pages["/frmStudentMarksView.aspx"] = testMarksPage
	service, cleanup := setupTest(t, portal)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	err := service.Refresh(ctx, "23BCS12345", "hunter2", DomainMarks)
	require.NoError(t, err)

	// a marks-only refresh must not touch any other domain
	records, err := service.Records(ctx, "23BCS12345")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, DomainMarks, records[0].Domain)

	var marks []cuims.SubjectMarks
	require.NoError(t, json.Unmarshal([]byte(records[0].Payload), &marks))
	require.Len(t, marks, 1)
	require.Equal(t, "CST-301: Operating Systems", marks[0].Subject)
}

func TestRefreshReusesSession(t *testing.T) {
	portal := newTestPortal(t)
	portal.pages["/frmStudentMarksView.aspx"] = testMarksPage
	service, cleanup := setupTest(t, portal)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	err := service.Refresh(ctx, "23BCS12345", "hunter2", DomainMarks)
	require.NoError(t, err)
	require.Equal(t, 1, portal.captchaRequests)

	err = service.Refresh(ctx, "23BCS12345", "hunter2", DomainMarks)
	require.NoError(t, err)
	require.Equal(t, 1, portal.captchaRequests)
}

func TestRefreshUnknownDomain(t *testing.T) {
	portal := newTestPortal(t)
	service, cleanup := setupTest(t, portal)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := service.Refresh(ctx, "23BCS12345", "hunter2", "gpa")
	require.Error(t, err)
}

func TestRefreshUsesStoredGoal(t *testing.T) {
	portal := newTestPortal(t)
	portal.pages["/frmStudentCourseWiseAttendanceSummary.aspx"] = testAttendancePage
	service, cleanup := setupTest(t, portal)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	require.NoError(t, service.SetAttendanceGoal(ctx, "23BCS12345", 90))

	err := service.Refresh(ctx, "23BCS12345", "hunter2", DomainAttendance)
	require.NoError(t, err)

	record, err := service.Record(ctx, "23BCS12345", DomainAttendance)
	require.NoError(t, err)
	var projections []CourseProjection
	require.NoError(t, json.Unmarshal([]byte(record.Payload), &projections))
	// 20/22 ~ 90.9% holds at goal 90, 20/23 ~ 87.0% does not
	require.Equal(t, "You can miss 2 more classes", projections[0].Message)
}

func TestAttendanceGoal(t *testing.T) {
	portal := newTestPortal(t)
	service, cleanup := setupTest(t, portal)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	goal, err := service.AttendanceGoal(ctx, "nobody")
	require.NoError(t, err)
	require.Equal(t, float64(DefaultAttendanceGoal), goal)

	require.NoError(t, service.SetAttendanceGoal(ctx, "23BCS12345", 85))
	goal, err = service.AttendanceGoal(ctx, "23BCS12345")
	require.NoError(t, err)
	require.Equal(t, 85.0, goal)

	require.Error(t, service.SetAttendanceGoal(ctx, "23BCS12345", 0))
	require.Error(t, service.SetAttendanceGoal(ctx, "23BCS12345", 101))
}
