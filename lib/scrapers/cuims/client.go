// Package cuims logs into the CUIMS student portal and scrapes the
// various student data pages out of it.
//
// The portal has no API: everything goes through the same session-based
// html frontend a browser would see, so the client keeps a cookie jar,
// walks the ASP.NET form flows and parses the rendered markup.
package cuims

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"cuims-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/PuerkitoBio/purell"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const DefaultBaseUrl = "https://students.cuchd.in"

const (
	loginPath = "/Login.aspx"
	homePath  = "/StudentHome.aspx"

	attendancePath   = "/frmStudentCourseWiseAttendanceSummary.aspx?type=etgkYfqBdH1fSfc255iYGw=="
	timetablePath    = "/frmMyTimeTable.aspx"
	profilePath      = "/frmStudentProfile.aspx"
	marksPath        = "/frmStudentMarksView.aspx"
	resultPath       = "/result.aspx"
	datesheetPath    = "/frmStudentDatesheet.aspx"
	feesPath         = "/frmAccountStudentDetails.aspx"
	dutyLeavePath    = "/frmStudentApplyDutyLeave.aspx"
	medicalLeavePath = "/frmStudentMedicalLeaveApply.aspx"
)

// Solver turns a captcha image into text. Implementations may return
// empty or garbage text, the login loop treats that as a retryable
// condition rather than an error.
type Solver interface {
	Solve(ctx context.Context, image []byte) (string, error)
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	solver  Solver
	homeUrl string
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	Solver  Solver
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	rawBaseUrl := opts.BaseUrl
	if rawBaseUrl == "" {
		rawBaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(rawBaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(rawBaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/cuims/http")

	home, err := baseUrl.Parse(homePath)
	if err != nil {
		return nil, err
	}

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
		solver:  opts.Solver,
		homeUrl: normalizeUrl(home),
	}
	return c, nil
}

func normalizeUrl(u *url.URL) string {
	return purell.NormalizeURL(
		u,
		purell.FlagsSafe|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
}

// reports whether the response landed on the authenticated home page,
// the portal redirects everything else back to the login form
func (c *Client) isHome(res *resty.Response) bool {
	raw := res.RawResponse
	if raw == nil || raw.Request == nil || raw.Request.URL == nil {
		return false
	}
	return normalizeUrl(raw.Request.URL) == c.homeUrl
}

// CheckSession reports whether the cookies currently in the jar still
// authenticate against the portal. Session validity is never assumed,
// the server invalidates tokens on its own schedule.
func (c *Client) CheckSession(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:CheckSession")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(homePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the landing page")
		return false, err
	}
	return c.isHome(res), nil
}

type sessionSnapshot struct {
	Cookies []*http.Cookie `json:"cookies"`
}

// ExportSession serializes the authenticated cookie jar so a later run
// can skip the captcha flow entirely.
func (c *Client) ExportSession() ([]byte, error) {
	jar := c.Http.GetClient().Jar
	return json.Marshal(sessionSnapshot{
		Cookies: jar.Cookies(c.BaseUrl),
	})
}

// RestoreSession loads a snapshot produced by ExportSession into the
// cookie jar.
func (c *Client) RestoreSession(token []byte) error {
	var snapshot sessionSnapshot
	err := json.Unmarshal(token, &snapshot)
	if err != nil {
		return err
	}
	c.Http.GetClient().Jar.SetCookies(c.BaseUrl, snapshot.Cookies)
	return nil
}

// ClearSession swaps in a fresh cookie jar, dropping whatever stale
// state a failed restore left behind.
func (c *Client) ClearSession() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	c.Http.SetCookieJar(jar)
	return nil
}

func (c *Client) getDocument(ctx context.Context, path string) (*goquery.Document, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}
