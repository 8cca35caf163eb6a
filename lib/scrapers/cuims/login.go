package cuims

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"cuims-backend/lib/ocrspace"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrLoginAbandoned is returned when every allowed login attempt was
// rejected by the portal.
var ErrLoginAbandoned = errors.New("login abandoned after too many failed attempts")

// conditions that restart the challenge loop instead of failing the call
var (
	errCaptchaNotRendered = errors.New("captcha image did not render")
	errEmptyCaptcha       = errors.New("captcha solver produced no usable text")
	errLoginRejected      = errors.New("portal rejected the login attempt")
)

const captchaTimeout = time.Second * 10

type LoginOptions struct {
	// defaults to 5
	MaxAttempts int
	// wait between failed attempts, defaults to 10s. The live portal
	// throttles rapid login retries, do not set this too low.
	Backoff time.Duration
}

func isTransient(err error) bool {
	return errors.Is(err, errCaptchaNotRendered) ||
		errors.Is(err, errEmptyCaptcha) ||
		errors.Is(err, errLoginRejected)
}

// Login drives the captcha-gated login flow until the portal accepts
// the credentials or the attempt budget runs out. Callers holding a
// persisted session should try RestoreSession + CheckSession first.
func (c *Client) Login(ctx context.Context, uid, password string, opts LoginOptions) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = time.Second * 10
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := c.attemptLogin(ctx, uid, password)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt))
			return nil
		}
		if !isTransient(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "login failed")
			return err
		}

		slog.WarnContext(
			ctx, "login attempt failed, retrying",
			"uid", uid,
			"attempt", attempt,
			"err", err,
		)
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	span.SetStatus(codes.Error, ErrLoginAbandoned.Error())
	return ErrLoginAbandoned
}

func (c *Client) attemptLogin(ctx context.Context, uid, password string) error {
	ch, err := c.issueChallenge(ctx, uid)
	if err != nil {
		return err
	}

	text, err := c.solver.Solve(ctx, ch.image)
	if err != nil {
		return fmt.Errorf("%w: %s", errEmptyCaptcha, err)
	}
	text = ocrspace.FilterText(text)
	if text == "" {
		return errEmptyCaptcha
	}

	return c.solveChallenge(ctx, uid, password, ch, text)
}

type loginChallenge struct {
	// hidden ASP.NET state fields from the challenge page, they have
	// to be echoed back with the login submission
	form  map[string]string
	image []byte
}

// issueChallenge submits the user id to the login form and captures the
// captcha image the portal renders in response.
func (c *Client) issueChallenge(ctx context.Context, uid string) (loginChallenge, error) {
	ctx, span := tracer.Start(ctx, "client:issueChallenge")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch the login page")
		return loginChallenge{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse the login page")
		return loginChallenge{}, err
	}

	form := hiddenFields(doc)
	form["txtUserId"] = uid
	form["btnNext"] = "NEXT"

	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit the user id")
		return loginChallenge{}, err
	}
	doc, err = goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse the challenge page")
		return loginChallenge{}, err
	}

	src := doc.Find("#imgCaptcha").AttrOr("src", "")
	if src == "" {
		return loginChallenge{}, errCaptchaNotRendered
	}

	imgCtx, cancel := context.WithTimeout(ctx, captchaTimeout)
	defer cancel()
	img, err := c.Http.R().
		SetContext(imgCtx).
		Get(src)
	if err != nil {
		// a captcha that fails to load in time restarts the cycle,
		// it does not fail the call
		return loginChallenge{}, fmt.Errorf("%w: %s", errCaptchaNotRendered, err)
	}

	return loginChallenge{
		form:  hiddenFields(doc),
		image: img.Body(),
	}, nil
}

// solveChallenge submits the password and captcha text, then compares
// the final url against the authenticated landing page. Anything other
// than landing on the home page counts as a rejection.
func (c *Client) solveChallenge(ctx context.Context, uid, password string, ch loginChallenge, captcha string) error {
	ctx, span := tracer.Start(ctx, "client:solveChallenge")
	defer span.End()

	form := maps.Clone(ch.form)
	form["txtUserId"] = uid
	form["txtLoginPassword"] = password
	form["txtcaptcha"] = captcha
	form["btnLogin"] = "LOGIN"

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit the login form")
		return err
	}

	if !c.isHome(res) {
		return errLoginRejected
	}
	return nil
}

func hiddenFields(doc *goquery.Document) map[string]string {
	form := map[string]string{}
	doc.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		form[name] = input.AttrOr("value", "")
	})
	return form
}
