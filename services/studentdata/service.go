// Package studentdata orchestrates portal scrapes: it authenticates a
// cuims client (reusing persisted sessions when they still hold),
// fans out to the extractors a refresh domain selects, projects
// attendance against the user's goal and persists every payload as a
// json domain record.
package studentdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cuims-backend/lib/restyutil"
	"cuims-backend/lib/scrapers/cuims"
	"cuims-backend/lib/sessionstore"
	"cuims-backend/lib/timezone"
	"cuims-backend/services/studentdata/db"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DomainInitial = "initial"
	DomainAll     = "all"

	DomainAttendance = "attendance"
	DomainCourses    = "courses"
	DomainTimetable  = "timetable"
	DomainMarks      = "marks"
	DomainProfile    = "profile"
	DomainResult     = "result"
	DomainLeaves     = "leaves"
	DomainDatesheet  = "datesheet"
	DomainFees       = "fees"
)

var allDomains = []string{
	DomainAttendance,
	DomainCourses,
	DomainTimetable,
	DomainMarks,
	DomainProfile,
	DomainResult,
	DomainLeaves,
	DomainDatesheet,
	DomainFees,
}

const refreshTimeout = time.Minute * 5

type Options struct {
	DB           *sql.DB
	SessionStore *sessionstore.Store
	Solver       cuims.Solver
	// defaults to cuims.DefaultBaseUrl
	BaseUrl string
	Login   cuims.LoginOptions
	// when set, every portal request/response pair is dumped here
	HttpDump restyutil.InstrumentOutput
}

type Service struct {
	db       *sql.DB
	qry      *db.Queries
	sessions *sessionstore.Store
	solver   cuims.Solver
	baseUrl  string
	login    cuims.LoginOptions
	httpDump restyutil.InstrumentOutput
}

func NewService(opts Options) Service {
	return Service{
		db:       opts.DB,
		qry:      db.New(opts.DB),
		sessions: opts.SessionStore,
		solver:   opts.Solver,
		baseUrl:  opts.BaseUrl,
		login:    opts.Login,
		httpDump: opts.HttpDump,
	}
}

// resolveDomains expands a refresh domain into the extractor names it
// covers. "initial" is the cheap set a first app load wants, "all" is
// everything, anything else must name a single extractor.
func resolveDomains(domain string) ([]string, error) {
	switch domain {
	case DomainInitial:
		return []string{DomainAttendance, DomainCourses, DomainTimetable}, nil
	case DomainAll:
		return allDomains, nil
	}
	for _, known := range allDomains {
		if domain == known {
			return []string{domain}, nil
		}
	}
	return nil, fmt.Errorf("unknown refresh domain %q", domain)
}

// Refresh logs into the portal as the given user and refreshes the
// stored records for every extractor the domain selects. Individual
// extractors may fail without failing the refresh, an error comes back
// only when authentication fails or no extractor produced anything.
func (s Service) Refresh(ctx context.Context, uid, password, domain string) error {
	ctx, span := tracer.Start(ctx, "service:Refresh")
	defer span.End()
	span.SetAttributes(attribute.String("domain", domain))

	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	domains, err := resolveDomains(domain)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = s.sessions.SetStatus(ctx, uid, "Refreshing Data")
	if err != nil {
		slog.WarnContext(ctx, "failed to set refresh status", "uid", uid, "err", err)
	}
	defer func() {
		err := s.sessions.SetStatus(
			context.WithoutCancel(ctx), uid,
			timezone.Now().Format(time.RFC3339),
		)
		if err != nil {
			slog.WarnContext(ctx, "failed to finalize refresh status", "uid", uid, "err", err)
		}
	}()

	client, err := s.authenticate(ctx, uid, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authentication failed")
		return err
	}

	err = s.qry.EnsureUser(ctx, uid)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to ensure user row")
		return err
	}

	var failures []error
	for _, name := range domains {
		payload, err := s.scrapeDomain(ctx, client, uid, name)
		if err != nil {
			slog.WarnContext(
				ctx, "extractor failed",
				"uid", uid,
				"domain", name,
				"err", err,
			)
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			continue
		}

		encoded, err := json.Marshal(payload)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			continue
		}
		err = s.qry.UpsertDomainRecord(ctx, db.UpsertDomainRecordParams{
			Uid:       uid,
			Domain:    name,
			Payload:   string(encoded),
			ScrapedAt: timezone.Now().Unix(),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to persist a domain record")
			return err
		}
	}

	if len(failures) == len(domains) {
		err := errors.Join(failures...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "every extractor failed")
		return err
	}
	return nil
}

// authenticate produces a logged-in client, trying the persisted
// session before falling back to the captcha flow.
func (s Service) authenticate(ctx context.Context, uid, password string) (*cuims.Client, error) {
	ctx, span := tracer.Start(ctx, "service:authenticate")
	defer span.End()

	client, err := cuims.NewClient(ctx, cuims.ClientOptions{
		BaseUrl: s.baseUrl,
		Solver:  s.solver,
	})
	if err != nil {
		return nil, err
	}
	if s.httpDump != nil {
		client.SetRestyInstrumentOutput(s.httpDump)
	}

	token, err := s.sessions.LoadSession(ctx, uid)
	if err == nil {
		restored := client.RestoreSession(token) == nil
		if restored {
			ok, err := client.CheckSession(ctx)
			if err != nil {
				slog.WarnContext(ctx, "session check failed", "uid", uid, "err", err)
			}
			if ok {
				span.SetAttributes(attribute.Bool("session_reused", true))
				return client, nil
			}
		}
		if err := client.ClearSession(); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, sessionstore.ErrNotFound) {
		slog.WarnContext(ctx, "failed to load persisted session", "uid", uid, "err", err)
	}

	span.SetAttributes(attribute.Bool("session_reused", false))
	err = client.Login(ctx, uid, password, s.login)
	if err != nil {
		return nil, err
	}

	token, err = client.ExportSession()
	if err != nil {
		return nil, err
	}
	err = s.sessions.SaveSession(ctx, uid, token)
	if err != nil {
		// the refresh still works off the live client, only the next
		// run pays for the lost snapshot
		slog.WarnContext(ctx, "failed to persist session", "uid", uid, "err", err)
	}
	return client, nil
}

func (s Service) scrapeDomain(ctx context.Context, client *cuims.Client, uid, name string) (any, error) {
	switch name {
	case DomainAttendance:
		records, err := client.Attendance(ctx)
		if err != nil {
			return nil, err
		}
		goal, err := s.AttendanceGoal(ctx, uid)
		if err != nil {
			return nil, err
		}
		return ProjectAttendance(records, goal), nil
	case DomainCourses:
		return client.Courses(ctx)
	case DomainTimetable:
		return client.Timetable(ctx)
	case DomainMarks:
		return client.Marks(ctx)
	case DomainProfile:
		return client.Profile(ctx)
	case DomainResult:
		return client.Result(ctx)
	case DomainLeaves:
		return client.Leaves(ctx)
	case DomainDatesheet:
		return client.Datesheet(ctx)
	case DomainFees:
		return client.Fees(ctx)
	}
	return nil, fmt.Errorf("unknown extractor %q", name)
}

// AttendanceGoal returns the user's stored goal percentage, or the
// default when the user has never set one.
func (s Service) AttendanceGoal(ctx context.Context, uid string) (float64, error) {
	goal, err := s.qry.GetAttendanceGoal(ctx, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultAttendanceGoal, nil
	}
	if err != nil {
		return 0, err
	}
	return goal, nil
}

// SetAttendanceGoal stores a new goal percentage for the user. Already
// persisted attendance projections keep the old goal until the next
// refresh.
func (s Service) SetAttendanceGoal(ctx context.Context, uid string, goal float64) error {
	if goal <= 0 || goal > 100 {
		return fmt.Errorf("attendance goal must be within (0, 100], got %v", goal)
	}
	return s.qry.SetAttendanceGoal(ctx, db.SetAttendanceGoalParams{
		Uid:            uid,
		AttendanceGoal: goal,
	})
}

// Record returns the stored payload for one domain.
func (s Service) Record(ctx context.Context, uid, domain string) (db.DomainRecord, error) {
	return s.qry.GetDomainRecord(ctx, db.GetDomainRecordParams{
		Uid:    uid,
		Domain: domain,
	})
}

// Records returns every stored payload for a user.
func (s Service) Records(ctx context.Context, uid string) ([]db.DomainRecord, error) {
	return s.qry.ListDomainRecords(ctx, uid)
}

// Status returns the last refresh status: "Refreshing Data" while one
// is running, an RFC 3339 timestamp after the last one finished, empty
// when the user was never refreshed.
func (s Service) Status(ctx context.Context, uid string) (string, error) {
	return s.sessions.GetStatus(ctx, uid)
}
