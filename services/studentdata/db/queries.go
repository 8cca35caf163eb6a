package db

import (
	"context"
)

type DomainRecord struct {
	Uid       string
	Domain    string
	Payload   string
	ScrapedAt int64
}

const ensureUser = `
INSERT INTO users (uid) VALUES (?)
ON CONFLICT (uid) DO NOTHING
`

func (q *Queries) EnsureUser(ctx context.Context, uid string) error {
	_, err := q.db.ExecContext(ctx, ensureUser, uid)
	return err
}

const getAttendanceGoal = `
SELECT attendance_goal FROM users WHERE uid = ?
`

func (q *Queries) GetAttendanceGoal(ctx context.Context, uid string) (float64, error) {
	row := q.db.QueryRowContext(ctx, getAttendanceGoal, uid)
	var attendanceGoal float64
	err := row.Scan(&attendanceGoal)
	return attendanceGoal, err
}

const setAttendanceGoal = `
INSERT INTO users (uid, attendance_goal) VALUES (?, ?)
ON CONFLICT (uid) DO UPDATE SET attendance_goal = excluded.attendance_goal
`

type SetAttendanceGoalParams struct {
	Uid            string
	AttendanceGoal float64
}

func (q *Queries) SetAttendanceGoal(ctx context.Context, arg SetAttendanceGoalParams) error {
	_, err := q.db.ExecContext(ctx, setAttendanceGoal, arg.Uid, arg.AttendanceGoal)
	return err
}

const upsertDomainRecord = `
INSERT INTO domain_records (uid, domain, payload, scraped_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (uid, domain) DO UPDATE SET
    payload = excluded.payload,
    scraped_at = excluded.scraped_at
`

type UpsertDomainRecordParams struct {
	Uid       string
	Domain    string
	Payload   string
	ScrapedAt int64
}

func (q *Queries) UpsertDomainRecord(ctx context.Context, arg UpsertDomainRecordParams) error {
	_, err := q.db.ExecContext(ctx, upsertDomainRecord,
		arg.Uid,
		arg.Domain,
		arg.Payload,
		arg.ScrapedAt,
	)
	return err
}

const getDomainRecord = `
SELECT uid, domain, payload, scraped_at FROM domain_records
WHERE uid = ? AND domain = ?
`

type GetDomainRecordParams struct {
	Uid    string
	Domain string
}

func (q *Queries) GetDomainRecord(ctx context.Context, arg GetDomainRecordParams) (DomainRecord, error) {
	row := q.db.QueryRowContext(ctx, getDomainRecord, arg.Uid, arg.Domain)
	var i DomainRecord
	err := row.Scan(&i.Uid, &i.Domain, &i.Payload, &i.ScrapedAt)
	return i, err
}

const listDomainRecords = `
SELECT uid, domain, payload, scraped_at FROM domain_records
WHERE uid = ?
ORDER BY domain
`

func (q *Queries) ListDomainRecords(ctx context.Context, uid string) ([]DomainRecord, error) {
	rows, err := q.db.QueryContext(ctx, listDomainRecords, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DomainRecord
	for rows.Next() {
		var i DomainRecord
		if err := rows.Scan(&i.Uid, &i.Domain, &i.Payload, &i.ScrapedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
