package cuims

import (
	"context"
	"fmt"
	"strings"

	"cuims-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const daysPerWeek = 7

// Timetable scrapes the weekly grid into per-day period lists, Monday
// first. Cells that do not follow the portal's period format are
// skipped.
func (c *Client) Timetable(ctx context.Context) (Timetable, error) {
	ctx, span := tracer.Start(ctx, "client:Timetable")
	defer span.End()

	doc, err := c.getDocument(ctx, timetablePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the timetable page")
		return nil, err
	}

	grid := doc.Find("#ContentPlaceHolder1_grdMain tbody")
	if grid.Length() == 0 {
		err := fmt.Errorf("could not find the timetable grid")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	timetable := make(Timetable, daysPerWeek)
	for day := range timetable {
		timetable[day] = []TimetablePeriod{}
	}

	grid.Find("tr").Each(func(rowIdx int, row *goquery.Selection) {
		if rowIdx == 0 {
			// header row
			return
		}
		cols := row.Find("td")
		if cols.Length() < 2 {
			return
		}
		periodTime := htmlutil.CellText(cols.Eq(0))

		for day := 0; day < daysPerWeek && day+1 < cols.Length(); day++ {
			cell := htmlutil.CellText(cols.Eq(day + 1))
			if cell == "" {
				continue
			}
			period, ok := parsePeriod(cell, periodTime, day+1)
			if !ok {
				continue
			}
			timetable[day] = append(timetable[day], period)
		}
	})

	return timetable, nil
}

// parsePeriod picks a period cell apart. The portal renders cells as
//
//	CST-301:Lecture::By John Doe at Block A-101 on 10:30-11:20
//
// where the teacher part is sometimes missing entirely.
func parsePeriod(cell, periodTime string, day int) (TimetablePeriod, bool) {
	combined := cell + " on " + periodTime

	head, tail, found := strings.Cut(combined, "::")
	if !found {
		return TimetablePeriod{}, false
	}
	subject, _, _ := strings.Cut(head, ":")

	_, afterBy, found := strings.Cut(tail, "By ")
	if !found {
		return TimetablePeriod{}, false
	}

	var teacher, location, timeslot string
	beforeAt, afterAt, hasTeacher := strings.Cut(afterBy, " at ")
	if hasTeacher {
		teacher = beforeAt
		location, timeslot, found = strings.Cut(afterAt, "on")
		if !found {
			return TimetablePeriod{}, false
		}
	} else {
		_, afterAt, found = strings.Cut(afterBy, "at ")
		if !found {
			return TimetablePeriod{}, false
		}
		location, timeslot, found = strings.Cut(afterAt, " on ")
		if !found {
			return TimetablePeriod{}, false
		}
	}

	return TimetablePeriod{
		SubjectCode: strings.TrimSpace(subject),
		Teacher:     strings.TrimSpace(teacher),
		Location:    strings.TrimSpace(location),
		Time:        strings.TrimSpace(timeslot),
		DayNumber:   day,
	}, true
}
