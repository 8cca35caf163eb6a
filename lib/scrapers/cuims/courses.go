package cuims

import (
	"context"
	"fmt"

	"cuims-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Courses scrapes the registered course list off the timetable page.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	ctx, span := tracer.Start(ctx, "client:Courses")
	defer span.End()

	doc, err := c.getDocument(ctx, timetablePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the timetable page")
		return nil, err
	}

	// the page contains the weekly grid and a plain course table, the
	// course table is the one that is not the grid
	table := doc.Find("table").Not("#ContentPlaceHolder1_grdMain").First()
	if table.Length() == 0 {
		err := fmt.Errorf("could not find the course table")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var courses []Course
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			// header row
			return
		}
		cells := htmlutil.RowCells(row)
		if len(cells) < 2 {
			return
		}
		courses = append(courses, Course{
			Code: cells[0],
			Name: cells[1],
		})
	})

	return courses, nil
}
