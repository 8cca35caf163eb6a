package cuims

import (
	"context"
	"fmt"
	"strconv"

	"cuims-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Attendance scrapes the course-wise attendance summary. Rows whose
// delivered/attended cells do not parse as integers are skipped, the
// portal pads the table with aggregate rows.
func (c *Client) Attendance(ctx context.Context) ([]CourseAttendance, error) {
	ctx, span := tracer.Start(ctx, "client:Attendance")
	defer span.End()

	doc, err := c.getDocument(ctx, attendancePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the attendance page")
		return nil, err
	}

	table := doc.Find("#SortTable tbody")
	if table.Length() == 0 {
		err := fmt.Errorf("could not find the attendance table")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var records []CourseAttendance
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := htmlutil.RowCells(row)
		if len(cells) < 11 {
			return
		}
		delivered, err := strconv.Atoi(cells[8])
		if err != nil {
			return
		}
		attended, err := strconv.Atoi(cells[9])
		if err != nil {
			return
		}
		records = append(records, CourseAttendance{
			Code:      cells[0],
			Title:     cells[1],
			Delivered: delivered,
			Attended:  attended,
		})
	})

	return records, nil
}
