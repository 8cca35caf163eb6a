package cuims

import (
	"context"

	"cuims-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Datesheet scrapes the upcoming exam schedule. The venue cell carries
// a seating-plan link when one has been published, so the link target
// is preferred over the cell text.
func (c *Client) Datesheet(ctx context.Context) ([]ExamEntry, error) {
	ctx, span := tracer.Start(ctx, "client:Datesheet")
	defer span.End()

	doc, err := c.getDocument(ctx, datesheetPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the datesheet page")
		return nil, err
	}

	entries := []ExamEntry{}
	doc.Find("table tbody tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cols := row.Find("td")
		if cols.Length() < 10 {
			return
		}
		cells := htmlutil.RowCells(row)

		venue := cells[9]
		if href := cols.Eq(9).Find("a").First().AttrOr("href", ""); href != "" {
			venue = href
		}

		entries = append(entries, ExamEntry{
			ExamType:      cells[0],
			DatesheetType: cells[1],
			CourseCode:    cells[2],
			CourseName:    cells[3],
			SlotNo:        cells[4],
			ExamDate:      cells[7],
			ExamTime:      cells[8],
			Venue:         venue,
		})
	})

	return entries, nil
}
