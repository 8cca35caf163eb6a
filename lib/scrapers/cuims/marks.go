package cuims

import (
	"context"

	"cuims-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Marks scrapes the per-subject marks accordion. Each accordion header
// names a subject and points at a panel holding its experiment table.
func (c *Client) Marks(ctx context.Context) ([]SubjectMarks, error) {
	ctx, span := tracer.Start(ctx, "client:Marks")
	defer span.End()

	doc, err := c.getDocument(ctx, marksPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the marks page")
		return nil, err
	}

	var subjects []SubjectMarks
	doc.Find(".ui-accordion-header").Each(func(_ int, header *goquery.Selection) {
		subject := SubjectMarks{
			Subject:     htmlutil.CellText(header),
			Experiments: []Experiment{},
		}

		panelId := header.AttrOr("aria-controls", "")
		if panelId != "" {
			doc.Find("#" + panelId).Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
				cells := htmlutil.RowCells(row)
				if len(cells) != 3 {
					return
				}
				subject.Experiments = append(subject.Experiments, Experiment{
					Name:          cells[0],
					MaxMarks:      cells[1],
					MarksObtained: cells[2],
				})
			})
		}

		subjects = append(subjects, subject)
	})

	return subjects, nil
}
