package cuims

import (
	"context"
	"errors"
	"log/slog"

	"cuims-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Leaves scrapes the duty and medical leave histories. Either page may
// fail on its own without failing the call, the error is only surfaced
// when both do.
func (c *Client) Leaves(ctx context.Context) (Leaves, error) {
	ctx, span := tracer.Start(ctx, "client:Leaves")
	defer span.End()

	duty, dutyErr := c.leaveHistory(ctx, dutyLeavePath)
	if dutyErr != nil {
		slog.WarnContext(ctx, "failed to scrape duty leaves", "err", dutyErr)
	}
	medical, medicalErr := c.leaveHistory(ctx, medicalLeavePath)
	if medicalErr != nil {
		slog.WarnContext(ctx, "failed to scrape medical leaves", "err", medicalErr)
	}

	if dutyErr != nil && medicalErr != nil {
		err := errors.Join(dutyErr, medicalErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch either leave history")
		return Leaves{}, err
	}

	return Leaves{Duty: duty, Medical: medical}, nil
}

func (c *Client) leaveHistory(ctx context.Context, path string) ([]Leave, error) {
	doc, err := c.getDocument(ctx, path)
	if err != nil {
		return nil, err
	}

	leaves := []Leave{}
	doc.Find("table tbody tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := htmlutil.RowCells(row)
		if len(cells) < 8 {
			return
		}
		leaves = append(leaves, Leave{
			Number:   cells[1],
			Timing:   cells[2],
			Category: cells[3],
			Type:     cells[5],
			Date:     cells[6],
			Status:   cells[7],
		})
	})

	return leaves, nil
}
