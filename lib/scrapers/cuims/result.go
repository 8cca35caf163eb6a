package cuims

import (
	"context"
	"fmt"
	"strings"

	"cuims-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Result scrapes the semester-wise result page. The portal renders one
// datalist entry per published semester with its own subject repeater.
func (c *Client) Result(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "client:Result")
	defer span.End()

	doc, err := c.getDocument(ctx, resultPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the result page")
		return Result{}, err
	}

	result := Result{
		CGPA:      "N/A",
		Semesters: []SemesterResult{},
	}
	if cgpa := htmlutil.CellText(doc.Find("div[id$='divCGPA'] span").First()); cgpa != "" {
		result.CGPA = cgpa
	}

	semesters := doc.Find("table[id$='dlResult'] > tbody > tr").Length()
	for i := 0; i < semesters; i++ {
		sem := SemesterResult{
			Semester: fmt.Sprintf("Semester %d", i+1),
			SGPA:     "N/A",
			Subjects: []SubjectResult{},
		}

		if title := htmlutil.CellText(doc.Find(fmt.Sprintf(
			"#ContentPlaceHolder1_wucResult1_dlResult_lblSem_%d", i,
		))); title != "" {
			sem.Semester = title
		}

		sticky := htmlutil.CellText(doc.Find(fmt.Sprintf(
			"#ContentPlaceHolder1_wucResult1_dlResult_div_sticky_%d > span:nth-child(3)", i,
		)))
		if _, sgpa, found := strings.Cut(sticky, ":"); found {
			sem.SGPA = strings.TrimSpace(sgpa)
		}

		doc.Find(fmt.Sprintf(
			"#ContentPlaceHolder1_wucResult1_dlResult_Repeater1_%d > tbody > tr", i,
		)).Each(func(rowIdx int, row *goquery.Selection) {
			if rowIdx == 0 {
				return
			}
			cells := htmlutil.RowCells(row)
			if len(cells) < 4 {
				return
			}
			sem.Subjects = append(sem.Subjects, SubjectResult{
				Code:    cells[0],
				Name:    cells[1],
				Credits: cells[2],
				Grade:   cells[3],
			})
		})

		result.Semesters = append(result.Semesters, sem)
	}

	return result, nil
}
