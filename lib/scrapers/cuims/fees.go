package cuims

import (
	"context"
	"strings"

	"cuims-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Fees scrapes the payment history off the account details page. Each
// transaction is its own bordered block with a details table inside.
func (c *Client) Fees(ctx context.Context) ([]FeeTransaction, error) {
	ctx, span := tracer.Start(ctx, "client:Fees")
	defer span.End()

	doc, err := c.getDocument(ctx, feesPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the fees page")
		return nil, err
	}

	transactions := []FeeTransaction{}
	doc.Find("div[style*='border-bottom: 1px solid']").Each(func(_ int, block *goquery.Selection) {
		tds := block.Find("table td")
		if tds.Length() < 4 {
			return
		}

		tx := FeeTransaction{
			Status: htmlutil.CellText(tds.Eq(3)),
		}

		day := htmlutil.CellText(block.Find(".transactions-date").First())
		month := htmlutil.CellText(block.Find(".transactions-month").First())
		if day != "" && month != "" {
			tx.PaymentDate = day + " " + month
		}

		spans := tds.Eq(1).Find("span")
		if spans.Length() >= 6 {
			tx.TransRefNo = htmlutil.CellText(spans.Eq(1))
			tx.BankRefNo = htmlutil.CellText(spans.Eq(3))
			tx.PaymentMode = htmlutil.CellText(spans.Eq(5))
		}

		amounts := tds.Eq(2).Find("div")
		if amounts.Length() >= 3 {
			tx.TotalAmount = amountAfterRs(htmlutil.CellText(amounts.Eq(0)))
			tx.ServiceTax = amountAfterRs(htmlutil.CellText(amounts.Eq(1)))
			tx.ProcessingFee = amountAfterRs(htmlutil.CellText(amounts.Eq(2)))
		}

		transactions = append(transactions, tx)
	})

	return transactions, nil
}

// the portal renders amounts as "Total Amount Rs 54000", keep only what
// follows the last "Rs"
func amountAfterRs(text string) string {
	parts := strings.Split(text, "Rs")
	return strings.TrimSpace(parts[len(parts)-1])
}
