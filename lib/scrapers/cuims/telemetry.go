package cuims

import (
	"cuims-backend/lib/restyutil"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/cuims")

// SetRestyInstrumentOutput dumps every request/response pair of the
// underlying http client to the given output, for debugging scrapes
// against the live portal.
func (c *Client) SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyutil.InstrumentClient(c.Http, tracer, output)
}
