package studentdata

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("services/studentdata")
