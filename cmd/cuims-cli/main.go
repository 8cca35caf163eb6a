package main

import (
	"context"

	"cuims-backend/cmd/cuims-cli/commands"
	"cuims-backend/lib/serviceutil"
	"cuims-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "cuims-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(serviceutil.SignalContext())
}
