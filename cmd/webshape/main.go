package main

import (
	"webshape/cmd/webshape/commands"
	"webshape/lib/serviceutil"
	"webshape/lib/telemetry"
)

func main() {
	// Ctrl+C cancels the root context, which is the only way to abort
	// an in-flight fetch
	ctx := serviceutil.SignalContext()

	telemetry.SetupFromEnv(ctx, "webshape")
	telemetry.InitSlog(true)
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
