package main

import (
	"context"

	"blogmigrate/cmd/blogmigrate/commands"
	"blogmigrate/lib/serviceutil"
	"blogmigrate/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	tel, err := telemetry.SetupFromEnv(ctx, "blogmigrate")
	if err != nil {
		serviceutil.Fatal("failed to set up telemetry", err)
	}
	defer tel.Shutdown(context.Background())
	telemetry.InitSlog(false)
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
