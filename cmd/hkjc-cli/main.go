package main

import (
	"context"

	"hkracing-backend/cmd/hkjc-cli/commands"
	"hkracing-backend/lib/osutil"
	"hkracing-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	telemetry.SetupFromEnv(context.Background(), "hkjc-cli")

	ctx, cancel := osutil.SignalContext()
	defer cancel()

	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}
