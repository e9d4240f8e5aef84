package main

import (
	"fmt"
	"os"

	"github.com/scriptship/scriptship/cmd"
	"github.com/scriptship/scriptship/pkg/logger"
	"github.com/scriptship/scriptship/pkg/telemetry"
)

func main() {
	logger.InitializeWithFallback()

	if err := telemetry.Init("scriptship"); err != nil {
		fmt.Fprintln(os.Stderr, "telemetry disabled:", err)
	}

	cmd.Execute()
}
