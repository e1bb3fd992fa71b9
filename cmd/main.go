package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/hamidzr/surferh/internal/cli"
	"github.com/hamidzr/surferh/internal/logger"
	"github.com/hamidzr/surferh/model"
)

func main() {
	os.Exit(int(run()))
}

// run keeps deferred cleanup ahead of os.Exit.
func run() model.ExitCode {
	stopProfiling := startProfiling()
	defer stopProfiling()

	logger.SetupLogger()
	cmd := cli.InitCLI()
	code, err := model.ExitCodeFromError(cmd.Execute())
	if err != nil {
		logrus.Error(err)
	}
	return code
}
