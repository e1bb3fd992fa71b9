//go:build pprof

package main

import (
	"os"
	"runtime/pprof"

	"github.com/sirupsen/logrus"

	"github.com/hamidzr/surferh/constant"
)

// startProfiling writes a CPU profile to $SURFERH_CPU_PROFILE, or
// surferh-cpu.pprof in the working directory.
func startProfiling() func() {
	path := os.Getenv(constant.EnvPrefix + "_CPU_PROFILE")
	if path == "" {
		path = constant.ProjectName + "-cpu.pprof"
	}
	f, err := os.Create(path)
	if err != nil {
		logrus.WithError(err).Warn("could not create CPU profile")
		return func() {}
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		logrus.WithError(err).Warn("could not start CPU profile")
		_ = f.Close()
		return func() {}
	}

	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			logrus.WithError(err).Warn("could not close CPU profile")
		}
	}
}
