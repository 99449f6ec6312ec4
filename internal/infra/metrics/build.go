package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo) }

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Constant 1, labelled with the running build.",
	},
	[]string{"version", "commit", "go_version"},
)

func SetBuildInfo(version, commit string) {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}
