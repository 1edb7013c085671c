package gologger

import (
	"github.com/goliatone/go-banklink/core"
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// JobLoggerName is the logger name background link jobs resolve under.
const JobLoggerName = "banklink.jobs"

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(JobLoggerName, provider, logger)
}

func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// FromService hands go-job the logger the linking service already resolved,
// so job and service output share one sink.
func FromService(deps core.ServiceDependencies) (glog.Logger, job.LoggerProvider, job.Logger) {
	provider, logger := Resolve(deps.LoggerProvider, deps.Logger)
	return logger, ToJobProvider(provider), ToJobLogger(logger)
}
