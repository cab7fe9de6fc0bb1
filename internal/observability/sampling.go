package observability

import (
	"os"
	"strconv"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Trace sampling follows the standard OTel env vars rather than internal/config,
// so operators can tune it without a new config knob.
const (
	samplerEnv    = "OTEL_TRACES_SAMPLER"
	samplerArgEnv = "OTEL_TRACES_SAMPLER_ARG"
)

// newSampler maps OTEL_TRACES_SAMPLER (and its ARG for the ratio variants)
// onto an SDK sampler. Empty or unknown values mean the SDK default,
// parent-based always-on.
func newSampler() sdktrace.Sampler {
	switch os.Getenv(samplerEnv) {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(samplerRatio())
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(samplerRatio()))
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// samplerRatio reads OTEL_TRACES_SAMPLER_ARG. Missing, unparseable, or
// out-of-range values sample everything rather than silently dropping traces.
func samplerRatio() float64 {
	ratio, err := strconv.ParseFloat(os.Getenv(samplerArgEnv), 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1.0
	}

	return ratio
}
