package core

import "sync"

const AVG_COUNT uint8 = 30

// MetricsState keeps a rolling average over the last AVG_COUNT imports.
type MetricsState struct {
	ImportAVGCounter uint8
	MStimes          [AVG_COUNT]float64
	MSavg            float64
	Imports          uint64
	Failures         uint64
	filled           bool
}

var metricsMutex sync.Mutex
var metricsState = &MetricsState{}

func MetricsReset() {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	metricsState = &MetricsState{}
}

// MetricsUpdate records one finished import that took importMS milliseconds.
func MetricsUpdate(importMS float64, failed bool) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	if failed {
		metricsState.Failures++
		return
	}

	metricsState.MStimes[metricsState.ImportAVGCounter] = importMS
	metricsState.ImportAVGCounter++
	if metricsState.ImportAVGCounter == AVG_COUNT {
		metricsState.filled = true
	}
	metricsState.ImportAVGCounter %= AVG_COUNT
	metricsState.Imports++

	count := AVG_COUNT
	if !metricsState.filled {
		count = metricsState.ImportAVGCounter
	}
	sum := 0.0
	for i := uint8(0); i < count; i++ {
		sum += metricsState.MStimes[i]
	}
	metricsState.MSavg = sum / float64(count)
}

func MetricsImportTime() float64 {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	return metricsState.MSavg
}

// MetricsImports returns the successful and failed import counts.
func MetricsImports() (uint64, uint64) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	return metricsState.Imports, metricsState.Failures
}
