package main

import (
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/ecsmgr/ecs"
)

type Report struct {
	// Configuration
	Duration   time.Duration
	Entities   int
	Components int
	Systems    int

	// Results
	TotalUpdates  int64
	TotalTime     time.Duration
	UpdateTime    Stats
	MemStatsStart runtime.MemStats
	MemStatsEnd   runtime.MemStats

	// Manager state
	FinalEntities int
	ChurnOps      int64
	FlushErrors   int
	Manager       *ecs.Stats
	Violations    int
	Mismatches    []string
}

// Stats summarizes a series of frame durations.
type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}
	var total time.Duration
	for _, sample := range s.Samples {
		total += sample
	}
	s.Min = slices.Min(s.Samples)
	s.Max = slices.Max(s.Samples)
	s.Avg = total / time.Duration(len(s.Samples))
}

const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Component Types:** {{.Components}}
- **Generated Systems:** {{.Systems}}

## Frames
- **Ticks:** {{.TotalUpdates}} in {{.TotalTime}}
- **Frame Time:** avg {{.UpdateTime.Avg}}, min {{.UpdateTime.Min}}, max {{.UpdateTime.Max}}

## Manager
- **Final Entities:** {{.FinalEntities}}
- **Churn Operations:** {{.ChurnOps}}
- **Rejected Commands (ticks):** {{.FlushErrors}}
- **System Executions:** {{.Manager.TotalExecutions}}
{{range .Manager.Systems}}  - {{.Name}}: {{.Notified}} notified, {{.ExecutionCount}} runs, avg {{.AvgDuration}}, max {{.MaxDuration}}
{{end}}
## Consistency
- **Ordering Violations:** {{.Violations}}
- **Notification Mismatches:** {{len .Mismatches}}
{{range .Mismatches}}  - {{.}}
{{end}}
## Memory
{{$s := .MemStatsStart}}{{$e := .MemStatsEnd -}}
- Heap Alloc: {{$s.HeapAlloc}} -> {{$e.HeapAlloc}} ({{delta $e.HeapAlloc $s.HeapAlloc}})
- Total Alloc: {{delta $e.TotalAlloc $s.TotalAlloc}}
- GC: {{gcs $e.NumGC $s.NumGC}} cycles, {{pause $e.PauseTotalNs $s.PauseTotalNs}} paused
`

var reportFuncs = template.FuncMap{
	"delta": func(end, start uint64) int64 {
		return int64(end) - int64(start)
	},
	"gcs": func(end, start uint32) uint32 {
		return end - start
	},
	"pause": func(end, start uint64) time.Duration {
		return time.Duration(end - start)
	},
}

func (r *Report) Generate(w io.Writer) error {
	tmpl, err := template.New("report").Funcs(reportFuncs).Parse(reportTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, r)
}
