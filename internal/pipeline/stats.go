package pipeline

import (
	"fmt"
	"sync/atomic"
)

// Stats counts documents over one run. The zero value is ready; a Stats
// must not be copied after first use.
type Stats struct {
	Received      atomic.Int64
	Processed     atomic.Int64
	Degraded      atomic.Int64
	Failed        atomic.Int64
	Missing       atomic.Int64
	Fatal         atomic.Int64
	Emitted       atomic.Int64
	MappingErrors atomic.Int64
}

// Record adds one document's result.
func (s *Stats) Record(res Result) {
	s.Received.Add(1)
	s.Emitted.Add(int64(res.Emitted))
	s.MappingErrors.Add(int64(len(res.Skipped)))
	switch res.Outcome {
	case Processed:
		s.Processed.Add(1)
	case Degraded:
		s.Degraded.Add(1)
	case Failed:
		s.Failed.Add(1)
	case Missing:
		s.Missing.Add(1)
	case Fatal:
		s.Fatal.Add(1)
	}
}

func (s *Stats) String() string {
	return fmt.Sprintf("received=%d processed=%d degraded=%d failed=%d missing=%d fatal=%d emitted=%d mapping_errors=%d",
		s.Received.Load(), s.Processed.Load(), s.Degraded.Load(), s.Failed.Load(),
		s.Missing.Load(), s.Fatal.Load(), s.Emitted.Load(), s.MappingErrors.Load())
}
