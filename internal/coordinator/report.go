package coordinator

import (
	"transcode-service/internal/logging"
	"transcode-service/internal/mediatypes"
	"transcode-service/internal/queue"
)

// Report tallies the work a shutdown abandoned. Categories are disjoint:
// an item interrupted mid-transcode is in-flight only, an item never
// picked up is queued only, and a finished result that never reached the
// bus is unpublished only.
type Report struct {
	InFlight    []queue.WorkItem
	Queued      []queue.WorkItem
	Unpublished []mediatypes.Result
}

// Empty reports whether the shutdown lost no work at all.
func (r *Report) Empty() bool {
	return len(r.InFlight) == 0 && len(r.Queued) == 0 && len(r.Unpublished) == 0
}

func (r *Report) log(logger *logging.Logger) {
	if r.Empty() {
		logger.Info("shutdown complete, no work lost")
		return
	}
	for _, it := range r.InFlight {
		logger.Warn("lost in-flight item: %s profile %s", it.Request, it.Profile.Name)
	}
	for _, it := range r.Queued {
		logger.Warn("lost queued item: %s profile %s", it.Request, it.Profile.Name)
	}
	for _, res := range r.Unpublished {
		logger.Warn("lost unpublished result: %s", res)
	}
	logger.Warn("shutdown complete: %d in-flight, %d queued, %d unpublished results lost",
		len(r.InFlight), len(r.Queued), len(r.Unpublished))
}
