package server

import (
	"context"
	"fmt"
	"net/http"

	"buybox_tracker/internal/worker"
	"buybox_tracker/pkg/httpx/reply"
)

type trackerControl interface {
	Start(ctx context.Context)
	Stop()
	Status() worker.Status
	TriggerOnce(ctx context.Context, subjectID string) (worker.CycleResult, error)
}

type TrackerServer struct {
	tracker trackerControl
}

func NewTrackerServer(tracker trackerControl) TrackerServer {
	return TrackerServer{
		tracker: tracker,
	}
}

func (s TrackerServer) postV1TrackerStart(w http.ResponseWriter, r *http.Request) error {
	// The loop must outlive the request that started it.
	s.tracker.Start(context.WithoutCancel(r.Context()))

	reply.JSON(r.Context(), w, http.StatusOK, newRESTStatus(s.tracker.Status()))

	return nil
}

func (s TrackerServer) postV1TrackerStop(w http.ResponseWriter, r *http.Request) error {
	s.tracker.Stop()

	reply.JSON(r.Context(), w, http.StatusOK, newRESTStatus(s.tracker.Status()))

	return nil
}

func (s TrackerServer) getV1TrackerStatus(w http.ResponseWriter, r *http.Request) error {
	reply.JSON(r.Context(), w, http.StatusOK, newRESTStatus(s.tracker.Status()))

	return nil
}

func (s TrackerServer) postV1TrackerRun(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	result, err := s.tracker.TriggerOnce(ctx, r.PathValue("subjectID"))
	if err != nil {
		return restError(fmt.Errorf("tracker.TriggerOnce: %w", err))
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTCycleResult(result))

	return nil
}
