package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/clockery/internal/domain/dedupe"
	"github.com/okian/clockery/internal/domain/model"
	"github.com/okian/clockery/internal/domain/types"
	"github.com/okian/clockery/pkg/metrics"
)

const maxBodyBytes = 4 << 10

// SubmitDependencies defines what POST /leaderboard needs.
type SubmitDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, s model.Submission) bool
}

// SubmitHandler accepts finished game scores.
type SubmitHandler struct {
	deps    SubmitDependencies
	checker FieldChecker
	now     func() time.Time
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps SubmitDependencies, checker FieldChecker) *SubmitHandler {
	return &SubmitHandler{deps: deps, checker: checker, now: time.Now}
}

func (h *SubmitHandler) decode(w http.ResponseWriter, r *http.Request) (model.Submission, error) {
	var req types.SubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return model.Submission{}, err
	}

	id := strings.TrimSpace(req.SubmissionID)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return model.Submission{}, errors.New("submission_id must be a uuid")
	}
	if err := h.checker.CheckFields(req.Name, req.Score); err != nil {
		return model.Submission{}, err
	}
	if req.DurationS < 0 || math.IsNaN(req.DurationS) || math.IsInf(req.DurationS, 0) {
		return model.Submission{}, errors.New("duration_s must be a non-negative number")
	}
	if req.Clocks < 0 {
		return model.Submission{}, errors.New("clocks must not be negative")
	}

	return model.Submission{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		Score:      req.Score,
		Duration:   time.Duration(req.DurationS * float64(time.Second)),
		Clocks:     req.Clocks,
		ReceivedAt: h.now(),
	}, nil
}

// HandlePostSubmission handles POST /leaderboard requests.
func (h *SubmitHandler) HandlePostSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_submission"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	sub, err := h.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if h.deps.SeenAndRecord(r.Context(), sub.ID) {
		metrics.RecordSubmissionDuplicate()
		writeJSON(w, http.StatusOK, types.SubmitResponse{Status: types.StatusDuplicate, ID: sub.ID})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), sub); !ok {
		// Forget the id so the client can retry.
		h.deps.Unrecord(r.Context(), sub.ID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	metrics.RecordSubmissionAccepted()
	writeJSON(w, http.StatusAccepted, types.SubmitResponse{Status: types.StatusAccepted, ID: sub.ID})
}
