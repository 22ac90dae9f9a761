package schedule

import (
	"context"
	"fmt"
	"strings"

	appLog "planner/internal/log"
	"planner/internal/model"
)

const defaultUnavailabilityTitle = "Unavailable"

// UnavailabilityRequest describes a block the operator wants to create.
type UnavailabilityRequest struct {
	Date        model.Date
	Range       model.TimeRange
	Title       string
	Description string
	// AcknowledgeHard lets the block be created over sessions and
	// appointments that were shown to the requester.
	AcknowledgeHard bool
}

// RescheduleResult summarizes CreateUnavailability.
type RescheduleResult struct {
	Block  model.PlanningBlock `json:"block"`
	Target model.Date          `json:"target"`
	Moved  int                 `json:"moved"`
	Failed int                 `json:"failed"`
	// Hard lists acknowledged fixed events the block now overlaps.
	Hard []model.CalendarEvent `json:"hard,omitempty"`
	// Unchecked lists sources that could not be read when the block was
	// placed. A failed callback listing means overlapping callbacks were
	// not moved.
	Unchecked []model.SourceType `json:"unchecked,omitempty"`
	// Failures holds the relocation error of every callback left in place.
	Failures []error `json:"-"`
}

// Move is one planned relocation together with the event it was planned
// from.
type Move struct {
	Event   model.CalendarEvent
	Command model.RelocationCommand
}

// PlanReschedule emits one move per soft conflict, all targeting the
// business day after the block's date. Only callbacks are ever moved.
func PlanReschedule(blockDate model.Date, soft []model.CalendarEvent) []Move {
	target := NextBusinessDay(blockDate)
	moves := make([]Move, 0, len(soft))
	for _, ev := range soft {
		if ev.SourceType != model.SourceCallback {
			continue
		}
		moves = append(moves, Move{Event: ev, Command: model.NewRelocationCommand(ev, target)})
	}
	return moves
}

// CreateUnavailability creates an unavailability block after moving the
// callbacks it overlaps to the next business day. Hard conflicts stop the
// request with a *HardConflictError unless acknowledged; so does a failed
// session or appointment listing, since hard conflicts could not be ruled
// out. Callback moves are independent updates; when some fail the block is
// still created and a *PartialRescheduleError is returned together with the
// result.
func (e *Engine) CreateUnavailability(ctx context.Context, req UnavailabilityRequest) (RescheduleResult, error) {
	var res RescheduleResult
	if !req.Date.IsValid() {
		return res, fmt.Errorf("create unavailability: invalid date %v", req.Date)
	}
	if !req.Range.Valid() {
		return res, fmt.Errorf("create unavailability: empty range %s", req.Range)
	}

	conflicts, err := e.DetectConflicts(ctx, req.Date, req.Range)
	if err != nil {
		return res, err
	}
	if (len(conflicts.Hard) > 0 || conflicts.HardUnchecked()) && !req.AcknowledgeHard {
		return res, &HardConflictError{
			Date:      req.Date,
			Range:     req.Range,
			Conflicts: conflicts.Hard,
			Unchecked: conflicts.Unchecked,
			Cause:     conflicts.FetchErrors,
		}
	}
	res.Hard = conflicts.Hard
	res.Unchecked = conflicts.Unchecked
	res.Target = NextBusinessDay(req.Date)
	if conflicts.Partial() {
		appLog.Warn("placing unavailability with unchecked sources",
			"date", req.Date.String(), "unchecked", fmt.Sprint(conflicts.Unchecked))
	}

	for _, mv := range PlanReschedule(req.Date, conflicts.Soft) {
		if err := e.move(ctx, mv.Command, mv.Event); err != nil {
			res.Failed++
			res.Failures = append(res.Failures, err)
			continue
		}
		res.Moved++
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultUnavailabilityTitle
	}
	block := model.PlanningBlock{
		ID:          e.newID(),
		OwnerID:     e.ownerID,
		Date:        req.Date.String(),
		StartTime:   FormatClock(req.Range.Start),
		EndTime:     FormatClock(req.Range.End),
		Kind:        model.BlockUnavailability,
		Title:       title,
		Description: req.Description,
	}
	if err := e.store.CreatePlanningBlock(ctx, block); err != nil {
		appLog.Error("unavailability block creation failed", err,
			"date", req.Date.String(), "moved", res.Moved, "failed", res.Failed)
		return res, fmt.Errorf("create unavailability on %s (moved %d, failed %d): %w",
			req.Date, res.Moved, res.Failed, err)
	}
	res.Block = block

	appLog.Info("unavailability created",
		"id", block.ID, "date", block.Date, "range", req.Range.String(),
		"moved", res.Moved, "failed", res.Failed, "target", res.Target.String())

	if res.Failed > 0 {
		return res, &PartialRescheduleError{Moved: res.Moved, Failed: res.Failed, Errs: res.Failures}
	}
	return res, nil
}
