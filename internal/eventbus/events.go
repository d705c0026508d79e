package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
)

// RoutingKeyScheduleSolved is the routing key for every solve outcome,
// success or failure, matching the teacher's dotted domain-event naming.
const RoutingKeyScheduleSolved = "schedule.solved"

// ScheduleSolvedEvent is published once per solve invocation, after
// internal/clinic.Solve returns.
type ScheduleSolvedEvent struct {
	SelectedDate       string             `json:"selectedDate"`
	Day                domain.Weekday     `json:"day"`
	CoverageMode       domain.CoverageMode `json:"coverageMode"`
	Success            bool               `json:"success"`
	ScheduleEntryCount int                `json:"scheduleEntryCount"`
	ObjectiveValue     *int64             `json:"objectiveValue,omitempty"`
}

// PublishScheduleSolved marshals resp into a ScheduleSolvedEvent and
// publishes it on RoutingKeyScheduleSolved. Errors from a NoopPublisher
// never occur; errors from RabbitMQPublisher are returned so the caller can
// log them without failing the solve itself.
func PublishScheduleSolved(ctx context.Context, pub Publisher, req domain.SolveRequest, resp domain.SolveResponse) error {
	event := ScheduleSolvedEvent{
		SelectedDate:       req.SelectedDate,
		Day:                req.Day,
		CoverageMode:       resp.CoverageMode,
		Success:            resp.Success,
		ScheduleEntryCount: len(resp.Schedule),
		ObjectiveValue:     resp.ObjectiveValue,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal schedule.solved event: %w", err)
	}

	return pub.Publish(ctx, RoutingKeyScheduleSolved, payload)
}
