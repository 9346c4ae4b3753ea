package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"field-agent/internal/models"
	"field-agent/internal/remote"
	"field-agent/internal/timeutil"
)

// RequestClient is the remote side of leave, late and early requests
type RequestClient interface {
	CreateRequest(ctx context.Context, kind string, payload map[string]interface{}) (remote.Record, error)
	ListRequests(ctx context.Context, kind, userID, password, status string) ([]remote.Record, error)
}

type AttendanceService struct {
	Client  RequestClient
	Session *SessionService

	logger *zap.Logger
}

func NewAttendanceService(client RequestClient, session *SessionService, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{Client: client, Session: session, logger: logger}
}

// ValidateRequest checks a request of the given kind before it is sent
func ValidateRequest(kind string, req *models.AttendanceRequest) error {
	if !models.IsValidRequestKind(kind) {
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("Unknown request type %q", kind)}
	}
	if strings.TrimSpace(req.Reason) == "" {
		return &ValidationError{Field: "reason", Message: "Please enter a reason"}
	}

	if kind == models.RequestLeave {
		from, err := time.ParseInLocation(timeutil.DateLayout, req.FromDate, timeutil.IST)
		if err != nil {
			return &ValidationError{Field: "from_date", Message: "Please enter the start date as YYYY-MM-DD"}
		}
		to, err := time.ParseInLocation(timeutil.DateLayout, req.ToDate, timeutil.IST)
		if err != nil {
			return &ValidationError{Field: "to_date", Message: "Please enter the end date as YYYY-MM-DD"}
		}
		if to.Before(from) {
			return &ValidationError{Field: "to_date", Message: "The end date cannot be before the start date"}
		}
		return nil
	}

	if _, err := time.ParseInLocation(timeutil.DateLayout, req.Date, timeutil.IST); err != nil {
		return &ValidationError{Field: "date", Message: "Please enter the date as YYYY-MM-DD"}
	}
	if _, err := time.Parse(timeutil.TimeLayout, req.Time); err != nil {
		return &ValidationError{Field: "time", Message: "Please enter the time as HH:MM"}
	}
	return nil
}

// CreateRequest submits a leave, late or early request for the signed-in user
func (s *AttendanceService) CreateRequest(ctx context.Context, kind string, req *models.AttendanceRequest) (*models.AttendanceRequest, error) {
	session, err := s.Session.Current()
	if err != nil {
		return nil, err
	}
	if err := ValidateRequest(kind, req); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"userid":   session.UserID,
		"password": session.Password,
		"reason":   strings.TrimSpace(req.Reason),
	}
	if kind == models.RequestLeave {
		payload["from_date"] = req.FromDate
		payload["to_date"] = req.ToDate
		payload["leave_type"] = req.LeaveType
	} else {
		payload["date"] = req.Date
		payload["time"] = req.Time
	}

	rec, err := s.Client.CreateRequest(ctx, kind, payload)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", kind, err)
	}

	created := *req
	created.Kind = kind
	created.Reason = strings.TrimSpace(req.Reason)
	created.ID = rec.First("id", "request_id")
	if nested, ok := rec.Nested("data"); ok && created.ID == "" {
		created.ID = nested.First("id", "request_id")
	}
	created.Status = rec.First("request_status")
	if created.Status == "" {
		created.Status = models.RequestStatusPending
	}

	s.logger.Info("attendance request created",
		zap.String("user_id", session.UserID),
		zap.String("kind", kind),
		zap.String("id", created.ID))
	return &created, nil
}

// ListRequests lists the user's requests, optionally filtered by status
func (s *AttendanceService) ListRequests(ctx context.Context, kind, status string) ([]models.AttendanceRequest, error) {
	session, err := s.Session.Current()
	if err != nil {
		return nil, err
	}
	if !models.IsValidRequestKind(kind) {
		return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("Unknown request type %q", kind)}
	}
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected:
	default:
		return nil, &ValidationError{Field: "status", Message: "Status must be pending, approved or rejected"}
	}

	records, err := s.Client.ListRequests(ctx, kind, session.UserID, session.Password, status)
	if err != nil {
		return nil, fmt.Errorf("list %s requests: %w", kind, err)
	}

	out := make([]models.AttendanceRequest, 0, len(records))
	for _, rec := range records {
		out = append(out, models.AttendanceRequest{
			ID:        rec.First("id", "request_id"),
			Kind:      kind,
			FromDate:  rec.First("from_date", "start_date"),
			ToDate:    rec.First("to_date", "end_date"),
			LeaveType: rec.First("leave_type", "type"),
			Date:      rec.First("date"),
			Time:      rec.First("time", "late_time", "early_time"),
			Reason:    rec.First("reason"),
			Status:    strings.ToLower(rec.First("status", "request_status")),
			CreatedAt: rec.First("created_at", "applied_on"),
		})
	}
	return out, nil
}
