package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
)

// ── attendance business errors ──

var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrBadStatus          = errors.New("invalid attendance status")
	ErrMemberWrongSeason  = errors.New("member does not belong to the event season")
)

// AttendanceService is the attendance business interface.
//
// State machine per (event, member): unregistered → present via scan,
// any state → any status via the management override, unregistered via
// hard delete. A scan never mutates an existing record.
type AttendanceService interface {
	Scan(ctx context.Context, eventID string, req *dto.ScanRequest) (*dto.ScanResponse, error)
	SetStatus(ctx context.Context, eventID string, req *dto.SetStatusRequest, callerID string) (*dto.AttendanceResponse, error)
	CloseEvent(ctx context.Context, eventID string) (*dto.CloseEventResponse, error)
	Delete(ctx context.Context, eventID, memberID string) error
	EventRoll(ctx context.Context, eventID string) (*dto.EventRollResponse, error)
	ListByMember(ctx context.Context, memberID string) ([]dto.AttendanceResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService creates the AttendanceService.
func NewAttendanceService(repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, logger: logger, now: time.Now}
}

// Scan is the QR check-in path. When the pair already has a record the
// scan is a no-op reporting the current status; re-scanning can never
// clobber a justified mark back to present. The guard is the database
// uniqueness constraint, so two devices racing on the same costalero
// produce exactly one row.
func (s *attendanceService) Scan(ctx context.Context, eventID string, req *dto.ScanRequest) (*dto.ScanResponse, error) {
	event, err := s.repo.Event.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("look up event failed", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	member, err := s.repo.Member.GetByID(ctx, req.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		s.logger.Error("look up member failed", zap.String("member_id", req.MemberID), zap.Error(err))
		return nil, err
	}
	if member.SeasonYear != event.SeasonYear {
		return nil, ErrMemberWrongSeason
	}

	record := &model.Attendance{
		EventID:    eventID,
		MemberID:   member.MemberID,
		Status:     model.AttendancePresent,
		MarkedAt:   s.now().UTC(),
		MemberName: member.FullName(),
	}

	inserted, err := s.repo.Attendance.GuardedInsert(ctx, record)
	if err != nil {
		s.logger.Error("scan insert failed",
			zap.String("event_id", eventID),
			zap.String("member_id", member.MemberID),
			zap.Error(err))
		return nil, err
	}

	if !inserted {
		existing, err := s.repo.Attendance.GetByEventMember(ctx, eventID, member.MemberID)
		if err != nil {
			s.logger.Error("read existing record failed", zap.Error(err))
			return nil, err
		}
		return &dto.ScanResponse{
			AlreadyRegistered: true,
			Record:            *toAttendanceResponse(existing, member),
		}, nil
	}

	return &dto.ScanResponse{
		AlreadyRegistered: false,
		Record:            *toAttendanceResponse(record, member),
	}, nil
}

// SetStatus is the explicit management override: it writes the given
// status regardless of prior state, as a single atomic upsert.
func (s *attendanceService) SetStatus(ctx context.Context, eventID string, req *dto.SetStatusRequest, callerID string) (*dto.AttendanceResponse, error) {
	if !model.ValidAttendanceStatus(req.Status) {
		return nil, ErrBadStatus
	}

	if _, err := s.repo.Event.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	member, err := s.repo.Member.GetByID(ctx, req.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	record := &model.Attendance{
		EventID:      eventID,
		MemberID:     member.MemberID,
		Status:       req.Status,
		MarkedAt:     s.now().UTC(),
		MemberName:   member.FullName(),
		HeightPreCm:  req.HeightPreCm,
		HeightPostCm: req.HeightPostCm,
	}

	if err := s.repo.Attendance.Upsert(ctx, record); err != nil {
		s.logger.Error("set status failed",
			zap.String("event_id", eventID),
			zap.String("member_id", member.MemberID),
			zap.String("status", req.Status),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("attendance overridden",
		zap.String("event_id", eventID),
		zap.String("member_id", member.MemberID),
		zap.String("status", req.Status),
		zap.String("by", callerID))

	return toAttendanceResponse(record, member), nil
}

// CloseEvent marks every still-unregistered member of the event's
// season absent ("closing the ledger"). Guarded inserts make a re-run,
// or a concurrent closure from another device, insert nothing for pairs
// already marked.
func (s *attendanceService) CloseEvent(ctx context.Context, eventID string) (*dto.CloseEventResponse, error) {
	event, err := s.repo.Event.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	members, err := s.repo.Member.ListBySeason(ctx, event.SeasonYear)
	if err != nil {
		s.logger.Error("list season roster failed", zap.Error(err))
		return nil, err
	}

	records, err := s.repo.Attendance.ListByEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("list attendance failed", zap.Error(err))
		return nil, err
	}

	marked := make(map[string]bool, len(records))
	for i := range records {
		marked[records[i].MemberID] = true
	}

	closedAt := s.now().UTC()
	absentees := make([]model.Attendance, 0)
	for i := range members {
		m := &members[i]
		if marked[m.MemberID] {
			continue
		}
		absentees = append(absentees, model.Attendance{
			EventID:    eventID,
			MemberID:   m.MemberID,
			Status:     model.AttendanceAbsent,
			MarkedAt:   closedAt,
			MemberName: m.FullName(),
		})
	}

	inserted, err := s.repo.Attendance.BatchGuardedInsert(ctx, absentees)
	if err != nil {
		s.logger.Error("close event failed", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	totalAbsent, err := s.repo.Attendance.CountByEventStatus(ctx, eventID, model.AttendanceAbsent)
	if err != nil {
		s.logger.Error("count absences failed", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("event closed",
		zap.String("event_id", eventID),
		zap.Int64("marked_absent", inserted),
		zap.Int64("total_absent", totalAbsent))

	return &dto.CloseEventResponse{MarkedAbsent: int(inserted), TotalAbsent: totalAbsent}, nil
}

// Delete removes the record entirely, returning the pair to the
// implicit unregistered state.
func (s *attendanceService) Delete(ctx context.Context, eventID, memberID string) error {
	if _, err := s.repo.Attendance.GetByEventMember(ctx, eventID, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttendanceNotFound
		}
		return err
	}
	return s.repo.Attendance.DeleteByEventMember(ctx, eventID, memberID)
}

// EventRoll returns the full roll for the event grouped by trabajadera:
// recorded statuses plus an implicit "unregistered" entry for every
// roster member without a record. Duplicate rows for a pair (legacy
// data predating the uniqueness constraint) are collapsed to the most
// recent mark; the losers stay in storage untouched.
func (s *attendanceService) EventRoll(ctx context.Context, eventID string) (*dto.EventRollResponse, error) {
	event, err := s.repo.Event.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	members, err := s.repo.Member.ListBySeason(ctx, event.SeasonYear)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Attendance.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	latest := dedupeLatest(records)

	memberByID := make(map[string]*model.Member, len(members))
	for i := range members {
		memberByID[members[i].MemberID] = &members[i]
	}

	type rollEntry struct {
		resp        dto.AttendanceResponse
		trabajadera int
		surname     string
		firstName   string
	}

	entries := make([]rollEntry, 0, len(members))
	for memberID, rec := range latest {
		member := memberByID[memberID]
		if member == nil {
			// record for a member deleted from the roster; keep it in
			// the unassigned bucket under its snapshot name
			entries = append(entries, rollEntry{
				resp:        *toAttendanceResponse(rec, nil),
				trabajadera: model.TrabajaderaUnassigned,
				surname:     rec.MemberName,
			})
			continue
		}
		entries = append(entries, rollEntry{
			resp:        *toAttendanceResponse(rec, member),
			trabajadera: member.Trabajadera,
			surname:     member.Surname,
			firstName:   member.FirstName,
		})
	}
	for i := range members {
		m := &members[i]
		if _, ok := latest[m.MemberID]; ok {
			continue
		}
		entries = append(entries, rollEntry{
			resp: dto.AttendanceResponse{
				EventID:     eventID,
				MemberID:    m.MemberID,
				Status:      "unregistered",
				MemberName:  m.FullName(),
				Trabajadera: m.Trabajadera,
			},
			trabajadera: m.Trabajadera,
			surname:     m.Surname,
			firstName:   m.FirstName,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].trabajadera != entries[j].trabajadera {
			return trabajaderaLess(entries[i].trabajadera, entries[j].trabajadera)
		}
		if entries[i].surname != entries[j].surname {
			return entries[i].surname < entries[j].surname
		}
		return entries[i].firstName < entries[j].firstName
	})

	roll := &dto.EventRollResponse{EventID: eventID}
	for _, e := range entries {
		n := len(roll.Groups)
		if n == 0 || roll.Groups[n-1].Trabajadera != e.trabajadera {
			roll.Groups = append(roll.Groups, dto.AttendanceGroup{Trabajadera: e.trabajadera})
			n++
		}
		roll.Groups[n-1].Records = append(roll.Groups[n-1].Records, e.resp)
	}
	return roll, nil
}

func (s *attendanceService) ListByMember(ctx context.Context, memberID string) ([]dto.AttendanceResponse, error) {
	records, err := s.repo.Attendance.ListByMember(ctx, memberID)
	if err != nil {
		s.logger.Error("list member attendance failed", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AttendanceResponse, 0, len(records))
	for i := range records {
		result = append(result, *toAttendanceResponse(&records[i], nil))
	}
	return result, nil
}

// ── helpers ──

// dedupeLatest keeps the most recent record per member. This is the
// read-side mitigation for duplicate rows; it never deletes the extras.
func dedupeLatest(records []model.Attendance) map[string]*model.Attendance {
	latest := make(map[string]*model.Attendance, len(records))
	for i := range records {
		rec := &records[i]
		prev, ok := latest[rec.MemberID]
		if !ok || rec.MarkedAt.After(prev.MarkedAt) {
			latest[rec.MemberID] = rec
		}
	}
	return latest
}

func toAttendanceResponse(rec *model.Attendance, member *model.Member) *dto.AttendanceResponse {
	resp := &dto.AttendanceResponse{
		ID:           rec.AttendanceID,
		EventID:      rec.EventID,
		MemberID:     rec.MemberID,
		Status:       rec.Status,
		MarkedAt:     rec.MarkedAt.UTC().Format(time.RFC3339),
		MemberName:   rec.MemberName,
		HeightPreCm:  rec.HeightPreCm,
		HeightPostCm: rec.HeightPostCm,
	}
	if member == nil {
		member = rec.Member
	}
	if member != nil {
		resp.Trabajadera = member.Trabajadera
	}
	return resp
}
