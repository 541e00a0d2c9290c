// Package engine is the field device's attendance reconciliation core.
// It decides per action whether to write straight through the relation
// gateway or capture the write in the mutation queue, and owns the
// read-side policies: duplicate rows collapse to the latest timestamp,
// rolls group by trabajadera with the unassigned bucket last.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/gateway"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/queue"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/session"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/store"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
)

var (
	// ErrOffline rejects actions that have no queued form.
	ErrOffline = errors.New("engine: action requires connectivity")
	// ErrForbidden rejects management actions from non-management roles.
	ErrForbidden = errors.New("engine: role may not perform this action")
	// ErrBadStatus rejects statuses outside present/absent/justified.
	ErrBadStatus = errors.New("engine: invalid attendance status")
	// ErrMemberNotFound reports an unknown member ID at scan time.
	ErrMemberNotFound = errors.New("engine: member not found")
)

// StatusUnregistered is the implicit state of a pair with no record.
const StatusUnregistered = "unregistered"

// attendanceConflictKey is the upsert key closing the duplicate-row
// gap: the server enforces the same pair uniqueness at the database.
var attendanceConflictKey = []string{"event_id", "member_id"}

// Member is the roster row as read through the gateway.
type Member struct {
	MemberID    string `json:"member_id"`
	FirstName   string `json:"first_name"`
	Surname     string `json:"surname"`
	Trabajadera int    `json:"trabajadera"`
	Role        string `json:"role"`
	SeasonYear  int    `json:"season_year"`
}

// Event is the event row as read through the gateway.
type Event struct {
	EventID    string    `json:"event_id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	SeasonYear int       `json:"season_year"`
}

// Record is one attendance row.
type Record struct {
	AttendanceID string    `json:"attendance_id"`
	EventID      string    `json:"event_id"`
	MemberID     string    `json:"member_id"`
	Status       string    `json:"status"`
	MarkedAt     time.Time `json:"marked_at"`
	MemberName   string    `json:"member_name"`
	HeightPreCm  *float64  `json:"height_pre_cm,omitempty"`
	HeightPostCm *float64  `json:"height_post_cm,omitempty"`
}

// Notice is an absence pre-notification row.
type Notice struct {
	NoticeID  string    `json:"notice_id"`
	MemberID  string    `json:"member_id"`
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Reason    string    `json:"reason"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ScanResult reports a scan outcome. Queued means the write was
// captured offline and has not reached the server yet.
type ScanResult struct {
	Status            string
	AlreadyRegistered bool
	Queued            bool
}

// RollEntry is one member's line in an event roll.
type RollEntry struct {
	MemberID    string
	Name        string
	Trabajadera int
	Status      string
	MarkedAt    time.Time
}

// RollGroup is one trabajadera bucket of a roll.
type RollGroup struct {
	Trabajadera int
	Entries     []RollEntry
}

// ConnState exposes the connectivity monitor's combined state.
type ConnState interface {
	Online() bool
}

// Engine wires the gateway, queue, store and connectivity state.
type Engine struct {
	gw     gateway.Gateway
	queue  *queue.Manager
	net    ConnState
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// New builds the engine.
func New(gw gateway.Gateway, q *queue.Manager, net ConnState, st store.Store, logger *zap.Logger) *Engine {
	return &Engine{gw: gw, queue: q, net: net, store: st, logger: logger, now: time.Now}
}

func decodeRows[T any](rows []map[string]interface{}) ([]T, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode gateway rows: %w", err)
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode gateway rows: %w", err)
	}
	return out, nil
}

func pairKey(eventID, memberID string) string {
	return eventID + ":" + memberID
}

// ── cached reads ──

// Events returns the season's events: live from the gateway when
// online (refreshing the cache as a side effect), from the cache when
// offline.
func (e *Engine) Events(ctx context.Context, sess session.Session) ([]Event, error) {
	if !e.net.Online() {
		var cached []Event
		if _, err := e.store.Load(ctx, store.SlotEvents, &cached); err != nil {
			return nil, err
		}
		return cached, nil
	}

	rows, err := e.gw.Select(ctx, "events", map[string]interface{}{"season_year": sess.SeasonYear})
	if err != nil {
		return nil, err
	}
	events, err := decodeRows[Event](rows)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartAt.Before(events[j].StartAt) })

	if err := e.store.Save(ctx, store.SlotEvents, events); err != nil {
		e.logger.Warn("event cache write failed", zap.Error(err))
	}
	return events, nil
}

// Notices returns the unread absence notices, cached like Events.
func (e *Engine) Notices(ctx context.Context, sess session.Session) ([]Notice, error) {
	if !e.net.Online() {
		var cached []Notice
		if _, err := e.store.Load(ctx, store.SlotNotices, &cached); err != nil {
			return nil, err
		}
		return cached, nil
	}

	rows, err := e.gw.Select(ctx, "notices", map[string]interface{}{"is_read": false})
	if err != nil {
		return nil, err
	}
	notices, err := decodeRows[Notice](rows)
	if err != nil {
		return nil, err
	}

	if err := e.store.Save(ctx, store.SlotNotices, notices); err != nil {
		e.logger.Warn("notice cache write failed", zap.Error(err))
	}
	return notices, nil
}

// roster fetches the season's members and refreshes the roster cache,
// which offline scans consult for the member-name snapshot.
func (e *Engine) roster(ctx context.Context, sess session.Session) ([]Member, error) {
	rows, err := e.gw.Select(ctx, "members", map[string]interface{}{"season_year": sess.SeasonYear})
	if err != nil {
		return nil, err
	}
	members, err := decodeRows[Member](rows)
	if err != nil {
		return nil, err
	}

	if err := e.store.Save(ctx, store.SlotMembers, members); err != nil {
		e.logger.Warn("roster cache write failed", zap.Error(err))
	}
	return members, nil
}

// cachedMemberName resolves a member's display name from the roster
// cache. Reports false for an unknown member or a cold cache.
func (e *Engine) cachedMemberName(ctx context.Context, memberID string) (string, bool) {
	var cached []Member
	if _, err := e.store.Load(ctx, store.SlotMembers, &cached); err != nil {
		return "", false
	}
	for _, m := range cached {
		if m.MemberID == memberID {
			return fmt.Sprintf("%s, %s", m.Surname, m.FirstName), true
		}
	}
	return "", false
}

// ── attendance transitions ──

// Scan is the QR check-in path. An existing record is reported, never
// overwritten; a fresh pair gets a present record. Offline scans are
// captured in the queue, and a re-scan of a queued pair reports the
// queued status instead of enqueueing again.
func (e *Engine) Scan(ctx context.Context, sess session.Session, eventID, memberID string) (*ScanResult, error) {
	if !sess.CanManage() {
		return nil, ErrForbidden
	}

	if !e.net.Online() {
		return e.scanOffline(ctx, eventID, memberID)
	}

	existing, err := e.latestRecord(ctx, eventID, memberID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ScanResult{Status: existing.Status, AlreadyRegistered: true}, nil
	}

	memberRows, err := e.gw.Select(ctx, "members", map[string]interface{}{"member_id": memberID})
	if err != nil {
		return nil, err
	}
	members, err := decodeRows[Member](memberRows)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrMemberNotFound
	}
	m := members[0]

	row := map[string]interface{}{
		"event_id":    eventID,
		"member_id":   memberID,
		"status":      model.AttendancePresent,
		"marked_at":   e.now().UTC().Format(time.RFC3339),
		"member_name": fmt.Sprintf("%s, %s", m.Surname, m.FirstName),
	}
	if _, err := e.gw.Upsert(ctx, "attendance", []map[string]interface{}{row}, attendanceConflictKey); err != nil {
		return nil, err
	}

	e.logger.Info("scan check-in",
		zap.String("event_id", eventID),
		zap.String("member_id", memberID))
	return &ScanResult{Status: model.AttendancePresent}, nil
}

func (e *Engine) scanOffline(ctx context.Context, eventID, memberID string) (*ScanResult, error) {
	pending, err := e.queue.Peek(ctx)
	if err != nil {
		return nil, err
	}
	key := pairKey(eventID, memberID)
	for _, mut := range pending {
		if mut.Relation == "attendance" && mut.NaturalKey == key {
			status, _ := mut.Payload["status"].(string)
			return &ScanResult{Status: status, AlreadyRegistered: true, Queued: true}, nil
		}
	}

	payload := map[string]interface{}{
		"event_id":  eventID,
		"member_id": memberID,
		"status":    model.AttendancePresent,
		"marked_at": e.now().UTC().Format(time.RFC3339),
	}
	if name, ok := e.cachedMemberName(ctx, memberID); ok {
		payload["member_name"] = name
	}

	_, err = e.queue.Enqueue(ctx, queue.Mutation{
		Relation:    "attendance",
		Kind:        queue.KindUpsert,
		NaturalKey:  key,
		Payload:     payload,
		ConflictKey: attendanceConflictKey,
	})
	if err != nil {
		return nil, err
	}
	return &ScanResult{Status: model.AttendancePresent, Queued: true}, nil
}

// SetStatus is the explicit management override: it writes the given
// status whatever the prior state. Offline the write is queued; a
// later SetStatus for the same pair replaces the queued one.
func (e *Engine) SetStatus(ctx context.Context, sess session.Session, eventID, memberID, status string, heightPre, heightPost *float64) error {
	if !sess.CanManage() {
		return ErrForbidden
	}
	if !model.ValidAttendanceStatus(status) {
		return fmt.Errorf("%w: %q", ErrBadStatus, status)
	}

	row := map[string]interface{}{
		"event_id":  eventID,
		"member_id": memberID,
		"status":    status,
		"marked_at": e.now().UTC().Format(time.RFC3339),
	}
	if heightPre != nil {
		row["height_pre_cm"] = *heightPre
	}
	if heightPost != nil {
		row["height_post_cm"] = *heightPost
	}
	if name, ok := e.cachedMemberName(ctx, memberID); ok {
		row["member_name"] = name
	}

	if !e.net.Online() {
		_, err := e.queue.Enqueue(ctx, queue.Mutation{
			Relation:    "attendance",
			Kind:        queue.KindUpsert,
			NaturalKey:  pairKey(eventID, memberID),
			Payload:     row,
			ConflictKey: attendanceConflictKey,
		})
		return err
	}

	_, err := e.gw.Upsert(ctx, "attendance", []map[string]interface{}{row}, attendanceConflictKey)
	return err
}

// CloseEvent marks every still-unregistered roster member absent at
// closure time. Needs the live roster, so it is online-only. Re-runs
// insert nothing for pairs marked by the first run.
func (e *Engine) CloseEvent(ctx context.Context, sess session.Session, eventID string) (int, error) {
	if !sess.CanManage() {
		return 0, ErrForbidden
	}
	if !e.net.Online() {
		return 0, ErrOffline
	}

	members, err := e.roster(ctx, sess)
	if err != nil {
		return 0, err
	}

	recordRows, err := e.gw.Select(ctx, "attendance", map[string]interface{}{"event_id": eventID})
	if err != nil {
		return 0, err
	}
	records, err := decodeRows[Record](recordRows)
	if err != nil {
		return 0, err
	}

	marked := make(map[string]bool, len(records))
	for _, r := range records {
		marked[r.MemberID] = true
	}

	closedAt := e.now().UTC().Format(time.RFC3339)
	var absents []map[string]interface{}
	for _, m := range members {
		if marked[m.MemberID] {
			continue
		}
		absents = append(absents, map[string]interface{}{
			"event_id":    eventID,
			"member_id":   m.MemberID,
			"status":      model.AttendanceAbsent,
			"marked_at":   closedAt,
			"member_name": fmt.Sprintf("%s, %s", m.Surname, m.FirstName),
		})
	}
	if len(absents) == 0 {
		return 0, nil
	}

	if _, err := e.gw.Upsert(ctx, "attendance", absents, attendanceConflictKey); err != nil {
		return 0, err
	}

	e.logger.Info("event ledger closed",
		zap.String("event_id", eventID),
		zap.Int("marked_absent", len(absents)))
	return len(absents), nil
}

// Delete removes a record, returning the pair to unregistered. Deletes
// have no queued form: they are rare admin actions and a queued delete
// followed by a queued upsert would be order-sensitive.
func (e *Engine) Delete(ctx context.Context, sess session.Session, eventID, memberID string) error {
	if !sess.CanManage() {
		return ErrForbidden
	}
	if !e.net.Online() {
		return ErrOffline
	}

	_, err := e.gw.Delete(ctx, "attendance", map[string]interface{}{
		"event_id":  eventID,
		"member_id": memberID,
	})
	return err
}

// ResolveNotice settles an absence pre-notice: one atomic upsert writes
// the resolution status, then the notice is flagged read. If the flag
// write fails the status stands and resolving again is harmless.
func (e *Engine) ResolveNotice(ctx context.Context, sess session.Session, n Notice, status string) error {
	if !sess.CanManage() {
		return ErrForbidden
	}
	if !e.net.Online() {
		return ErrOffline
	}

	if err := e.SetStatus(ctx, sess, n.EventID, n.MemberID, status, nil, nil); err != nil {
		return err
	}

	_, err := e.gw.Upsert(ctx, "notices", []map[string]interface{}{{
		"notice_id": n.NoticeID,
		"is_read":   true,
	}}, []string{"notice_id"})
	return err
}

// ── presentation reads ──

// EventRoll builds the grouped roll for an event: the full roster,
// each member carrying either their latest record's status or
// unregistered.
func (e *Engine) EventRoll(ctx context.Context, sess session.Session, eventID string) ([]RollGroup, error) {
	if !e.net.Online() {
		return nil, ErrOffline
	}

	members, err := e.roster(ctx, sess)
	if err != nil {
		return nil, err
	}

	recordRows, err := e.gw.Select(ctx, "attendance", map[string]interface{}{"event_id": eventID})
	if err != nil {
		return nil, err
	}
	records, err := decodeRows[Record](recordRows)
	if err != nil {
		return nil, err
	}

	latest := dedupeLatest(records)

	entries := make([]RollEntry, 0, len(members))
	for _, m := range members {
		entry := RollEntry{
			MemberID:    m.MemberID,
			Name:        fmt.Sprintf("%s, %s", m.Surname, m.FirstName),
			Trabajadera: m.Trabajadera,
			Status:      StatusUnregistered,
		}
		if rec, ok := latest[m.MemberID]; ok {
			entry.Status = rec.Status
			entry.MarkedAt = rec.MarkedAt
		}
		entries = append(entries, entry)
	}

	return groupRoll(entries), nil
}

// latestRecord returns the pair's authoritative record, or nil when
// unregistered. Duplicate rows collapse to the greatest timestamp.
func (e *Engine) latestRecord(ctx context.Context, eventID, memberID string) (*Record, error) {
	rows, err := e.gw.Select(ctx, "attendance", map[string]interface{}{
		"event_id":  eventID,
		"member_id": memberID,
	})
	if err != nil {
		return nil, err
	}
	records, err := decodeRows[Record](rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	best := records[0]
	for _, r := range records[1:] {
		if r.MarkedAt.After(best.MarkedAt) {
			best = r
		}
	}
	return &best, nil
}

// dedupeLatest collapses duplicate rows per member to the one with the
// greatest timestamp. Discarded rows stay in storage; this is a
// read-side mitigation for rows that predate the uniqueness
// constraint.
func dedupeLatest(records []Record) map[string]Record {
	latest := make(map[string]Record, len(records))
	for _, r := range records {
		if prev, ok := latest[r.MemberID]; ok && !r.MarkedAt.After(prev.MarkedAt) {
			continue
		}
		latest[r.MemberID] = r
	}
	return latest
}

// groupRoll buckets entries by trabajadera ascending with unassigned
// last, surname order within each bucket.
func groupRoll(entries []RollEntry) []RollGroup {
	buckets := make(map[int][]RollEntry)
	for _, e := range entries {
		buckets[e.Trabajadera] = append(buckets[e.Trabajadera], e)
	}

	nums := make([]int, 0, len(buckets))
	for n := range buckets {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool {
		a, b := nums[i], nums[j]
		if a == model.TrabajaderaUnassigned {
			return false
		}
		if b == model.TrabajaderaUnassigned {
			return true
		}
		return a < b
	})

	groups := make([]RollGroup, 0, len(nums))
	for _, n := range nums {
		group := buckets[n]
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })
		groups = append(groups, RollGroup{Trabajadera: n, Entries: group})
	}
	return groups
}
