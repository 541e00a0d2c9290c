package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.UserProfile
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.UserProfile)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.UserProfile) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.UserProfile, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.UserProfile, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.UserProfile) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock MemberRepository ──

type mockMemberRepo struct {
	members map[string]*model.Member
	seq     int
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{members: make(map[string]*model.Member)}
}

func (m *mockMemberRepo) Create(_ context.Context, member *model.Member) error {
	if member.MemberID == "" {
		m.seq++
		member.MemberID = fmt.Sprintf("member-gen-%03d", m.seq)
	}
	m.members[member.MemberID] = member
	return nil
}

func (m *mockMemberRepo) BatchCreate(_ context.Context, members []model.Member) error {
	for i := range members {
		if members[i].MemberID == "" {
			m.seq++
			members[i].MemberID = fmt.Sprintf("member-gen-%03d", m.seq)
		}
		cp := members[i]
		m.members[cp.MemberID] = &cp
	}
	return nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, id string) (*model.Member, error) {
	if mem, ok := m.members[id]; ok {
		return mem, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMemberRepo) ListBySeason(_ context.Context, seasonYear int) ([]model.Member, error) {
	var result []model.Member
	for _, mem := range m.members {
		if mem.SeasonYear == seasonYear {
			result = append(result, *mem)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MemberID < result[j].MemberID })
	return result, nil
}

func (m *mockMemberRepo) CountBySeason(_ context.Context, seasonYear int) (int64, error) {
	var total int64
	for _, mem := range m.members {
		if mem.SeasonYear == seasonYear {
			total++
		}
	}
	return total, nil
}

func (m *mockMemberRepo) Update(_ context.Context, member *model.Member) error {
	existing, ok := m.members[member.MemberID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != member.Version {
		member.Version = existing.Version
	}
	member.Version++
	m.members[member.MemberID] = member
	return nil
}

func (m *mockMemberRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.members, id)
	return nil
}

// ── Mock EventRepository ──

type mockEventRepo struct {
	events map[string]*model.Event
	seq    int
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.Event)}
}

func (m *mockEventRepo) Create(_ context.Context, event *model.Event) error {
	if event.EventID == "" {
		m.seq++
		event.EventID = fmt.Sprintf("event-%03d", m.seq)
	}
	m.events[event.EventID] = event
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) ListBySeason(_ context.Context, seasonYear int) ([]model.Event, error) {
	var result []model.Event
	for _, e := range m.events {
		if e.SeasonYear == seasonYear {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartAt.Before(result[j].StartAt) })
	return result, nil
}

func (m *mockEventRepo) Update(_ context.Context, event *model.Event) error {
	if _, ok := m.events[event.EventID]; !ok {
		return gorm.ErrRecordNotFound
	}
	event.Version++
	m.events[event.EventID] = event
	return nil
}

func (m *mockEventRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.events, id)
	return nil
}

// ── Mock AttendanceRepository ──
//
// Keyed on "eventID:memberID" to mirror the database uniqueness
// constraint; extras holds pre-constraint duplicate rows for
// read-dedup tests.

type mockAttendanceRepo struct {
	records map[string]*model.Attendance
	extras  []model.Attendance
	seq     int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.Attendance)}
}

func pairKey(eventID, memberID string) string {
	return eventID + ":" + memberID
}

func (m *mockAttendanceRepo) assignID(rec *model.Attendance) {
	if rec.AttendanceID == "" {
		m.seq++
		rec.AttendanceID = fmt.Sprintf("att-%03d", m.seq)
	}
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, rec *model.Attendance) error {
	key := pairKey(rec.EventID, rec.MemberID)
	if existing, ok := m.records[key]; ok {
		rec.AttendanceID = existing.AttendanceID
	} else {
		m.assignID(rec)
	}
	cp := *rec
	m.records[key] = &cp
	return nil
}

func (m *mockAttendanceRepo) GuardedInsert(_ context.Context, rec *model.Attendance) (bool, error) {
	key := pairKey(rec.EventID, rec.MemberID)
	if _, ok := m.records[key]; ok {
		return false, nil
	}
	m.assignID(rec)
	cp := *rec
	m.records[key] = &cp
	return true, nil
}

func (m *mockAttendanceRepo) BatchGuardedInsert(_ context.Context, recs []model.Attendance) (int64, error) {
	var inserted int64
	for i := range recs {
		ok, _ := m.GuardedInsert(context.Background(), &recs[i])
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

func (m *mockAttendanceRepo) GetByEventMember(_ context.Context, eventID, memberID string) (*model.Attendance, error) {
	best, ok := m.records[pairKey(eventID, memberID)]
	for i := range m.extras {
		e := &m.extras[i]
		if e.EventID != eventID || e.MemberID != memberID {
			continue
		}
		if !ok || e.MarkedAt.After(best.MarkedAt) {
			best, ok = e, true
		}
	}
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (m *mockAttendanceRepo) ListByEvent(_ context.Context, eventID string) ([]model.Attendance, error) {
	var result []model.Attendance
	for _, rec := range m.records {
		if rec.EventID == eventID {
			result = append(result, *rec)
		}
	}
	for _, rec := range m.extras {
		if rec.EventID == eventID {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AttendanceID < result[j].AttendanceID })
	return result, nil
}

func (m *mockAttendanceRepo) ListByMember(_ context.Context, memberID string) ([]model.Attendance, error) {
	var result []model.Attendance
	for _, rec := range m.records {
		if rec.MemberID == memberID {
			result = append(result, *rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MarkedAt.After(result[j].MarkedAt) })
	return result, nil
}

func (m *mockAttendanceRepo) CountByEventStatus(_ context.Context, eventID, status string) (int64, error) {
	var total int64
	for _, rec := range m.records {
		if rec.EventID == eventID && rec.Status == status {
			total++
		}
	}
	for i := range m.extras {
		if m.extras[i].EventID == eventID && m.extras[i].Status == status {
			total++
		}
	}
	return total, nil
}

func (m *mockAttendanceRepo) DeleteByEventMember(_ context.Context, eventID, memberID string) error {
	delete(m.records, pairKey(eventID, memberID))
	return nil
}

// ── Mock NoticeRepository ──

type mockNoticeRepo struct {
	notices map[string]*model.Notice
	seq     int
}

func newMockNoticeRepo() *mockNoticeRepo {
	return &mockNoticeRepo{notices: make(map[string]*model.Notice)}
}

func (m *mockNoticeRepo) Create(_ context.Context, notice *model.Notice) error {
	if notice.NoticeID == "" {
		m.seq++
		notice.NoticeID = fmt.Sprintf("notice-%03d", m.seq)
	}
	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = time.Now().UTC()
	}
	m.notices[notice.NoticeID] = notice
	return nil
}

func (m *mockNoticeRepo) GetByID(_ context.Context, id string) (*model.Notice, error) {
	if n, ok := m.notices[id]; ok {
		return n, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNoticeRepo) ListUnread(_ context.Context) ([]model.Notice, error) {
	var result []model.Notice
	for _, n := range m.notices {
		if !n.IsRead {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (m *mockNoticeRepo) ListByEvent(_ context.Context, eventID string) ([]model.Notice, error) {
	var result []model.Notice
	for _, n := range m.notices {
		if n.EventID == eventID {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (m *mockNoticeRepo) ListByMember(_ context.Context, memberID string) ([]model.Notice, error) {
	var result []model.Notice
	for _, n := range m.notices {
		if n.MemberID == memberID {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (m *mockNoticeRepo) MarkRead(_ context.Context, id string) error {
	n, ok := m.notices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.IsRead = true
	return nil
}

// ── Mock SeasonConfigRepository ──

type mockSeasonConfigRepo struct {
	entries map[string]*model.SeasonConfig
}

func newMockSeasonConfigRepo() *mockSeasonConfigRepo {
	return &mockSeasonConfigRepo{entries: make(map[string]*model.SeasonConfig)}
}

func (m *mockSeasonConfigRepo) Get(_ context.Context, key string) (*model.SeasonConfig, error) {
	if e, ok := m.entries[key]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSeasonConfigRepo) Set(_ context.Context, entry *model.SeasonConfig) error {
	entry.UpdatedAt = time.Now().UTC()
	m.entries[entry.ConfigKey] = entry
	return nil
}

// ── Mock RelationRepository ──
//
// Just enough for the relation service tests: rows live in per-relation
// slices, upsert matches on the conflict key columns.

type mockRelationRepo struct {
	tables map[string][]map[string]interface{}
}

func newMockRelationRepo() *mockRelationRepo {
	return &mockRelationRepo{tables: make(map[string][]map[string]interface{})}
}

func rowMatches(row, filter map[string]interface{}) bool {
	for k, v := range filter {
		if row[k] != v {
			return false
		}
	}
	return true
}

func (m *mockRelationRepo) Select(_ context.Context, relation string, filter map[string]interface{}) ([]map[string]interface{}, error) {
	var result []map[string]interface{}
	for _, row := range m.tables[relation] {
		if rowMatches(row, filter) {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *mockRelationRepo) Insert(_ context.Context, relation string, rows []map[string]interface{}) (int64, error) {
	m.tables[relation] = append(m.tables[relation], rows...)
	return int64(len(rows)), nil
}

func (m *mockRelationRepo) Upsert(_ context.Context, relation string, rows []map[string]interface{}, conflictKey []string) (int64, error) {
	if len(conflictKey) == 0 {
		return 0, repository.ErrEmptyConflictKey
	}
	for _, row := range rows {
		key := make(map[string]interface{}, len(conflictKey))
		for _, k := range conflictKey {
			key[k] = row[k]
		}
		replaced := false
		for i, existing := range m.tables[relation] {
			if rowMatches(existing, key) {
				m.tables[relation][i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			m.tables[relation] = append(m.tables[relation], row)
		}
	}
	return int64(len(rows)), nil
}

func (m *mockRelationRepo) Delete(_ context.Context, relation string, filter map[string]interface{}) (int64, error) {
	var kept []map[string]interface{}
	var deleted int64
	for _, row := range m.tables[relation] {
		if rowMatches(row, filter) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.tables[relation] = kept
	return deleted, nil
}

func (m *mockRelationRepo) Count(_ context.Context, relation string, filter map[string]interface{}) (int64, error) {
	var total int64
	for _, row := range m.tables[relation] {
		if rowMatches(row, filter) {
			total++
		}
	}
	return total, nil
}
