package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/queue"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/field/session"
)

// ── in-memory fakes ──

type memStore struct {
	slots map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{slots: make(map[string][]byte)}
}

func (s *memStore) Save(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.slots[key] = raw
	return nil
}

func (s *memStore) Load(_ context.Context, key string, out interface{}) (bool, error) {
	raw, ok := s.slots[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.slots, key)
	return nil
}

func (s *memStore) Close() error { return nil }

// tableGateway emulates the server's relation semantics in memory:
// equality filters, conflict-key upserts, no insert dedup.
type tableGateway struct {
	tables map[string][]map[string]interface{}
	err    error
}

func newTableGateway() *tableGateway {
	return &tableGateway{tables: make(map[string][]map[string]interface{})}
}

func rowMatches(row, filter map[string]interface{}) bool {
	for k, want := range filter {
		raw, err := json.Marshal(row[k])
		if err != nil {
			return false
		}
		wantRaw, err := json.Marshal(want)
		if err != nil {
			return false
		}
		if string(raw) != string(wantRaw) {
			return false
		}
	}
	return true
}

func (g *tableGateway) Select(_ context.Context, relation string, filter map[string]interface{}) ([]map[string]interface{}, error) {
	if g.err != nil {
		return nil, g.err
	}
	var out []map[string]interface{}
	for _, row := range g.tables[relation] {
		if rowMatches(row, filter) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (g *tableGateway) Insert(_ context.Context, relation string, rows []map[string]interface{}) (int64, error) {
	if g.err != nil {
		return 0, g.err
	}
	g.tables[relation] = append(g.tables[relation], rows...)
	return int64(len(rows)), nil
}

func (g *tableGateway) Upsert(_ context.Context, relation string, rows []map[string]interface{}, conflictKey []string) (int64, error) {
	if g.err != nil {
		return 0, g.err
	}
	for _, row := range rows {
		key := make(map[string]interface{}, len(conflictKey))
		for _, k := range conflictKey {
			key[k] = row[k]
		}
		matched := false
		for i, existing := range g.tables[relation] {
			if rowMatches(existing, key) {
				for k, v := range row {
					g.tables[relation][i][k] = v
				}
				matched = true
				break
			}
		}
		if !matched {
			copied := make(map[string]interface{}, len(row))
			for k, v := range row {
				copied[k] = v
			}
			g.tables[relation] = append(g.tables[relation], copied)
		}
	}
	return int64(len(rows)), nil
}

func (g *tableGateway) Delete(_ context.Context, relation string, filter map[string]interface{}) (int64, error) {
	if g.err != nil {
		return 0, g.err
	}
	var kept []map[string]interface{}
	var removed int64
	for _, row := range g.tables[relation] {
		if rowMatches(row, filter) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	g.tables[relation] = kept
	return removed, nil
}

func (g *tableGateway) Count(_ context.Context, relation string, filter map[string]interface{}) (int64, error) {
	rows, err := g.Select(context.Background(), relation, filter)
	return int64(len(rows)), err
}

type fakeConn struct {
	online bool
}

func (c *fakeConn) Online() bool { return c.online }

// ── fixture ──

type engineFixture struct {
	engine *Engine
	gw     *tableGateway
	conn   *fakeConn
	queue  *queue.Manager
	store  *memStore
	sess   session.Session
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	gw := newTableGateway()
	st := newMemStore()
	q := queue.NewManager(st, gw, zap.NewNop())
	conn := &fakeConn{online: true}
	sess, err := session.New(2026, "capataz", "user-001", "", "device-001")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return &engineFixture{
		engine: New(gw, q, conn, st, zap.NewNop()),
		gw:     gw,
		conn:   conn,
		queue:  q,
		store:  st,
		sess:   sess,
	}
}

func (f *engineFixture) addMember(id, surname, firstName string, trabajadera int) {
	f.gw.tables["members"] = append(f.gw.tables["members"], map[string]interface{}{
		"member_id":   id,
		"surname":     surname,
		"first_name":  firstName,
		"trabajadera": trabajadera,
		"role":        "costalero",
		"season_year": 2026,
	})
}

func (f *engineFixture) addRecord(eventID, memberID, status string, markedAt time.Time) {
	f.gw.tables["attendance"] = append(f.gw.tables["attendance"], map[string]interface{}{
		"event_id":  eventID,
		"member_id": memberID,
		"status":    status,
		"marked_at": markedAt.Format(time.RFC3339),
	})
}

func (f *engineFixture) attendanceRows(t *testing.T, eventID string) []Record {
	t.Helper()
	rows, err := f.gw.Select(context.Background(), "attendance", map[string]interface{}{"event_id": eventID})
	if err != nil {
		t.Fatalf("select attendance: %v", err)
	}
	records, err := decodeRows[Record](rows)
	if err != nil {
		t.Fatalf("decode attendance: %v", err)
	}
	return records
}

// ── scan ──

func TestEngine_Scan_NewPairMarksPresent(t *testing.T) {
	f := newEngineFixture(t)
	f.addMember("member-001", "García", "Luis", 3)

	result, err := f.engine.Scan(context.Background(), f.sess, "event-001", "member-001")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.AlreadyRegistered || result.Queued {
		t.Errorf("expected fresh direct write, got %+v", result)
	}
	if result.Status != "present" {
		t.Errorf("expected present, got %s", result.Status)
	}

	records := f.attendanceRows(t, "event-001")
	if len(records) != 1 || records[0].MemberName != "García, Luis" {
		t.Errorf("unexpected stored rows: %+v", records)
	}
}

func TestEngine_Scan_ExistingRecordNotOverwritten(t *testing.T) {
	f := newEngineFixture(t)
	f.addMember("member-001", "García", "Luis", 3)
	f.addRecord("event-001", "member-001", "justified", time.Now())

	result, err := f.engine.Scan(context.Background(), f.sess, "event-001", "member-001")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !result.AlreadyRegistered {
		t.Error("expected already-registered report")
	}
	if result.Status != "justified" {
		t.Errorf("expected existing status reported, got %s", result.Status)
	}

	records := f.attendanceRows(t, "event-001")
	if len(records) != 1 || records[0].Status != "justified" {
		t.Errorf("re-scan must not mutate the record: %+v", records)
	}
}

func TestEngine_Scan_DuplicateRowsReportLatest(t *testing.T) {
	f := newEngineFixture(t)
	f.addMember("member-001", "García", "Luis", 3)
	base := time.Date(2026, 3, 29, 18, 0, 0, 0, time.UTC)
	f.addRecord("event-001", "member-001", "present", base)
	f.addRecord("event-001", "member-001", "justified", base.Add(time.Hour))

	result, err := f.engine.Scan(context.Background(), f.sess, "event-001", "member-001")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Status != "justified" {
		t.Errorf("expected latest row's status, got %s", result.Status)
	}
}

func TestEngine_Scan_UnknownMember(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Scan(context.Background(), f.sess, "event-001", "member-404")
	if !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestEngine_Scan_OfflineQueues(t *testing.T) {
	f := newEngineFixture(t)
	f.conn.online = false
	ctx := context.Background()

	result, err := f.engine.Scan(ctx, f.sess, "event-001", "member-001")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !result.Queued || result.AlreadyRegistered {
		t.Errorf("expected queued fresh write, got %+v", result)
	}

	depth, _ := f.queue.Depth(ctx)
	if depth != 1 {
		t.Errorf("expected one queued mutation, got %d", depth)
	}

	// Re-scan while still offline reports the queued status and does
	// not enqueue a second entry.
	again, err := f.engine.Scan(ctx, f.sess, "event-001", "member-001")
	if err != nil {
		t.Fatalf("re-scan: %v", err)
	}
	if !again.AlreadyRegistered || again.Status != "present" {
		t.Errorf("expected queued pair reported, got %+v", again)
	}
	depth, _ = f.queue.Depth(ctx)
	if depth != 1 {
		t.Errorf("expected depth unchanged, got %d", depth)
	}
}

func TestEngine_Scan_OfflineCarriesCachedName(t *testing.T) {
	f := newEngineFixture(t)
	f.addMember("member-001", "García", "Luis", 3)
	ctx := context.Background()

	// An online roll warms the roster cache before the drop.
	if _, err := f.engine.EventRoll(ctx, f.sess, "event-001"); err != nil {
		t.Fatalf("roll: %v", err)
	}

	f.conn.online = false
	if _, err := f.engine.Scan(ctx, f.sess, "event-001", "member-001"); err != nil {
		t.Fatalf("scan: %v", err)
	}

	pending, _ := f.queue.Peek(ctx)
	if len(pending) != 1 {
		t.Fatalf("expected one queued mutation, got %d", len(pending))
	}
	if name := pending[0].Payload["member_name"]; name != "García, Luis" {
		t.Errorf("expected cached name in queued payload, got %v", name)
	}

	// Reconnect and drain: the name lands remotely with the record.
	f.conn.online = true
	if _, err := f.queue.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	records := f.attendanceRows(t, "event-001")
	if len(records) != 1 || records[0].MemberName != "García, Luis" {
		t.Errorf("unexpected drained rows: %+v", records)
	}
}

func TestEngine_Scan_OfflineColdCacheOmitsName(t *testing.T) {
	f := newEngineFixture(t)
	f.conn.online = false
	ctx := context.Background()

	if _, err := f.engine.Scan(ctx, f.sess, "event-001", "member-001"); err != nil {
		t.Fatalf("scan: %v", err)
	}

	pending, _ := f.queue.Peek(ctx)
	if len(pending) != 1 {
		t.Fatalf("expected one queued mutation, got %d", len(pending))
	}
	if _, ok := pending[0].Payload["member_name"]; ok {
		t.Errorf("cold cache must not invent a name, got %v", pending[0].Payload)
	}
}

func TestEngine_Scan_ForbiddenForCostalero(t *testing.T) {
	f := newEngineFixture(t)
	sess, _ := session.New(2026, "costalero", "user-002", "member-001", "")

	_, err := f.engine.Scan(context.Background(), sess, "event-001", "member-001")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

// ── set status ──

func TestEngine_SetStatus_OverridesExisting(t *testing.T) {
	f := newEngineFixture(t)
	f.addMember("member-001", "García", "Luis", 3)
	f.addRecord("event-001", "member-001", "present", time.Now())
	ctx := context.Background()

	if err := f.engine.SetStatus(ctx, f.sess, "event-001", "member-001", "justified", nil, nil); err != nil {
		t.Fatalf("set status: %v", err)
	}

	records := f.attendanceRows(t, "event-001")
	if len(records) != 1 {
		t.Fatalf("override must not create a second row, got %d", len(records))
	}
	if records[0].Status != "justified" {
		t.Errorf("expected justified, got %s", records[0].Status)
	}
}

func TestEngine_SetStatus_RejectsBadStatus(t *testing.T) {
	f := newEngineFixture(t)

	err := f.engine.SetStatus(context.Background(), f.sess, "event-001", "member-001", "vanished", nil, nil)
	if !errors.Is(err, ErrBadStatus) {
		t.Errorf("expected ErrBadStatus, got %v", err)
	}
}

func TestEngine_SetStatus_OfflineLastWriteWins(t *testing.T) {
	f := newEngineFixture(t)
	f.conn.online = false
	ctx := context.Background()

	if err := f.engine.SetStatus(ctx, f.sess, "event-001", "member-001", "present", nil, nil); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := f.engine.SetStatus(ctx, f.sess, "event-001", "member-001", "justified", nil, nil); err != nil {
		t.Fatalf("second set: %v", err)
	}

	pending, _ := f.queue.Peek(ctx)
	if len(pending) != 1 {
		t.Fatalf("expected merged queue entry, got %d", len(pending))
	}
	if pending[0].Payload["status"] != "justified" {
		t.Errorf("expected last write queued, got %v", pending[0].Payload)
	}

	// Reconnect and drain: exactly one row lands remotely.
	f.conn.online = true
	if _, err := f.queue.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	records := f.attendanceRows(t, "event-001")
	if len(records) != 1 || records[0].Status != "justified" {
		t.Errorf("unexpected drained state: %+v", records)
	}
}

// ── close event ──

func TestEngine_CloseEvent_MarksUnregisteredAbsent(t *testing.T) {
	f := newEngineFixture(t)
	f.addMember("member-001", "García", "Luis", 3)
	f.addMember("member-002", "Benítez", "Ana", 1)
	f.addMember("member-003", "Vega", "Pablo", 0)
	f.addRecord("event-001", "member-001", "present", time.Now())
	ctx := context.Background()

	marked, err := f.engine.CloseEvent(ctx, f.sess, "event-001")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if marked != 2 {
		t.Errorf("expected 2 absents, got %d", marked)
	}

	records := f.attendanceRows(t, "event-001")
	byMember := make(map[string]string)
	for _, r := range records {
		byMember[r.MemberID] = r.Status
	}
	if byMember["member-001"] != "present" {
		t.Errorf("present member must stay present, got %s", byMember["member-001"])
	}
	if byMember["member-002"] != "absent" || byMember["member-003"] != "absent" {
		t.Errorf("unexpected statuses: %v", byMember)
	}
}

func TestEngine_CloseEvent_RerunInsertsNothing(t *testing.T) {
	f := newEngineFixture(t)
	f.addMember("member-001", "García", "Luis", 3)
	ctx := context.Background()

	if _, err := f.engine.CloseEvent(ctx, f.sess, "event-001"); err != nil {
		t.Fatalf("first close: %v", err)
	}
	marked, err := f.engine.CloseEvent(ctx, f.sess, "event-001")
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if marked != 0 {
		t.Errorf("expected idempotent re-run, got %d", marked)
	}
	if records := f.attendanceRows(t, "event-001"); len(records) != 1 {
		t.Errorf("expected one row after re-run, got %d", len(records))
	}
}

func TestEngine_CloseEvent_RequiresConnectivity(t *testing.T) {
	f := newEngineFixture(t)
	f.conn.online = false

	_, err := f.engine.CloseEvent(context.Background(), f.sess, "event-001")
	if !errors.Is(err, ErrOffline) {
		t.Errorf("expected ErrOffline, got %v", err)
	}
}

// ── delete ──

func TestEngine_Delete_ReturnsPairToUnregistered(t *testing.T) {
	f := newEngineFixture(t)
	f.addRecord("event-001", "member-001", "absent", time.Now())

	if err := f.engine.Delete(context.Background(), f.sess, "event-001", "member-001"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if records := f.attendanceRows(t, "event-001"); len(records) != 0 {
		t.Errorf("expected record removed, got %+v", records)
	}
}

func TestEngine_Delete_RejectedOffline(t *testing.T) {
	f := newEngineFixture(t)
	f.conn.online = false

	err := f.engine.Delete(context.Background(), f.sess, "event-001", "member-001")
	if !errors.Is(err, ErrOffline) {
		t.Errorf("expected ErrOffline, got %v", err)
	}
}

// ── notices ──

func TestEngine_ResolveNotice_SingleUpsertAndRead(t *testing.T) {
	f := newEngineFixture(t)
	f.addRecord("event-001", "member-001", "present", time.Now())
	f.gw.tables["notices"] = append(f.gw.tables["notices"], map[string]interface{}{
		"notice_id": "notice-001",
		"member_id": "member-001",
		"event_id":  "event-001",
		"is_read":   false,
	})

	n := Notice{NoticeID: "notice-001", MemberID: "member-001", EventID: "event-001"}
	if err := f.engine.ResolveNotice(context.Background(), f.sess, n, "justified"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	records := f.attendanceRows(t, "event-001")
	if len(records) != 1 || records[0].Status != "justified" {
		t.Errorf("expected single justified row, got %+v", records)
	}
	if read := f.gw.tables["notices"][0]["is_read"]; read != true {
		t.Errorf("expected notice flagged read, got %v", read)
	}
}

// ── roll ──

func TestEngine_EventRoll_GroupsAndSorts(t *testing.T) {
	f := newEngineFixture(t)
	f.addMember("member-001", "García", "Luis", 3)
	f.addMember("member-002", "Benítez", "Ana", 1)
	f.addMember("member-003", "Vega", "Pablo", 0)
	f.addMember("member-004", "Aguilar", "Marta", 1)
	f.addMember("member-005", "Santos", "Iker", 7)
	f.addRecord("event-001", "member-002", "present", time.Now())

	groups, err := f.engine.EventRoll(context.Background(), f.sess, "event-001")
	if err != nil {
		t.Fatalf("roll: %v", err)
	}

	var order []int
	for _, g := range groups {
		order = append(order, g.Trabajadera)
	}
	want := []int{1, 3, 7, 0}
	if len(order) != len(want) {
		t.Fatalf("expected groups %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected groups %v, got %v", want, order)
		}
	}

	first := groups[0].Entries
	if len(first) != 2 || first[0].Name != "Aguilar, Marta" || first[1].Name != "Benítez, Ana" {
		t.Errorf("expected surname order within group, got %+v", first)
	}
	if first[1].Status != "present" {
		t.Errorf("expected marked member present, got %s", first[1].Status)
	}
	if first[0].Status != StatusUnregistered {
		t.Errorf("expected unmarked member unregistered, got %s", first[0].Status)
	}
}

func TestEngine_EventRoll_DedupesOnLatest(t *testing.T) {
	f := newEngineFixture(t)
	f.addMember("member-001", "García", "Luis", 3)
	base := time.Date(2026, 3, 29, 18, 0, 0, 0, time.UTC)
	f.addRecord("event-001", "member-001", "present", base)
	f.addRecord("event-001", "member-001", "justified", base.Add(time.Hour))

	groups, err := f.engine.EventRoll(context.Background(), f.sess, "event-001")
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Entries) != 1 {
		t.Fatalf("expected single entry, got %+v", groups)
	}
	if groups[0].Entries[0].Status != "justified" {
		t.Errorf("expected latest row to win, got %s", groups[0].Entries[0].Status)
	}

	// Storage keeps both rows; only presentation collapses them.
	if records := f.attendanceRows(t, "event-001"); len(records) != 2 {
		t.Errorf("dedup must not delete rows, got %d", len(records))
	}
}

// ── cached reads ──

func TestEngine_Events_OnlineRefreshesCache(t *testing.T) {
	f := newEngineFixture(t)
	start := time.Date(2026, 3, 29, 17, 0, 0, 0, time.UTC)
	f.gw.tables["events"] = append(f.gw.tables["events"], map[string]interface{}{
		"event_id":    "event-001",
		"name":        "Salida procesional",
		"start_at":    start.Format(time.RFC3339),
		"end_at":      start.Add(6 * time.Hour).Format(time.RFC3339),
		"season_year": 2026,
	})
	ctx := context.Background()

	events, err := f.engine.Events(ctx, f.sess)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 || events[0].Name != "Salida procesional" {
		t.Fatalf("unexpected events: %+v", events)
	}

	// Go offline: the cache answers.
	f.conn.online = false
	cached, err := f.engine.Events(ctx, f.sess)
	if err != nil {
		t.Fatalf("cached events: %v", err)
	}
	if len(cached) != 1 || cached[0].EventID != "event-001" {
		t.Errorf("expected cached copy, got %+v", cached)
	}
}

func TestEngine_Events_OfflineColdStartIsEmpty(t *testing.T) {
	f := newEngineFixture(t)
	f.conn.online = false

	events, err := f.engine.Events(context.Background(), f.sess)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected empty cache, got %+v", events)
	}
}
