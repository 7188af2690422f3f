package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/realtime"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// ── 测试环境 ──

// 2024-03-13 是周三
var testNow = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

const testToday = model.Date("2024-03-13")

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type testEnv struct {
	repo        *repository.Repository
	profiles    *mockProfileRepo
	activities  *mockActivityRepo
	assignments *mockAssignmentRepo
	records     *mockDailyRecordRepo
	pending     *mockPendingItemRepo
	chat        *mockChatRepo
	oplogs      *mockOperationLogRepo
	pub         *recordingPublisher
	clock       Clock
}

func newTestEnv() *testEnv {
	activities := newMockActivityRepo()
	assignments := newMockAssignmentRepo(activities)
	activities.assignments = assignments
	records := newMockDailyRecordRepo(activities)
	env := &testEnv{
		profiles:    newMockProfileRepo(),
		activities:  activities,
		assignments: assignments,
		records:     records,
		pending:     newMockPendingItemRepo(records),
		chat:        newMockChatRepo(),
		oplogs:      &mockOperationLogRepo{},
		pub:         &recordingPublisher{},
		clock:       fixedClock(testNow),
	}
	env.repo = &repository.Repository{
		Profile:      env.profiles,
		Activity:     env.activities,
		Assignment:   env.assignments,
		DailyRecord:  env.records,
		PendingItem:  env.pending,
		Chat:         env.chat,
		OperationLog: env.oplogs,
	}
	return env
}

// addActivity 创建活动并分配给 userIDs
func (e *testEnv) addActivity(id, name string, duty, monthly bool, userIDs ...string) *model.Activity {
	a := &model.Activity{ID: id, Name: name, IsDutyActivity: duty, IsMonthlyConference: monthly}
	e.activities.items[id] = a
	for _, uid := range userIDs {
		e.assignments.list = append(e.assignments.list, model.UserActivity{UserID: uid, ActivityID: id})
	}
	return a
}

func (e *testEnv) addProfile(id, role, approval string) *model.Profile {
	p := &model.Profile{ID: id, Email: id + "@example.com", Role: role, ApprovalStatus: approval}
	e.profiles.items[id] = p
	return p
}

// ── 实时推送记录器 ──

type recordingPublisher struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (p *recordingPublisher) Publish(_ context.Context, change realtime.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

func (p *recordingPublisher) tables() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.changes))
	for _, c := range p.changes {
		out = append(out, c.Table)
	}
	return out
}

// ── Mock ProfileRepository ──

type mockProfileRepo struct {
	mu    sync.Mutex
	items map[string]*model.Profile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{items: make(map[string]*model.Profile)}
}

func (m *mockProfileRepo) insert(p *model.Profile) error {
	if _, ok := m.items[p.ID]; ok {
		return &pgconn.PgError{Code: "23505"}
	}
	p.CreatedAt = testNow
	m.items[p.ID] = p
	return nil
}

func (m *mockProfileRepo) CreateWithBootstrap(_ context.Context, p *model.Profile) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	promoted := len(m.items) == 0
	if promoted {
		p.Role = status.RoleSupervisor
		p.ApprovalStatus = status.ApprovalApproved
	}
	if err := m.insert(p); err != nil {
		return false, err
	}
	return promoted, nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[id]; ok && !p.DeletedAt.Valid {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) GetByIDs(_ context.Context, ids []string) ([]model.Profile, error) {
	var result []model.Profile
	for _, id := range ids {
		if p, ok := m.items[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockProfileRepo) List(_ context.Context, approvalStatus string) ([]model.Profile, error) {
	var result []model.Profile
	for _, p := range m.items {
		if p.DeletedAt.Valid {
			continue
		}
		if approvalStatus != "" && p.ApprovalStatus != approvalStatus {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockProfileRepo) CountByApproval(_ context.Context, approvalStatus string) (int64, error) {
	var n int64
	for _, p := range m.items {
		if !p.DeletedAt.Valid && p.ApprovalStatus == approvalStatus {
			n++
		}
	}
	return n, nil
}

func (m *mockProfileRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	p, ok := m.items[id]
	if !ok || p.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["approval_status"].(string); ok {
		p.ApprovalStatus = v
	}
	if v, ok := fields["role"].(string); ok {
		p.Role = v
	}
	return nil
}

func (m *mockProfileRepo) Delete(_ context.Context, id string, deletedBy string) error {
	if p, ok := m.items[id]; ok {
		p.DeletedAt = gorm.DeletedAt{Time: testNow, Valid: true}
		p.DeletedBy = &deletedBy
	}
	return nil
}

// ── Mock ActivityRepository ──

type mockActivityRepo struct {
	items       map[string]*model.Activity
	assignments *mockAssignmentRepo
	seq         int
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{items: make(map[string]*model.Activity)}
}

func (m *mockActivityRepo) Create(_ context.Context, a *model.Activity) error {
	m.seq++
	if a.ID == "" {
		a.ID = fmt.Sprintf("act-new-%d", m.seq)
	}
	m.items[a.ID] = a
	return nil
}

func (m *mockActivityRepo) GetByID(_ context.Context, id string) (*model.Activity, error) {
	if a, ok := m.items[id]; ok && !a.DeletedAt.Valid {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockActivityRepo) List(_ context.Context) ([]model.Activity, error) {
	var result []model.Activity
	for _, a := range m.items {
		if !a.DeletedAt.Valid {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockActivityRepo) Count(_ context.Context) (int64, error) {
	list, _ := m.List(context.Background())
	return int64(len(list)), nil
}

func (m *mockActivityRepo) Update(_ context.Context, a *model.Activity) error {
	m.items[a.ID] = a
	return nil
}

func (m *mockActivityRepo) Delete(_ context.Context, id string, deletedBy string) error {
	if a, ok := m.items[id]; ok {
		a.DeletedAt = gorm.DeletedAt{Time: testNow, Valid: true}
		a.DeletedBy = &deletedBy
	}
	if m.assignments != nil {
		kept := m.assignments.list[:0]
		for _, ua := range m.assignments.list {
			if ua.ActivityID != id {
				kept = append(kept, ua)
			}
		}
		m.assignments.list = kept
	}
	return nil
}

// lookup 包含已删除活动（记录展示需要）
func (m *mockActivityRepo) lookup(id string) *model.Activity {
	if a, ok := m.items[id]; ok {
		cp := *a
		return &cp
	}
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	list       []model.UserActivity
	activities *mockActivityRepo
}

func newMockAssignmentRepo(activities *mockActivityRepo) *mockAssignmentRepo {
	return &mockAssignmentRepo{activities: activities}
}

func (m *mockAssignmentRepo) ListByUser(_ context.Context, userID string) ([]model.UserActivity, error) {
	var result []model.UserActivity
	for _, ua := range m.list {
		if ua.UserID != userID {
			continue
		}
		a := m.activities.lookup(ua.ActivityID)
		if a == nil || a.DeletedAt.Valid {
			continue
		}
		ua.Activity = a
		result = append(result, ua)
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListAll(_ context.Context) ([]model.UserActivity, error) {
	return append([]model.UserActivity(nil), m.list...), nil
}

func (m *mockAssignmentRepo) ReplaceForActivity(_ context.Context, activityID string, userIDs []string, callerID string) error {
	kept := m.list[:0]
	for _, ua := range m.list {
		if ua.ActivityID != activityID {
			kept = append(kept, ua)
		}
	}
	m.list = kept
	for _, uid := range userIDs {
		m.list = append(m.list, model.UserActivity{UserID: uid, ActivityID: activityID, CreatedBy: &callerID})
	}
	return nil
}

// ── Mock DailyRecordRepository ──

type mockDailyRecordRepo struct {
	items      map[string]*model.DailyRecord
	activities *mockActivityRepo
	seq        int
	updateErr  error
}

func newMockDailyRecordRepo(activities *mockActivityRepo) *mockDailyRecordRepo {
	return &mockDailyRecordRepo{items: make(map[string]*model.DailyRecord), activities: activities}
}

// put 直接写入一条记录（测试准备数据用）
func (m *mockDailyRecordRepo) put(rec model.DailyRecord) *model.DailyRecord {
	m.seq++
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("rec-%d", m.seq)
	}
	rec.CreatedAt = testNow.Add(time.Duration(m.seq) * time.Second)
	m.items[rec.ID] = &rec
	return &rec
}

func (m *mockDailyRecordRepo) findByKey(userID, activityID string, date model.Date) *model.DailyRecord {
	for _, r := range m.items {
		if r.UserID == userID && r.ActivityID == activityID && r.Date == date {
			return r
		}
	}
	return nil
}

// countByKey 唯一性检查
func (m *mockDailyRecordRepo) countByKey(userID, activityID string, date model.Date) int {
	n := 0
	for _, r := range m.items {
		if r.UserID == userID && r.ActivityID == activityID && r.Date == date {
			n++
		}
	}
	return n
}

func (m *mockDailyRecordRepo) withActivity(r *model.DailyRecord) model.DailyRecord {
	cp := *r
	cp.Activity = m.activities.lookup(r.ActivityID)
	return cp
}

func (m *mockDailyRecordRepo) sorted(match func(r *model.DailyRecord) bool) []model.DailyRecord {
	var result []model.DailyRecord
	for _, r := range m.items {
		if match(r) {
			result = append(result, m.withActivity(r))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

func (m *mockDailyRecordRepo) ListByUserAndDate(_ context.Context, userID string, date model.Date) ([]model.DailyRecord, error) {
	return m.sorted(func(r *model.DailyRecord) bool { return r.UserID == userID && r.Date == date }), nil
}

func (m *mockDailyRecordRepo) GetByKey(_ context.Context, userID, activityID string, date model.Date) (*model.DailyRecord, error) {
	if r := m.findByKey(userID, activityID, date); r != nil {
		cp := m.withActivity(r)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDailyRecordRepo) InsertMissing(_ context.Context, records []model.DailyRecord) (int64, error) {
	var created int64
	for _, rec := range records {
		if m.findByKey(rec.UserID, rec.ActivityID, rec.Date) != nil {
			continue
		}
		m.put(rec)
		created++
	}
	return created, nil
}

func (m *mockDailyRecordRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	r, ok := m.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			r.Status = v.(status.Status)
		case "started_at":
			t := v.(time.Time)
			r.StartedAt = &t
		case "completed_at":
			t := v.(time.Time)
			r.CompletedAt = &t
		case "justification":
			r.Justification = v.(*string)
		case "action_taken":
			r.ActionTaken = v.(*string)
		}
	}
	return nil
}

func (m *mockDailyRecordRepo) ListByRange(_ context.Context, filter repository.DailyRecordFilter) ([]model.DailyRecord, error) {
	result := m.sorted(func(r *model.DailyRecord) bool {
		if filter.UserID != "" && r.UserID != filter.UserID {
			return false
		}
		return r.Date >= filter.From && r.Date <= filter.To
	})
	sort.SliceStable(result, func(i, j int) bool { return result[i].Date > result[j].Date })
	return result, nil
}

func (m *mockDailyRecordRepo) CountByRange(ctx context.Context, from, to model.Date) (int64, error) {
	list, _ := m.ListByRange(ctx, repository.DailyRecordFilter{From: from, To: to})
	return int64(len(list)), nil
}

func (m *mockDailyRecordRepo) ListOpenBefore(_ context.Context, userID string, before model.Date, limit int) ([]model.DailyRecord, error) {
	result := m.sorted(func(r *model.DailyRecord) bool {
		if r.UserID != userID || r.Date >= before {
			return false
		}
		return r.Status == status.Pending || r.Status == status.NotStarted || r.Status == status.InProgress
	})
	sort.SliceStable(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ── Mock PendingItemRepository ──

// 事务语义：每个方法要么全部生效，要么不生效
type mockPendingItemRepo struct {
	items   map[string]*model.PendingItem
	records *mockDailyRecordRepo
	seq     int

	escalateCalls  int
	failEscalateAt int // 第 N 次 Escalate 调用失败（从 1 开始，0 表示不失败）
}

func newMockPendingItemRepo(records *mockDailyRecordRepo) *mockPendingItemRepo {
	return &mockPendingItemRepo{items: make(map[string]*model.PendingItem), records: records}
}

func (m *mockPendingItemRepo) Create(_ context.Context, item *model.PendingItem) error {
	m.seq++
	if item.ID == "" {
		item.ID = fmt.Sprintf("pend-%d", m.seq)
	}
	item.CreatedAt = testNow.Add(time.Duration(m.seq) * time.Second)
	cp := *item
	cp.Activity = nil
	m.items[item.ID] = &cp
	return nil
}

func (m *mockPendingItemRepo) GetByID(_ context.Context, id string) (*model.PendingItem, error) {
	if it, ok := m.items[id]; ok {
		cp := *it
		if cp.ActivityID != nil {
			cp.Activity = m.records.activities.lookup(*cp.ActivityID)
		}
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPendingItemRepo) List(_ context.Context, filter repository.PendingItemFilter) ([]model.PendingItem, int64, error) {
	var result []model.PendingItem
	for _, it := range m.items {
		if filter.Resolved != nil && it.Resolved != *filter.Resolved {
			continue
		}
		if filter.AssignedUserID != "" && deref(it.AssignedUserID) != filter.AssignedUserID {
			continue
		}
		if filter.OriginalUserID != "" && it.OriginalUserID != filter.OriginalUserID {
			continue
		}
		if filter.OnlySpecial && !it.IsSpecialRequest {
			continue
		}
		result = append(result, *it)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })

	total := int64(len(result))
	if filter.Offset >= len(result) {
		return []model.PendingItem{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(result) {
		end = len(result)
	}
	return result[filter.Offset:end], total, nil
}

func (m *mockPendingItemRepo) Escalate(ctx context.Context, item *model.PendingItem, recordID string) error {
	m.escalateCalls++
	if m.failEscalateAt > 0 && m.escalateCalls == m.failEscalateAt {
		return fmt.Errorf("模拟写入失败")
	}
	rec, ok := m.records.items[recordID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if err := m.Create(ctx, item); err != nil {
		return err
	}
	rec.Status = status.Pending
	return nil
}

func (m *mockPendingItemRepo) Assign(_ context.Context, itemID, assigneeID string, requeue *model.DailyRecord) error {
	it, ok := m.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	it.AssignedUserID = &assigneeID
	if requeue == nil {
		return nil
	}
	if existing := m.records.findByKey(requeue.UserID, requeue.ActivityID, requeue.Date); existing != nil {
		existing.Status = status.NotStarted
		return nil
	}
	m.records.put(*requeue)
	return nil
}

func (m *mockPendingItemRepo) Resolve(_ context.Context, item *model.PendingItem, cascade bool) error {
	it, ok := m.items[item.ID]
	if !ok || it.Resolved {
		return gorm.ErrRecordNotFound
	}
	it.Resolved = true
	it.ResolvedAt = item.ResolvedAt
	it.Justification = item.Justification
	it.ActionTaken = item.ActionTaken
	if cascade {
		if rec := m.records.findByKey(item.OriginalUserID, *item.ActivityID, *item.OriginalDate); rec != nil {
			rec.Status = status.CompletedLate
		}
	}
	return nil
}

func (m *mockPendingItemRepo) CountUnresolved(_ context.Context) (int64, error) {
	var n int64
	for _, it := range m.items {
		if !it.Resolved {
			n++
		}
	}
	return n, nil
}

func (m *mockPendingItemRepo) CountUnresolvedForUser(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, it := range m.items {
		if !it.Resolved && (it.OriginalUserID == userID || deref(it.AssignedUserID) == userID) {
			n++
		}
	}
	return n, nil
}

func (m *mockPendingItemRepo) CountUnresolvedByAssignee(_ context.Context) ([]repository.AssigneeCount, error) {
	counts := make(map[string]int64)
	for _, it := range m.items {
		if !it.Resolved && it.AssignedUserID != nil {
			counts[*it.AssignedUserID]++
		}
	}
	var result []repository.AssigneeCount
	for uid, n := range counts {
		result = append(result, repository.AssigneeCount{UserID: uid, Count: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// itemsForActivity 测试断言用
func (m *mockPendingItemRepo) itemsForActivity(activityID string) []*model.PendingItem {
	var result []*model.PendingItem
	for _, it := range m.items {
		if deref(it.ActivityID) == activityID {
			result = append(result, it)
		}
	}
	return result
}

// ── Mock ChatRepository ──

type mockChatRepo struct {
	msgs []*model.ChatMessage
	seq  int
}

func newMockChatRepo() *mockChatRepo {
	return &mockChatRepo{}
}

func (m *mockChatRepo) Create(_ context.Context, msg *model.ChatMessage) error {
	m.seq++
	msg.ID = fmt.Sprintf("msg-%d", m.seq)
	msg.CreatedAt = testNow.Add(time.Duration(m.seq) * time.Second)
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *mockChatRepo) ListConversation(_ context.Context, userA, userB string, limit int) ([]model.ChatMessage, error) {
	var result []model.ChatMessage
	for _, msg := range m.msgs {
		if msg.IsBroadcast || msg.ReceiverID == nil {
			continue
		}
		r := *msg.ReceiverID
		if (msg.SenderID == userA && r == userB) || (msg.SenderID == userB && r == userA) {
			result = append(result, *msg)
		}
	}
	if len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (m *mockChatRepo) ListBroadcast(_ context.Context, offset, limit int) ([]model.ChatMessage, int64, error) {
	var result []model.ChatMessage
	for i := len(m.msgs) - 1; i >= 0; i-- {
		if m.msgs[i].IsBroadcast {
			result = append(result, *m.msgs[i])
		}
	}
	total := int64(len(result))
	if offset >= len(result) {
		return []model.ChatMessage{}, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockChatRepo) MarkRead(_ context.Context, senderID, receiverID string, at time.Time) (int64, error) {
	var n int64
	for _, msg := range m.msgs {
		if msg.SenderID == senderID && deref(msg.ReceiverID) == receiverID && msg.ReadAt == nil {
			t := at
			msg.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (m *mockChatRepo) CountUnreadBySender(_ context.Context, receiverID string) ([]repository.UnreadCount, error) {
	counts := make(map[string]int64)
	for _, msg := range m.msgs {
		if deref(msg.ReceiverID) == receiverID && msg.ReadAt == nil {
			counts[msg.SenderID]++
		}
	}
	var result []repository.UnreadCount
	for sid, n := range counts {
		result = append(result, repository.UnreadCount{SenderID: sid, Count: n})
	}
	return result, nil
}

// ── Mock OperationLogRepository ──

type mockOperationLogRepo struct {
	logs      []model.OperationLog
	createErr error
}

func (m *mockOperationLogRepo) Create(_ context.Context, log *model.OperationLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockOperationLogRepo) List(_ context.Context, filter repository.OperationLogFilter) ([]model.OperationLog, int64, error) {
	var result []model.OperationLog
	for _, l := range m.logs {
		if filter.Table != "" && l.Table != filter.Table {
			continue
		}
		if filter.Operation != "" && l.Operation != filter.Operation {
			continue
		}
		result = append(result, l)
	}
	return result, int64(len(result)), nil
}

func (m *mockOperationLogRepo) withError() []model.OperationLog {
	var result []model.OperationLog
	for _, l := range m.logs {
		if l.Error != nil {
			result = append(result, l)
		}
	}
	return result
}
