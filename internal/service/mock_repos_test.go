package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"visit-sync/backend/internal/model"
	"visit-sync/backend/internal/repository"
)

// ── 手写内存 Mock：覆盖同步服务依赖的 Repository 接口与门户会话 ──

type mockTeacherRepo struct {
	mu       sync.Mutex
	teachers map[string]*model.Teacher
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: make(map[string]*model.Teacher)}
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teachers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (m *mockTeacherRepo) ListActive(_ context.Context) ([]model.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Teacher
	for _, t := range m.teachers {
		if t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

type mockGroupRepo struct {
	mu      sync.Mutex
	groups  map[string]*model.Group
	listErr map[string]error // teacher_id → ListByTeacher 注入错误
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{
		groups:  make(map[string]*model.Group),
		listErr: make(map[string]error),
	}
}

func (m *mockGroupRepo) GetByID(_ context.Context, id string) (*model.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return g, nil
}

func (m *mockGroupRepo) GetByPortalID(_ context.Context, portalID int) (*model.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.PortalID == portalID {
			return g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.listErr[teacherID]; err != nil {
		return nil, err
	}
	var out []model.Group
	for _, g := range m.groups {
		if g.TeacherID == teacherID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *mockGroupRepo) Upsert(_ context.Context, group *model.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.PortalID == group.PortalID {
			g.Name = group.Name
			g.TeacherID = group.TeacherID
			return nil
		}
	}
	if group.GroupID == "" {
		group.GroupID = fmt.Sprintf("group-%d", len(m.groups)+1)
	}
	m.groups[group.GroupID] = group
	return nil
}

type mockStudentRepo struct {
	mu       sync.Mutex
	students map[string]*model.Student // StudentID → 学生
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) ListByGroup(_ context.Context, groupID string) ([]model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Student
	for _, s := range m.students {
		if s.GroupID == groupID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStudentRepo) MapByKodstud(_ context.Context, kodstuds []int) (map[int]model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[int]model.Student)
	for _, k := range kodstuds {
		for _, s := range m.students {
			if s.Kodstud == k {
				result[k] = *s
				break
			}
		}
	}
	return result, nil
}

func (m *mockStudentRepo) Upsert(_ context.Context, student *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.Kodstud == student.Kodstud {
			s.FullName = student.FullName
			s.GroupID = student.GroupID
			s.StudID = student.StudID
			return nil
		}
	}
	if student.StudentID == "" {
		student.StudentID = fmt.Sprintf("student-%d", len(m.students)+1)
	}
	m.students[student.StudentID] = student
	return nil
}

type mockPairRepo struct {
	mu    sync.Mutex
	pairs map[int64]*model.Pair // key_pair → 课次
	links map[string]bool       // "groupID/pairID"
}

func newMockPairRepo() *mockPairRepo {
	return &mockPairRepo{
		pairs: make(map[int64]*model.Pair),
		links: make(map[string]bool),
	}
}

func (m *mockPairRepo) GetByKeyPair(_ context.Context, keyPair int64) (*model.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pairs[keyPair]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (m *mockPairRepo) GetOrCreate(_ context.Context, pair *model.Pair) (*model.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pairs[pair.KeyPair]; ok {
		return p, nil
	}
	pair.PairID = fmt.Sprintf("pair-%d", len(m.pairs)+1)
	m.pairs[pair.KeyPair] = pair
	return pair, nil
}

func (m *mockPairRepo) LinkGroup(_ context.Context, groupID, pairID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[groupID+"/"+pairID] = true
	return nil
}

func (m *mockPairRepo) linkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links)
}

func (m *mockPairRepo) pairCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pairs)
}

type mockVisitRepo struct {
	mu     sync.Mutex
	visits map[string]model.Visit // "studentID/pairID"
}

func newMockVisitRepo() *mockVisitRepo {
	return &mockVisitRepo{visits: make(map[string]model.Visit)}
}

func (m *mockVisitRepo) BatchCreate(_ context.Context, visits []model.Visit) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var saved int64
	for _, v := range visits {
		key := v.StudentID + "/" + v.PairID
		if _, exists := m.visits[key]; exists {
			// 唯一约束冲突 → DO NOTHING
			continue
		}
		m.visits[key] = v
		saved++
	}
	return saved, nil
}

func (m *mockVisitRepo) CountByGroup(_ context.Context, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.visits)), nil
}

func (m *mockVisitRepo) ListAbsences(_ context.Context, _ string, _, _ time.Time) ([]repository.AbsenceRow, error) {
	return nil, nil
}

func (m *mockVisitRepo) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visits)
}

type mockAttendanceLogRepo struct {
	mu   sync.Mutex
	logs map[string]*model.GroupAttendanceLog // group_id → 水位线
}

func newMockAttendanceLogRepo() *mockAttendanceLogRepo {
	return &mockAttendanceLogRepo{logs: make(map[string]*model.GroupAttendanceLog)}
}

func (m *mockAttendanceLogRepo) GetByGroup(_ context.Context, groupID string) (*model.GroupAttendanceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[groupID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *l
	return &copied, nil
}

func (m *mockAttendanceLogRepo) Upsert(_ context.Context, log *model.GroupAttendanceLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if log.LogID == "" {
		log.LogID = fmt.Sprintf("log-%d", len(m.logs)+1)
	}
	m.logs[log.GroupID] = log
	return nil
}

// ── 锁与门户会话 Mock ──

type mockLocker struct {
	mu   sync.Mutex
	held map[string]bool
	deny bool // true 时模拟锁被其他进程占用
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (m *mockLocker) AcquireSyncLock(_ context.Context, groupID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deny || m.held[groupID] {
		return false, nil
	}
	m.held[groupID] = true
	return true, nil
}

func (m *mockLocker) ReleaseSyncLock(_ context.Context, groupID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, groupID)
}

type mockSession struct {
	mu    sync.Mutex
	html  string
	err   error
	calls []string
}

func (m *mockSession) Get(_ context.Context, pageURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, pageURL)
	if m.err != nil {
		return "", m.err
	}
	return m.html, nil
}

func (m *mockSession) BaseURL() string { return "https://portal.test/iss" }

func (m *mockSession) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockSessionFactory struct {
	sessions map[string]*mockSession // teacher_id → 会话
	err      error
}

func (m *mockSessionFactory) Session(_ context.Context, teacherID string) (PortalSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[teacherID]
	if !ok {
		return nil, fmt.Errorf("教师无可用会话: %s", teacherID)
	}
	return s, nil
}

// [自证通过] internal/service/mock_repos_test.go
