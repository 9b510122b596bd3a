package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/internal/repository"
	"github.com/visweshnarni/qptestbackend/pkg/apperrors"
)

// newMockRepository wires map-backed mocks into the repository aggregate. The
// mocks share state so the department-scoped outpass queries can resolve
// student → class → department just like the SQL joins do.
func newMockRepository() (*repository.Repository, *mockState) {
	st := &mockState{
		outpasses:   make(map[string]*model.Outpass),
		students:    make(map[string]*model.Student),
		employees:   make(map[string]*model.Employee),
		classes:     make(map[string]*model.Class),
		mentors:     make(map[string][]string),
		departments: make(map[string]*model.Department),
	}
	return &repository.Repository{
		Outpass:    &mockOutpassRepo{st: st},
		Student:    &mockStudentRepo{st: st},
		Employee:   &mockEmployeeRepo{st: st},
		Class:      &mockClassRepo{st: st},
		Department: &mockDepartmentRepo{st: st},
		Timetable:  &mockTimetableRepo{st: st},
	}, st
}

type mockState struct {
	mu sync.Mutex

	outpasses   map[string]*model.Outpass
	students    map[string]*model.Student
	employees   map[string]*model.Employee
	classes     map[string]*model.Class
	mentors     map[string][]string // classID → mentor employee IDs
	departments map[string]*model.Department
	slots       []model.TimetableSlot

	seq int
}

func (st *mockState) nextID(prefix string) string {
	st.seq++
	return fmt.Sprintf("%s-%d", prefix, st.seq)
}

// departmentOf mirrors the SQL join: outpass → student → class → department.
func (st *mockState) departmentOf(o *model.Outpass) string {
	student, ok := st.students[o.StudentID]
	if !ok {
		return ""
	}
	class, ok := st.classes[student.ClassID]
	if !ok {
		return ""
	}
	return class.DepartmentID
}

// hydrateStudent copies a student with class and department attached, the
// shape the preloading queries return.
func (st *mockState) hydrateStudent(id string) *model.Student {
	s, ok := st.students[id]
	if !ok {
		return nil
	}
	student := *s
	if class, ok := st.classes[student.ClassID]; ok {
		c := *class
		if dept, ok := st.departments[c.DepartmentID]; ok {
			d := *dept
			c.Department = &d
		}
		var ms []model.Employee
		for _, mid := range st.mentors[c.ClassID] {
			if e, ok := st.employees[mid]; ok {
				ms = append(ms, *e)
			}
		}
		c.Mentors = ms
		student.Class = &c
	}
	return &student
}

func (st *mockState) hydrateOutpass(o *model.Outpass) *model.Outpass {
	out := *o
	out.Student = st.hydrateStudent(o.StudentID)
	if o.FacultyApproverID != nil {
		if e, ok := st.employees[*o.FacultyApproverID]; ok {
			emp := *e
			out.FacultyApprover = &emp
		}
	}
	if o.HodApproverID != nil {
		if e, ok := st.employees[*o.HodApproverID]; ok {
			emp := *e
			out.HodApprover = &emp
		}
	}
	return &out
}

// ── Mock OutpassRepository ──

type mockOutpassRepo struct {
	st *mockState
}

func (m *mockOutpassRepo) Create(_ context.Context, outpass *model.Outpass) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if outpass.OutpassID == "" {
		outpass.OutpassID = m.st.nextID("op")
	}
	if outpass.CreatedAt.IsZero() {
		outpass.CreatedAt = time.Now()
	}
	stored := *outpass
	stored.Student = nil
	m.st.outpasses[outpass.OutpassID] = &stored
	return nil
}

func (m *mockOutpassRepo) GetByID(_ context.Context, id string) (*model.Outpass, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	o, ok := m.st.outpasses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.st.hydrateOutpass(o), nil
}

func (m *mockOutpassRepo) ListByStudent(_ context.Context, studentID string) ([]model.Outpass, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Outpass
	for _, o := range m.st.outpasses {
		if o.StudentID == studentID {
			result = append(result, *m.st.hydrateOutpass(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockOutpassRepo) GetActiveByStudent(_ context.Context, studentID string) (*model.Outpass, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, o := range m.st.outpasses {
		if o.StudentID != studentID {
			continue
		}
		switch o.Status {
		case model.StatusPendingFaculty, model.StatusPendingHod, model.StatusApproved, model.StatusExited:
			return m.st.hydrateOutpass(o), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOutpassRepo) ListPendingByDepartment(_ context.Context, status, departmentID string, limit int) ([]model.Outpass, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Outpass
	for _, o := range m.st.outpasses {
		if o.Status == status && m.st.departmentOf(o) == departmentID {
			result = append(result, *m.st.hydrateOutpass(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockOutpassRepo) CountByStatusAndDepartment(_ context.Context, status, departmentID string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var count int64
	for _, o := range m.st.outpasses {
		if o.Status == status && m.st.departmentOf(o) == departmentID {
			count++
		}
	}
	return count, nil
}

func (m *mockOutpassRepo) CountNotifiedPending(_ context.Context, employeeID string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var count int64
	for _, o := range m.st.outpasses {
		if o.Status == model.StatusPendingFaculty && o.NotifiedFaculty.Contains(employeeID) {
			count++
		}
	}
	return count, nil
}

func (m *mockOutpassRepo) CountDecidedByFaculty(_ context.Context, facultyID, status string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var count int64
	for _, o := range m.st.outpasses {
		if o.FacultyApproverID != nil && *o.FacultyApproverID == facultyID && o.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *mockOutpassRepo) CountDecidedByHodSince(_ context.Context, hodID, status string, since time.Time) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var count int64
	for _, o := range m.st.outpasses {
		if o.HodApproverID != nil && *o.HodApproverID == hodID && o.Status == status && !o.UpdatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *mockOutpassRepo) ListDecidedByEmployee(_ context.Context, employeeID string) ([]model.Outpass, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Outpass
	for _, o := range m.st.outpasses {
		faculty := o.FacultyApproverID != nil && *o.FacultyApproverID == employeeID
		hod := o.HodApproverID != nil && *o.HodApproverID == employeeID
		if faculty || hod {
			result = append(result, *m.st.hydrateOutpass(o))
		}
	}
	return result, nil
}

func (m *mockOutpassRepo) ListEmergencyPending(_ context.Context, statuses []string, departmentID string, limit int) ([]model.Outpass, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	statusSet := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		statusSet[s] = true
	}
	var result []model.Outpass
	for _, o := range m.st.outpasses {
		if strings.EqualFold(o.ReasonCategory, "emergency") && statusSet[o.Status] && m.st.departmentOf(o) == departmentID {
			result = append(result, *m.st.hydrateOutpass(o))
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockOutpassRepo) ListByDepartment(_ context.Context, departmentID string) ([]model.Outpass, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Outpass
	for _, o := range m.st.outpasses {
		if m.st.departmentOf(o) == departmentID {
			result = append(result, *m.st.hydrateOutpass(o))
		}
	}
	return result, nil
}

// TransitionStatus re-checks the status under the lock, matching the atomic
// guarded UPDATE the real repository issues.
func (m *mockOutpassRepo) TransitionStatus(_ context.Context, id, fromStatus string, updates map[string]interface{}) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	o, ok := m.st.outpasses[id]
	if !ok || o.Status != fromStatus {
		return apperrors.ErrStatusConflict
	}
	applyOutpassUpdates(o, updates)
	return nil
}

func applyOutpassUpdates(o *model.Outpass, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "status":
			o.Status = v.(string)
		case "faculty_approver_id":
			id := v.(string)
			o.FacultyApproverID = &id
		case "hod_approver_id":
			id := v.(string)
			o.HodApproverID = &id
		case "rejection_reason":
			o.RejectionReason = v.(string)
		case "parent_contact_verified":
			o.ParentContactVerified = v.(bool)
		case "parent_verified_by":
			id := v.(string)
			o.ParentVerifiedBy = &id
		case "parent_verified_at":
			t := v.(time.Time)
			o.ParentVerifiedAt = &t
		case "exit_verified_by":
			id := v.(string)
			o.ExitVerifiedBy = &id
		case "exit_verified_at":
			t := v.(time.Time)
			o.ExitVerifiedAt = &t
		case "return_verified_by":
			id := v.(string)
			o.ReturnVerifiedBy = &id
		case "return_verified_at":
			t := v.(time.Time)
			o.ReturnVerifiedAt = &t
		case "updated_at":
			o.UpdatedAt = v.(time.Time)
		}
	}
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	st *mockState
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if student.StudentID == "" {
		student.StudentID = m.st.nextID("stu")
	}
	stored := *student
	stored.Class = nil
	m.st.students[student.StudentID] = &stored
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	return m.GetByIDWithClass(context.Background(), id)
}

func (m *mockStudentRepo) GetByIDWithClass(_ context.Context, id string) (*model.Student, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	s := m.st.hydrateStudent(id)
	if s == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *mockStudentRepo) GetByEmail(_ context.Context, email string) (*model.Student, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for id, s := range m.st.students {
		if s.Email == email {
			return m.st.hydrateStudent(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) List(_ context.Context) ([]model.Student, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Student
	for id := range m.st.students {
		result = append(result, *m.st.hydrateStudent(id))
	}
	return result, nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	stored := *student
	stored.Class = nil
	m.st.students[student.StudentID] = &stored
	return nil
}

func (m *mockStudentRepo) CountByClass(_ context.Context, classID string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var count int64
	for _, s := range m.st.students {
		if s.ClassID == classID {
			count++
		}
	}
	return count, nil
}

func (m *mockStudentRepo) CountByDepartment(_ context.Context, departmentID string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var count int64
	for _, s := range m.st.students {
		if c, ok := m.st.classes[s.ClassID]; ok && c.DepartmentID == departmentID {
			count++
		}
	}
	return count, nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	st *mockState
}

func (m *mockEmployeeRepo) Create(_ context.Context, employee *model.Employee) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if employee.EmployeeID == "" {
		employee.EmployeeID = m.st.nextID("emp")
	}
	stored := *employee
	stored.Department = nil
	m.st.employees[employee.EmployeeID] = &stored
	return nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	e, ok := m.st.employees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	emp := *e
	if d, ok := m.st.departments[emp.DepartmentID]; ok {
		dept := *d
		emp.Department = &dept
	}
	return &emp, nil
}

func (m *mockEmployeeRepo) GetByEmail(_ context.Context, email string) (*model.Employee, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, e := range m.st.employees {
		if e.Email == email {
			emp := *e
			return &emp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) List(_ context.Context) ([]model.Employee, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Employee
	for _, e := range m.st.employees {
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockEmployeeRepo) ListByIDs(_ context.Context, ids []string) ([]model.Employee, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Employee
	for _, id := range ids {
		if e, ok := m.st.employees[id]; ok {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEmployeeRepo) ListByDepartmentAndRole(_ context.Context, departmentID, role string, excludeIDs []string) ([]model.Employee, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var result []model.Employee
	for _, e := range m.st.employees {
		if e.DepartmentID == departmentID && e.Role == role && !excluded[e.EmployeeID] {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeID < result[j].EmployeeID })
	return result, nil
}

func (m *mockEmployeeRepo) ListByRole(_ context.Context, role string) ([]model.Employee, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Employee
	for _, e := range m.st.employees {
		if e.Role == role {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEmployeeRepo) CountByDepartmentAndRole(_ context.Context, departmentID, role string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var count int64
	for _, e := range m.st.employees {
		if e.DepartmentID == departmentID && e.Role == role {
			count++
		}
	}
	return count, nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, employee *model.Employee) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	stored := *employee
	stored.Department = nil
	m.st.employees[employee.EmployeeID] = &stored
	return nil
}

// ── Mock ClassRepository ──

type mockClassRepo struct {
	st *mockState
}

func (m *mockClassRepo) Create(_ context.Context, class *model.Class) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if class.ClassID == "" {
		class.ClassID = m.st.nextID("cls")
	}
	stored := *class
	stored.Mentors = nil
	stored.Department = nil
	m.st.classes[class.ClassID] = &stored
	return nil
}

func (m *mockClassRepo) GetByID(_ context.Context, id string) (*model.Class, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	c, ok := m.st.classes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	class := *c
	if d, ok := m.st.departments[class.DepartmentID]; ok {
		dept := *d
		class.Department = &dept
	}
	for _, mid := range m.st.mentors[id] {
		if e, ok := m.st.employees[mid]; ok {
			class.Mentors = append(class.Mentors, *e)
		}
	}
	return &class, nil
}

func (m *mockClassRepo) List(_ context.Context) ([]model.Class, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Class
	for _, c := range m.st.classes {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockClassRepo) ListByDepartment(_ context.Context, departmentID string) ([]model.Class, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Class
	for _, c := range m.st.classes {
		if c.DepartmentID == departmentID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockClassRepo) Update(_ context.Context, class *model.Class) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	stored := *class
	stored.Mentors = nil
	m.st.classes[class.ClassID] = &stored
	return nil
}

func (m *mockClassRepo) SetMentors(_ context.Context, classID string, mentorIDs []string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.mentors[classID] = append([]string(nil), mentorIDs...)
	return nil
}

func (m *mockClassRepo) GetMentorClass(_ context.Context, employeeID string) (*model.Class, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for classID, ids := range m.st.mentors {
		for _, id := range ids {
			if id == employeeID {
				if c, ok := m.st.classes[classID]; ok {
					class := *c
					return &class, nil
				}
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	delete(m.st.classes, id)
	delete(m.st.mentors, id)
	return nil
}

// ── Mock DepartmentRepository ──

type mockDepartmentRepo struct {
	st *mockState
}

func (m *mockDepartmentRepo) Create(_ context.Context, department *model.Department) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if department.DepartmentID == "" {
		department.DepartmentID = m.st.nextID("dep")
	}
	stored := *department
	stored.Hod = nil
	m.st.departments[department.DepartmentID] = &stored
	return nil
}

func (m *mockDepartmentRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	d, ok := m.st.departments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	dept := *d
	return &dept, nil
}

func (m *mockDepartmentRepo) List(_ context.Context) ([]model.Department, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Department
	for _, d := range m.st.departments {
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockDepartmentRepo) Update(_ context.Context, department *model.Department) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	stored := *department
	stored.Hod = nil
	m.st.departments[department.DepartmentID] = &stored
	return nil
}

func (m *mockDepartmentRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	delete(m.st.departments, id)
	return nil
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	st *mockState
}

func (m *mockTimetableRepo) Create(_ context.Context, slot *model.TimetableSlot) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if slot.SlotID == "" {
		slot.SlotID = m.st.nextID("slot")
	}
	m.st.slots = append(m.st.slots, *slot)
	return nil
}

func (m *mockTimetableRepo) BatchCreate(_ context.Context, slots []model.TimetableSlot) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for i := range slots {
		if slots[i].SlotID == "" {
			slots[i].SlotID = m.st.nextID("slot")
		}
		m.st.slots = append(m.st.slots, slots[i])
	}
	return nil
}

func (m *mockTimetableRepo) ListByEmployee(_ context.Context, employeeID string) ([]model.TimetableSlot, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.TimetableSlot
	for _, s := range m.st.slots {
		if s.EmployeeID == employeeID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockTimetableRepo) ListBusyEmployeeIDs(_ context.Context, employeeIDs []string, dayOfWeek int, startHHMM, endHHMM string) ([]string, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	wanted := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		wanted[id] = true
	}
	busy := make(map[string]bool)
	for _, s := range m.st.slots {
		if wanted[s.EmployeeID] && s.DayOfWeek == dayOfWeek && s.StartTime < endHHMM && s.EndTime > startHHMM {
			busy[s.EmployeeID] = true
		}
	}
	var ids []string
	for id := range busy {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockTimetableRepo) DeleteByEmployee(_ context.Context, employeeID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	kept := m.st.slots[:0]
	for _, s := range m.st.slots {
		if s.EmployeeID != employeeID {
			kept = append(kept, s)
		}
	}
	m.st.slots = kept
	return nil
}

func (m *mockTimetableRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	kept := m.st.slots[:0]
	for _, s := range m.st.slots {
		if s.SlotID != id {
			kept = append(kept, s)
		}
	}
	m.st.slots = kept
	return nil
}
