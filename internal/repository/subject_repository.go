package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

// SubjectRepository handles persistence of the subject catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectColumns = "id, code, name, academic_year, term, program_id, plan_id, created_at, updated_at"

// List returns catalog subjects filtered by the provided criteria, without
// schedules or requisites attached.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ProgramID != nil {
		conditions = append(conditions, fmt.Sprintf("program_id = $%d", len(args)+1))
		args = append(args, *filter.ProgramID)
	}
	if filter.PlanID != nil {
		conditions = append(conditions, fmt.Sprintf("plan_id = $%d", len(args)+1))
		args = append(args, *filter.PlanID)
	}
	if filter.AcademicYear != nil {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, *filter.AcademicYear)
	}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":          "name",
		"code":          "code",
		"academic_year": "academic_year",
	}
	sortBy := allowedSorts[filter.SortBy]
	if sortBy == "" {
		sortBy = "academic_year"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM subjects%s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d",
		subjectColumns, clause, sortBy, order, size, offset)

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM subjects" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}
	return subjects, total, nil
}

// ListCatalog returns every subject of a plan with schedules and requisites
// attached, in (academic_year, id) order. This is the eligibility engine's
// catalog input.
func (r *SubjectRepository) ListCatalog(ctx context.Context, planID *int64) ([]models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects", subjectColumns)
	var args []interface{}
	if planID != nil {
		query += " WHERE plan_id = $1"
		args = append(args, *planID)
	}
	query += " ORDER BY academic_year ASC, id ASC"

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if len(subjects) == 0 {
		return subjects, nil
	}

	ids := make([]int64, len(subjects))
	index := make(map[int64]int, len(subjects))
	for i, s := range subjects {
		ids[i] = s.ID
		index[s.ID] = i
	}

	slots, err := r.slotsBySubject(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, schedule := range slots {
		subjects[index[id]].Schedule = schedule
	}

	requisites, err := r.requisitesBySubject(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, reqs := range requisites {
		i := index[id]
		for _, req := range reqs {
			switch req.Kind {
			case models.RequisitePassed:
				subjects[i].RequiredPassedIDs = append(subjects[i].RequiredPassedIDs, req.RequiredID)
			default:
				subjects[i].RequiredRegularIDs = append(subjects[i].RequiredRegularIDs, req.RequiredID)
			}
		}
	}
	return subjects, nil
}

// FindByID returns one subject with schedule and requisites attached.
func (r *SubjectRepository) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE id = $1", subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}

	slots, err := r.slotsBySubject(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	subject.Schedule = slots[id]

	requisites, err := r.requisitesBySubject(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	for _, req := range requisites[id] {
		switch req.Kind {
		case models.RequisitePassed:
			subject.RequiredPassedIDs = append(subject.RequiredPassedIDs, req.RequiredID)
		default:
			subject.RequiredRegularIDs = append(subject.RequiredRegularIDs, req.RequiredID)
		}
	}
	return &subject, nil
}

// Create inserts a subject together with its schedule and requisite rows.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create subject: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO subjects (code, name, academic_year, term, program_id, plan_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id, created_at, updated_at`
	row := tx.QueryRowxContext(ctx, query, subject.Code, subject.Name, subject.AcademicYear, subject.Term, subject.ProgramID, subject.PlanID)
	if err := row.Scan(&subject.ID, &subject.CreatedAt, &subject.UpdatedAt); err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}

	if err := r.writeSlots(ctx, tx, subject.ID, subject.Schedule); err != nil {
		return err
	}
	if err := r.writeRequisites(ctx, tx, subject); err != nil {
		return err
	}
	return tx.Commit()
}

// Update replaces a subject row along with its schedule and requisites.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update subject: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE subjects SET code = $1, name = $2, academic_year = $3, term = $4, program_id = $5, plan_id = $6, updated_at = NOW() WHERE id = $7`
	res, err := tx.ExecContext(ctx, query, subject.Code, subject.Name, subject.AcademicYear, subject.Term, subject.ProgramID, subject.PlanID, subject.ID)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM subject_slots WHERE subject_id = $1", subject.ID); err != nil {
		return fmt.Errorf("clear subject slots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM subject_requisites WHERE subject_id = $1", subject.ID); err != nil {
		return fmt.Errorf("clear subject requisites: %w", err)
	}
	if err := r.writeSlots(ctx, tx, subject.ID, subject.Schedule); err != nil {
		return err
	}
	if err := r.writeRequisites(ctx, tx, subject); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SubjectRepository) writeSlots(ctx context.Context, tx *sqlx.Tx, subjectID int64, schedule []models.ClassSlot) error {
	const query = `INSERT INTO subject_slots (subject_id, position, day, start_time, end_time) VALUES ($1, $2, $3, $4, $5)`
	for i, slot := range schedule {
		if _, err := tx.ExecContext(ctx, query, subjectID, i, slot.Day, slot.StartTime, slot.EndTime); err != nil {
			return fmt.Errorf("insert subject slot: %w", err)
		}
	}
	return nil
}

func (r *SubjectRepository) writeRequisites(ctx context.Context, tx *sqlx.Tx, subject *models.Subject) error {
	const query = `INSERT INTO subject_requisites (subject_id, required_id, kind) VALUES ($1, $2, $3)`
	for _, id := range subject.RequiredRegularIDs {
		if _, err := tx.ExecContext(ctx, query, subject.ID, id, models.RequisiteRegular); err != nil {
			return fmt.Errorf("insert regular requisite: %w", err)
		}
	}
	for _, id := range subject.RequiredPassedIDs {
		if _, err := tx.ExecContext(ctx, query, subject.ID, id, models.RequisitePassed); err != nil {
			return fmt.Errorf("insert passed requisite: %w", err)
		}
	}
	return nil
}

type subjectSlotRow struct {
	SubjectID int64  `db:"subject_id"`
	Day       string `db:"day"`
	StartTime string `db:"start_time"`
	EndTime   string `db:"end_time"`
}

func (r *SubjectRepository) slotsBySubject(ctx context.Context, ids []int64) (map[int64][]models.ClassSlot, error) {
	query, args, err := sqlx.In("SELECT subject_id, day, start_time, end_time FROM subject_slots WHERE subject_id IN (?) ORDER BY subject_id, position", ids)
	if err != nil {
		return nil, fmt.Errorf("build slots query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []subjectSlotRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list subject slots: %w", err)
	}

	result := make(map[int64][]models.ClassSlot, len(ids))
	for _, row := range rows {
		result[row.SubjectID] = append(result[row.SubjectID], models.ClassSlot{
			Day:       row.Day,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
		})
	}
	return result, nil
}

func (r *SubjectRepository) requisitesBySubject(ctx context.Context, ids []int64) (map[int64][]models.SubjectRequisite, error) {
	query, args, err := sqlx.In("SELECT subject_id, required_id, kind FROM subject_requisites WHERE subject_id IN (?) ORDER BY subject_id, required_id", ids)
	if err != nil {
		return nil, fmt.Errorf("build requisites query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []models.SubjectRequisite
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list subject requisites: %w", err)
	}

	result := make(map[int64][]models.SubjectRequisite, len(ids))
	for _, row := range rows {
		result[row.SubjectID] = append(result[row.SubjectID], row)
	}
	return result, nil
}
