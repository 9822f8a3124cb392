package views

import (
	"context"
	"strconv"

	"scholarhub/internal/records"
)

// Catalog builds view models from a Source.
type Catalog struct {
	src       Source
	pageSize  int
	thumbnail func(string) string
}

// CatalogOption customizes a Catalog.
type CatalogOption func(*Catalog)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) CatalogOption {
	return func(c *Catalog) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithThumbnails maps profile image references to displayable URLs.
func WithThumbnails(f func(string) string) CatalogOption {
	return func(c *Catalog) { c.thumbnail = f }
}

// NewCatalog returns a catalog reading from src.
func NewCatalog(src Source, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		src:       src,
		pageSize:  DefaultPageSize,
		thumbnail: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List builds the fragment model of the named list view. Paginated views
// show one page of the full, already filtered list.
func (c *Catalog) List(ctx context.Context, name string, q Query) (Model, error) {
	v, err := Lookup(name)
	if err != nil {
		return Model{}, err
	}

	t := v.table(ctx, c.src, q)
	m := Model{
		Name:       v.Name,
		Title:      v.Title,
		Table:      t,
		Actions:    v.Actions,
		Exportable: true,
	}
	if v.Paginated {
		total := len(t.Rows)
		pg := Paginate(total, q.Page, c.pageSize)
		t.Rows = t.Rows[pg.Start:pg.End]
		if total > c.pageSize {
			m.Pagination = newPagination(v.Path, q, pg, total)
		}
	}
	return m, nil
}

// Table returns the complete table of the named view, for export.
func (c *Catalog) Table(ctx context.Context, name string, q Query) (*Table, error) {
	v, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return v.table(ctx, c.src, q), nil
}

// Dashboard builds the summary cards. A missing summary shows "Error".
func (c *Catalog) Dashboard(ctx context.Context) Model {
	sum := c.src.Dashboard(ctx)
	value := func(f func(*records.DashboardSummary) string) string {
		if sum == nil {
			return "Error"
		}
		return f(sum)
	}

	return Model{
		Name:  "dashboard",
		Title: "Dashboard",
		Cards: []Card{
			{
				Label:    "Total Students",
				Value:    value(func(s *records.DashboardSummary) string { return itoa(s.TotalStudents) }),
				Href:     "/students",
				LinkText: "View all students",
			},
			{
				Label: "Active Students",
				Value: value(func(s *records.DashboardSummary) string { return itoa(s.ActiveStudents) }),
			},
			{
				Label:    "Total Courses",
				Value:    value(func(s *records.DashboardSummary) string { return itoa(s.TotalCourses) }),
				Href:     "/courses",
				LinkText: "View courses",
			},
			{
				Label:    "Internships",
				Value:    value(func(s *records.DashboardSummary) string { return itoa(s.TotalInternships) }),
				Href:     "/internships",
				LinkText: "View internships",
			},
			{
				Label: "Average GPA",
				Value: value(func(s *records.DashboardSummary) string { return records.FormatGPA(s.AverageGPA) }),
			},
		},
	}
}

// StudentNotFound is the notice for a profile the backend did not return.
const StudentNotFound = "Student not found."

// Student builds the details page of one student.
func (c *Catalog) Student(ctx context.Context, id string) Model {
	m := Model{Name: "student", Title: "Student Details"}

	if _, err := strconv.Atoi(id); err != nil {
		m.Notice = StudentNotFound
		return m
	}
	p := c.src.Student(ctx, id)
	if p == nil {
		m.Notice = StudentNotFound
		return m
	}

	s := p.Student
	m.Profile = &Profile{
		Name:     s.Name,
		ImageURL: c.thumbnail(s.ProfileImage),
		Fields: []Card{
			{Label: "Email", Value: s.Email},
			{Label: "Department", Value: records.OrPlaceholder(s.Department)},
			{Label: "Enrollment Year", Value: enrollmentYear(s)},
			{Label: "Status", Value: records.OrPlaceholder(s.Status)},
		},
	}

	attendance := Card{Label: "Attendance", Value: "N/A", Hint: "Attendance data not available."}
	if s.AcademicStatus != "" {
		attendance.Value = s.AcademicStatus
		attendance.Hint = "Current academic standing."
	}
	internship := Card{Label: "Internships", Value: "No", Hint: "No internship recorded."}
	if s.HasInternship {
		internship.Value = "Yes"
		internship.Hint = "Internship details not specified."
	}
	if s.InternshipDetails != "" {
		internship.Hint = s.InternshipDetails
	}

	m.Cards = []Card{
		{Label: "Grade", Value: s.GradeDisplay(), Hint: "Latest grade achieved."},
		attendance,
		{Label: "Performance", Value: s.Performance(), Hint: "Academic performance based on GPA."},
		internship,
	}

	if len(p.Grades) > 0 {
		m.Sections = append(m.Sections, Section{Title: "Grades", Table: GradeTable(p.Grades)})
	}
	if len(p.Attendance) > 0 {
		m.Sections = append(m.Sections, Section{Title: "Attendance", Table: AttendanceTable(p.Attendance)})
	}
	if len(p.Performance) > 0 {
		m.Sections = append(m.Sections, Section{Title: "Performance", Table: PerformanceTable(p.Performance)})
	}
	if len(p.Internships) > 0 {
		m.Sections = append(m.Sections, Section{Title: "Internships", Table: InternshipTable(p.Internships)})
	}
	return m
}

func enrollmentYear(s records.Student) string {
	if s.EnrollmentYear > 0 {
		return itoa(s.EnrollmentYear)
	}
	if len(s.EnrollmentDate) >= 4 {
		if _, err := strconv.Atoi(s.EnrollmentDate[:4]); err == nil {
			return s.EnrollmentDate[:4]
		}
	}
	return records.Placeholder
}
