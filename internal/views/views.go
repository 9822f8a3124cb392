// Package views turns backend records into the table and card models the
// dashboard templates render.
package views

import (
	"context"
	"errors"

	"scholarhub/internal/records"
)

// ErrUnknownView is returned by Lookup for a name that is not registered.
var ErrUnknownView = errors.New("unknown view")

// Source is the read side of the records backend.
type Source interface {
	Students(ctx context.Context) []records.Student
	Student(ctx context.Context, id string) *records.StudentProfile
	Courses(ctx context.Context) []records.Course
	Grades(ctx context.Context) []records.Grade
	Attendance(ctx context.Context) []records.Attendance
	Internships(ctx context.Context) []records.Internship
	Performance(ctx context.Context) []records.Performance
	Dashboard(ctx context.Context) *records.DashboardSummary
}

// Cell is one table cell. A non-empty Badge renders Text as a badge of that
// variant.
type Cell struct {
	Text  string
	Badge string
	Title string
}

// Row is one table row; Href makes the whole row a link.
type Row struct {
	Href  string
	Cells []Cell
}

// Table is a header plus rows. Empty is shown across all columns when there
// are no rows.
type Table struct {
	Headers []string
	Rows    []Row
	Empty   string
}

// Card is a labelled value on the dashboard and details pages.
type Card struct {
	Label    string
	Value    string
	Hint     string
	Href     string
	LinkText string
}

// Section is a titled nested table on the details page.
type Section struct {
	Title string
	Table *Table
}

// Profile heads the details page.
type Profile struct {
	Name     string
	ImageURL string
	Fields   []Card
}

// Model is everything a view fragment renders.
type Model struct {
	Name       string
	Title      string
	Table      *Table
	Pagination *Pagination
	Cards      []Card
	Profile    *Profile
	Sections   []Section
	Notice     string
	Actions    []string
	Exportable bool
}

// Query carries the request parameters a list view understands.
type Query struct {
	Page int
	Q    string
}

// View is a registered list page.
type View struct {
	Name      string
	Title     string
	Path      string
	Noun      string
	Paginated bool
	Actions   []string

	table func(ctx context.Context, src Source, q Query) *Table
}

// FailureBanner is shown when the fragment of v cannot be loaded.
func (v View) FailureBanner() string {
	return "Failed to load " + v.Noun + ". Please try again later."
}

var registry = []View{
	{Name: "courses", Title: "Courses", Path: "/courses", Noun: "courses", table: coursesTable},
	{Name: "students", Title: "Students", Path: "/students", Noun: "students", Paginated: true,
		Actions: []string{"Add Student"}, table: studentsTable},
	{Name: "grades", Title: "Grades", Path: "/grades", Noun: "grades", table: gradesTable},
	{Name: "attendance", Title: "Attendance", Path: "/attendance", Noun: "attendance", table: attendanceTable},
	{Name: "performance", Title: "Performance", Path: "/performance", Noun: "performance", table: performanceTable},
	{Name: "internships", Title: "Internships", Path: "/internships", Noun: "internships", table: internshipsTable},
}

// All returns the list views in navigation order.
func All() []View {
	out := make([]View, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a list view by name.
func Lookup(name string) (View, error) {
	for _, v := range registry {
		if v.Name == name {
			return v, nil
		}
	}
	return View{}, ErrUnknownView
}
