package views

import (
	"context"
	"strings"

	"scholarhub/internal/records"
)

// Column headers per list view.
var (
	StudentHeaders     = []string{"Name", "Email", "Department", "GPA/Grade", "Academic Status", "Performance", "Internship", "Status"}
	CourseHeaders      = []string{"Code", "Name", "Department", "Instructor", "Level"}
	GradeHeaders       = []string{"Grade", "Marks", "Exam Type", "Semester", "Year", "Remarks"}
	AttendanceHeaders  = []string{"Date", "Status", "Classes Attended", "Total Classes", "Remarks"}
	InternshipHeaders  = []string{"Student", "Company", "Role", "Duration", "Description"}
	PerformanceHeaders = []string{"Semester", "Year", "GPA", "Overall GPA", "Status", "Performance", "Remarks"}
)

func studentsTable(ctx context.Context, src Source, q Query) *Table {
	return StudentTable(FilterStudents(src.Students(ctx), q.Q))
}

// FilterStudents keeps students whose name or email contains q, ignoring case.
func FilterStudents(students []records.Student, q string) []records.Student {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return students
	}
	out := make([]records.Student, 0, len(students))
	for _, s := range students {
		if strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.Email), q) {
			out = append(out, s)
		}
	}
	return out
}

// StudentTable renders the student list.
func StudentTable(students []records.Student) *Table {
	t := &Table{Headers: StudentHeaders, Empty: "No students found."}
	for _, s := range students {
		t.Rows = append(t.Rows, Row{
			Href: "/students/" + itoa(s.ID),
			Cells: []Cell{
				text(s.Name),
				text(s.Email),
				text(records.OrPlaceholder(s.Department)),
				text(s.GradeDisplay()),
				text(records.OrPlaceholder(s.AcademicStatus)),
				text(s.Performance()),
				internshipBadge(s),
				{Text: s.Status, Badge: records.BadgeVariant(s.Status)},
			},
		})
	}
	return t
}

func internshipBadge(s records.Student) Cell {
	if !s.HasInternship {
		return Cell{Text: "No", Badge: "secondary"}
	}
	return Cell{Text: "Yes", Badge: "default", Title: s.InternshipDetails}
}

func coursesTable(ctx context.Context, src Source, _ Query) *Table {
	return CourseTable(src.Courses(ctx))
}

// CourseTable renders the course catalogue.
func CourseTable(courses []records.Course) *Table {
	t := &Table{Headers: CourseHeaders, Empty: "No courses found."}
	for _, c := range courses {
		t.Rows = append(t.Rows, Row{Cells: []Cell{
			text(c.Code),
			text(c.Name),
			text(records.OrPlaceholder(c.Department)),
			text(records.OrPlaceholder(c.Instructor)),
			text(records.OrPlaceholder(c.Level)),
		}})
	}
	return t
}

func gradesTable(ctx context.Context, src Source, _ Query) *Table {
	return GradeTable(src.Grades(ctx))
}

// GradeTable renders grade records.
func GradeTable(grades []records.Grade) *Table {
	t := &Table{Headers: GradeHeaders, Empty: "No grades found."}
	for _, g := range grades {
		t.Rows = append(t.Rows, Row{Cells: []Cell{
			text(records.OrPlaceholder(g.Grade)),
			text(g.MarksObtained.String() + "/" + g.TotalMarks.String()),
			text(records.OrPlaceholder(g.ExamType)),
			text(records.OrPlaceholder(g.Semester)),
			text(records.OrPlaceholder(g.AcademicYear)),
			text(records.OrNA(g.Remarks)),
		}})
	}
	return t
}

func attendanceTable(ctx context.Context, src Source, _ Query) *Table {
	return AttendanceTable(src.Attendance(ctx))
}

// AttendanceTable renders attendance records.
func AttendanceTable(rows []records.Attendance) *Table {
	t := &Table{Headers: AttendanceHeaders, Empty: "No attendance records found."}
	for _, a := range rows {
		t.Rows = append(t.Rows, Row{Cells: []Cell{
			text(FormatDate(a.Date)),
			text(a.Status),
			text(itoa(a.AttendedClasses)),
			text(itoa(a.TotalClasses)),
			text(records.OrNA(a.Remarks)),
		}})
	}
	return t
}

func internshipsTable(ctx context.Context, src Source, _ Query) *Table {
	return InternshipTable(src.Internships(ctx))
}

// InternshipTable renders internships.
func InternshipTable(internships []records.Internship) *Table {
	t := &Table{Headers: InternshipHeaders, Empty: "No internships found."}
	for _, in := range internships {
		t.Rows = append(t.Rows, Row{Cells: []Cell{
			text(records.OrPlaceholder(in.StudentName)),
			text(records.OrPlaceholder(in.Company)),
			text(records.OrPlaceholder(in.Role)),
			text(FormatDate(in.StartDate) + " - " + FormatDate(in.EndDate)),
			text(records.OrPlaceholder(in.Description)),
		}})
	}
	return t
}

func performanceTable(ctx context.Context, src Source, _ Query) *Table {
	return PerformanceTable(src.Performance(ctx))
}

// PerformanceTable renders performance records.
func PerformanceTable(rows []records.Performance) *Table {
	t := &Table{Headers: PerformanceHeaders, Empty: "No performance records found."}
	for _, p := range rows {
		overall := "N/A"
		if p.OverallGPA != nil {
			overall = records.FormatGPA(p.OverallGPA)
		}
		t.Rows = append(t.Rows, Row{Cells: []Cell{
			text(records.OrPlaceholder(p.Semester)),
			text(records.OrPlaceholder(p.AcademicYear)),
			text(records.FormatGPA(p.GPA)),
			text(overall),
			text(records.OrPlaceholder(p.Status)),
			text(records.PerformanceLabel(p.GPA)),
			text(records.OrNA(p.Remarks)),
		}})
	}
	return t
}
