package views

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"scholarhub/internal/records"
)

type fakeSource struct {
	students    []records.Student
	profile     *records.StudentProfile
	courses     []records.Course
	grades      []records.Grade
	attendance  []records.Attendance
	internships []records.Internship
	performance []records.Performance
	summary     *records.DashboardSummary

	profileCalls int
}

func (f *fakeSource) Students(context.Context) []records.Student { return f.students }
func (f *fakeSource) Student(context.Context, string) *records.StudentProfile {
	f.profileCalls++
	return f.profile
}
func (f *fakeSource) Courses(context.Context) []records.Course            { return f.courses }
func (f *fakeSource) Grades(context.Context) []records.Grade              { return f.grades }
func (f *fakeSource) Attendance(context.Context) []records.Attendance     { return f.attendance }
func (f *fakeSource) Internships(context.Context) []records.Internship    { return f.internships }
func (f *fakeSource) Performance(context.Context) []records.Performance   { return f.performance }
func (f *fakeSource) Dashboard(context.Context) *records.DashboardSummary { return f.summary }

func makeStudents(n int) []records.Student {
	out := make([]records.Student, n)
	for i := range out {
		out[i] = records.Student{
			ID:    i + 1,
			Name:  fmt.Sprintf("Student %02d", i+1),
			Email: fmt.Sprintf("s%02d@example.edu", i+1),
		}
	}
	return out
}

func render(t *testing.T, name string, data interface{}) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := Templates().ExecuteTemplate(&buf, name, data); err != nil {
		t.Fatalf("execute %s: %v", name, err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		n, page int
		want    Window
	}{
		{n: 0, page: 1, want: Window{Number: 1, Pages: 0, Start: 0, End: 0}},
		{n: 7, page: 1, want: Window{Number: 1, Pages: 1, Start: 0, End: 7}},
		{n: 10, page: 1, want: Window{Number: 1, Pages: 1, Start: 0, End: 10}},
		{n: 11, page: 2, want: Window{Number: 2, Pages: 2, Start: 10, End: 11}},
		{n: 25, page: 2, want: Window{Number: 2, Pages: 3, Start: 10, End: 20}},
		{n: 25, page: 3, want: Window{Number: 3, Pages: 3, Start: 20, End: 25}},
		{n: 25, page: 0, want: Window{Number: 1, Pages: 3, Start: 0, End: 10}},
		{n: 25, page: -4, want: Window{Number: 1, Pages: 3, Start: 0, End: 10}},
		{n: 25, page: 4, want: Window{Number: 3, Pages: 3, Start: 20, End: 25}},
	}
	for _, tc := range cases {
		if got := Paginate(tc.n, tc.page, 10); got != tc.want {
			t.Errorf("Paginate(%d, %d, 10) = %+v, want %+v", tc.n, tc.page, got, tc.want)
		}
	}
}

func TestStudentListPaginationClamps(t *testing.T) {
	src := &fakeSource{students: makeStudents(25)}
	c := NewCatalog(src)
	ctx := context.Background()

	m, err := c.List(ctx, "students", Query{Page: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Table.Rows) != 5 {
		t.Fatalf("rows on last page = %d, want 5", len(m.Table.Rows))
	}
	p := m.Pagination
	if p == nil || p.Pages != 3 || p.HasNext || p.Next != 3 || p.Prev != 2 {
		t.Fatalf("pagination = %+v", p)
	}

	first, _ := c.List(ctx, "students", Query{Page: 1})
	if first.Pagination.HasPrev || first.Pagination.Prev != 1 {
		t.Fatalf("previous from the first page should stay on page 1: %+v", first.Pagination)
	}
	if first.Table.Rows[0].Cells[0].Text != "Student 01" {
		t.Errorf("first row = %q", first.Table.Rows[0].Cells[0].Text)
	}
}

func TestStudentListHidesPagerUpToOnePage(t *testing.T) {
	c := NewCatalog(&fakeSource{students: makeStudents(10)})
	m, err := c.List(context.Background(), "students", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if m.Pagination != nil {
		t.Fatalf("pagination shown for 10 students: %+v", m.Pagination)
	}
	if len(m.Table.Rows) != 10 {
		t.Fatalf("rows = %d, want 10", len(m.Table.Rows))
	}
}

func TestStudentSearchFiltersBeforePaging(t *testing.T) {
	students := makeStudents(30)
	students[22].Name = "Ada Lovelace"
	students[27].Email = "ada.k@example.edu"
	c := NewCatalog(&fakeSource{students: students})

	m, err := c.List(context.Background(), "students", Query{Q: "ADA", Page: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.Table.Rows))
	}
	if m.Pagination != nil {
		t.Fatal("two matches should not paginate")
	}
}

func TestEmptyStudentListSpansAllColumns(t *testing.T) {
	c := NewCatalog(&fakeSource{students: []records.Student{}})
	m, err := c.List(context.Background(), "students", Query{})
	if err != nil {
		t.Fatal(err)
	}

	doc := render(t, "fragment", m)
	if n := doc.Find("thead th").Length(); n != 8 {
		t.Fatalf("headers = %d, want 8", n)
	}
	rows := doc.Find("tbody tr")
	if rows.Length() != 1 {
		t.Fatalf("body rows = %d, want 1", rows.Length())
	}
	td := rows.Find("td")
	if span, _ := td.Attr("colspan"); span != "8" {
		t.Errorf("colspan = %q, want 8", span)
	}
	if !strings.Contains(td.Text(), "No students found") {
		t.Errorf("empty row text = %q", td.Text())
	}
	if doc.Find("nav.pagination").Length() != 0 {
		t.Error("pager rendered for an empty list")
	}
	if doc.Find(`button[disabled]`).Text() != "Add Student" {
		t.Error("add student stub missing")
	}
}

func TestStudentRowRendering(t *testing.T) {
	src := &fakeSource{students: []records.Student{
		{ID: 4, Name: "Ada", Email: "ada@example.edu", GPA: records.Dec(3.6), Status: "Active",
			HasInternship: true, InternshipDetails: "Summer at the lab"},
		{ID: 5, Name: "Bob", Email: "bob@example.edu", GPA: records.Dec(2.5), Status: "suspended"},
		{ID: 6, Name: "Cy", Email: "cy@example.edu", GPA: records.Dec(1.0)},
		{ID: 7, Name: "Di", Email: "di@example.edu", Grade: "B"},
	}}
	m, _ := NewCatalog(src).List(context.Background(), "students", Query{})
	doc := render(t, "fragment", m)

	rows := doc.Find("tbody tr.row-link")
	if rows.Length() != 4 {
		t.Fatalf("rows = %d, want 4", rows.Length())
	}
	wantPerf := []string{"Excellent", "Average", "Poor", "-"}
	wantGrade := []string{"3.60", "2.50", "1.00", "B"}
	rows.Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if got := strings.TrimSpace(cells.Eq(3).Text()); got != wantGrade[i] {
			t.Errorf("row %d grade = %q, want %q", i, got, wantGrade[i])
		}
		if got := strings.TrimSpace(cells.Eq(5).Text()); got != wantPerf[i] {
			t.Errorf("row %d performance = %q, want %q", i, got, wantPerf[i])
		}
	})

	first := rows.First()
	if href, _ := first.Attr("data-href"); href != "/students/4" {
		t.Errorf("row link = %q", href)
	}
	if title, _ := first.Find("td").Eq(6).Find(".badge").Attr("title"); title != "Summer at the lab" {
		t.Errorf("internship badge title = %q", title)
	}
	if !first.Find("td").Eq(7).Find(".badge").HasClass("badge-default") {
		t.Error("active status should use the default badge")
	}
	if !rows.Eq(1).Find("td").Eq(7).Find(".badge").HasClass("badge-destructive") {
		t.Error("suspended status should use the destructive badge")
	}
	if rows.Eq(2).Find("td").Eq(7).Find(".badge").Length() != 0 {
		t.Error("empty status should not render a badge")
	}
}

func TestOtherViewsRenderEmptyRow(t *testing.T) {
	c := NewCatalog(&fakeSource{})
	for _, v := range All() {
		if v.Name == "students" {
			continue
		}
		t.Run(v.Name, func(t *testing.T) {
			m, err := c.List(context.Background(), v.Name, Query{})
			if err != nil {
				t.Fatal(err)
			}
			doc := render(t, "fragment", m)
			td := doc.Find("tbody tr.empty td")
			if span, _ := td.Attr("colspan"); span != fmt.Sprint(len(m.Table.Headers)) {
				t.Errorf("colspan = %q, want %d", span, len(m.Table.Headers))
			}
		})
	}
}

func TestListTables(t *testing.T) {
	grades := GradeTable([]records.Grade{{StudentID: 1, CourseID: 2, Grade: "A", MarksObtained: 88.5, TotalMarks: 100}})
	if got := grades.Rows[0].Cells[1].Text; got != "88.5/100" {
		t.Errorf("marks = %q", got)
	}
	if got := grades.Rows[0].Cells[5].Text; got != "N/A" {
		t.Errorf("remarks = %q, want N/A", got)
	}

	att := AttendanceTable([]records.Attendance{{CourseID: 1, Date: "2024-02-05", Status: "present", AttendedClasses: 9, TotalClasses: 10}})
	if got := att.Rows[0].Cells[0].Text; got != "Feb 5, 2024" {
		t.Errorf("date = %q", got)
	}

	in := InternshipTable([]records.Internship{{StudentID: 1, StudentName: "Ada", Company: "Acme", StartDate: "2024-06-01"}})
	if got := in.Rows[0].Cells[3].Text; got != "Jun 1, 2024 - -" {
		t.Errorf("duration = %q", got)
	}

	perf := PerformanceTable([]records.Performance{{CourseID: 1, GPA: records.Dec(3.7)}})
	cells := perf.Rows[0].Cells
	if cells[3].Text != "N/A" || cells[5].Text != "Excellent" {
		t.Errorf("performance row = %+v", cells)
	}
}

func TestFormatDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-02":                "Jan 2, 2024",
		"2023-12-31T10:00:00Z":      "Dec 31, 2023",
		"2023-12-31T10:00:00":       "Dec 31, 2023",
		"2023-12-31T10:00:00+05:30": "Dec 31, 2023",
		"":                          "-",
		"yesterday":                 "-",
	}
	for in, want := range cases {
		if got := FormatDate(in); got != want {
			t.Errorf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLookupUnknownView(t *testing.T) {
	if _, err := Lookup("timetable"); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("Lookup() = %v, want ErrUnknownView", err)
	}
	if _, err := NewCatalog(&fakeSource{}).List(context.Background(), "timetable", Query{}); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("List() = %v, want ErrUnknownView", err)
	}
}

func TestStudentDetails(t *testing.T) {
	src := &fakeSource{profile: &records.StudentProfile{
		Student: records.Student{
			ID: 9, Name: "Grace", Email: "grace@example.edu", GPA: records.Dec(3.9),
			EnrollmentYear: 2021, Status: "active", ProfileImage: "students/grace",
		},
		Grades: []records.Grade{{StudentID: 9, CourseID: 1, Grade: "A"}},
	}}
	c := NewCatalog(src, WithThumbnails(func(s string) string { return "https://img.test/" + s }))

	m := c.Student(context.Background(), "9")
	if m.Notice != "" {
		t.Fatalf("notice = %q", m.Notice)
	}
	if m.Profile.ImageURL != "https://img.test/students/grace" {
		t.Errorf("image = %q", m.Profile.ImageURL)
	}
	if m.Cards[2].Value != "Excellent" {
		t.Errorf("performance card = %+v", m.Cards[2])
	}
	if m.Cards[3].Value != "No" || m.Cards[3].Hint != "No internship recorded." {
		t.Errorf("internship card = %+v", m.Cards[3])
	}
	if len(m.Sections) != 1 || m.Sections[0].Title != "Grades" {
		t.Errorf("sections = %+v", m.Sections)
	}

	doc := render(t, "fragment", m)
	if doc.Find("h2").Text() != "Grace" {
		t.Errorf("heading = %q", doc.Find("h2").Text())
	}
	if doc.Find("a.button").Length() != 0 {
		t.Error("details page should not offer an export")
	}
}

func TestStudentDetailsNotFound(t *testing.T) {
	src := &fakeSource{}
	c := NewCatalog(src)

	if m := c.Student(context.Background(), "404"); m.Notice != StudentNotFound {
		t.Fatalf("notice = %q", m.Notice)
	}
	if m := c.Student(context.Background(), "abc"); m.Notice != StudentNotFound {
		t.Fatalf("notice = %q", m.Notice)
	}
	if src.profileCalls != 1 {
		t.Fatalf("backend calls = %d, want 1", src.profileCalls)
	}
}

func TestDashboardCards(t *testing.T) {
	c := NewCatalog(&fakeSource{summary: &records.DashboardSummary{TotalStudents: 120, AverageGPA: records.Dec(3.1)}})
	m := c.Dashboard(context.Background())
	if m.Cards[0].Value != "120" {
		t.Errorf("total students = %q", m.Cards[0].Value)
	}
	if m.Cards[4].Value != "3.10" {
		t.Errorf("average gpa = %q", m.Cards[4].Value)
	}

	failed := NewCatalog(&fakeSource{}).Dashboard(context.Background())
	for _, card := range failed.Cards {
		if card.Value != "Error" {
			t.Errorf("card %s = %q, want Error", card.Label, card.Value)
		}
	}
}

func TestPageLayout(t *testing.T) {
	doc := render(t, "page", Page{
		Title:         "Students",
		Active:        "students",
		Nav:           Navigation(),
		Fragment:      "/fragments/students?page=2",
		FailureBanner: "Failed to load students. Please try again later.",
	})

	var links []string
	doc.Find("header nav a").Each(func(_ int, s *goquery.Selection) { links = append(links, s.Text()) })
	want := "Dashboard,Courses,Students,Grades,Attendance,Performance,Internships"
	if strings.Join(links, ",") != want {
		t.Errorf("nav = %v", links)
	}
	if doc.Find("header nav a.active").Text() != "Students" {
		t.Error("active link not marked")
	}
	view := doc.Find("#view")
	if f, _ := view.Attr("data-fragment"); f != "/fragments/students?page=2" {
		t.Errorf("fragment = %q", f)
	}
	if view.Find(".skeleton").Length() != 1 {
		t.Error("skeleton missing")
	}
	if doc.Find("#chat-drawer").Length() != 1 {
		t.Error("chat drawer missing")
	}
}

func TestChatScriptIgnoresStaleSocket(t *testing.T) {
	doc := render(t, "page", Page{Title: "Dashboard", Nav: Navigation(), Fragment: "/fragments/dashboard"})
	script := doc.Find("script").Text()

	// A socket closed by the drawer must not clear the reference to the
	// socket a quick reopen created.
	for _, want := range []string{
		"var ws = new WebSocket(",
		"if (self.ws !== ws) { return; }",
		"ws.onclose = null;",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("chat script lacks %q", want)
		}
	}
}
