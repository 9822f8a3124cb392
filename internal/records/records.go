// Package records holds the canonical shapes of the records served by the
// school records backend.
package records

// Student is a row of GET /api/students/.
type Student struct {
	ID                int      `json:"id" validate:"required"`
	Name              string   `json:"name" validate:"required"`
	Email             string   `json:"email" validate:"required,email"`
	Department        string   `json:"department,omitempty"`
	GPA               *Decimal `json:"gpa,omitempty" validate:"omitempty,gte=0,lte=5"`
	Grade             string   `json:"grade,omitempty"`
	AcademicStatus    string   `json:"academic_status,omitempty"`
	Status            string   `json:"status,omitempty"`
	EnrollmentDate    string   `json:"enrollment_date,omitempty"`
	EnrollmentYear    int      `json:"enrollment_year,omitempty"`
	HasInternship     bool     `json:"has_internship"`
	InternshipDetails string   `json:"internship_details,omitempty"`
	ProfileImage      string   `json:"profile_image,omitempty"`
}

// StudentProfile is the consolidated GET /api/students/{id} response. The
// nested collections are only present when the backend embeds them.
type StudentProfile struct {
	Student
	Grades      []Grade       `json:"grades,omitempty" validate:"omitempty,dive"`
	Attendance  []Attendance  `json:"attendance,omitempty" validate:"omitempty,dive"`
	Performance []Performance `json:"performance,omitempty" validate:"omitempty,dive"`
	Internships []Internship  `json:"internships,omitempty" validate:"omitempty,dive"`
}

// Course is a row of GET /api/courses/.
type Course struct {
	ID         int    `json:"id"`
	Code       string `json:"code" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department,omitempty"`
	Instructor string `json:"instructor,omitempty"`
	Level      string `json:"level,omitempty"`
}

// Grade is a row of GET /api/grades/.
type Grade struct {
	ID            int     `json:"id"`
	StudentID     int     `json:"student_id" validate:"required"`
	CourseID      int     `json:"course_id" validate:"required"`
	Grade         string  `json:"grade,omitempty"`
	MarksObtained Decimal `json:"marks_obtained" validate:"gte=0"`
	TotalMarks    Decimal `json:"total_marks" validate:"gte=0"`
	ExamType      string  `json:"exam_type,omitempty"`
	Semester      string  `json:"semester,omitempty"`
	AcademicYear  string  `json:"academic_year,omitempty"`
	Remarks       string  `json:"remarks,omitempty"`
}

// Attendance is a row of GET /api/attendance/.
type Attendance struct {
	ID              int    `json:"id"`
	StudentID       int    `json:"student_id"`
	CourseID        int    `json:"course_id" validate:"required"`
	Date            string `json:"date" validate:"required"`
	Status          string `json:"status" validate:"required"`
	AttendedClasses int    `json:"attended_classes" validate:"gte=0"`
	TotalClasses    int    `json:"total_classes" validate:"gte=0"`
	Remarks         string `json:"remarks,omitempty"`
}

// Internship is a row of GET /api/internships/.
type Internship struct {
	ID          int    `json:"id"`
	StudentID   int    `json:"student_id" validate:"required"`
	StudentName string `json:"student_name,omitempty"`
	Company     string `json:"company" validate:"required"`
	Role        string `json:"role,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// Performance is a row of GET /api/performance/.
type Performance struct {
	ID           int      `json:"id"`
	StudentID    int      `json:"student_id"`
	CourseID     int      `json:"course_id" validate:"required"`
	GPA          *Decimal `json:"gpa,omitempty" validate:"omitempty,gte=0,lte=5"`
	OverallGPA   *Decimal `json:"overall_gpa,omitempty" validate:"omitempty,gte=0,lte=5"`
	Semester     string   `json:"semester,omitempty"`
	AcademicYear string   `json:"academic_year,omitempty"`
	Status       string   `json:"status,omitempty"`
	Remarks      string   `json:"remarks,omitempty"`
}

// DashboardSummary is the aggregate GET /api/dashboard/ response.
type DashboardSummary struct {
	TotalStudents    int      `json:"total_students" validate:"gte=0"`
	TotalCourses     int      `json:"total_courses" validate:"gte=0"`
	TotalInternships int      `json:"total_internships" validate:"gte=0"`
	ActiveStudents   int      `json:"active_students" validate:"gte=0"`
	AverageGPA       *Decimal `json:"average_gpa,omitempty"`
}
