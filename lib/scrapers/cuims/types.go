package cuims

// CourseAttendance is one row of the course-wise attendance summary.
// Delivered and Attended count the classes the portal deems eligible.
type CourseAttendance struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	Delivered int    `json:"delivered"`
	Attended  int    `json:"attended"`
}

type Course struct {
	Code string `json:"course_code"`
	Name string `json:"course_name"`
}

type TimetablePeriod struct {
	SubjectCode string `json:"subject_code"`
	Teacher     string `json:"teacher"`
	Location    string `json:"location"`
	Time        string `json:"time"`
	// 1 = Monday ... 7 = Sunday
	DayNumber int `json:"day_number"`
}

// Timetable holds one slice of periods per weekday, Monday first.
type Timetable [][]TimetablePeriod

type Experiment struct {
	Name          string `json:"name"`
	MaxMarks      string `json:"max_marks"`
	MarksObtained string `json:"marks_obtained"`
}

type SubjectMarks struct {
	Subject     string       `json:"subject"`
	Experiments []Experiment `json:"experiments"`
}

type Education struct {
	Qualification string `json:"qualification"`
	Stream        string `json:"stream"`
	School        string `json:"school"`
	Board         string `json:"board"`
	PassingYear   string `json:"passing_year"`
}

type Contact struct {
	Type      string `json:"contact_type"`
	Residence string `json:"residence"`
	Office    string `json:"office"`
	Mobile    string `json:"mobile"`
	Email     string `json:"email_id"`
}

// Profile carries the personal-information panel as named fields. The
// portal renders it as free-form label/value rows, labels we cannot
// map onto a field end up in Other.
type Profile struct {
	Name        string `json:"name,omitempty"`
	UID         string `json:"uid,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	BloodGroup  string `json:"blood_group,omitempty"`
	Category    string `json:"category,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Program     string `json:"program,omitempty"`
	Section     string `json:"section,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
	Email       string `json:"email,omitempty"`

	Other map[string]string `json:"other,omitempty"`

	Education []Education `json:"education_info"`
	Contacts  []Contact   `json:"contact_info"`
}

type SubjectResult struct {
	Code    string `json:"subject_code"`
	Name    string `json:"subject_name"`
	Credits string `json:"subject_credits"`
	Grade   string `json:"subject_grade"`
}

type SemesterResult struct {
	Semester string          `json:"semester"`
	SGPA     string          `json:"sgpa"`
	Subjects []SubjectResult `json:"semester_result"`
}

type Result struct {
	CGPA      string           `json:"cgpa"`
	Semesters []SemesterResult `json:"semester_wise_result"`
}

type ExamEntry struct {
	ExamType      string `json:"exam_type"`
	DatesheetType string `json:"datesheet_type"`
	CourseCode    string `json:"course_code"`
	CourseName    string `json:"course_name"`
	SlotNo        string `json:"slot_no"`
	ExamDate      string `json:"exam_date"`
	ExamTime      string `json:"exam_time"`
	// a hall link when the portal provides one, plain text otherwise
	Venue string `json:"exam_venue"`
}

type Leave struct {
	Number   string `json:"number"`
	Timing   string `json:"timing"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Date     string `json:"date"`
	Status   string `json:"status"`
}

type Leaves struct {
	Duty    []Leave `json:"duty"`
	Medical []Leave `json:"medical"`
}

type FeeTransaction struct {
	PaymentDate   string `json:"payment_date"`
	TransRefNo    string `json:"trans_ref_no"`
	BankRefNo     string `json:"bank_ref_no"`
	PaymentMode   string `json:"payment_mode"`
	TotalAmount   string `json:"total_amt"`
	ServiceTax    string `json:"service_tax"`
	ProcessingFee string `json:"processing_fee"`
	Status        string `json:"status"`
}
