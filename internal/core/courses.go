package core

type Course struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

const (
	DefaultCoursesPerPage = 10
	DefaultCoursesPage    = 1
)

// SampleCourses is the fixed in-memory list served by the courses endpoint.
func SampleCourses() []Course {
	return []Course{
		{ID: 1, Name: "Intro to Calendars"},
		{ID: 2, Name: "Advanced Scheduling"},
		{ID: 3, Name: "Time Management 101"},
		{ID: 4, Name: "Events and Notifications"},
		{ID: 5, Name: "Integration Best Practices"},
	}
}

// CoursePage is one offset page of the sample list.
type CoursePage struct {
	Courses []Course `json:"courses"`
	PerPage int      `json:"per_page"`
	Page    int      `json:"page"`
	Total   int      `json:"total"`
}

// PaginateCourses slices courses into the requested page. Non-positive
// perPage or page fall back to the defaults; pages past the end are empty.
func PaginateCourses(courses []Course, perPage, page int) CoursePage {
	if perPage <= 0 {
		perPage = DefaultCoursesPerPage
	}
	if page <= 0 {
		page = DefaultCoursesPage
	}

	out := CoursePage{Courses: []Course{}, PerPage: perPage, Page: page, Total: len(courses)}

	// page is bounded by the page count before the offset is computed.
	if len(courses) == 0 || page-1 > (len(courses)-1)/perPage {
		return out
	}
	start := (page - 1) * perPage
	end := len(courses)
	if perPage < end-start {
		end = start + perPage
	}
	out.Courses = append(out.Courses, courses[start:end]...)
	return out
}
