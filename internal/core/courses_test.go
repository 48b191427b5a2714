package core

import (
	"math"
	"testing"
)

func TestPaginateCourses(t *testing.T) {
	all := SampleCourses()

	cases := []struct {
		name    string
		perPage int
		page    int
		wantIDs []int
		wantPP  int
		wantPg  int
	}{
		{"second page of two", 2, 2, []int{3, 4}, 2, 2},
		{"last partial page", 2, 3, []int{5}, 2, 3},
		{"defaults", 0, 0, []int{1, 2, 3, 4, 5}, DefaultCoursesPerPage, DefaultCoursesPage},
		{"negative falls back", -1, -4, []int{1, 2, 3, 4, 5}, DefaultCoursesPerPage, DefaultCoursesPage},
		{"past the end", 2, 9, nil, 2, 9},
		{"huge per_page past the end", math.MaxInt/2 + 1, 4, nil, math.MaxInt/2 + 1, 4},
		{"huge page", 2, math.MaxInt, nil, 2, math.MaxInt},
		{"huge per_page first page", math.MaxInt, 1, []int{1, 2, 3, 4, 5}, math.MaxInt, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PaginateCourses(all, tc.perPage, tc.page)
			if got.Total != 5 {
				t.Fatalf("total = %d, want 5", got.Total)
			}
			if got.PerPage != tc.wantPP || got.Page != tc.wantPg {
				t.Fatalf("per_page/page = %d/%d, want %d/%d", got.PerPage, got.Page, tc.wantPP, tc.wantPg)
			}
			if got.Courses == nil {
				t.Fatal("courses must be non-nil")
			}
			if len(got.Courses) != len(tc.wantIDs) {
				t.Fatalf("got %d courses, want %d", len(got.Courses), len(tc.wantIDs))
			}
			for i, id := range tc.wantIDs {
				if got.Courses[i].ID != id {
					t.Fatalf("course[%d].ID = %d, want %d", i, got.Courses[i].ID, id)
				}
			}
		})
	}
}
