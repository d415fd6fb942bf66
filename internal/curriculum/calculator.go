// Package curriculum scores first-year course marks and aggregates them into a CGPA.
//
// Every course is a constant data record. A single scorer reads the record's
// fields, a single mapper grades the total against the record's threshold
// table, and the aggregator weights grade points by credits. Nothing here
// holds state, so all functions are safe for concurrent use.
package curriculum

import "math"

// CourseResult is the outcome for one course. Total is nil for direct-grade courses.
type CourseResult struct {
	Total      *float64 `json:"total,omitempty"`
	GradePoint float64  `json:"gradePoint"`
	Credits    float64  `json:"credits"`
}

// Result is the aggregate over the whole curriculum, keyed by course code.
type Result struct {
	Courses          map[string]CourseResult `json:"courses"`
	TotalCredits     float64                 `json:"totalCredits"`
	TotalGradePoints float64                 `json:"totalGradePoints"`
	CGPA             float64                 `json:"cgpa"`
}

// Calculate scores in against the first-year curriculum.
func Calculate(in Input) (Result, error) {
	return FirstYear.Calculate(in)
}

// Calculate validates, scores and aggregates in. The first mark above its
// maximum aborts the computation and no partial result is returned.
func (c Curriculum) Calculate(in Input) (Result, error) {
	res := Result{Courses: make(map[string]CourseResult, len(c))}

	for _, course := range c {
		courseIn := in[course.Key]
		scheme := course.scheme(courseIn.Type)

		cr, err := scoreCourse(course, scheme, courseIn)
		if err != nil {
			return Result{}, err
		}

		res.Courses[scheme.Code] = cr
		res.TotalGradePoints += cr.GradePoint * course.Credits
		res.TotalCredits += course.Credits
	}

	if res.TotalCredits > 0 {
		res.CGPA = res.TotalGradePoints / res.TotalCredits
	}
	return res, nil
}

func scoreCourse(course Course, scheme Scheme, in CourseInput) (CourseResult, error) {
	values := make([]float64, len(scheme.Fields))
	for i, f := range scheme.Fields {
		v := in.Value(f.Key)
		if v > f.Max {
			return CourseResult{}, &OutOfRangeError{Field: f.Label, Max: f.Max, Value: v}
		}
		values[i] = v
	}

	if course.Direct {
		return CourseResult{
			GradePoint: clampGradePoint(values[0]),
			Credits:    course.Credits,
		}, nil
	}

	var total float64
	for i, f := range scheme.Fields {
		total += f.term(values[i])
	}

	return CourseResult{
		Total:      &total,
		GradePoint: float64(scheme.Thresholds.GradePoint(total)),
		Credits:    course.Credits,
	}, nil
}

func clampGradePoint(gp float64) float64 {
	switch {
	case math.IsNaN(gp), gp < 0:
		return 0
	case gp > 10:
		return 10
	}
	return gp
}
