package curriculum

// Field is one sub-score of a course. It contributes (value / Divisor) * Weight
// to the course total; a zero Divisor or Weight leaves the value unscaled.
type Field struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Max     float64 `json:"max"`
	Divisor float64 `json:"divisor,omitempty"`
	Weight  float64 `json:"weight,omitempty"`
}

func (f Field) term(v float64) float64 {
	if f.Divisor != 0 {
		v = v / f.Divisor
	}
	if f.Weight != 0 {
		v = v * f.Weight
	}
	return v
}

// Scheme is a complete scoring rule: the fields it reads and the table its
// total is graded against. Direct-grade schemes have no table.
type Scheme struct {
	Code       string         `json:"code"`
	Fields     []Field        `json:"fields"`
	Thresholds ThresholdTable `json:"thresholds,omitempty"`
}

// Course is a curriculum entry. Courses with more than one scheme pick one by
// the input's type discriminator; Schemes[0] is the default.
type Course struct {
	Key     string   `json:"key"`
	Credits float64  `json:"credits"`
	Direct  bool     `json:"direct"`
	Schemes []Scheme `json:"schemes"`
}

func (c Course) scheme(variant string) Scheme {
	for _, s := range c.Schemes {
		if s.Code == variant {
			return s
		}
	}
	return c.Schemes[0]
}

// Curriculum is an ordered course list. Validation and aggregation follow this order.
type Curriculum []Course

func directGrade(code, label string) Scheme {
	return Scheme{
		Code:   code,
		Fields: []Field{{Key: "grade", Label: label, Max: 10}},
	}
}

// FirstYear is the first-year curriculum, 18.5 credits in total.
var FirstYear = Curriculum{
	{
		Key:     "ma101",
		Credits: 3,
		Schemes: []Scheme{{
			Code: "MA101",
			Fields: []Field{
				{Key: "q1", Label: "MA101 Quiz 1", Max: 10},
				{Key: "mid", Label: "MA101 Mid-sem", Max: 30},
				{Key: "q2", Label: "MA101 Quiz 2", Max: 10},
				{Key: "end", Label: "MA101 End-sem", Max: 40},
				{Key: "tutorial", Label: "MA101 Tutorial", Max: 10},
				{Key: "bonus", Label: "MA101 Bonus", Max: 4},
			},
			Thresholds: ma101Thresholds,
		}},
	},
	{
		Key:     "ph101",
		Credits: 3,
		Schemes: []Scheme{{
			Code: "PH101",
			Fields: []Field{
				{Key: "q1", Label: "PH101 Quiz 1", Max: 10},
				{Key: "mid", Label: "PH101 Mid-sem", Max: 30},
				{Key: "q2", Label: "PH101 Quiz 2", Max: 10},
				{Key: "end", Label: "PH101 End-sem", Max: 40},
				{Key: "attendance", Label: "PH101 Attendance", Max: 10},
			},
			Thresholds: ph101Thresholds,
		}},
	},
	{
		Key:     "ph102",
		Credits: 2,
		Direct:  true,
		Schemes: []Scheme{directGrade("PH102", "PH102 grade")},
	},
	{
		Key:     "ge102",
		Credits: 2,
		Direct:  true,
		Schemes: []Scheme{directGrade("GE102", "GE102 grade")},
	},
	{
		Key:     "ge104",
		Credits: 3,
		Schemes: []Scheme{{
			Code: "GE104",
			Fields: []Field{
				{Key: "q1", Label: "GE104 Quiz 1", Max: 30, Divisor: 2},
				{Key: "mid", Label: "GE104 Mid-sem", Max: 45, Divisor: 45, Weight: 25},
				{Key: "q2", Label: "GE104 Quiz 2", Max: 100, Weight: 0.15},
				{Key: "end", Label: "GE104 End-sem", Max: 90, Divisor: 90, Weight: 40},
				{Key: "lab", Label: "GE104 Lab marks", Max: 50},
			},
			Thresholds: ge104Thresholds,
		}},
	},
	{
		Key:     "humanities",
		Credits: 3,
		Schemes: []Scheme{
			{
				Code: "HS102",
				Fields: []Field{
					{Key: "q1", Label: "HS102 Quiz 1", Max: 15},
					{Key: "mid", Label: "HS102 Mid-sem", Max: 30},
					{Key: "q2", Label: "HS102 Quiz 2", Max: 15},
					{Key: "end", Label: "HS102 End-sem", Max: 40},
				},
				Thresholds: hs102Thresholds,
			},
			{
				Code: "HS103",
				Fields: []Field{
					{Key: "ta", Label: "HS103 TA", Max: 30},
					{Key: "mid", Label: "HS103 Mid-sem", Max: 30},
					{Key: "end", Label: "HS103 End-sem", Max: 40},
				},
				Thresholds: hs103Thresholds,
			},
		},
	},
	{
		Key:     "nso",
		Credits: 1,
		Direct:  true,
		Schemes: []Scheme{directGrade("NSO", "NSO grade")},
	},
	{
		Key:     "hs101",
		Credits: 1.5,
		Schemes: []Scheme{{
			Code: "HS101",
			Fields: []Field{
				{Key: "mini", Label: "HS101 Mid-sem", Max: 40},
				{Key: "end", Label: "HS101 End-sem", Max: 55},
				{Key: "attendance", Label: "HS101 Attendance", Max: 5},
			},
			Thresholds: hs101Thresholds,
		}},
	},
}

// Describe returns a copy of the curriculum safe to hand to callers.
func (c Curriculum) Describe() Curriculum {
	out := make(Curriculum, len(c))
	for i, course := range c {
		schemes := make([]Scheme, len(course.Schemes))
		for j, s := range course.Schemes {
			schemes[j] = Scheme{
				Code:       s.Code,
				Fields:     append([]Field(nil), s.Fields...),
				Thresholds: append(ThresholdTable(nil), s.Thresholds...),
			}
		}
		course.Schemes = schemes
		out[i] = course
	}
	return out
}
