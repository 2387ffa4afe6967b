package catalog

// The roster API wraps every payload in {status, data, message}.
type envelope[T any] struct {
	Status  string `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type subjectsData struct {
	Subjects []Subject `json:"subjects"`
}

type classesData struct {
	Classes []Class `json:"classes"`
}

type Subject struct {
	Value string `json:"value"` // e.g. "CS"
	Descr string `json:"descr"` // e.g. "Computer Science"
}

type Class struct {
	Subject      string        `json:"subject"`
	CatalogNbr   string        `json:"catalogNbr"`
	TitleShort   string        `json:"titleShort"`
	TitleLong    string        `json:"titleLong"`
	EnrollGroups []EnrollGroup `json:"enrollGroups"`
}

type EnrollGroup struct {
	ClassSections []ClassSection `json:"classSections"`
}

type ClassSection struct {
	SsrComponent string    `json:"ssrComponent"` // LEC, DIS, LAB, SEM, ...
	Section      string    `json:"section"`
	ClassNbr     int       `json:"classNbr"`
	Meetings     []Meeting `json:"meetings"`
}

type Meeting struct {
	Instructors []Instructor `json:"instructors"`
}

type Instructor struct {
	NetID     string `json:"netid"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
