package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainResponse = `{
  "courseCode": "CS 2110",
  "courseName": "Object-Oriented Programming and Data Structures",
  "instructor": "Anne Bracy",
  "todos": [
    {"title": "A1: Setup", "date": "2024-01-30", "eventType": "assignment", "priority": 3},
    {"title": "Quiz 1", "date": "2024-02-06", "eventType": "quiz", "priority": 4}
  ],
  "gradingPolicy": {"Assignments": 40, "Quizzes": 10, "Prelims": 30, "Final": 20}
}`

func TestParseModelResponse_FencedEqualsPlain(t *testing.T) {
	plain := ParseModelResponse(plainResponse)
	require.NotNil(t, plain)

	fenced := ParseModelResponse("```json\n" + plainResponse + "\n```")
	require.NotNil(t, fenced)
	assert.Equal(t, plain, fenced)

	bare := ParseModelResponse("```\n" + plainResponse + "\n```")
	assert.Equal(t, plain, bare)

	assert.Equal(t, "CS 2110", plain.CourseCode)
	assert.Len(t, plain.Todos, 2)
	assert.Equal(t, 40.0, plain.GradingPolicy["Assignments"])
}

func TestParseModelResponse_MalformedIsNil(t *testing.T) {
	assert.Nil(t, ParseModelResponse("Sorry, I can't help with that."))
	assert.Nil(t, ParseModelResponse("```json\n{\"todos\": [\n```"))
	assert.Nil(t, ParseModelResponse(""))
}

func TestParseModelResponse_ProseAroundObject(t *testing.T) {
	out := ParseModelResponse("Here is the JSON you asked for:\n" + plainResponse + "\nLet me know!")
	require.NotNil(t, out)
	assert.Equal(t, "CS 2110", out.CourseCode)
}

func TestParseModelResponse_LenientCoercion(t *testing.T) {
	content := `{
	  "courseCode": "MATH 1920",
	  "instructor": ["Ravi Ramakrishna", "TA Team"],
	  "semester": "Spring",
	  "todos": [
	    {"title": "Problem Set 1", "date": "2024-02-02", "eventType": "homework", "priority": "2"},
	    {"title": "Midterm", "date": "March 5, 2024", "eventType": "Midterm", "priority": 9, "location": "Baker 200"},
	    {"title": "", "date": "2024-02-09", "eventType": "quiz", "priority": 1},
	    {"title": "Reading week", "date": "TBD", "eventType": "reading", "priority": 5}
	  ],
	  "gradingPolicy": {"Homework": "25%", "Exams": 75, "Participation": "some"}
	}`

	out := ParseModelResponse(content)
	require.NotNil(t, out)
	assert.Equal(t, "Ravi Ramakrishna", out.Instructor)
	require.Len(t, out.Todos, 2)
	assert.Equal(t, Todo{Title: "Problem Set 1", Date: "2024-02-02", EventType: "assignment", Priority: 2}, out.Todos[0])
	assert.Equal(t, Todo{Title: "Midterm", Date: "2024-03-05", EventType: "exam", Priority: 5}, out.Todos[1])
	assert.Equal(t, map[string]float64{"Homework": 25, "Exams": 75}, out.GradingPolicy)
}

func TestParseModelResponse_MissingTodosIsNil(t *testing.T) {
	assert.Nil(t, ParseModelResponse(`{"courseCode": "CS 2110"}`))
}

func TestResponseParser_StrictRejectsExtraFields(t *testing.T) {
	p := NewResponseParser(false, nil)
	out, _ := p.Parse(`{"todos": [], "confidence": 0.9}`)
	assert.Nil(t, out)

	out, _ = p.Parse(`{"todos": []}`)
	require.NotNil(t, out)
	assert.Empty(t, out.Todos)
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "  ```\n{\"a\":1}\n```  ", want: `{"a":1}`},
		{in: "```json {\"a\":1}```", want: `{"a":1}`},
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "Sure:\n```json\n{}\n```", want: `{}`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StripCodeFence(tc.in), "input %q", tc.in)
	}
}

func TestToEntity(t *testing.T) {
	f := &SyllabusFields{CourseCode: "CS 2110", Todos: []Todo{{Title: "A1", Date: "2024-01-30", EventType: "assignment", Priority: 3}}}
	e := f.ToEntity()
	require.NotNil(t, e)
	assert.Equal(t, "CS 2110", e.CourseCode)
	require.Len(t, e.Todos, 1)
	assert.Equal(t, "A1", e.Todos[0].Title)
	assert.NotNil(t, e.GradingPolicy)

	var nilFields *SyllabusFields
	assert.Nil(t, nilFields.ToEntity())
}
