package directory

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/catalog"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
)

type fakeCatalog struct {
	subjects    []catalog.Subject
	subjectsErr error
	classes     map[string][]catalog.Class
	classesErr  map[string]error
}

func (f *fakeCatalog) Subjects(context.Context, string) ([]catalog.Subject, error) {
	return f.subjects, f.subjectsErr
}

func (f *fakeCatalog) Classes(_ context.Context, _, subject string) ([]catalog.Class, error) {
	if err := f.classesErr[subject]; err != nil {
		return nil, err
	}
	return f.classes[subject], nil
}

func loadClasses(t *testing.T) []catalog.Class {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "catalog", "testdata", "classes_cs.json"))
	require.NoError(t, err)
	var env struct {
		Data struct {
			Classes []catalog.Class `json:"classes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	return env.Data.Classes
}

func openDB(t *testing.T) *repository.DB {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{
		Driver: repository.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "directory.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	require.NoError(t, repository.Migrate(db, nil))
	return db
}

func TestBuildRoster_UpsertsAndReimports(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	courses := repository.NewCourseRepository(db, nil)
	fc := &fakeCatalog{
		subjects: []catalog.Subject{{Value: "CS", Descr: "Computer Science"}},
		classes:  map[string][]catalog.Class{"CS": loadClasses(t)},
	}
	b := NewBuilder(fc, courses, nil).WithRecorder(repository.NewImportRunRepository(db, nil))

	run, err := b.BuildRoster(ctx, "FA23")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusCompleted, run.Status())
	assert.Equal(t, 2, run.Counters().Created)

	cs2110, err := courses.GetByCode(ctx, "CS 2110")
	require.NoError(t, err)
	require.Len(t, cs2110.Sections, 1)
	assert.Equal(t, "001", cs2110.Sections[0].SectionID)
	assert.Equal(t, []string{"Anne Bracy"}, cs2110.Sections[0].Instructors)

	cs4998, err := courses.GetByCode(ctx, "CS 4998")
	require.NoError(t, err)
	assert.Equal(t, "Independent Study", cs4998.Name)
	assert.Len(t, cs4998.Sections, 2)

	again, err := b.BuildRoster(ctx, "FA23")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Counters().Created)
	assert.Equal(t, 2, again.Counters().Updated)

	all, err := courses.ListBySubject(ctx, "CS")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	runs, err := repository.NewImportRunRepository(db, nil).ListRecent(ctx, "courses", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestBuildRoster_SubjectErrorIsTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	courses := repository.NewCourseRepository(openDB(t), nil)
	fc := &fakeCatalog{
		classes:    map[string][]catalog.Class{"CS": loadClasses(t)},
		classesErr: map[string]error{"MATH": errors.New("boom")},
	}

	run, err := NewBuilder(fc, courses, nil).BuildRoster(ctx, "FA23", "MATH", "CS")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusCompleted, run.Status())
	assert.Equal(t, 1, run.Counters().Failed)
	assert.Equal(t, 2, run.Counters().Created)
}

func TestBuildRoster_SubjectListFailureFailsRun(t *testing.T) {
	courses := repository.NewCourseRepository(openDB(t), nil)
	fc := &fakeCatalog{subjectsErr: errors.New("roster api down")}

	run, err := NewBuilder(fc, courses, nil).BuildRoster(context.Background(), "FA23")
	require.Error(t, err)
	assert.Equal(t, constants.RunStatusFailed, run.Status())
}

func TestBuildSubject_SkipsClassWithoutNumber(t *testing.T) {
	ctx := context.Background()
	courses := repository.NewCourseRepository(openDB(t), nil)
	fc := &fakeCatalog{classes: map[string][]catalog.Class{
		"CS": {{Subject: "CS", TitleShort: "Mystery"}},
	}}

	run, err := NewBuilder(fc, courses, nil).BuildRoster(ctx, "FA23", "CS")
	require.NoError(t, err)
	assert.Equal(t, 1, run.Counters().Skipped)
	assert.Equal(t, 0, run.Counters().Created)
}
