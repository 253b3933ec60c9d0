package taxonomy

import (
	"context"
	"testing"

	"github.com/campusconnect/api/database/dbtest"
	"github.com/campusconnect/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CascadingReads(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	svc := NewService(db)

	rgpv := model.University{Name: "RGPV"}
	davv := model.University{Name: "DAVV"}
	require.NoError(t, db.Create(&rgpv).Error)
	require.NoError(t, db.Create(&davv).Error)

	btech := model.Course{UniversityID: rgpv.ID, Name: "B.Tech", Duration: 4}
	mca := model.Course{UniversityID: rgpv.ID, Name: "MCA", Duration: 2}
	bca := model.Course{UniversityID: davv.ID, Name: "BCA", Duration: 3}
	require.NoError(t, db.Create(&[]*model.Course{&btech, &mca, &bca}).Error)

	require.NoError(t, db.Create(&[]model.Branch{
		{CourseID: btech.ID, Name: "CSE"},
		{CourseID: btech.ID, Name: ""},
		{CourseID: btech.ID, Name: "   "},
		{CourseID: btech.ID, Name: "ECE"},
		{CourseID: mca.ID, Name: "General"},
	}).Error)

	unis, err := svc.Universities(ctx)
	require.NoError(t, err)
	require.Len(t, unis, 2)
	assert.Equal(t, "DAVV", unis[0].Name)

	courses, err := svc.CoursesByUniversity(ctx, rgpv.ID)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, []string{"B.Tech", "MCA"}, []string{courses[0].Name, courses[1].Name})

	branches, err := svc.BranchesByCourse(ctx, btech.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"CSE", "ECE"}, names)

	course, err := svc.Course(ctx, mca.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, course.Duration)

	_, err = svc.Course(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_FlatLists(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	svc := NewService(db)

	require.NoError(t, db.Create(&[]model.DocumentType{{Name: "Syllabus"}, {Name: "PYQ"}}).Error)
	require.NoError(t, db.Create(&[]model.Area{{Name: "North Campus"}, {Name: "Bhawarkua"}}).Error)
	require.NoError(t, db.Create(&[]model.Year{{Name: "2nd Year"}, {Name: "1st Year"}}).Error)

	types, err := svc.DocumentTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PYQ", types[0].Name)

	areas, err := svc.Areas(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bhawarkua", areas[0].Name)

	years, err := svc.Years(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1st Year", years[0].Name)
}

func TestService_EmptyListsAreNotNil(t *testing.T) {
	svc := NewService(dbtest.New(t))
	ctx := context.Background()

	unis, err := svc.Universities(ctx)
	require.NoError(t, err)
	assert.NotNil(t, unis)
	assert.Empty(t, unis)

	courses, err := svc.CoursesByUniversity(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, courses)

	branches, err := svc.BranchesByCourse(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, branches)

	types, err := svc.DocumentTypes(ctx)
	require.NoError(t, err)
	assert.NotNil(t, types)

	years, err := svc.Years(ctx)
	require.NoError(t, err)
	assert.NotNil(t, years)

	areas, err := svc.Areas(ctx)
	require.NoError(t, err)
	assert.NotNil(t, areas)
	assert.Empty(t, areas)
}
