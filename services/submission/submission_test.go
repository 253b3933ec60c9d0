package submission

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/campusconnect/api/database/dbtest"
	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/services/changefeed"
	"github.com/campusconnect/api/services/storage"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type failingBlobs struct {
	*storage.MemoryStore
}

func (failingBlobs) Put(context.Context, string, io.ReadSeeker, string) (string, error) {
	return "", errors.New("bucket unavailable")
}

type fixture struct {
	db       *gorm.DB
	blobs    *storage.MemoryStore
	broker   *changefeed.MemoryBroker
	pipeline *Pipeline
	course   model.Course
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)

	uni := model.University{Name: "RGPV"}
	require.NoError(t, db.Create(&uni).Error)
	course := model.Course{UniversityID: uni.ID, Name: "B.Tech", Duration: 4}
	require.NoError(t, db.Create(&course).Error)

	blobs := storage.NewMemoryStore("https://cdn.example.com")
	broker := changefeed.NewMemoryBroker()
	t.Cleanup(func() { _ = broker.Close() })

	p := NewPipeline(db, blobs, broker, validation.NewValidator(), utils.NewNopLogger(), Config{MaxUploadMB: 1})
	p.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	return &fixture{db: db, blobs: blobs, broker: broker, pipeline: p, course: course}
}

func (f *fixture) input() DocumentInput {
	return DocumentInput{
		UniversityID: f.course.UniversityID,
		CourseID:     f.course.ID,
		Branch:       "CSE",
		Year:         "2nd Year",
		Type:         "Notes",
	}
}

var student = &Actor{ID: 7, Email: "student@example.com"}

func TestSubmitDocument_WritesBlobThenPendingRecord(t *testing.T) {
	f := newFixture(t)
	events, cancel := f.broker.Subscribe()
	defer cancel()

	record, err := f.pipeline.SubmitDocument(context.Background(), student, f.input(),
		&File{Name: "dbms notes.txt", Content: []byte("normalisation")})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, record.Status)
	assert.Equal(t, "student@example.com", record.SubmittedBy)
	assert.Equal(t, uint(7), record.SubmittedByID)
	assert.Equal(t, "academic_materials/7/dbms notes.txt", record.FileKey)
	assert.Equal(t, "https://cdn.example.com/academic_materials/7/dbms%20notes.txt", record.FileURL)
	assert.True(t, record.SubmittedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	stored, ok := f.blobs.Bytes(record.FileKey)
	require.True(t, ok)
	assert.Equal(t, "normalisation", string(stored))

	var public int64
	require.NoError(t, f.db.Model(&model.AcademicMaterial{}).Count(&public).Error)
	assert.Zero(t, public)

	select {
	case ev := <-events:
		assert.Equal(t, changefeed.Event{Collection: changefeed.CollectionPendingMaterials, Action: changefeed.ActionCreated, ID: record.ID}, ev)
	case <-time.After(time.Second):
		t.Fatal("no change event published")
	}
}

func TestSubmitDocument_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txt := &File{Name: "a.txt", Content: []byte("x")}

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.pipeline.SubmitDocument(ctx, nil, f.input(), txt)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := f.pipeline.SubmitDocument(ctx, student, f.input(), nil)
		assert.ErrorIs(t, err, ErrMissingFields)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, MsgMissingDocument, fe.Message)
	})

	t.Run("blank dropdown", func(t *testing.T) {
		in := f.input()
		in.Year = "  "
		_, err := f.pipeline.SubmitDocument(ctx, student, in, txt)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe.Fields, "year")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := f.pipeline.SubmitDocument(ctx, student, f.input(), &File{Name: "run.exe", Content: []byte("MZ")})
		assert.ErrorIs(t, err, ErrInvalidFile)
	})

	t.Run("fake pdf", func(t *testing.T) {
		_, err := f.pipeline.SubmitDocument(ctx, student, f.input(), &File{Name: "paper.pdf", Content: []byte("not a pdf")})
		var fileErr *FileError
		require.ErrorAs(t, err, &fileErr)
		assert.Contains(t, fileErr.Message, "missing PDF header")
	})

	t.Run("too large", func(t *testing.T) {
		big := &File{Name: "big.txt", Content: []byte(strings.Repeat("x", 1024*1024+1))}
		_, err := f.pipeline.SubmitDocument(ctx, student, f.input(), big)
		assert.ErrorIs(t, err, ErrInvalidFile)
	})

	t.Run("course of another university", func(t *testing.T) {
		in := f.input()
		in.UniversityID = 999
		_, err := f.pipeline.SubmitDocument(ctx, student, in, txt)
		assert.ErrorIs(t, err, ErrUnknownCourse)
	})

	var pending int64
	require.NoError(t, f.db.Model(&model.PendingAcademicMaterial{}).Count(&pending).Error)
	assert.Zero(t, pending)
	objects, err := f.blobs.List(ctx, storage.MaterialsPrefix)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestSubmitDocument_BlobFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.pipeline.blobs = failingBlobs{f.blobs}

	_, err := f.pipeline.SubmitDocument(context.Background(), student, f.input(), &File{Name: "a.txt", Content: []byte("x")})
	assert.ErrorIs(t, err, ErrBlobWrite)

	var pending int64
	require.NoError(t, f.db.Model(&model.PendingAcademicMaterial{}).Count(&pending).Error)
	assert.Zero(t, pending)
}

// failPendingWrites makes every insert into pending_academic_materials fail
func failPendingWrites(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_pending", func(tx *gorm.DB) {
		if tx.Statement.Table == "pending_academic_materials" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))
}

func TestSubmitDocument_MetadataFailureRemovesBlob(t *testing.T) {
	f := newFixture(t)
	failPendingWrites(t, f.db)

	_, err := f.pipeline.SubmitDocument(context.Background(), student, f.input(), &File{Name: "a.txt", Content: []byte("x")})
	assert.ErrorIs(t, err, ErrMetadataWrite)

	_, ok := f.blobs.Bytes("academic_materials/7/a.txt")
	assert.False(t, ok)
}

func TestSubmitDocument_KeyLookupFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrator().DropTable(&model.PendingAcademicMaterial{}))

	_, err := f.pipeline.SubmitDocument(context.Background(), student, f.input(), &File{Name: "a.txt", Content: []byte("x")})
	assert.ErrorIs(t, err, ErrMetadataWrite)

	objects, err := f.blobs.List(context.Background(), storage.MaterialsPrefix)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

// approvedNotes stores notes.txt for the student and publishes it directly
func approvedNotes(t *testing.T, f *fixture) model.AcademicMaterial {
	t.Helper()
	record, err := f.pipeline.SubmitDocument(context.Background(), student, f.input(),
		&File{Name: "notes.txt", Content: []byte("first draft")})
	require.NoError(t, err)

	public := record.Promote("admin@example.com", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(record).Error; err != nil {
			return err
		}
		return tx.Create(&public).Error
	}))
	return public
}

func TestSubmitDocument_FailedResubmissionKeepsApprovedBlob(t *testing.T) {
	f := newFixture(t)
	public := approvedNotes(t, f)
	require.Equal(t, "academic_materials/7/notes.txt", public.FileKey)

	failPendingWrites(t, f.db)
	_, err := f.pipeline.SubmitDocument(context.Background(), student, f.input(),
		&File{Name: "notes.txt", Content: []byte("second draft")})
	require.ErrorIs(t, err, ErrMetadataWrite)

	stored, ok := f.blobs.Bytes(public.FileKey)
	require.True(t, ok, "approved material lost its blob")
	assert.Equal(t, "first draft", string(stored))

	objects, err := f.blobs.List(context.Background(), storage.MaterialsPrefix)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, public.FileKey, objects[0].Key)
}

func TestSubmitDocument_ResubmissionUsesFreshKey(t *testing.T) {
	f := newFixture(t)
	public := approvedNotes(t, f)

	record, err := f.pipeline.SubmitDocument(context.Background(), student, f.input(),
		&File{Name: "notes.txt", Content: []byte("second draft")})
	require.NoError(t, err)

	assert.NotEqual(t, public.FileKey, record.FileKey)
	assert.True(t, strings.HasPrefix(record.FileKey, "academic_materials/7/notes-"))
	assert.True(t, strings.HasSuffix(record.FileKey, ".txt"))
	assert.Equal(t, "notes.txt", record.FileName)

	original, ok := f.blobs.Bytes(public.FileKey)
	require.True(t, ok)
	assert.Equal(t, "first draft", string(original))
	fresh, ok := f.blobs.Bytes(record.FileKey)
	require.True(t, ok)
	assert.Equal(t, "second draft", string(fresh))
}

func TestSubmitService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.SubmitService(ctx, nil, ServiceInput{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.pipeline.SubmitService(ctx, student, ServiceInput{Name: "QuickWash", Area: "Vijay Nagar"})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Fields, "contact")
	assert.Contains(t, fe.Fields, "category")

	record, err := f.pipeline.SubmitService(ctx, student, ServiceInput{
		Name: " QuickWash ", Contact: "9876543210", Address: "12 MG Road", Area: "Vijay Nagar", Category: "Laundry",
	})
	require.NoError(t, err)
	assert.Equal(t, "QuickWash", record.Name)
	assert.Equal(t, model.StatusPending, record.Status)

	var public int64
	require.NoError(t, f.db.Model(&model.LocalService{}).Count(&public).Error)
	assert.Zero(t, public)
}

func TestListMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.SubmitDocument(ctx, student, f.input(), &File{Name: "a.txt", Content: []byte("x")})
	require.NoError(t, err)
	_, err = f.pipeline.SubmitService(ctx, &Actor{ID: 8, Email: "other@example.com"}, ServiceInput{
		Name: "Tiffin", Contact: "1", Address: "2", Area: "Palasia", Category: "Food",
	})
	require.NoError(t, err)

	mine, err := f.pipeline.ListMine(ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine.Materials, 1)
	assert.Empty(t, mine.Services)
}

func TestReadFile(t *testing.T) {
	file, err := ReadFile("a.txt", strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(file.Content))

	_, err = ReadFile("a.txt", strings.NewReader("hello!"), 5)
	assert.ErrorIs(t, err, ErrInvalidFile)
}
