// Package submission accepts documents and service listings from signed-in
// users and stores them in the pending collections.
package submission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/services/changefeed"
	"github.com/campusconnect/api/services/storage"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/pdfvalidation"
	"github.com/campusconnect/api/utils/validation"
	"gorm.io/gorm"
)

// User-facing messages
const (
	MsgLoginToUpload     = "You must be logged in to upload files."
	MsgSignInToSubmit    = "You must be signed in to submit a service."
	MsgMissingDocument   = "Please select a file and fill all dropdowns."
	MsgMissingService    = "Please fill all fields."
	MsgDocumentUploaded  = "Document uploaded successfully!"
	MsgServiceSubmitted  = "Service submitted successfully for review!"
	MsgUploadFailed      = "Upload failed. Please try again."
	MsgServiceSubmitFail = "An error occurred while submitting the service."
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidFile     = errors.New("invalid file")
	ErrUnknownCourse   = errors.New("course does not belong to university")
	ErrBlobWrite       = errors.New("blob write failed")
	ErrMetadataWrite   = errors.New("metadata write failed")
)

// AllowedExtensions lists the accepted upload types
var AllowedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".txt": true, ".png": true, ".jpg": true, ".jpeg": true,
}

// Actor is the signed-in submitter
type Actor struct {
	ID    uint
	Email string
}

// DocumentInput holds the dropdown values of a document submission
type DocumentInput struct {
	UniversityID uint   `json:"university_id" form:"university_id" validate:"required"`
	CourseID     uint   `json:"course_id" form:"course_id" validate:"required"`
	Branch       string `json:"branch" form:"branch" validate:"required,notblank,max=255"`
	Year         string `json:"year" form:"year" validate:"required,notblank,max=50"`
	Type         string `json:"type" form:"type" validate:"required,notblank,max=100"`
}

// File is an uploaded file held in memory
type File struct {
	Name    string
	Content []byte
}

// ServiceInput is a local service listing
type ServiceInput struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Contact  string `json:"contact" validate:"required,notblank,max=100"`
	Address  string `json:"address" validate:"required,notblank,max=1000"`
	Area     string `json:"area" validate:"required,notblank,max=255"`
	Category string `json:"category" validate:"required,notblank,max=100"`
}

// FieldError carries per-field validation messages
type FieldError struct {
	Message string
	Fields  map[string]string
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Unwrap() error { return ErrMissingFields }

// FileError explains why an uploaded file was refused
type FileError struct {
	Message string
}

func (e *FileError) Error() string { return e.Message }

func (e *FileError) Unwrap() error { return ErrInvalidFile }

// Pipeline writes submissions into the pending collections
type Pipeline struct {
	db          *gorm.DB
	blobs       storage.BlobStore
	feed        changefeed.Publisher
	validator   *validation.Validator
	log         *utils.Logger
	maxUploadMB int
	now         func() time.Time
}

// Config tunes a Pipeline
type Config struct {
	MaxUploadMB int
}

// NewPipeline creates a submission pipeline
func NewPipeline(db *gorm.DB, blobs storage.BlobStore, feed changefeed.Publisher, v *validation.Validator, log *utils.Logger, cfg Config) *Pipeline {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 50
	}
	return &Pipeline{
		db:          db,
		blobs:       blobs,
		feed:        feed,
		validator:   v,
		log:         log,
		maxUploadMB: cfg.MaxUploadMB,
		now:         time.Now,
	}
}

// SubmitDocument stores the file first and the pending record second. A
// failed blob write leaves nothing behind; a failed record write removes the
// blob again on a best-effort basis. A blob that already backs a pending or
// public material is never overwritten or removed: the upload goes to a fresh
// key instead.
func (p *Pipeline) SubmitDocument(ctx context.Context, actor *Actor, in DocumentInput, file *File) (*model.PendingAcademicMaterial, error) {
	if actor == nil || actor.ID == 0 {
		return nil, ErrUnauthenticated
	}

	validation.SanitizeStrings(&in.Branch, &in.Year, &in.Type)
	if file == nil || len(file.Content) == 0 || strings.TrimSpace(file.Name) == "" {
		return nil, &FieldError{Message: MsgMissingDocument, Fields: map[string]string{"file": "file is required"}}
	}
	if err := p.validator.ValidateStruct(in); err != nil {
		return nil, &FieldError{Message: MsgMissingDocument, Fields: validation.FormatValidationErrors(err)}
	}

	if err := p.checkFile(in.Type, file); err != nil {
		return nil, err
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&model.Course{}).
		Where("id = ? AND university_id = ?", in.CourseID, in.UniversityID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to look up course: %w", err)
	}
	if count == 0 {
		return nil, ErrUnknownCourse
	}

	fileName := storage.SafeFileName(file.Name)
	key := storage.MaterialKey(actor.ID, fileName)
	inUse, err := p.keyInUse(ctx, key)
	if err != nil {
		p.log.Error("blob key lookup failed", "key", key, "user_id", actor.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMetadataWrite, err)
	}
	if inUse {
		key = storage.UniqueMaterialKey(actor.ID, fileName)
	}
	url, err := p.blobs.Put(ctx, key, bytes.NewReader(file.Content), storage.ContentType(fileName))
	if err != nil {
		p.log.Error("blob write failed", "key", key, "user_id", actor.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBlobWrite, err)
	}

	record := &model.PendingAcademicMaterial{
		MaterialFields: model.MaterialFields{
			UniversityID:  in.UniversityID,
			CourseID:      in.CourseID,
			Branch:        in.Branch,
			Year:          in.Year,
			Type:          in.Type,
			FileURL:       url,
			FileName:      fileName,
			FileKey:       key,
			FileSize:      int64(len(file.Content)),
			SubmittedBy:   actor.Email,
			SubmittedByID: actor.ID,
			SubmittedAt:   p.now(),
		},
		Status: model.StatusPending,
	}
	if err := p.db.WithContext(ctx).Create(record).Error; err != nil {
		p.log.Error("pending material write failed", "key", key, "user_id", actor.ID, "error", err)
		p.discardBlob(context.WithoutCancel(ctx), key)
		return nil, fmt.Errorf("%w: %v", ErrMetadataWrite, err)
	}

	p.publish(ctx, changefeed.CollectionPendingMaterials, record.ID)
	p.log.Info("document submitted", "pending_id", record.ID, "user_id", actor.ID, "key", key)
	return record, nil
}

// keyInUse reports whether a pending or public material points at key
func (p *Pipeline) keyInUse(ctx context.Context, key string) (bool, error) {
	for _, table := range []interface{}{&model.PendingAcademicMaterial{}, &model.AcademicMaterial{}} {
		var n int64
		if err := p.db.WithContext(ctx).Model(table).Where("file_key = ?", key).Count(&n).Error; err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// discardBlob deletes a blob whose record was never written. Anything that
// cannot be verified as unreferenced is left to the orphan sweep.
func (p *Pipeline) discardBlob(ctx context.Context, key string) {
	inUse, err := p.keyInUse(ctx, key)
	if err != nil || inUse {
		p.log.Warn("blob left for orphan sweep", "key", key, "in_use", inUse, "error", err)
		return
	}
	if err := p.blobs.Delete(ctx, key); err != nil {
		p.log.Warn("orphaned blob left for sweep", "key", key, "error", err)
	}
}

// SubmitService stores a pending local service listing
func (p *Pipeline) SubmitService(ctx context.Context, actor *Actor, in ServiceInput) (*model.PendingLocalService, error) {
	if actor == nil || actor.ID == 0 {
		return nil, ErrUnauthenticated
	}

	validation.SanitizeStrings(&in.Name, &in.Contact, &in.Address, &in.Area, &in.Category)
	if err := p.validator.ValidateStruct(in); err != nil {
		return nil, &FieldError{Message: MsgMissingService, Fields: validation.FormatValidationErrors(err)}
	}

	record := &model.PendingLocalService{
		ServiceFields: model.ServiceFields{
			Name:          in.Name,
			Contact:       in.Contact,
			Address:       in.Address,
			Area:          in.Area,
			Category:      in.Category,
			SubmittedBy:   actor.Email,
			SubmittedByID: actor.ID,
			SubmittedAt:   p.now(),
		},
		Status: model.StatusPending,
	}
	if err := p.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataWrite, err)
	}

	p.publish(ctx, changefeed.CollectionPendingServices, record.ID)
	p.log.Info("service submitted", "pending_id", record.ID, "user_id", actor.ID)
	return record, nil
}

// Mine lists the actor's submissions that are still awaiting review
type Mine struct {
	Materials []model.PendingAcademicMaterial `json:"materials"`
	Services  []model.PendingLocalService     `json:"services"`
}

// ListMine returns the actor's pending submissions, newest first
func (p *Pipeline) ListMine(ctx context.Context, actor *Actor) (*Mine, error) {
	if actor == nil || actor.ID == 0 {
		return nil, ErrUnauthenticated
	}
	mine := &Mine{Materials: []model.PendingAcademicMaterial{}, Services: []model.PendingLocalService{}}
	if err := p.db.WithContext(ctx).Where("submitted_by_id = ?", actor.ID).
		Order("submitted_at DESC, id DESC").Find(&mine.Materials).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending materials: %w", err)
	}
	if err := p.db.WithContext(ctx).Where("submitted_by_id = ?", actor.ID).
		Order("submitted_at DESC, id DESC").Find(&mine.Services).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending services: %w", err)
	}
	return mine, nil
}

func (p *Pipeline) checkFile(docType string, file *File) error {
	ext := strings.ToLower(filepath.Ext(file.Name))
	if !AllowedExtensions[ext] {
		return &FileError{Message: "Unsupported file type. Allowed: pdf, doc, docx, ppt, pptx, txt, png, jpg, jpeg"}
	}
	if int64(len(file.Content)) > int64(p.maxUploadMB)*1024*1024 {
		return &FileError{Message: fmt.Sprintf("File size exceeds maximum allowed size of %dMB", p.maxUploadMB)}
	}
	if ext == ".pdf" {
		result := pdfvalidation.ValidateBytes(file.Content, pdfvalidation.LimitsFor(docType, p.maxUploadMB))
		if !result.Valid {
			return &FileError{Message: result.Error}
		}
	}
	return nil
}

// publish runs after commit; a lost event only delays the moderators' view
// until the next one.
func (p *Pipeline) publish(ctx context.Context, collection string, id uint) {
	if p.feed == nil {
		return
	}
	ev := changefeed.Event{Collection: collection, Action: changefeed.ActionCreated, ID: id}
	if err := p.feed.Publish(context.WithoutCancel(ctx), ev); err != nil {
		p.log.Warn("change event not published", "collection", collection, "id", id, "error", err)
	}
}

// ReadFile loads an upload into memory, refusing anything over limit bytes
func ReadFile(name string, r io.Reader, limit int64) (*File, error) {
	content, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(content)) > limit {
		return nil, &FileError{Message: fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limit/(1024*1024))}
	}
	return &File{Name: name, Content: content}, nil
}
