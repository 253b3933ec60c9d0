package router_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campusconnect/api/api"
	"github.com/campusconnect/api/database"
	"github.com/campusconnect/api/database/dbtest"
	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/router"
	"github.com/campusconnect/api/services/careerplan"
	"github.com/campusconnect/api/services/changefeed"
	"github.com/campusconnect/api/services/legit"
	"github.com/campusconnect/api/services/moderation"
	"github.com/campusconnect/api/services/notification"
	"github.com/campusconnect/api/services/resume"
	"github.com/campusconnect/api/services/search"
	"github.com/campusconnect/api/services/selector"
	"github.com/campusconnect/api/services/storage"
	"github.com/campusconnect/api/services/submission"
	"github.com/campusconnect/api/services/taxonomy"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/auth"
	"github.com/campusconnect/api/utils/cache"
	"github.com/campusconnect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const adminEmail = "admin@campusconnect.dev"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type fixture struct {
	app     *fiber.App
	db      *gorm.DB
	broker  *changefeed.MemoryBroker
	blobs   *storage.MemoryStore
	jwt     *auth.JWTManager
	admin   model.User
	student model.User
}

func newFixture(t *testing.T, configure ...func(*router.Deps)) *fixture {
	t.Helper()
	log := utils.NewNopLogger()
	store := dbtest.NewStore(t)
	db := store.DB()

	hasher := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, database.NewSeeder(db, hasher, log).SeedAll(context.Background(),
		database.AdminAccount{Email: adminEmail, Password: "Admin@12345"}))

	f := &fixture{
		db:     db,
		broker: changefeed.NewMemoryBroker(),
		blobs:  storage.NewMemoryStore("https://cdn.example.com"),
		jwt:    auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "campusconnect-test"}),
	}
	t.Cleanup(func() { _ = f.broker.Close() })

	require.NoError(t, db.Where("email = ?", adminEmail).First(&f.admin).Error)
	f.student = model.User{Email: "student@example.com", Name: "Student", Role: model.RoleStudent, PasswordHash: "x"}
	require.NoError(t, db.Create(&f.student).Error)

	kv := cache.NewMemoryCache()
	tax := taxonomy.NewService(db)
	deps := router.Deps{
		Store:       store,
		Log:         log,
		JWT:         f.jwt,
		Hasher:      hasher,
		Blacklist:   auth.NewBlacklistService(db, kv),
		Taxonomy:    tax,
		Selector:    selector.NewMachine(tax, log),
		Search:      search.NewService(db, log),
		Submissions: submission.NewPipeline(db, f.blobs, f.broker, validation.NewValidator(), log, submission.Config{MaxUploadMB: 1}),
		Moderation:  moderation.NewQueue(db, f.broker, log),
		Broker:      f.broker,
		Notices:     notification.NewService(db, log),
		CareerPlan:  careerplan.NewGenerator(nil, log),
		Resume:      resume.NewService("", log),
		Legit:       legit.NewClient(legit.Config{BaseURL: "http://127.0.0.1:1"}, kv, log),
		MaxUploadMB: 1,
	}
	for _, fn := range configure {
		fn(&deps)
	}

	f.app = api.NewAPIServer(":0", deps.MaxUploadMB, log).GetEngine()
	router.SetupRoutes(f.app, deps)
	return f
}

func (f *fixture) token(t *testing.T, u model.User) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(u.ID, u.Email, u.Role, u.TokenVersion)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.send(t, req, token)
}

func (f *fixture) send(t *testing.T, req *http.Request, token string) (*http.Response, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return resp, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (f *fixture) university(t *testing.T, name string) model.University {
	t.Helper()
	var u model.University
	require.NoError(t, f.db.Where("name = ?", name).First(&u).Error)
	return u
}

func (f *fixture) course(t *testing.T, universityID uint, name string) model.Course {
	t.Helper()
	var c model.Course
	require.NoError(t, f.db.Where("university_id = ? AND name = ?", universityID, name).First(&c).Error)
	return c
}

func TestPing(t *testing.T) {
	f := newFixture(t)
	resp, env := f.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, env.Data)["status"])
}

func TestReferenceData(t *testing.T) {
	f := newFixture(t)

	resp, env := f.do(t, http.MethodGet, "/api/v1/universities", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]model.University](t, env.Data), 2)

	rgpv := f.university(t, "RGPV")
	_, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/universities/%d/courses", rgpv.ID), "", nil)
	assert.Len(t, decode[[]model.Course](t, env.Data), 3)

	btech := f.course(t, rgpv.ID, "B.Tech")
	_, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/branches", btech.ID), "", nil)
	assert.Len(t, decode[[]model.Branch](t, env.Data), 5)

	_, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/years", btech.ID), "", nil)
	assert.Equal(t, []string{"1st Year", "2nd Year", "3rd Year", "4th Year"}, decode[[]string](t, env.Data))

	resp, _ = f.do(t, http.MethodGet, "/api/v1/courses/9999/years", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, env = f.do(t, http.MethodGet, "/api/v1/areas", "", nil)
	assert.Len(t, decode[[]model.Area](t, env.Data), len(database.DefaultAreas))
}

func TestSelectorTransition(t *testing.T) {
	f := newFixture(t)
	davv := f.university(t, "DAVV")

	resp, env := f.do(t, http.MethodPost, "/api/v1/selector/transition", "", map[string]interface{}{
		"event": map[string]string{"kind": "university", "value": fmt.Sprint(davv.ID)},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[selector.State](t, env.Data)
	assert.Equal(t, fmt.Sprint(davv.ID), state.University)
	assert.Len(t, state.Courses.Items, 3)

	mba := f.course(t, davv.ID, "MBA")
	resp, env = f.do(t, http.MethodPost, "/api/v1/selector/transition", "", map[string]interface{}{
		"state": state,
		"event": map[string]string{"kind": "course", "value": fmt.Sprint(mba.ID)},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state = decode[selector.State](t, env.Data)
	assert.Len(t, state.Branches.Items, 3)
	assert.Len(t, state.Years.Items, 2)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/selector/transition", "", map[string]interface{}{
		"event": map[string]string{"kind": "semester", "value": "1"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/v1/admin/pending/services", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/admin/pending/services", f.token(t, f.student), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A role claim alone is not enough once the stored user is no admin
	forged, _, err := f.jwt.GenerateAccessToken(f.student.ID, f.student.Email, model.RoleAdmin, f.student.TokenVersion)
	require.NoError(t, err)
	resp, _ = f.do(t, http.MethodGet, "/api/v1/admin/pending/services", forged, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/admin/pending/services", f.token(t, f.admin), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminTaxonomyMaintenance(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, f.admin)

	resp, env := f.do(t, http.MethodPost, "/api/v1/admin/universities", token, map[string]string{"name": "IPS Academy"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.University](t, env.Data)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/admin/universities", token, map[string]string{"name": "RGPV"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/admin/universities", token, map[string]string{"name": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/api/v1/admin/universities/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// RGPV still has courses
	resp, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/universities/%d", f.university(t, "RGPV").ID), token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/universities/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = f.do(t, http.MethodGet, "/api/v1/admin/audit-logs?resource=universities", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decode[[]model.AdminAuditLog](t, env.Data)
	require.Len(t, logs, 2)
	assert.Equal(t, f.admin.ID, logs[0].AdminID)
}

func TestSubmitServiceApproveAndSearch(t *testing.T) {
	f := newFixture(t)
	adminToken := f.token(t, f.admin)
	listing := map[string]string{
		"name": "QuickWash", "contact": "9876543210", "address": "12 MG Road",
		"area": "Vijay Nagar", "category": "Laundry",
	}

	resp, env := f.do(t, http.MethodPost, "/api/v1/submissions/services", "", listing)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, submission.MsgSignInToSubmit, env.Error.Message)

	resp, env = f.do(t, http.MethodPost, "/api/v1/submissions/services", f.token(t, f.student), map[string]string{"name": "QuickWash"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, env = f.do(t, http.MethodPost, "/api/v1/submissions/services", f.token(t, f.student), listing)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, submission.MsgServiceSubmitted, env.Message)
	pending := decode[model.PendingLocalService](t, env.Data)

	// Pending listings are not public
	_, env = f.do(t, http.MethodGet, "/api/v1/services/search?area=Vijay%20Nagar", "", nil)
	result := decode[search.Result[model.LocalService]](t, env.Data)
	assert.Equal(t, search.OutcomeNoMatches, result.Outcome)

	_, env = f.do(t, http.MethodGet, "/api/v1/admin/pending/services", adminToken, nil)
	assert.Len(t, decode[[]model.PendingLocalService](t, env.Data), 1)

	approvePath := fmt.Sprintf("/api/v1/admin/pending/services/%d/approve", pending.ID)
	resp, _ = f.do(t, http.MethodPost, approvePath, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = f.do(t, http.MethodPost, approvePath, adminToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "This item has already been moderated.", env.Error.Message)

	resp, env = f.do(t, http.MethodGet, "/api/v1/services/search?area=Vijay%20Nagar", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result = decode[search.Result[model.LocalService]](t, env.Data)
	assert.Equal(t, search.OutcomeResults, result.Outcome)
	require.Len(t, result.Results, 1)
	assert.Equal(t, adminEmail, result.Results[0].ApprovedBy)

	_, env = f.do(t, http.MethodGet, "/api/v1/services/search", "", nil)
	assert.Equal(t, search.MsgSelectArea, env.Message)

	studentToken := f.token(t, f.student)
	_, env = f.do(t, http.MethodGet, "/api/v1/notifications", studentToken, nil)
	page := decode[notification.Page](t, env.Data)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, "Service approved", page.Notifications[0].Title)
	assert.Equal(t, int64(1), page.UnreadCount)

	readPath := fmt.Sprintf("/api/v1/notifications/%d/read", page.Notifications[0].ID)
	resp, _ = f.do(t, http.MethodPost, readPath, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, readPath, studentToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, env = f.do(t, http.MethodGet, "/api/v1/notifications/unread-count", studentToken, nil)
	assert.EqualValues(t, 0, decode[map[string]int64](t, env.Data)["unread_count"])
}

func TestSearchFailureIsServerError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrator().DropTable(&model.AcademicMaterial{}))

	resp, env := f.do(t, http.MethodGet, "/api/v1/materials/search?type=Notes", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, search.MsgSearchFailed, env.Message)
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/documents", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestSubmitDocument(t *testing.T) {
	f := newFixture(t)
	rgpv := f.university(t, "RGPV")
	btech := f.course(t, rgpv.ID, "B.Tech")
	davv := f.university(t, "DAVV")
	fields := map[string]string{
		"university_id": fmt.Sprint(rgpv.ID),
		"course_id":     fmt.Sprint(btech.ID),
		"branch":        "CSE",
		"year":          "2nd Year",
		"type":          "Notes",
	}
	token := f.token(t, f.student)

	resp, env := f.send(t, multipartUpload(t, fields, "dsa.txt", []byte("linked lists")), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, submission.MsgLoginToUpload, env.Error.Message)

	resp, env = f.send(t, multipartUpload(t, fields, "", nil), token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, submission.MsgMissingDocument, env.Error.Message)

	resp, _ = f.send(t, multipartUpload(t, fields, "virus.exe", []byte("MZ")), token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	mismatched := map[string]string{}
	for k, v := range fields {
		mismatched[k] = v
	}
	mismatched["university_id"] = fmt.Sprint(davv.ID)
	resp, _ = f.send(t, multipartUpload(t, mismatched, "dsa.txt", []byte("linked lists")), token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, env = f.send(t, multipartUpload(t, fields, "dsa.txt", []byte("linked lists")), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, submission.MsgDocumentUploaded, env.Message)
	record := decode[model.PendingAcademicMaterial](t, env.Data)
	assert.Equal(t, f.student.Email, record.SubmittedBy)

	stored, ok := f.blobs.Bytes(record.FileKey)
	require.True(t, ok)
	assert.Equal(t, "linked lists", string(stored))

	_, env = f.do(t, http.MethodGet, "/api/v1/submissions/mine", token, nil)
	mine := decode[submission.Mine](t, env.Data)
	assert.Len(t, mine.Materials, 1)
}

func TestModerationStream(t *testing.T) {
	f := newFixture(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = f.app.Listener(ln) }()
	t.Cleanup(func() {
		// Closing the broker ends the open stream so shutdown can finish
		_ = f.broker.Close()
		_ = f.app.ShutdownWithTimeout(2 * time.Second)
	})
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/v1/admin/moderation/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.token(t, f.admin))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() moderation.Snapshot {
		t.Helper()
		seenEvent := false
		for lines.Scan() {
			line := lines.Text()
			if line == "event: snapshot" {
				seenEvent = true
				continue
			}
			if seenEvent && strings.HasPrefix(line, "data: ") {
				var snap moderation.Snapshot
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap))
				return snap
			}
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return moderation.Snapshot{}
	}

	first := next()
	assert.Empty(t, first.Services)
	assert.Empty(t, first.Materials)

	submit := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/services", strings.NewReader(
		`{"name":"PrintHub","contact":"9999999999","address":"5 AB Road","area":"Palasia","category":"Printing"}`))
	submit.Header.Set("Content-Type", "application/json")
	created, _ := f.send(t, submit, f.token(t, f.student))
	require.Equal(t, http.StatusCreated, created.StatusCode)

	second := next()
	require.Len(t, second.Services, 1)
	assert.Equal(t, "PrintHub", second.Services[0].Name)
}

func TestCareerPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"### Step 1: Immediate Focus"}}]}`))
	}))
	defer srv.Close()

	f := newFixture(t, func(d *router.Deps) {
		client := careerplan.NewInferenceClient(careerplan.InferenceConfig{APIKey: "k", BaseURL: srv.URL + "/"})
		d.CareerPlan = careerplan.NewGenerator(client, d.Log)
	})
	token := f.token(t, f.student)

	resp, _ := f.do(t, http.MethodPost, "/api/v1/career-plan", "", map[string]string{"goals": "SRE"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := f.do(t, http.MethodPost, "/api/v1/career-plan", token, map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Please fill in at least one field.", env.Error.Message)

	resp, env = f.do(t, http.MethodPost, "/api/v1/career-plan", token, map[string]string{"goals": "SRE"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "### Step 1: Immediate Focus", decode[map[string]string](t, env.Data)["plan"])
}

func TestCareerPlanUnconfigured(t *testing.T) {
	f := newFixture(t)
	resp, env := f.do(t, http.MethodPost, "/api/v1/career-plan", f.token(t, f.student), map[string]string{"goals": "SRE"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, careerplan.MsgGenerationFailed, env.Error.Message)
}

func TestResumePDF(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, f.student)

	resp, _ := f.do(t, http.MethodPost, "/api/v1/resume/pdf", token, map[string]interface{}{
		"formData": map[string]string{"name": "Asha Verma", "skills": "Go, SQL"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "true", resp.Header.Get("X-Resume-Watermarked"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "resume.pdf")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, _ = f.do(t, http.MethodPost, "/api/v1/resume/pdf", token, map[string]interface{}{
		"formData": map[string]string{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Signed-out visitors can render a resume too
	resp, _ = f.do(t, http.MethodPost, "/api/v1/resume/pdf", "", map[string]interface{}{
		"formData": map[string]string{"name": "Guest User"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}

func TestLegitCheck(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "Broken Co" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 90, "findings": []}`))
	}))
	defer up.Close()

	f := newFixture(t, func(d *router.Deps) {
		d.Legit = legit.NewClient(legit.Config{BaseURL: up.URL}, nil, d.Log)
	})

	resp, env := f.do(t, http.MethodGet, "/api/v1/legit/check?name=Acme", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, legit.Label(90), decode[legit.Report](t, env.Data).Label)

	resp, env = f.do(t, http.MethodGet, "/api/v1/legit/check?name=", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, legit.MsgInvalidName, env.Error.Message)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/legit/check?name=Broken%20Co", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
