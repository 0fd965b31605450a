package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/gray-logic-roi/internal/audit"
	"github.com/nerrad567/gray-logic-roi/internal/auth"
	"github.com/nerrad567/gray-logic-roi/internal/device"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-roi/internal/roi"
	"github.com/nerrad567/gray-logic-roi/internal/snapshot"
	_ "github.com/nerrad567/gray-logic-roi/migrations"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

// fakeNotifier records restart requests.
type fakeNotifier struct {
	mu   sync.Mutex
	ids  []string
	fail error
}

func (n *fakeNotifier) RestartDevice(_ context.Context, dev *device.Device) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, dev.ID)
	return n.fail
}

// fakeCapturer returns a fixed frame or error.
type fakeCapturer struct {
	frame *snapshot.Frame
	err   error
	url   string
}

func (c *fakeCapturer) CaptureDevice(_ context.Context, _, rtspURL string) (*snapshot.Frame, error) {
	c.url = rtspURL
	return c.frame, c.err
}

// fakeArchive records archived keys.
type fakeArchive struct {
	keys []string
	err  error
}

func (a *fakeArchive) SaveSnapshot(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.keys = append(a.keys, key)
	return "http://minio.local/roicore/" + key, nil
}

type failingCheck struct{}

func (failingCheck) HealthCheck(context.Context) error { return errors.New("broker unreachable") }

type testEnv struct {
	srv      *Server
	router   http.Handler
	db       *database.DB
	notifier *fakeNotifier
	capturer *fakeCapturer
	archive  *fakeArchive
}

// seedTenant creates an upstream tenant database with one camera and an
// empty rule table.
func seedTenant(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tenant_a.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open tenant db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE cameras (
			external_id TEXT PRIMARY KEY,
			name TEXT, rtsp_url TEXT, status TEXT, location TEXT, camera_settings TEXT,
			ssh_host TEXT, ssh_port INTEGER, ssh_user TEXT)`,
		`INSERT INTO cameras VALUES ('ext-1', 'Gate', 'rtsp://10.0.0.9/main', 'online', 'North gate', NULL, NULL, NULL, NULL)`,
		`CREATE TABLE region_ai_configs (
			device_key TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at TEXT NOT NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seeding tenant: %v", err)
		}
	}
	return path
}

// newTestEnv wires the real directory, rule service and audit repository
// over a migrated database with one attached tenant schema.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "roicore.db"),
		BusyTimeout: 5,
		Attach:      map[string]string{"tenant_a": seedTenant(t)},
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	directory := device.NewDirectory(
		device.NewSQLiteRemote(db.DB, "cameras"),
		device.NewSQLiteRepository(db.DB),
		config.UpstreamConfig{CacheTTL: 30, QueryTimeout: 5, Breaker: config.BreakerConfig{MinRequests: 100, FailureThreshold: 0.6}},
	)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	notifier := &fakeNotifier{}
	rules := roi.NewService(roi.NewSQLiteStore(db.DB, "region_ai_configs"), notifier, auditRepo)

	capturer := &fakeCapturer{frame: &snapshot.Frame{Data: []byte("JPEG"), ContentType: "image/jpeg"}}
	archive := &fakeArchive{}

	log := logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1"},
		Security: config.SecurityConfig{JWT: config.JWTConfig{Secret: testSecret, AccessTokenTTL: 15}},
		Logger:   log,
		Devices:  directory,
		Rules:    rules,
		Capturer: capturer,
		Archive:  archive,
		Audit:    auditRepo,
		Health:   map[string]HealthChecker{"database": db},
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &testEnv{
		srv:      srv,
		router:   srv.buildRouter(),
		db:       db,
		notifier: notifier,
		capturer: capturer,
		archive:  archive,
	}
}

func token(t *testing.T, role auth.Role) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(auth.Identity{Subject: "usr-1", Tenant: "acme", Role: role}, testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	return tok
}

// do sends a request as role. An empty role sends no Authorization header.
func (e *testEnv) do(t *testing.T, role auth.Role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, role))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e Error
	decode(t, w, &e)
	return e.Code
}

// ─── Health & Metrics ──────────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "", http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Status  string            `json:"status"`
		Version string            `json:"version"`
		Checks  map[string]string `json:"checks"`
	}
	decode(t, w, &resp)
	if resp.Status != "ok" || resp.Version != "test" || resp.Checks["database"] != "ok" {
		t.Errorf("health = %+v", resp)
	}
}

func TestHealth_Degraded(t *testing.T) {
	env := newTestEnv(t)
	env.srv.health["mqtt"] = failingCheck{}

	w := env.do(t, "", http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "", http.MethodGet, "/api/v1/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("metrics output missing go_goroutines")
	}
}

// ─── Authentication ────────────────────────────────────────────────

func TestAuth(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic YWRtaW46YWRtaW4=", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + token(t, auth.RoleViewer), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAuth_RolePermissions(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, auth.RoleViewer, http.MethodPut, "/api/v1/devices/ext-1/roi", `{"rule":[]}`); w.Code != http.StatusForbidden {
		t.Errorf("viewer PUT roi = %d, want 403", w.Code)
	}
	if w := env.do(t, auth.RoleOperator, http.MethodPost, "/api/v1/devices", `{"name":"x"}`); w.Code != http.StatusForbidden {
		t.Errorf("operator POST device = %d, want 403", w.Code)
	}
	if w := env.do(t, auth.RoleOperator, http.MethodGet, "/api/v1/audit", nil); w.Code != http.StatusForbidden {
		t.Errorf("operator GET audit = %d, want 403", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/devices", nil)
	req.Header.Set("Origin", "http://ui.local")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://ui.local" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

// ─── Devices ───────────────────────────────────────────────────────

func TestDevices_ListExternalThenLocal(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, auth.RoleAdmin, http.MethodPost, "/api/v1/devices", map[string]any{
		"id":      "cam-local",
		"name":    "Lobby",
		"rtspUrl": "rtsp://10.0.0.20/live",
		"ssh":     map[string]any{"host": "10.0.0.20"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, auth.RoleViewer, http.MethodGet, "/api/v1/devices", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp struct {
		Devices []device.Device `json:"devices"`
		Count   int             `json:"count"`
	}
	decode(t, w, &resp)
	if resp.Count != 2 || resp.Devices[0].ID != "ext-1" || resp.Devices[1].ID != "cam-local" {
		t.Fatalf("devices = %+v, want ext-1 then cam-local", resp.Devices)
	}
	if !resp.Devices[0].ReadOnly || resp.Devices[0].Schema != "tenant_a" {
		t.Errorf("external device = %+v, want read-only from tenant_a", resp.Devices[0])
	}
	if resp.Devices[1].ReadOnly || resp.Devices[1].Tenant != "acme" {
		t.Errorf("local device = %+v, want writable in acme", resp.Devices[1])
	}
}

func TestDevices_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing name", `{"rtspUrl":"rtsp://x"}`, http.StatusBadRequest},
		{"bad scheme", `{"name":"Cam","rtspUrl":"http://x"}`, http.StatusBadRequest},
		{"external id taken", `{"id":"ext-1","name":"Cam"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, auth.RoleAdmin, http.MethodPost, "/api/v1/devices", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestDevices_ExternalIsReadOnly(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, auth.RoleAdmin, http.MethodPatch, "/api/v1/devices/ext-1", `{"name":"Renamed"}`)
	if w.Code != http.StatusConflict || errorCode(t, w) != ErrCodeReadOnly {
		t.Errorf("PATCH external = %d %s, want 409 read_only", w.Code, w.Body.String())
	}

	w = env.do(t, auth.RoleAdmin, http.MethodDelete, "/api/v1/devices/ext-1", nil)
	if w.Code != http.StatusConflict || errorCode(t, w) != ErrCodeReadOnly {
		t.Errorf("DELETE external = %d %s, want 409 read_only", w.Code, w.Body.String())
	}
}

func TestDevices_UpdateAndDeleteLocal(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, auth.RoleAdmin, http.MethodPost, "/api/v1/devices", `{"id":"cam-9","name":"Dock"}`); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	w := env.do(t, auth.RoleAdmin, http.MethodPatch, "/api/v1/devices/cam-9", `{"location":"Loading bay"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d: %s", w.Code, w.Body.String())
	}
	var dev device.Device
	decode(t, w, &dev)
	if dev.Name != "Dock" || dev.Location != "Loading bay" {
		t.Errorf("patched = %+v, want name kept and location set", dev)
	}

	if w := env.do(t, auth.RoleAdmin, http.MethodDelete, "/api/v1/devices/cam-9", nil); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", w.Code)
	}
	if w := env.do(t, auth.RoleViewer, http.MethodGet, "/api/v1/devices/cam-9", nil); w.Code != http.StatusNotFound {
		t.Errorf("GET deleted = %d, want 404", w.Code)
	}
}

func TestDevices_GetNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, auth.RoleViewer, http.MethodGet, "/api/v1/devices/missing", nil)
	if w.Code != http.StatusNotFound || errorCode(t, w) != ErrCodeNotFound {
		t.Errorf("GET missing = %d %s, want 404 not_found", w.Code, w.Body.String())
	}
}

// ─── Rules ─────────────────────────────────────────────────────────

const fenceRules = `{"rule":[{
	"roi_id":"A","name":"Fence","roi_type":"intrusion",
	"points":[{"x":100,"y":200},[150,300],{"x":120,"y":260}]
}]}`

func TestRules_SaveAndGet(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, auth.RoleOperator, http.MethodPut, "/api/v1/devices/ext-1/roi", fenceRules)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT roi status = %d: %s", w.Code, w.Body.String())
	}

	var res struct {
		Config       map[string]any `json:"config"`
		RowsAffected int64          `json:"rows_affected"`
		Warning      string         `json:"warning"`
	}
	decode(t, w, &res)
	if res.RowsAffected != 1 || res.Warning != "" {
		t.Errorf("save result = %+v", res)
	}
	if len(env.notifier.ids) != 1 || env.notifier.ids[0] != "ext-1" {
		t.Errorf("notified = %v, want [ext-1]", env.notifier.ids)
	}

	// Stored in the device's upstream schema with canonical points.
	var raw string
	if err := env.db.QueryRow(
		"SELECT document FROM tenant_a.region_ai_configs WHERE device_key = 'ext-1'",
	).Scan(&raw); err != nil {
		t.Fatalf("reading stored document: %v", err)
	}
	if !strings.Contains(raw, `"points":[[100,200],[150,300],[120,260]]`) {
		t.Errorf("stored document = %s, want canonical points", raw)
	}

	w = env.do(t, auth.RoleViewer, http.MethodGet, "/api/v1/devices/ext-1/roi", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET roi status = %d", w.Code)
	}
	var cfg roi.RegionAIConfig
	decode(t, w, &cfg)
	if len(cfg.Rule) != 1 || cfg.Rule[0].RoiID != "A" || cfg.Rule[0].CreatedBy != "usr-1" {
		t.Errorf("GET roi = %+v", cfg)
	}
}

func TestRules_NotifyFailureIsWarning(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.fail = errors.New("ssh: connection refused")

	w := env.do(t, auth.RoleOperator, http.MethodPut, "/api/v1/devices/ext-1/roi", fenceRules)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT roi status = %d: %s", w.Code, w.Body.String())
	}
	var res roi.SaveResult
	decode(t, w, &res)
	if !strings.Contains(res.Warning, "connection refused") {
		t.Errorf("Warning = %q, want the notify error", res.Warning)
	}
}

func TestRules_Rejected(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad point", `{"rule":[{"roi_id":"A","name":"x","roi_type":"intrusion","points":[[1,2],[3,4],"oops"]}]}`},
		{"unknown type", `{"rule":[{"roi_id":"A","name":"x","roi_type":"smoke","points":[[1,2],[3,4],[5,6]]}]}`},
		{"duplicate id", `{"rule":[{"roi_id":"A","name":"x","roi_type":"zoom","points":[[1,2]]},{"roi_id":"A","name":"y","roi_type":"zoom","points":[[1,2]]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, auth.RoleOperator, http.MethodPut, "/api/v1/devices/ext-1/roi", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
	if len(env.notifier.ids) != 0 {
		t.Errorf("rejected saves notified %v", env.notifier.ids)
	}
}

func TestRules_NextSlot(t *testing.T) {
	env := newTestEnv(t)

	body := `{"rule":[{"roi_id":"A","name":"Fence","roi_type":"intrusion","roi_status":"ON",
		"points":[[0,0],[10,0],[10,10]],
		"schedule":[{"start_time":"00:00:00","end_time":"06:00:00","direction":"Both","confidence_threshold":0.5,"confidence_zoom":0.5,"duration_threshold_seconds":0}]}]}`
	if w := env.do(t, auth.RoleOperator, http.MethodPut, "/api/v1/devices/ext-1/roi", body); w.Code != http.StatusOK {
		t.Fatalf("PUT roi status = %d: %s", w.Code, w.Body.String())
	}

	w := env.do(t, auth.RoleViewer, http.MethodGet, "/api/v1/devices/ext-1/roi/A/next-slot", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("next-slot status = %d: %s", w.Code, w.Body.String())
	}
	var slot map[string]string
	decode(t, w, &slot)
	if slot["start_time"] != "06:00:00" {
		t.Errorf("next slot = %v, want start 06:00:00", slot)
	}

	if w := env.do(t, auth.RoleViewer, http.MethodGet, "/api/v1/devices/ext-1/roi/Z/next-slot", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown rule = %d, want 404", w.Code)
	}
	if w := env.do(t, auth.RoleViewer, http.MethodGet, "/api/v1/devices/ext-1/roi/A/next-slot?exclude=x", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad exclude = %d, want 400", w.Code)
	}
}

// ─── Snapshot ──────────────────────────────────────────────────────

func TestSnapshot(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, auth.RoleViewer, http.MethodGet, "/api/v1/devices/ext-1/snapshot?archive=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "JPEG" || w.Header().Get("Content-Type") != "image/jpeg" {
		t.Errorf("snapshot = %q (%s)", w.Body.String(), w.Header().Get("Content-Type"))
	}
	if env.capturer.url != "rtsp://10.0.0.9/main" {
		t.Errorf("captured url = %q", env.capturer.url)
	}
	if len(env.archive.keys) != 1 || !strings.HasPrefix(w.Header().Get("X-Snapshot-URL"), "http://minio.local/roicore/snapshots/ext-1/") {
		t.Errorf("archive keys = %v, url = %q", env.archive.keys, w.Header().Get("X-Snapshot-URL"))
	}
}

func TestSnapshot_ArchiveFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t)
	env.archive.err = errors.New("bucket gone")

	w := env.do(t, auth.RoleViewer, http.MethodGet, "/api/v1/devices/ext-1/snapshot?archive=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d", w.Code)
	}
	if w.Header().Get("X-Snapshot-URL") != "" {
		t.Error("X-Snapshot-URL set despite archive failure")
	}
}

func TestSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"timeout", snapshot.ErrCaptureTimeout, http.StatusGatewayTimeout},
		{"empty", snapshot.ErrEmptyCapture, http.StatusBadGateway},
		{"missing file", snapshot.ErrTempFileMissing, http.StatusBadGateway},
		{"no url", snapshot.ErrMissingURL, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.capturer.frame, env.capturer.err = nil, tt.err

			w := env.do(t, auth.RoleViewer, http.MethodGet, "/api/v1/devices/ext-1/snapshot", nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

// ─── Audit ─────────────────────────────────────────────────────────

func TestAudit_ListsRuleSaves(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, auth.RoleOperator, http.MethodPut, "/api/v1/devices/ext-1/roi", fenceRules); w.Code != http.StatusOK {
		t.Fatalf("PUT roi status = %d", w.Code)
	}

	w := env.do(t, auth.RoleAdmin, http.MethodGet, "/api/v1/audit?action=save_rules", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("audit status = %d: %s", w.Code, w.Body.String())
	}
	var result audit.ListResult
	decode(t, w, &result)
	if result.Total != 1 || result.Logs[0].EntityID != "ext-1" || result.Logs[0].Tenant != "acme" {
		t.Errorf("audit = %+v, want one save_rules entry for ext-1", result)
	}
}

func TestAudit_BadSince(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, auth.RoleAdmin, http.MethodGet, "/api/v1/audit?since=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAudit_DeviceCRUDIsQueued(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, auth.RoleAdmin, http.MethodPost, "/api/v1/devices", `{"id":"cam-q","name":"Queue"}`); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}

	select {
	case entry := <-env.srv.auditCh:
		if entry.Action != audit.ActionCreate || entry.EntityID != "cam-q" || entry.UserID != "usr-1" {
			t.Errorf("queued entry = %+v", entry)
		}
	default:
		t.Fatal("no audit entry queued for device create")
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard)

	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("New() without directory should fail")
	}
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
}
