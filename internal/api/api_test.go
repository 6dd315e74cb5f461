package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"loco-dispatcher/config"
	"loco-dispatcher/internal/db"
	"loco-dispatcher/internal/dispatch"
	"loco-dispatcher/internal/model"
	"loco-dispatcher/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []int64
}

func (d *recordingDispatcher) Dispatch(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
}

type testEnv struct {
	router     *gin.Engine
	db         *gorm.DB
	dispatcher *recordingDispatcher
	astana     model.Station
	karaganda  model.Station
	train      model.Train
	shoulder   model.Shoulder
	kz8a       model.Locomotive
	te33a      model.Locomotive
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.Init(&config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	sqlDB, _ := gdb.DB()
	t.Cleanup(func() { sqlDB.Close() })

	env := &testEnv{db: gdb, dispatcher: &recordingDispatcher{}}
	env.astana = model.Station{Name: "Astana", Code: "ASTANA"}
	env.karaganda = model.Station{Name: "Karaganda", Code: "KARAGANDA"}
	require.NoError(t, gdb.Create(&env.astana).Error)
	require.NoError(t, gdb.Create(&env.karaganda).Error)
	env.train = model.Train{Number: "101", Category: model.TrainPassenger}
	require.NoError(t, gdb.Create(&env.train).Error)
	env.shoulder = model.Shoulder{StationAID: env.astana.ID, StationBID: env.karaganda.ID, DistanceKm: 220, AllowedModels: "KZ8A, TE33A", MinTurnaroundMins: 60}
	require.NoError(t, gdb.Omit("StationA", "StationB").Create(&env.shoulder).Error)

	env.kz8a = model.NewLocomotive("KZ8A-0001", "KZ8A", "Astana")
	env.kz8a.CurrentStationID = &env.astana.ID
	require.NoError(t, gdb.Omit("CurrentStation").Create(&env.kz8a).Error)
	env.te33a = model.NewLocomotive("TE33A-0002", "TE33A", "Karaganda")
	env.te33a.CurrentStationID = &env.karaganda.ID
	env.te33a.FuelCurrent = env.te33a.FuelCapacity / 2
	require.NoError(t, gdb.Omit("CurrentStation").Create(&env.te33a).Error)

	cfg := config.Default()
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	env.router = NewRouter(cfg.Server, store.NewGormStore(gdb, nil), Options{
		Rules:      dispatch.DefaultRules,
		Dispatcher: env.dispatcher,
	})
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (env *testEnv) assignment(t *testing.T, locoID int64, from, to time.Time, status model.AssignmentStatus, distance *float64) model.Assignment {
	t.Helper()
	a := model.Assignment{LocomotiveID: locoID, TrainID: env.train.ID, ShoulderID: env.shoulder.ID, StartTime: from, EndTime: to, Status: status, DistanceKm: distance}
	require.NoError(t, env.db.Omit("Locomotive", "Train", "Shoulder").Create(&a).Error)
	return a
}

func TestCreateAssignment(t *testing.T) {
	env := newTestEnv(t)
	body := func(from, to string) gin.H {
		return gin.H{"locomotive_id": env.kz8a.ID, "train_id": env.train.ID, "shoulder_id": env.shoulder.ID, "start_time": from, "end_time": to}
	}

	w := env.do(t, "POST", "/api/assignments", body("2025-03-10T08:00:00Z", "2025-03-10T12:00:00Z"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[map[string]any](t, w)
	assert.Equal(t, "planned", first["status"])
	assert.Nil(t, first["conflict_reason"])
	assert.Equal(t, []any{}, first["conflicts_with"])

	w = env.do(t, "POST", "/api/assignments", body("2025-03-10T11:00:00Z", "2025-03-10T13:00:00Z"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decode[map[string]any](t, w)
	assert.Equal(t, "conflict", second["status"])
	assert.Contains(t, second["conflict_reason"], "time overlap")
	assert.Equal(t, []int64{env.kz8a.ID}, env.dispatcher.ids)

	w = env.do(t, "POST", "/api/assignments", body("2025-03-10T11:00:00Z", "2025-03-10T11:00:00Z"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/api/assignments", body("yesterday", "2025-03-10T11:00:00Z"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Spreadsheet layouts are import-only; the JSON body takes RFC 3339.
	for _, raw := range []string{"45000", "2025-03-10", "10.03.2025 08:00", "2025-03-10 08:00"} {
		w = env.do(t, "POST", "/api/assignments", body(raw, "2025-03-20T11:00:00Z"))
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		assert.Contains(t, w.Body.String(), "start_time must be an ISO-8601 timestamp", raw)
	}

	w = env.do(t, "POST", "/api/assignments", gin.H{"locomotive_id": 999, "train_id": env.train.ID, "shoulder_id": env.shoulder.ID, "start_time": "2025-03-10T08:00:00Z", "end_time": "2025-03-10T09:00:00Z"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"locomotive not found"}`, w.Body.String())

	w = env.do(t, "GET", "/api/conflicts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	conflicts := decode[[]map[string]any](t, w)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "KZ8A-0001", conflicts[0]["loco_number"])
	assert.Equal(t, "Astana", conflicts[0]["from_station"])
}

func TestGraph(t *testing.T) {
	env := newTestEnv(t)
	km := 30.0
	env.assignment(t, env.kz8a.ID, testDay.Add(0), testDay.Add(8*time.Hour), model.AssignmentPlanned, nil)
	env.assignment(t, env.kz8a.ID, testDay.Add(8*time.Hour), testDay.Add(16*time.Hour), model.AssignmentPlanned, &km)

	w := env.do(t, "GET", "/api/graph?from=2025-03-10&to=2025-03-11", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[graphResponse](t, w)

	require.Len(t, resp.Groups, 2)
	assert.Equal(t, "KZ8A-0001", resp.Groups[0].Title)

	var statuses []string
	var idle []string
	for _, it := range resp.Items {
		if it.Type == "idle" {
			idle = append(idle, it.ID.(string))
			continue
		}
		statuses = append(statuses, it.Status)
	}
	assert.Equal(t, []string{"planned", "violation"}, statuses)
	assert.ElementsMatch(t, []string{"idle-end-" + itoa(env.kz8a.ID), "idle-end-" + itoa(env.te33a.ID)}, idle)

	for _, it := range resp.Items {
		if it.Status == "violation" {
			assert.Equal(t, string(dispatch.ReasonTurnaround), it.ViolationReason)
			assert.Equal(t, classViolation, it.ClassName)
			assert.Equal(t, testDay.Add(8*time.Hour).UnixMilli(), it.StartTime)
			require.NotNil(t, it.RequiredFuel)
			assert.InDelta(t, 75.0, *it.RequiredFuel, 1e-9)
		}
	}

	w = env.do(t, "GET", "/api/graph?from=2025-03-11&to=2025-03-10", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func itoa(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}

func TestEfficiency(t *testing.T) {
	env := newTestEnv(t)
	env.assignment(t, env.kz8a.ID, testDay.Add(-2*time.Hour), testDay.Add(4*time.Hour), model.AssignmentCompleted, nil)

	w := env.do(t, "GET", "/api/efficiency?from=2025-03-10T00:00:00Z&to=2025-03-11T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rows := decode[[]efficiencyRow](t, w)
	require.Len(t, rows, 2)
	assert.Equal(t, efficiencyRow{
		LocomotiveID: env.kz8a.ID, LocomotiveNumber: "KZ8A-0001",
		TotalRunHours: "4.0", TotalIdleHours: "20.0", TotalServiceHours: "0.0", EfficiencyPercent: "16.7",
	}, rows[0])
	assert.Equal(t, "0.0", rows[1].EfficiencyPercent)

	for _, query := range []string{
		"from=2025-03-11T00:00:00Z&to=2025-03-10T00:00:00Z",
		"from=2025-03-10T00:00:00Z&to=2025-03-10T00:00:00Z",
	} {
		w = env.do(t, "GET", "/api/efficiency?"+query, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		zeroed := decode[[]efficiencyRow](t, w)
		require.Len(t, zeroed, 2, query)
		for _, row := range zeroed {
			assert.Equal(t, "0.0", row.TotalRunHours, query)
			assert.Equal(t, "0.0", row.TotalIdleHours, query)
			assert.Equal(t, "0.0", row.TotalServiceHours, query)
			assert.Equal(t, "0.0", row.EfficiencyPercent, query)
		}
	}

	w = env.do(t, "GET", "/api/efficiency/export?from=2025-03-11&to=2025-03-10&format=xlsx", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/efficiency/export?from=2025-03-10&to=2025-03-11&format=pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "efficiency_20250310_20250311.pdf")

	w = env.do(t, "GET", "/api/efficiency/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommend(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/recommend/"+itoa(env.shoulder.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[[]candidateResponse](t, w)
	require.Len(t, out, 2)
	assert.Equal(t, "KZ8A-0001", out[0].Number)
	assert.True(t, out[0].AtOrigin)
	assert.InDelta(t, 50+50+25, out[0].Score, 1e-9)
	assert.Equal(t, "Astana", out[0].CurrentStationName)
	assert.InDelta(t, 25+25, out[1].Score, 1e-9)

	w = env.do(t, "GET", "/api/recommend/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, "GET", "/api/recommend/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimization(t *testing.T) {
	env := newTestEnv(t)
	a := env.assignment(t, env.kz8a.ID, testDay, testDay.Add(time.Hour), model.AssignmentConflict, nil)

	w := env.do(t, "GET", "/api/optimization", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[[]suggestion](t, w)
	require.Len(t, out, 1)
	assert.Equal(t, a.ID, out[0].AssignmentID)
	assert.Equal(t, "101", out[0].TrainNumber)
	assert.Equal(t, "KZ8A-0001", out[0].FromLocomotive)
	require.NotNil(t, out[0].ToLocomotive)
	assert.Equal(t, "TE33A-0002", *out[0].ToLocomotive)
}

func TestImportAssignments(t *testing.T) {
	env := newTestEnv(t)

	upload := func(name, content string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest("POST", "/api/import/assignments", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	csv := strings.Join([]string{
		"locomotive_number,train_number,from_station,to_station,start_time,end_time",
		"KZ8A-0001,101,Astana,Karaganda,2025-03-10 08:00,2025-03-10 12:00",
		"KZ8A-0001,101,Astana,Karaganda,2025-03-10 10:00,2025-03-10 10:00",
	}, "\n")
	w := upload("plan.csv", csv)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[map[string]any](t, w)
	assert.EqualValues(t, 1, summary["imported_rows"])
	assert.EqualValues(t, 0, summary["conflicts_count"])
	errs := summary["errors"].([]any)
	require.Len(t, errs, 1)
	assert.EqualValues(t, 3, errs[0].(map[string]any)["row_index"])

	assert.Equal(t, http.StatusBadRequest, upload("plan.csv", "").Code)
	assert.Equal(t, http.StatusBadRequest, upload("plan.csv", "locomotive_number\n").Code)

	w = env.do(t, "POST", "/api/import/assignments", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPerformService(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/locomotives/"+itoa(env.te33a.ID)+"/service", gin.H{"station_id": env.astana.ID, "service_type": "full"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, "GET", "/api/locomotives/"+itoa(env.te33a.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	loco := decode[store.LocomotiveView](t, w)
	assert.InDelta(t, loco.FuelCapacity, loco.FuelCurrent, 1e-9)
	assert.Equal(t, "Astana", loco.CurrentStationName)

	w = env.do(t, "POST", "/api/locomotives/999/service", gin.H{"station_id": env.astana.ID, "service_type": "fuel"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, "POST", "/api/locomotives/"+itoa(env.te33a.ID)+"/service", gin.H{"station_id": env.astana.ID, "service_type": "polish"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKPIs(t *testing.T) {
	env := newTestEnv(t)
	env.assignment(t, env.kz8a.ID, testDay, testDay.Add(2*time.Hour), model.AssignmentCompleted, nil)
	env.assignment(t, env.kz8a.ID, testDay.Add(4*time.Hour), testDay.Add(5*time.Hour), model.AssignmentConflict, nil)

	w := env.do(t, "GET", "/api/dashboard/kpis", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	kpis := decode[kpiResponse](t, w)
	assert.InDelta(t, 50.0, kpis.CompletedRate, 1e-9)
	assert.Equal(t, "KZ8A-0001", kpis.BusiestLoco)
	assert.Equal(t, "TE33A-0002", kpis.IdlestLoco)
	assert.EqualValues(t, 1, kpis.ConflictCount)
	assert.EqualValues(t, 2, kpis.LocoStats.Reserve)
}

func TestReferenceLists(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/stations", "/api/trains", "/api/shoulders", "/api/locomotives", "/api/assignments"} {
		w := env.do(t, "GET", path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	assert.JSONEq(t, `{"ok":true}`, env.do(t, "GET", "/api/health", nil).Body.String())
	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/locomotives/999", nil).Code)
}

func TestSubscriptions(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "PUT", "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "PUT", "/api/subscriptions", gin.H{"endpoint": "https://push.example/x", "p256dh": "k", "auth": "a", "subscribed_locomotives": []int64{env.kz8a.ID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, "GET", "/api/subscriptions?endpoint=https://push.example/x", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed_locomotives":[`+itoa(env.kz8a.ID)+`]}`, w.Body.String())

	w = env.do(t, "DELETE", "/api/subscriptions", gin.H{"endpoint": "https://push.example/x"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, "GET", "/api/subscriptions?endpoint=https://push.example/x", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "GET", "/api/vapid_public_key", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
