package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"soilmon/internal/modules/soil/service"
	"soilmon/internal/modules/soil/types"
)

type mockRepo struct {
	written  []types.Sample
	writeErr error
	rows     []types.RawRow
	queryErr error

	writeCalls int
	queryCalls int
	lastField  string
}

func (m *mockRepo) WriteSample(_ context.Context, s types.Sample) error {
	m.writeCalls++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, s)
	return nil
}

func (m *mockRepo) QueryRange(_ context.Context, _, _ time.Time, field string) ([]types.RawRow, error) {
	m.queryCalls++
	m.lastField = field
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.rows == nil {
		return []types.RawRow{}, nil
	}
	return m.rows, nil
}

func newTestMux(repo *mockRepo) *http.ServeMux {
	mux := http.NewServeMux()
	ctrl := NewSoilController(service.NewService(repo, nil, nil, nil), nil)
	ctrl.RegisterRoutes(mux)
	return mux
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	return got
}

func Test_handleWelcome(t *testing.T) {
	mux := newTestMux(&mockRepo{})

	rec := serve(mux, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if got := decode(t, rec)["message"]; got != msgWelcome {
		t.Errorf("message = %v; want %q", got, msgWelcome)
	}

	rec = serve(mux, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404 for unknown path", rec.Code)
	}
}

func Test_handleSave(t *testing.T) {
	t.Run("stores a valid reading", func(t *testing.T) {
		repo := &mockRepo{}
		rec := serve(newTestMux(repo), http.MethodPost, "/sensor", `{"nitrogen":10,"phosphorus":"20","potassium":30,"ph":6.5}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		if got := decode(t, rec)["message"]; got != msgSaved {
			t.Errorf("message = %v; want %q", got, msgSaved)
		}
		if len(repo.written) != 1 || repo.written[0].Phosphorus != 20 {
			t.Errorf("written = %+v", repo.written)
		}
	})

	t.Run("missing field is 400 without a write", func(t *testing.T) {
		repo := &mockRepo{}
		rec := serve(newTestMux(repo), http.MethodPost, "/sensor", `{"nitrogen":10,"phosphorus":20,"potassium":30}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", rec.Code)
		}
		body := decode(t, rec)
		if body["message"] != msgFieldsRequired {
			t.Errorf("message = %v; want %q", body["message"], msgFieldsRequired)
		}
		missing, _ := body["missing"].([]any)
		if len(missing) != 1 || missing[0] != "ph" {
			t.Errorf("missing = %v; want [ph]", body["missing"])
		}
		if repo.writeCalls != 0 {
			t.Errorf("writeCalls = %d; want 0", repo.writeCalls)
		}
	})

	t.Run("non numeric field is reported as invalid", func(t *testing.T) {
		repo := &mockRepo{}
		rec := serve(newTestMux(repo), http.MethodPost, "/sensor", `{"nitrogen":"lots","phosphorus":20,"potassium":30,"ph":7}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", rec.Code)
		}
		invalid, _ := decode(t, rec)["invalid"].([]any)
		if len(invalid) != 1 || invalid[0] != "nitrogen" {
			t.Errorf("invalid = %v; want [nitrogen]", invalid)
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		repo := &mockRepo{}
		rec := serve(newTestMux(repo), http.MethodPost, "/sensor", `{"nitrogen":`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", rec.Code)
		}
		if got := decode(t, rec)["message"]; got != msgInvalidBody {
			t.Errorf("message = %v; want %q", got, msgInvalidBody)
		}
	})

	t.Run("oversized body is 413", func(t *testing.T) {
		repo := &mockRepo{}
		body := `{"pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`
		rec := serve(newTestMux(repo), http.MethodPost, "/sensor", body)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("status = %d; want 413", rec.Code)
		}
		if repo.writeCalls != 0 {
			t.Errorf("writeCalls = %d; want 0", repo.writeCalls)
		}
	})

	t.Run("store failure is 500 without detail", func(t *testing.T) {
		repo := &mockRepo{writeErr: fmt.Errorf("%w: dial tcp 10.0.0.5:8086: refused", types.ErrWrite)}
		rec := serve(newTestMux(repo), http.MethodPost, "/sensor", `{"nitrogen":1,"phosphorus":2,"potassium":3,"ph":4}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d; want 500", rec.Code)
		}
		raw := rec.Body.String()
		if !strings.Contains(raw, msgSaveFailed) {
			t.Errorf("body = %q; want %q", raw, msgSaveFailed)
		}
		if strings.Contains(raw, "10.0.0.5") {
			t.Errorf("body leaks store detail: %q", raw)
		}
	})
}

func Test_handleQuery(t *testing.T) {
	rows := []types.RawRow{
		{Time: "2024-01-01T10:00:00Z", Field: "ph", Value: 6.5, Measurement: "soil_data"},
	}

	t.Run("returns rows", func(t *testing.T) {
		repo := &mockRepo{rows: rows}
		rec := serve(newTestMux(repo), http.MethodGet, "/sensor?start=2024-01-01&end=2024-01-01&field=ph", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		var got struct {
			Message string         `json:"message"`
			Data    []types.RawRow `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Message != msgRetrieved {
			t.Errorf("message = %q", got.Message)
		}
		if len(got.Data) != 1 || got.Data[0] != rows[0] {
			t.Errorf("data = %+v", got.Data)
		}
		if repo.lastField != "ph" {
			t.Errorf("field = %q; want ph", repo.lastField)
		}
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		repo := &mockRepo{}
		rec := serve(newTestMux(repo), http.MethodGet, "/sensor/all?start=2024-01-01&end=2024-01-02", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"data":[]`) {
			t.Errorf("body = %q; want empty data list", rec.Body.String())
		}
	})

	t.Run("all ignores field", func(t *testing.T) {
		repo := &mockRepo{}
		serve(newTestMux(repo), http.MethodGet, "/sensor/all?start=2024-01-01&end=2024-01-02&field=ph", "")
		if repo.lastField != "" {
			t.Errorf("field = %q; want empty", repo.lastField)
		}
	})

	t.Run("store failure is 500", func(t *testing.T) {
		repo := &mockRepo{queryErr: fmt.Errorf("%w: boom", types.ErrQuery)}
		rec := serve(newTestMux(repo), http.MethodGet, "/sensor?start=2024-01-01&end=2024-01-01", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d; want 500", rec.Code)
		}
		if got := decode(t, rec)["message"]; got != msgRetrieveFailed {
			t.Errorf("message = %v; want %q", got, msgRetrieveFailed)
		}
	})
}

func Test_badRequestBeforeStore(t *testing.T) {
	tests := []struct {
		target  string
		message string
	}{
		{"/sensor", msgDatesRequired},
		{"/sensor?start=2024-01-01", msgDatesRequired},
		{"/sensor?end=2024-01-01", msgDatesRequired},
		{"/sensor/all", msgDatesRequired},
		{"/sensor/all?start=2024-01-01", msgDatesRequired},
		{"/sensor/csv", msgDatesRequired},
		{"/sensor/csv?end=2024-01-01", msgDatesRequired},
		{"/sensor?start=yesterday&end=2024-01-01", msgInvalidDate},
		{"/sensor/csv?start=2024-01-02&end=2024-01-01", msgInvertedRange},
		{"/sensor?start=2024-01-01&end=2024-01-01&field=moisture", msgInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			repo := &mockRepo{}
			rec := serve(newTestMux(repo), http.MethodGet, tt.target, "")

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d; want 400", rec.Code)
			}
			if got := decode(t, rec)["message"]; got != tt.message {
				t.Errorf("message = %v; want %q", got, tt.message)
			}
			if repo.queryCalls != 0 {
				t.Errorf("queryCalls = %d; want 0", repo.queryCalls)
			}
		})
	}
}

func Test_handleCSV(t *testing.T) {
	t.Run("renders merged rows", func(t *testing.T) {
		repo := &mockRepo{rows: []types.RawRow{
			{Time: "2024-01-01T10:00:00Z", Field: "nitrogen", Value: 5},
			{Time: "2024-01-01T10:00:00Z", Field: "ph", Value: 6},
			{Time: "2024-01-01T11:00:00Z", Field: "potassium", Value: 7},
		}}
		rec := serve(newTestMux(repo), http.MethodGet, "/sensor/csv?start=2024-01-01&end=2024-01-31", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != csvContentType {
			t.Errorf("Content-Type = %q", got)
		}
		wantDisp := `attachment; filename="all_sensor_data_2024-01-01_2024-01-31.csv"`
		if got := rec.Header().Get("Content-Disposition"); got != wantDisp {
			t.Errorf("Content-Disposition = %q; want %q", got, wantDisp)
		}
		want := "No,Timestamp,Nitrogen,pH,Potassium,Phosphorus\n" +
			"1,2024-01-01T10:00:00Z,5,6,,\n" +
			"2,2024-01-01T11:00:00Z,,,7,\n"
		if rec.Body.String() != want {
			t.Errorf("body = %q; want %q", rec.Body.String(), want)
		}
	})

	t.Run("store failure is a clean 500", func(t *testing.T) {
		repo := &mockRepo{queryErr: errors.New("stream reset")}
		rec := serve(newTestMux(repo), http.MethodGet, "/sensor/csv?start=2024-01-01&end=2024-01-31", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d; want 500", rec.Code)
		}
		if rec.Header().Get("Content-Disposition") != "" {
			t.Error("Content-Disposition set on failure")
		}
		if got := decode(t, rec)["message"]; got != msgCSVFailed {
			t.Errorf("message = %v; want %q", got, msgCSVFailed)
		}
	})
}

func Test_methodNotAllowed(t *testing.T) {
	rec := serve(newTestMux(&mockRepo{}), http.MethodDelete, "/sensor", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d; want 405", rec.Code)
	}
}
