package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Hussain0327/echo-analytics-platform/internal/llm"
)

const salesCSV = `date,amount,status,customer_id,spend,conversions,leads
2024-01-05,100,paid,c1,50,2,10
2024-01-20,200,paid,c2,50,2,10
2024-02-10,150,paid,c1,60,3,12
2024-03-15,300,completed,c3,40,1,8
2024-03-20,50,refunded,c4,0,0,5
`

func newTestServer(t *testing.T, llmURL string) *Server {
	t.Helper()
	client := llm.NewClient(llm.Config{APIKey: "test-key", BaseURL: llmURL, Model: "test-model"})
	return NewServer(Config{Conversations: llm.NewConversations(client)})
}

func stubLLM(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": reply}},
			},
			"usage": map[string]any{"total_tokens": 12},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func csvUpload(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", "sales.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(csv)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func doRequest(t *testing.T, s *Server, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "http://unused")
	rec := doRequest(t, s, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeBody(t, rec)["status"]; got != "ok" {
		t.Errorf("status field = %v, want ok", got)
	}
}

func TestAvailableMetrics(t *testing.T) {
	s := newTestServer(t, "http://unused")
	rec := doRequest(t, s, http.MethodGet, "/api/v1/metrics/available", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cats := decodeBody(t, rec)
	revenue, ok := cats["revenue"].([]any)
	if !ok || len(revenue) != 7 {
		t.Errorf("revenue metrics = %v, want 7 entries", cats["revenue"])
	}
}

func TestCalculate(t *testing.T) {
	s := newTestServer(t, "http://unused")

	t.Run("SingleMetric", func(t *testing.T) {
		body, ct := csvUpload(t, salesCSV)
		rec := doRequest(t, s, http.MethodPost, "/api/v1/metrics/calculate?metrics=total_revenue", body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody(t, rec)
		results, ok := resp["results"].([]any)
		if !ok || len(results) != 1 {
			t.Fatalf("results = %v, want one entry", resp["results"])
		}
		first := results[0].(map[string]any)
		if first["metric_name"] != "total_revenue" {
			t.Errorf("metric_name = %v", first["metric_name"])
		}
		if got := first["value"].(float64); got != 750 {
			t.Errorf("value = %v, want 750", got)
		}
	})

	t.Run("UnknownMetricReportsError", func(t *testing.T) {
		body, ct := csvUpload(t, salesCSV)
		rec := doRequest(t, s, http.MethodPost, "/api/v1/metrics/calculate?metrics=bogus", body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		results := decodeBody(t, rec)["results"].([]any)
		entry := results[0].(map[string]any)
		if entry["error"] == nil {
			t.Errorf("expected per-metric error, got %v", entry)
		}
	})

	t.Run("CategoryAll", func(t *testing.T) {
		body, ct := csvUpload(t, salesCSV)
		rec := doRequest(t, s, http.MethodPost, "/api/v1/metrics/calculate?metrics=all&category=revenue", body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		results := decodeBody(t, rec)["results"].([]any)
		if len(results) == 0 {
			t.Fatal("expected revenue results")
		}
		for _, r := range results {
			name := r.(map[string]any)["metric_name"].(string)
			if name == "cac" || name == "roas" {
				t.Errorf("non-revenue metric %s in category=revenue response", name)
			}
		}
	})

	t.Run("NonCSVRejected", func(t *testing.T) {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		fw, _ := mw.CreateFormFile("file", "sales.txt")
		fw.Write([]byte("not a csv"))
		mw.Close()
		rec := doRequest(t, s, http.MethodPost, "/api/v1/metrics/calculate", body, mw.FormDataContentType())
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/v1/metrics/calculate", nil, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestTrend(t *testing.T) {
	s := newTestServer(t, "http://unused")
	body, ct := csvUpload(t, salesCSV)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/metrics/trend?value_column=amount&period=month", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	trend, ok := resp["trend"].(map[string]any)
	if !ok {
		t.Fatalf("trend missing in %v", resp)
	}
	if trend["trend"] == nil {
		t.Errorf("trend classification missing: %v", trend)
	}
	if resp["date_range"] == nil {
		t.Errorf("date_range missing: %v", resp)
	}
}

func TestTrendMissingValueColumn(t *testing.T) {
	s := newTestServer(t, "http://unused")
	body, ct := csvUpload(t, salesCSV)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/metrics/trend", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGrowth(t *testing.T) {
	s := newTestServer(t, "http://unused")
	body, ct := csvUpload(t, salesCSV)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/metrics/growth?value_column=amount", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	growth, ok := resp["growth_data"].([]any)
	if !ok {
		t.Fatalf("growth_data missing in %v", resp)
	}
	// Jan 300 -> Feb 150 -> Mar 350: one point per month bucket.
	if len(growth) != 3 {
		t.Errorf("growth points = %d, want 3", len(growth))
	}
}

func TestChatFlow(t *testing.T) {
	stub := stubLLM(t, "Revenue looks healthy.")
	s := newTestServer(t, stub.URL)

	payload, _ := json.Marshal(map[string]string{"message": "How is revenue?"})
	rec := doRequest(t, s, http.MethodPost, "/api/v1/chat", bytes.NewBuffer(payload), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["response"] != "Revenue looks healthy." {
		t.Errorf("response = %v", resp["response"])
	}
	sessionID, _ := resp["session_id"].(string)
	if sessionID == "" {
		t.Fatal("session_id missing")
	}

	t.Run("History", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/chat/history/"+sessionID, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		messages := decodeBody(t, rec)["messages"].([]any)
		if len(messages) != 2 {
			t.Errorf("messages = %d, want 2", len(messages))
		}
	})

	t.Run("Sessions", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/chat/sessions", nil, "")
		resp := decodeBody(t, rec)
		if got := resp["total"].(float64); got != 1 {
			t.Errorf("total = %v, want 1", got)
		}
	})

	t.Run("ClearSession", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodDelete, "/api/v1/chat/session/"+sessionID, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		rec = doRequest(t, s, http.MethodGet, "/api/v1/chat/history/"+sessionID, nil, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("history after clear = %d, want 404", rec.Code)
		}
	})
}

func TestChatMissingMessage(t *testing.T) {
	s := newTestServer(t, "http://unused")
	rec := doRequest(t, s, http.MethodPost, "/api/v1/chat", bytes.NewBufferString(`{}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLoadData(t *testing.T) {
	stub := stubLLM(t, "Thanks for the data.")
	s := newTestServer(t, stub.URL)

	body, ct := csvUpload(t, salesCSV)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/chat/load-data?session_id=sess-1", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["session_id"] != "sess-1" {
		t.Errorf("session_id = %v", resp["session_id"])
	}
	if got := resp["rows"].(float64); got != 5 {
		t.Errorf("rows = %v, want 5", got)
	}
	if got := resp["metrics_calculated"].(float64); got == 0 {
		t.Error("expected some metrics calculated")
	}
	msg, _ := resp["message"].(string)
	if !strings.Contains(msg, "Data loaded successfully") {
		t.Errorf("message = %q", msg)
	}

	t.Run("SessionHasContext", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/chat/sessions", nil, "")
		sessions := decodeBody(t, rec)["sessions"].([]any)
		if len(sessions) != 1 {
			t.Fatalf("sessions = %d, want 1", len(sessions))
		}
		info := sessions[0].(map[string]any)
		if info["has_data"] != true || info["has_metrics"] != true {
			t.Errorf("session info = %v, want has_data and has_metrics", info)
		}
	})
}

func TestLoadDataRequiresSession(t *testing.T) {
	s := newTestServer(t, "http://unused")
	body, ct := csvUpload(t, salesCSV)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/chat/load-data", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestClearMissingSession(t *testing.T) {
	s := newTestServer(t, "http://unused")
	rec := doRequest(t, s, http.MethodDelete, "/api/v1/chat/session/nope", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
