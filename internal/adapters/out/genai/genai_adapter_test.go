package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthguardian/appointment-planner/internal/config"
	"github.com/healthguardian/appointment-planner/internal/core/ports/out"
)

type nopLogger struct{}

func (nopLogger) Debug(string, out.LogFields) {}
func (nopLogger) Info(string, out.LogFields)  {}
func (nopLogger) Warn(string, out.LogFields)  {}
func (nopLogger) Error(string, out.LogFields) {}

func (l nopLogger) WithFields(out.LogFields) out.LoggerPort { return l }
func (l nopLogger) WithModule(string) out.LoggerPort        { return l }

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		expected string
	}{
		{"bare object", `{"title":"x"}`, `{"title":"x"}`},
		{"fenced block", "```json\n{\"title\":\"x\"}\n```", `{"title":"x"}`},
		{"prose around object", "好的，以下是結果：{\"title\":\"x\"}。", `{"title":"x"}`},
		{"no braces strips fences", "```json\nnull\n```", "null"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractJSON(tc.text))
		})
	}
}

func TestDecodeDetails_FullObject(t *testing.T) {
	details, err := decodeDetails(`{
		"title": " 台大醫院 心臟內科 ",
		"date": "2024-12-25",
		"time": "14:00",
		"location": "台北市中正區",
		"doctor": "王大明",
		"notes": "攜帶健保卡",
		"appointmentNumber": "42"
	}`)
	require.NoError(t, err)

	assert.Equal(t, "台大醫院 心臟內科", details.Title)
	assert.Equal(t, "2024-12-25", details.Date)
	assert.Equal(t, "14:00", details.Time)
	assert.Equal(t, "王大明", details.Doctor)
	assert.Equal(t, "42", details.AppointmentNumber)
}

// Модель иногда отдаёт номер талона числом, а пропущенные поля - null
func TestDecodeDetails_CoercionAndDefaults(t *testing.T) {
	details, err := decodeDetails(`{"title":"內科","appointmentNumber":42,"doctor":null}`)
	require.NoError(t, err)

	assert.Equal(t, "內科", details.Title)
	assert.Equal(t, "42", details.AppointmentNumber)
	assert.Equal(t, "", details.Doctor)
	assert.Equal(t, "", details.Date)
}

func TestDecodeDetails_InvalidJSON(t *testing.T) {
	_, err := decodeDetails("抱歉，我無法辨識這張圖片")
	require.Error(t, err)
}

func TestExtractAppointment_EndToEnd(t *testing.T) {
	var gotRequest map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": ` + "\"```json\\n{\\\"title\\\":\\\"台大醫院\\\",\\\"date\\\":\\\"2024-12-25\\\",\\\"time\\\":\\\"14:00\\\"}\\n```\"" + `
				},
				"finish_reason": "stop"
			}]
		}`))
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.GenAI.BaseURL = server.URL + "/v1"
	cfg.GenAI.APIKey = "test-key"
	cfg.GenAI.Model = "gpt-4o-mini"
	cfg.GenAI.TimeoutSeconds = 5

	adapter := NewGenAIAdapter(cfg, nopLogger{})

	details, err := adapter.ExtractAppointment(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "台大醫院", details.Title)
	assert.Equal(t, "2024-12-25", details.Date)
	assert.Equal(t, "14:00", details.Time)

	// Картинка уходит data-URI внутри multi-content сообщения
	assert.Equal(t, "gpt-4o-mini", gotRequest["model"])
	messages := gotRequest["messages"].([]interface{})
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]interface{})["content"].([]interface{})
	require.Len(t, parts, 2)
	imagePart := parts[0].(map[string]interface{})
	assert.Equal(t, "image_url", imagePart["type"])
	imageURL := imagePart["image_url"].(map[string]interface{})["url"].(string)
	assert.Contains(t, imageURL, "data:image/jpeg;base64,")
}

func TestExtractAppointment_DefaultMimeType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		parts := body["messages"].([]interface{})[0].(map[string]interface{})["content"].([]interface{})
		imageURL := parts[0].(map[string]interface{})["image_url"].(map[string]interface{})["url"].(string)
		assert.Contains(t, imageURL, "data:image/jpeg;base64,")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"title\":\"x\"}"}}]}`))
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.GenAI.BaseURL = server.URL + "/v1"
	cfg.GenAI.APIKey = "test-key"
	cfg.GenAI.Model = "gpt-4o-mini"
	cfg.GenAI.TimeoutSeconds = 5

	adapter := NewGenAIAdapter(cfg, nopLogger{})

	_, err := adapter.ExtractAppointment(context.Background(), []byte{0x01}, "")
	require.NoError(t, err)
}
