package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/healthguardian/appointment-planner/internal/config"
	"github.com/healthguardian/appointment-planner/internal/core/domain"
	"github.com/healthguardian/appointment-planner/internal/core/ports/out"
)

// Промпт фиксирует контракт извлечения: набор полей и правила подстановки
// времени для 上午/下午/夜診 без явного времени.
const extractionPrompt = `提取預約單/掛號證資訊 (繁體中文 JSON)。

欄位：
- title: 醫院或科別名稱
- date: 日期 (YYYY-MM-DD)
- time: 時間 (HH:MM，若無具體時間則估算，上午診09:00，下午診14:00，夜診19:00)
- location: 醫院地址或診間位置
- doctor: 醫師姓名
- appointmentNumber: 診號/號碼
- notes: 注意事項

重點：請精準識別日期與時間。`

// GenAIAdapter вызывает OpenAI-совместимый chat-completions API с картинкой.
// Клиент создаётся явно и передаётся через конструктор - никаких ленивых
// синглтонов в масштабе пакета.
type GenAIAdapter struct {
	client *openai.Client
	model  string
	logger out.LoggerPort
}

func NewGenAIAdapter(cfg *config.Config, logger out.LoggerPort) *GenAIAdapter {
	clientConfig := openai.DefaultConfig(cfg.GenAI.APIKey)
	if cfg.GenAI.BaseURL != "" {
		clientConfig.BaseURL = cfg.GenAI.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.GenAITimeout()}

	return &GenAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.GenAI.Model,
		logger: logger,
	}
}

func (a *GenAIAdapter) ExtractAppointment(ctx context.Context, image []byte, mimeType string) (domain.AppointmentDetails, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	a.logger.Info("genai.extract.started", out.LogFields{
		"model":     a.model,
		"mimeType":  mimeType,
		"imageSize": len(image),
	})

	dataURI := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURI},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extractionPrompt,
					},
				},
			},
		},
	})
	if err != nil {
		a.logger.Error("genai.extract.request_failed", out.LogFields{
			"error": err.Error(),
		})
		return domain.AppointmentDetails{}, err
	}

	if len(resp.Choices) == 0 {
		a.logger.Error("genai.extract.empty_response", out.LogFields{})
		return domain.AppointmentDetails{}, fmt.Errorf("model returned no choices")
	}

	details, err := decodeDetails(resp.Choices[0].Message.Content)
	if err != nil {
		a.logger.Error("genai.extract.decode_failed", out.LogFields{
			"error": err.Error(),
		})
		return domain.AppointmentDetails{}, err
	}

	a.logger.Debug("genai.extract.success", out.LogFields{
		"title": details.Title,
		"date":  details.Date,
	})

	return details, nil
}

// extractJSON вырезает объект между первой { и последней } - модели любят
// оборачивать ответ в код-блоки и пояснения.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}

	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// decodeDetails - валидирующий разбор на границе сервиса: отсутствующие или
// нестроковые поля превращаются в пустые строки, дальше ядро видит только
// полностью типизированную структуру.
func decodeDetails(text string) (domain.AppointmentDetails, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return domain.AppointmentDetails{}, fmt.Errorf("model response is not valid JSON: %v", err)
	}

	return domain.AppointmentDetails{
		Title:             fieldString(raw, "title"),
		Date:              fieldString(raw, "date"),
		Time:              fieldString(raw, "time"),
		Location:          fieldString(raw, "location"),
		Doctor:            fieldString(raw, "doctor"),
		Notes:             fieldString(raw, "notes"),
		AppointmentNumber: fieldString(raw, "appointmentNumber"),
	}, nil
}

func fieldString(raw map[string]interface{}, key string) string {
	switch v := raw[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// Номер талона модель иногда возвращает числом
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
