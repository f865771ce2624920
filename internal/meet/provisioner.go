// Package meet ходит во внешний сервис календарных встреч.
// Провижининг best-effort: любая ошибка здесь не должна ломать
// создание занятия у вызывающей стороны.
package meet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fitlearn/classhub/internal/model"
)

// Meeting созданная встреча у внешнего провайдера
type Meeting struct {
	MeetLink string `json:"meet_link"`
	EventID  string `json:"event_id"`
}

// Provisioner создаёт видеовстречу для занятия
type Provisioner interface {
	CreateMeeting(ctx context.Context, trainer, student *model.User, content *model.ClassContent, date, timeOfDay string) (*Meeting, error)
}

// Client HTTP-клиент моста к календарному провайдеру
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type createEventRequest struct {
	RequestID       string   `json:"request_id"`
	Summary         string   `json:"summary"`
	Description     string   `json:"description"`
	Start           string   `json:"start"`
	DurationMinutes int      `json:"duration_minutes"`
	Attendees       []string `json:"attendees"`
}

// CreateMeeting создаёт событие с видеовстречей. Вызывается не более
// одного раза на попытку аллокации, без повторов.
func (c *Client) CreateMeeting(ctx context.Context, trainer, student *model.User, content *model.ClassContent, date, timeOfDay string) (*Meeting, error) {
	duration := content.Duration
	if duration <= 0 {
		duration = model.DefaultClassDuration
	}

	payload := createEventRequest{
		RequestID:       "meet-" + uuid.NewString(),
		Summary:         fmt.Sprintf("%s - %s", content.Title, student.Name),
		Description:     fmt.Sprintf("Training class with %s by %s", student.Name, trainer.Name),
		Start:           date + "T" + timeOfDay,
		DurationMinutes: duration,
		Attendees:       []string{trainer.Email, student.Email},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal meeting request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build meeting request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call meeting provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("meeting provider returned %d: %s", resp.StatusCode, raw)
	}

	var meeting Meeting
	if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
		return nil, fmt.Errorf("decode meeting response: %w", err)
	}

	return &meeting, nil
}
