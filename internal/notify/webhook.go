// Package notify posts the run summary to an automation webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"arstatements/internal/run"
)

// ErrNon2xx is returned when the webhook answers with a non-2xx status.
var ErrNon2xx = errors.New("webhook: non-2xx response")

// WebhookNotifier posts elapsed time and clients served after each run.
type WebhookNotifier struct {
	url    string
	client *http.Client
	// WeekdaysOnly skips Saturday and Sunday runs.
	WeekdaysOnly bool
}

type webhookPayload struct {
	Date      string `json:"FECHA"`
	Elapsed   string `json:"TIEMPO_EJECUCION"`
	Clients   int    `json:"CLIENTES_ATENDIDOS"`
	RunID     string `json:"RUN_ID,omitempty"`
	Documents int    `json:"DOCUMENTOS_GENERADOS"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:          url,
		client:       &http.Client{Timeout: 10 * time.Second},
		WeekdaysOnly: true,
	}
}

// Report implements run.Reporter.
func (n *WebhookNotifier) Report(ctx context.Context, stats run.Stats) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	if n.WeekdaysOnly {
		if wd := stats.StartedAt.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return nil
		}
	}

	body, err := json.Marshal(webhookPayload{
		Date:      stats.StartedAt.Format("2006-01-02 15:04:05"),
		Elapsed:   FormatElapsed(stats.Duration),
		Clients:   stats.ClientsProcessed,
		RunID:     stats.RunID,
		Documents: stats.DocumentsGenerated,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook notifier: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrNon2xx, resp.StatusCode)
	}
	return nil
}

// FormatElapsed renders a duration as "<m> min <s.ss> sec".
func FormatElapsed(d time.Duration) string {
	minutes := int(d / time.Minute)
	seconds := (d - time.Duration(minutes)*time.Minute).Seconds()
	return fmt.Sprintf("%d min %.2f sec", minutes, seconds)
}
