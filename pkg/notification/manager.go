package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nikoksr/notify"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"f1dashboard/pkg/datasource"
	"f1dashboard/pkg/livemap"
)

// podiumSize is how many cars a finish notification lists.
const podiumSize = 3

// Webhook is a notify service posting every notification as JSON to a set
// of receiver URLs.
type Webhook struct {
	client    *http.Client
	receivers []string
}

type webhookBody struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func NewWebhook(client *http.Client, urls ...string) *Webhook {
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{client: client, receivers: urls}
}

func (w *Webhook) Send(ctx context.Context, subject, message string) error {
	body, err := json.Marshal(webhookBody{Subject: subject, Message: message})
	if err != nil {
		return err
	}
	for _, url := range w.receivers {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return errors.Wrapf(err, "webhook %s", url)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := w.client.Do(req)
		if err != nil {
			return errors.Wrapf(err, "webhook %s", url)
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			return errors.Errorf("webhook %s: %s", url, resp.Status)
		}
	}
	return nil
}

// Manager tells the configured services about replay events.
type Manager struct {
	notifier *notify.Notify
	logger   *zap.Logger
}

func NewManager(logger *zap.Logger, services ...notify.Notifier) *Manager {
	return &Manager{
		notifier: notify.NewWithServices(services...),
		logger:   logger,
	}
}

// RaceFinished sends the podium of a finished replay. Failures are logged
// and returned; they never stop the replay.
func (m *Manager) RaceFinished(ctx context.Context, race datasource.Race, f livemap.Frame) error {
	subject := fmt.Sprintf("Replay finished: %s", race.Name)
	message := Podium(f)
	m.logger.Info("sending notification", zap.String("subject", subject))
	if err := m.notifier.Send(ctx, subject, message); err != nil {
		m.logger.Warn("notification failed", zap.Error(err))
		return errors.Wrap(err, "notifying race finish")
	}
	return nil
}

// Podium lists the leading cars of a frame, one per line.
func Podium(f livemap.Frame) string {
	var sb strings.Builder
	for i, c := range f.Cars {
		if i == podiumSize {
			break
		}
		fmt.Fprintf(&sb, "%d. %s (%s)\n", c.Position, c.Code, c.Team)
	}
	if sb.Len() == 0 {
		return "No classified cars"
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
