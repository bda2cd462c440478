package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"geo-reminders/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NotificationQueue is the pending-notification handoff the dispatcher
// writes to.
type NotificationQueue interface {
	Push(ctx context.Context, payload []byte) error
}

// Dispatcher delivers immediate local notifications. Initialize establishes
// the permission state once at process start; when permission is denied,
// Dispatch becomes a logged no-op and the rest of the app keeps working.
type Dispatcher struct {
	queue     NotificationQueue
	logger    *logrus.Logger
	notifyURL string
	client    *http.Client
	granted   atomic.Bool
}

func NewDispatcher(queue NotificationQueue, notifyURL string, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		logger:    logger,
		notifyURL: notifyURL,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

type permissionResponse struct {
	Granted bool `json:"granted"`
}

// Initialize requests notification permission from the notification
// center. Returns model.ErrPermissionDenied when declined; callers must
// treat that as non-fatal.
func (d *Dispatcher) Initialize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.notifyURL+"/permission", nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request notification permission: %w", err)
	}
	defer resp.Body.Close()

	var body permissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode permission response: %w", err)
	}

	if !body.Granted {
		return model.ErrPermissionDenied
	}

	d.granted.Store(true)
	return nil
}

// Dispatch fires an immediate notification and returns its dispatch id.
// With permission denied it is a no-op returning an empty id.
func (d *Dispatcher) Dispatch(ctx context.Context, title, body string, data map[string]string) (string, error) {
	if !d.granted.Load() {
		d.logger.WithField("title", title).Debug("notification permission not granted, dropping dispatch")
		return "", nil
	}

	n := model.Notification{
		DispatchID: uuid.NewString(),
		Title:      title,
		Body:       body,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return "", &model.DispatchError{Err: err}
	}
	if err := d.queue.Push(ctx, payload); err != nil {
		return "", &model.DispatchError{Err: err}
	}
	return n.DispatchID, nil
}
