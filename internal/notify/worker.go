package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"geo-reminders/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DeliveryWorker drains the pending-notification queue and POSTs each
// payload to the notification center.
type DeliveryWorker struct {
	queue     *Queue
	logger    *logrus.Logger
	notifyURL string
	client    http.Client
}

func NewDeliveryWorker(queue *Queue, logger *logrus.Logger, notifyURL string) *DeliveryWorker {
	return &DeliveryWorker{
		queue:     queue,
		logger:    logger,
		notifyURL: notifyURL,
	}
}

func (w *DeliveryWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			res, err := w.queue.Pop(ctx, 5*time.Second)
			if err == redis.Nil {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.WithError(err).Error("BLPop error")
				continue
			}

			var n model.Notification
			if err := json.Unmarshal([]byte(res), &n); err != nil {
				w.logger.WithError(err).Error("unmarshal notification error")
				continue
			}

			if err := w.deliver(ctx, res); err != nil {
				w.logger.WithError(err).
					WithField("dispatch_id", n.DispatchID).
					Error("problem while delivering notification")
				continue
			}
		}
	}
}

func (w *DeliveryWorker) deliver(ctx context.Context, payload string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.notifyURL+"/notify", bytes.NewReader([]byte(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
