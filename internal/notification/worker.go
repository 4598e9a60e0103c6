package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"cabin-booking-backend/internal/booking"
	"cabin-booking-backend/internal/model"
)

// Sender defines the interface for delivering a single push message. A real
// email or SMS provider can stand in behind the same seam.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender delivers over the Web Push protocol.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool delivers booking confirmations asynchronously. It implements
// booking.Notifier; delivery problems never reach the booking transaction.
type WorkerPool struct {
	size    int
	jobs    chan booking.ConfirmationJob
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size, queueSize int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan booking.ConfirmationJob, queueSize),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// Dispatch queues a confirmation without blocking. It returns false when the
// queue is full; the caller surfaces that as a warning, not a failure.
func (wp *WorkerPool) Dispatch(job booking.ConfirmationJob) bool {
	select {
	case wp.jobs <- job:
		return true
	default:
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan booking.ConfirmationJob {
	return wp.jobs
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("confirmation worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.sendConfirmation(ctx, job)
		case <-ctx.Done():
			log.Printf("confirmation worker %d shutting down", id)
			return
		}
	}
}

// confirmationPayload is the JSON body pushed to the client's browser.
type confirmationPayload struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	ReservationID int64  `json:"reservationId"`
	CabinID       int64  `json:"cabinId"`
}

// sendConfirmation fetches the booking client's subscriptions and pushes the
// confirmation to each of them.
func (wp *WorkerPool) sendConfirmation(ctx context.Context, job booking.ConfirmationJob) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("client_id = ?", job.ClientID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for client %d: %v", job.ClientID, err)
		return
	}

	if len(subscriptions) == 0 {
		log.Printf("reservation %d confirmed; client %d has no push subscriptions", job.ReservationID, job.ClientID)
		return
	}

	var cabin model.Cabin
	cabinLabel := fmt.Sprintf("#%d", job.CabinID)
	if err := wp.db.WithContext(ctx).
		Select("type").
		First(&cabin, job.CabinID).Error; err != nil {
		log.Printf("Error fetching cabin %d: %v", job.CabinID, err)
	} else if cabin.Type != "" {
		cabinLabel = fmt.Sprintf("%s cabin #%d", cabin.Type, job.CabinID)
	}

	payload, err := json.Marshal(confirmationPayload{
		Title:         "Reservation confirmed",
		Body:          fmt.Sprintf("Your booking of %s for %s is confirmed.", cabinLabel, job.Range),
		ReservationID: job.ReservationID,
		CabinID:       job.CabinID,
	})
	if err != nil {
		log.Printf("Error marshalling confirmation payload: %v", err)
		return
	}

	log.Printf("Sending %d confirmations for reservation %d", len(subscriptions), job.ReservationID)
	for _, sub := range subscriptions {
		wp.push(ctx, sub, payload)
	}
}

// push sends a single web push message.
func (wp *WorkerPool) push(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending confirmation to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
