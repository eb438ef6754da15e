package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wedfulapp/wedful-notify/internal/models"
	"github.com/wedfulapp/wedful-notify/pkg/logger"
	"github.com/wedfulapp/wedful-notify/pkg/metrics"
)

const defaultSendTimeout = 10 * time.Second

// Config holds the VAPID credentials for Web Push delivery. Empty keys put
// the transport into a documented no-op mode: subscriptions are still
// stored but Send delivers nothing and reports zero attempts.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// Subscriber is the contact address reported to push services,
	// typically a mailto: URL.
	Subscriber string
	// SendTimeout bounds delivery to a single subscription.
	SendTimeout time.Duration
}

// SubscriptionInput is the client-supplied subscription payload.
type SubscriptionInput struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

// Payload is the wire format delivered to the client service worker. The
// shape is part of the client contract; do not rename fields.
type Payload struct {
	Title string      `json:"title"`
	Body  string      `json:"body"`
	Icon  string      `json:"icon"`
	Badge string      `json:"badge"`
	Tag   string      `json:"tag"`
	Data  PayloadData `json:"data"`
}

// PayloadData carries the navigation target for a notification click.
type PayloadData struct {
	URL string `json:"url"`
}

// NewPayload builds a Payload with the standard app icons filled in.
func NewPayload(title, body, tag, url string) Payload {
	if url == "" {
		url = "/"
	}
	return Payload{
		Title: title,
		Body:  body,
		Icon:  "/icons/icon-192x192.png",
		Badge: "/icons/badge-72x72.png",
		Tag:   tag,
		Data:  PayloadData{URL: url},
	}
}

// Result aggregates the outcome of one fan-out.
type Result struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// sendFunc delivers one encoded payload to one subscription and returns
// the upstream HTTP status code.
type sendFunc func(ctx context.Context, message []byte, sub *webpush.Subscription) (int, error)

// Service manages push subscription rows and performs best-effort
// delivery. One subscription's failure never aborts the rest of a
// fan-out; endpoints reported gone by the push service are pruned.
type Service struct {
	db   *gorm.DB
	cfg  Config
	send sendFunc
	log  *zap.Logger
}

// Option customises the Service.
type Option func(*Service)

// WithSender replaces the Web Push delivery function, primarily for tests.
func WithSender(fn func(ctx context.Context, message []byte, sub *webpush.Subscription) (int, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.send = fn
		}
	}
}

// NewService constructs a push Service.
func NewService(db *gorm.DB, cfg Config, opts ...Option) (*Service, error) {
	if db == nil {
		return nil, errors.New("push service: db is required")
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}

	svc := &Service{
		db:  db,
		cfg: cfg,
		log: logger.WithModule("push"),
	}
	svc.send = svc.deliver

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Configured reports whether VAPID credentials are present.
func (s *Service) Configured() bool {
	return s.cfg.VAPIDPublicKey != "" && s.cfg.VAPIDPrivateKey != ""
}

// PublicKey returns the VAPID public key clients need to subscribe, or an
// empty string when push is not configured.
func (s *Service) PublicKey() string {
	return s.cfg.VAPIDPublicKey
}

// Subscribe registers or refreshes a subscription. The upsert is keyed by
// (user, endpoint) so the same browser re-subscribing updates its keys in
// place.
func (s *Service) Subscribe(ctx context.Context, userID string, input SubscriptionInput, userAgent string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("push service: user id is required")
	}
	endpoint := strings.TrimSpace(input.Endpoint)
	if endpoint == "" {
		return errors.New("push service: endpoint is required")
	}

	sub := models.PushSubscription{
		UserID:    userID,
		Endpoint:  endpoint,
		P256dh:    input.Keys.P256dh,
		Auth:      input.Keys.Auth,
		UserAgent: userAgent,
	}

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_agent", "updated_at"}),
		}).
		Create(&sub).Error; err != nil {
		return fmt.Errorf("push service: subscribe: %w", err)
	}

	return nil
}

// Unsubscribe removes the subscription row. Removing an unknown endpoint
// is not an error.
func (s *Service) Unsubscribe(ctx context.Context, userID, endpoint string) error {
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{}).Error; err != nil {
		return fmt.Errorf("push service: unsubscribe: %w", err)
	}
	return nil
}

// Send fans the payload out to every subscription the user holds.
// Deliveries run concurrently with a bounded per-subscription timeout.
// Endpoints answering 404/410 are deleted as a side effect; transient
// failures only increment the failed count.
func (s *Service) Send(ctx context.Context, userID string, payload Payload) (Result, error) {
	if !s.Configured() {
		return Result{}, nil
	}

	var subs []models.PushSubscription
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&subs).Error; err != nil {
		return Result{}, fmt.Errorf("push service: load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return Result{}, nil
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("push service: marshal payload: %w", err)
	}

	var (
		mu     sync.Mutex
		result Result
		gone   []string
		wg     sync.WaitGroup
	)

	for _, sub := range subs {
		wg.Add(1)
		go func(sub models.PushSubscription) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
			defer cancel()

			status, sendErr := s.send(sendCtx, message, &webpush.Subscription{
				Endpoint: sub.Endpoint,
				Keys: webpush.Keys{
					P256dh: sub.P256dh,
					Auth:   sub.Auth,
				},
			})

			mu.Lock()
			defer mu.Unlock()

			if sendErr == nil && status < http.StatusBadRequest {
				result.Success++
				metrics.PushDeliveries.WithLabelValues("success").Inc()
				return
			}

			result.Failed++
			if status == http.StatusNotFound || status == http.StatusGone {
				gone = append(gone, sub.ID)
				metrics.PushDeliveries.WithLabelValues("pruned").Inc()
				s.log.Info("pruning dead push subscription",
					zap.String("user_id", sub.UserID),
					zap.Int("status", status),
				)
				return
			}

			metrics.PushDeliveries.WithLabelValues("failed").Inc()
			s.log.Warn("push delivery failed",
				zap.String("user_id", sub.UserID),
				zap.Int("status", status),
				zap.Error(sendErr),
			)
		}(sub)
	}

	wg.Wait()

	if len(gone) > 0 {
		if err := s.db.WithContext(ctx).
			Where("id IN ?", gone).
			Delete(&models.PushSubscription{}).Error; err != nil {
			s.log.Warn("failed to prune dead subscriptions", zap.Error(err))
		}
	}

	return result, nil
}

// deliver is the production sender backed by the Web Push protocol.
func (s *Service) deliver(ctx context.Context, message []byte, sub *webpush.Subscription) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, message, sub, &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             60,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("push service: endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
