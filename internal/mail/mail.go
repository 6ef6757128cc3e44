package mail

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"roombooking/internal/clock"
)

type Config struct {
	APIURL string
	APIKey string
	From   string
	// ReviewLink is a format with one %d verb for the reservation id.
	ReviewLink string
	// RatingWindow is how long the user has to rate, quoted in the body.
	RatingWindow time.Duration
}

type message struct {
	From     string `json:"from"`
	ToUserID int64  `json:"to_user_id"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Link     string `json:"link"`
}

// Client posts outbound mail to an HTTP mail relay. Sends are asynchronous;
// callers never wait on the relay.
type Client struct {
	http   *resty.Client
	cfg    Config
	logger *zap.Logger
	wg     sync.WaitGroup
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	http := resty.New().
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIURL != "" {
		http.SetBaseURL(cfg.APIURL)
	}
	if cfg.APIKey != "" {
		http.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: http, cfg: cfg, logger: logger}
}

func (c *Client) ReviewLink(reservationID int64) string {
	if strings.Contains(c.cfg.ReviewLink, "%d") {
		return fmt.Sprintf(c.cfg.ReviewLink, reservationID)
	}
	return strings.TrimRight(c.cfg.ReviewLink, "/") + fmt.Sprintf("/reservations/%d/review", reservationID)
}

// SendReviewLink invites the user to rate the room they just left.
func (c *Client) SendReviewLink(ctx context.Context, userID, reservationID int64) error {
	msg := message{
		From:     c.cfg.From,
		ToUserID: userID,
		Subject:  "How was your room?",
		Body:     fmt.Sprintf("Thanks for using the room. You have %s to leave a rating.", clock.FormatDuration(c.cfg.RatingWindow)),
		Link:     c.ReviewLink(reservationID),
	}

	if c.cfg.APIURL == "" {
		c.logger.Info("mail relay not configured, skipping review link",
			zap.Int64("user_id", userID),
			zap.Int64("reservation_id", reservationID),
			zap.String("link", msg.Link),
		)
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.post(ctx, msg); err != nil {
			c.logger.Warn("review link mail failed",
				zap.Int64("user_id", userID),
				zap.Int64("reservation_id", reservationID),
				zap.Error(err),
			)
		}
	}()
	return nil
}

func (c *Client) post(ctx context.Context, msg message) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("mail relay: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay returned %d", resp.StatusCode())
	}
	return nil
}

// Wait blocks until in-flight sends finish, used on shutdown.
func (c *Client) Wait() {
	c.wg.Wait()
}
