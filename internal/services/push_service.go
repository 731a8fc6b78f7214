package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
)

const fcmScope = "https://www.googleapis.com/auth/firebase.messaging"

// PushService delivers notifications through the FCM HTTP v1 API using a
// service-account token source. It implements PushGateway.
type PushService struct {
	client   *http.Client
	endpoint string
}

// NewPushService reads FCM_PROJECT_ID and FCM_CREDENTIALS_FILE from the
// environment and builds an authorized client.
func NewPushService(ctx context.Context) (*PushService, error) {
	projectID := os.Getenv("FCM_PROJECT_ID")
	if projectID == "" {
		return nil, fmt.Errorf("FCM_PROJECT_ID is not set")
	}
	credsFile := os.Getenv("FCM_CREDENTIALS_FILE")
	if credsFile == "" {
		return nil, fmt.Errorf("FCM_CREDENTIALS_FILE is not set")
	}
	creds, err := os.ReadFile(credsFile)
	if err != nil {
		return nil, fmt.Errorf("reading FCM credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(creds, fcmScope)
	if err != nil {
		return nil, fmt.Errorf("parsing FCM credentials: %w", err)
	}

	client := conf.Client(ctx)
	client.Timeout = 10 * time.Second

	return &PushService{
		client:   client,
		endpoint: fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", projectID),
	}, nil
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmSendRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Send posts one message to FCM. A dead device token is reported as
// ErrUnregisteredToken so the caller can invalidate it.
func (s *PushService) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	reqBody, err := json.Marshal(fcmSendRequest{
		Message: fcmMessage{
			Token:        token,
			Notification: fcmNotification{Title: title, Body: body},
			Data:         data,
		},
	})
	if err != nil {
		return fmt.Errorf("encoding push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	var fcmErr fcmErrorResponse
	_ = json.Unmarshal(respBody, &fcmErr)

	// UNREGISTERED arrives as 404/NOT_FOUND; an INVALID_ARGUMENT on the
	// token field means the stored token was never valid.
	if resp.StatusCode == http.StatusNotFound ||
		strings.Contains(string(respBody), "UNREGISTERED") ||
		(fcmErr.Error.Status == "INVALID_ARGUMENT" && strings.Contains(fcmErr.Error.Message, "token")) {
		return fmt.Errorf("%w: %s", ErrUnregisteredToken, fcmErr.Error.Message)
	}

	return fmt.Errorf("push dispatch returned %d: %s", resp.StatusCode, fcmErr.Error.Message)
}
