package voice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/visweshnarni/qptestbackend/config"
)

// Caller places one outbound voice call. Satisfied by Client; swapped for a
// fake in tests.
type Caller interface {
	Call(ctx context.Context, toPhone, scriptPath string) error
}

// Client places calls through the Twilio REST API.
type Client struct {
	accountSID  string
	authToken   string
	fromNumber  string
	callbackURL string
	countryCode string
	http        *http.Client
}

// New creates a voice client from the voice configuration.
func New(cfg *config.VoiceConfig) *Client {
	return &Client{
		accountSID:  cfg.AccountSID,
		authToken:   cfg.AuthToken,
		fromNumber:  cfg.FromNumber,
		callbackURL: strings.TrimRight(cfg.CallbackURL, "/"),
		countryCode: cfg.CountryCode,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
}

// Call asks Twilio to ring toPhone and play the TwiML served at
// callbackURL+scriptPath. The call itself is asynchronous on Twilio's side;
// a nil return only means the request was accepted.
func (c *Client) Call(ctx context.Context, toPhone, scriptPath string) error {
	if c.accountSID == "" || c.authToken == "" || c.fromNumber == "" || c.callbackURL == "" {
		return fmt.Errorf("voice: twilio configuration incomplete, call not placed")
	}

	to, err := c.normalize(toPhone)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Url", c.callbackURL+scriptPath)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Calls.json", c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("voice: build request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("voice: call to %s failed: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("voice: call to %s rejected (%d): %s", to, resp.StatusCode, string(body))
	}
	return nil
}

// normalize coerces phone numbers into E.164. Ten-digit local numbers get
// the configured country prefix.
func (c *Client) normalize(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	if p == "" {
		return "", fmt.Errorf("voice: empty phone number")
	}
	if strings.HasPrefix(p, "+") {
		return p, nil
	}
	if len(p) == 10 {
		return c.countryCode + p, nil
	}
	return "", fmt.Errorf("voice: %q is not E.164 and not a 10-digit local number", phone)
}
