package toss

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/config"
	"github.com/wekeepgrowing/paygate/internal/domain/provider"
)

const (
	tossAPIBaseURL = "https://api.tosspayments.com"
	tossAPIVersion = "v1"

	// SignatureHeader carries the webhook HMAC.
	SignatureHeader = "X-Toss-Signature"

	// Currency is the only currency Toss settles in.
	Currency = "KRW"

	defaultTimeout = 10 * time.Second
	// Billing charges can take up to 60 seconds
	billingTimeout = 60 * time.Second

	// BreakerTripThreshold is how many consecutive failures open the breaker.
	BreakerTripThreshold = 5
	breakerOpenTimeout   = 30 * time.Second
)

// TossProvider implements provider.PaymentProvider for Toss Payments.
type TossProvider struct {
	secretKey     string
	clientKey     string
	webhookSecret string
	baseURL       string

	client        *http.Client
	billingClient *http.Client
	breaker       *gobreaker.CircuitBreaker
	logger        *zap.Logger
}

var _ provider.PaymentProvider = (*TossProvider)(nil)

type Option func(*TossProvider)

func WithBaseURL(url string) Option {
	return func(t *TossProvider) {
		if url != "" {
			t.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient replaces both the default and billing HTTP clients.
func WithHTTPClient(client *http.Client) Option {
	return func(t *TossProvider) {
		t.client = client
		t.billingClient = client
	}
}

// WithBreaker shares breaker state across adapter instances. The registry
// builds a fresh adapter per lookup, so callers that want failures to add up
// must pass one breaker to every instance.
func WithBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(t *TossProvider) {
		t.breaker = cb
	}
}

// NewBreaker trips after consecutive transport failures or 5xx answers.
func NewBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "toss",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= BreakerTripThreshold
		},
		// 4xx answers are the caller's problem and must not open the breaker.
		IsSuccessful: func(err error) bool {
			var pe *provider.ProviderError
			if errors.As(err, &pe) {
				return !pe.Temporary
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Toss circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// NewTossProvider never fails; a missing secret key is logged and Toss
// rejects the calls.
func NewTossProvider(cfg config.TossConfig, logger *zap.Logger, opts ...Option) *TossProvider {
	logger = logger.With(zap.String("provider", string(provider.ProviderTypeToss)))
	if cfg.SecretKey == "" {
		logger.Warn("Toss secret key not configured")
	}

	t := &TossProvider{
		secretKey:     cfg.SecretKey,
		clientKey:     cfg.ClientKey,
		webhookSecret: cfg.WebhookSecret,
		baseURL:       tossAPIBaseURL,
		client:        &http.Client{Timeout: defaultTimeout},
		billingClient: &http.Client{Timeout: billingTimeout},
		logger:        logger,
	}
	WithBaseURL(cfg.BaseURL)(t)
	for _, opt := range opts {
		opt(t)
	}

	if t.breaker == nil {
		t.breaker = NewBreaker(logger)
	}

	return t
}

func (t *TossProvider) Name() string {
	return string(provider.ProviderTypeToss)
}

// ClientKey is the publishable key the payment widget needs.
func (t *TossProvider) ClientKey() string { return t.clientKey }

func (t *TossProvider) SignatureHeader() string { return SignatureHeader }

// Toss renders its own payment widget and hosted checkout, and supports
// recurring billing keys.
func (t *TossProvider) SupportsCheckoutForm() bool  { return true }
func (t *TossProvider) SupportsRedirect() bool      { return true }
func (t *TossProvider) SupportsSubscriptions() bool { return true }

// call sends a JSON request through the circuit breaker and decodes a 200
// response into out. Non-200 answers become *provider.ProviderError carrying
// the Toss error code and message.
func (t *TossProvider) call(ctx context.Context, client *http.Client, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return &provider.ProviderError{
				Code:    provider.ErrCodeMarshal,
				Message: "Failed to prepare request",
				Details: err.Error(),
			}
		}
		reader = bytes.NewReader(jsonBody)
	}

	url := fmt.Sprintf("%s/%s%s", t.baseURL, tossAPIVersion, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &provider.ProviderError{
			Code:    provider.ErrCodeRequest,
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}
	auth := base64.StdEncoding.EncodeToString([]byte(t.secretKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	respBody, err := t.breaker.Execute(func() (interface{}, error) {
		return t.send(client, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &provider.ProviderError{
				Code:      provider.ErrCodeAPI,
				Message:   "TossPayments temporarily unavailable",
				Details:   err.Error(),
				Temporary: true,
			}
		}
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody.([]byte), out); err != nil {
		return &provider.ProviderError{
			Code:    provider.ErrCodeParse,
			Message: "Failed to parse response",
			Details: err.Error(),
		}
	}
	return nil
}

func (t *TossProvider) send(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		t.logger.Error("TossPayments request failed",
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return nil, &provider.ProviderError{
			Code:      provider.ErrCodeAPI,
			Message:   "TossPayments API request failed",
			Details:   err.Error(),
			Temporary: true,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:      provider.ErrCodeResponse,
			Message:   "Failed to read response",
			Details:   err.Error(),
			Temporary: true,
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		if errResp.Code == "" {
			errResp.Code = provider.ErrCodeAPI
		}
		if errResp.Message == "" {
			errResp.Message = http.StatusText(resp.StatusCode)
		}

		t.logger.Error("TossPayments API error",
			zap.String("path", req.URL.Path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", errResp.Code),
			zap.String("message", errResp.Message))

		return nil, &provider.ProviderError{
			Code:      errResp.Code,
			Message:   errResp.Message,
			Temporary: resp.StatusCode >= http.StatusInternalServerError,
		}
	}

	return respBody, nil
}

// errorMessage flattens adapter errors into a result message.
func errorMessage(err error) string {
	var pe *provider.ProviderError
	if errors.As(err, &pe) {
		if pe.Code != "" && pe.Code != provider.ErrCodeAPI {
			return fmt.Sprintf("%s (%s)", pe.Message, pe.Code)
		}
		return pe.Error()
	}
	return err.Error()
}
