package services

import (
  "context"
  "crypto/hmac"
  "crypto/sha256"
  "encoding/hex"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "net/url"
  "os"
  "strconv"
  "strings"
  "time"

  "github.com/orienta-app/orienta-backend/internal/logger"
)

// StripeClient is a thin wrapper over the Stripe checkout REST API. Only
// the hosted-checkout surface used by the card flow is implemented.
type StripeClient interface {
  CreateCheckoutSession(ctx context.Context, params StripeCheckoutParams) (*StripeCheckoutSession, error)
}

type StripeCheckoutParams struct {
  ClientReferenceID string
  CustomerEmail     string
  SuccessURL        string
  CancelURL         string
  Currency          string
  UnitAmount        int
  ProductName       string
}

type StripeCheckoutSession struct {
  ID  string `json:"id"`
  URL string `json:"url"`
}

type stripeClient struct {
  log        *logger.Logger
  baseURL    string
  secretKey  string
  httpClient *http.Client
}

func NewStripeClient(log *logger.Logger) (StripeClient, error) {
  secretKey := os.Getenv("STRIPE_SECRET_KEY")
  if secretKey == "" {
    return nil, fmt.Errorf("missing STRIPE_SECRET_KEY")
  }

  baseURL := os.Getenv("STRIPE_BASE_URL")
  if baseURL == "" {
    baseURL = "https://api.stripe.com"
  }

  timeoutSec := 30
  if v := os.Getenv("STRIPE_TIMEOUT_SECONDS"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
      timeoutSec = parsed
    }
  }

  return &stripeClient{
    log:        log.With("service", "StripeClient"),
    baseURL:    strings.TrimRight(baseURL, "/"),
    secretKey:  secretKey,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }, nil
}

type stripeHTTPError struct {
  StatusCode int
  Message    string
}

func (e *stripeHTTPError) Error() string {
  return fmt.Sprintf("stripe http %d: %s", e.StatusCode, e.Message)
}

func (c *stripeClient) CreateCheckoutSession(ctx context.Context, params StripeCheckoutParams) (*StripeCheckoutSession, error) {
  form := url.Values{}
  form.Set("mode", "payment")
  form.Set("client_reference_id", params.ClientReferenceID)
  form.Set("success_url", params.SuccessURL)
  form.Set("cancel_url", params.CancelURL)
  if params.CustomerEmail != "" {
    form.Set("customer_email", params.CustomerEmail)
  }
  form.Set("payment_method_types[0]", "card")
  form.Set("line_items[0][quantity]", "1")
  form.Set("line_items[0][price_data][currency]", params.Currency)
  form.Set("line_items[0][price_data][unit_amount]", strconv.Itoa(params.UnitAmount))
  form.Set("line_items[0][price_data][product_data][name]", params.ProductName)

  req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
  if err != nil {
    return nil, err
  }
  req.Header.Set("Authorization", "Bearer "+c.secretKey)
  req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return nil, fmt.Errorf("stripe request failed: %w", err)
  }
  defer resp.Body.Close()

  body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
  if err != nil {
    return nil, fmt.Errorf("failed to read stripe response: %w", err)
  }

  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    msg := strings.TrimSpace(string(body))
    var parsed struct {
      Error struct {
        Message string `json:"message"`
      } `json:"error"`
    }
    if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
      msg = parsed.Error.Message
    }
    c.log.Warn("Stripe checkout session rejected", "status", resp.StatusCode, "message", msg)
    return nil, &stripeHTTPError{StatusCode: resp.StatusCode, Message: msg}
  }

  var session StripeCheckoutSession
  if err := json.Unmarshal(body, &session); err != nil {
    return nil, fmt.Errorf("failed to decode stripe session: %w", err)
  }
  if session.ID == "" {
    return nil, fmt.Errorf("stripe session has no id")
  }
  return &session, nil
}

// VerifyStripeSignature checks the Stripe-Signature header against the raw
// webhook payload. The header carries a unix timestamp and one or more v1
// HMAC-SHA256 signatures over "<timestamp>.<payload>".
func VerifyStripeSignature(payload []byte, sigHeader, secret string, tolerance time.Duration) error {
  if sigHeader == "" {
    return fmt.Errorf("missing signature header")
  }

  var timestamp int64
  var signatures []string
  for _, part := range strings.Split(sigHeader, ",") {
    kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
    if len(kv) != 2 {
      continue
    }
    switch kv[0] {
    case "t":
      ts, err := strconv.ParseInt(kv[1], 10, 64)
      if err != nil {
        return fmt.Errorf("malformed signature timestamp")
      }
      timestamp = ts
    case "v1":
      signatures = append(signatures, kv[1])
    }
  }
  if timestamp == 0 || len(signatures) == 0 {
    return fmt.Errorf("malformed signature header")
  }

  if tolerance > 0 {
    age := time.Since(time.Unix(timestamp, 0))
    if age > tolerance || age < -tolerance {
      return fmt.Errorf("signature timestamp outside tolerance")
    }
  }

  mac := hmac.New(sha256.New, []byte(secret))
  mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
  mac.Write([]byte("."))
  mac.Write(payload)
  expected := hex.EncodeToString(mac.Sum(nil))

  for _, sig := range signatures {
    if hmac.Equal([]byte(expected), []byte(sig)) {
      return nil
    }
  }
  return fmt.Errorf("no matching signature")
}
