package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "os"
  "strconv"
  "strings"
  "time"

  "github.com/orienta-app/orienta-backend/internal/logger"
)

// PawapayClient initiates mobile money deposits through the pawapay REST
// API. Deposit outcomes arrive later over the webhook, so the client only
// reports whether pawapay accepted the request.
type PawapayClient interface {
  CreateDeposit(ctx context.Context, req PawapayDepositRequest) (*PawapayDepositResult, error)
}

type PawapayDepositRequest struct {
  DepositID            string
  Amount               string
  Currency             string
  Correspondent        string
  PhoneNumber          string
  StatementDescription string
}

// PawapayDepositResult carries the raw HTTP status with the decoded body so
// the adapter can apply its acceptance rule.
type PawapayDepositResult struct {
  StatusCode      int
  DepositID       string
  Status          string
  RejectionReason string
  Message         string
}

type pawapayClient struct {
  log        *logger.Logger
  baseURL    string
  apiToken   string
  httpClient *http.Client
}

func NewPawapayClient(log *logger.Logger) (PawapayClient, error) {
  apiToken := os.Getenv("PAWAPAY_API_TOKEN")
  if apiToken == "" {
    return nil, fmt.Errorf("missing PAWAPAY_API_TOKEN")
  }

  baseURL := os.Getenv("PAWAPAY_BASE_URL")
  if baseURL == "" {
    baseURL = "https://api.pawapay.cloud"
  }

  timeoutSec := 30
  if v := os.Getenv("PAWAPAY_TIMEOUT_SECONDS"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
      timeoutSec = parsed
    }
  }

  return &pawapayClient{
    log:        log.With("service", "PawapayClient"),
    baseURL:    strings.TrimRight(baseURL, "/"),
    apiToken:   apiToken,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }, nil
}

func (c *pawapayClient) CreateDeposit(ctx context.Context, depositReq PawapayDepositRequest) (*PawapayDepositResult, error) {
  payload := map[string]interface{}{
    "depositId":     depositReq.DepositID,
    "amount":        depositReq.Amount,
    "currency":      depositReq.Currency,
    "correspondent": depositReq.Correspondent,
    "payer": map[string]interface{}{
      "type": "MSISDN",
      "address": map[string]string{
        "value": depositReq.PhoneNumber,
      },
    },
    "customerTimestamp":    time.Now().UTC().Format(time.RFC3339),
    "statementDescription": depositReq.StatementDescription,
  }
  body, err := json.Marshal(payload)
  if err != nil {
    return nil, err
  }

  req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/deposits", bytes.NewReader(body))
  if err != nil {
    return nil, err
  }
  req.Header.Set("Authorization", "Bearer "+c.apiToken)
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return nil, fmt.Errorf("pawapay request failed: %w", err)
  }
  defer resp.Body.Close()

  respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
  if err != nil {
    return nil, fmt.Errorf("failed to read pawapay response: %w", err)
  }

  result := &PawapayDepositResult{StatusCode: resp.StatusCode}
  var decoded struct {
    DepositID       string `json:"depositId"`
    Status          string `json:"status"`
    RejectionReason struct {
      RejectionMessage string `json:"rejectionMessage"`
    } `json:"rejectionReason"`
    Message string `json:"message"`
  }
  if err := json.Unmarshal(respBody, &decoded); err == nil {
    result.DepositID = decoded.DepositID
    result.Status = decoded.Status
    result.RejectionReason = decoded.RejectionReason.RejectionMessage
    result.Message = decoded.Message
  } else {
    c.log.Debug("Pawapay response body is not json", "status", resp.StatusCode)
  }
  return result, nil
}
