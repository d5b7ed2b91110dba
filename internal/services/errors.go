package services

import (
  "errors"
  "fmt"
)

var (
  ErrNotAuthenticated       = errors.New("not authenticated")
  ErrDiagnosticNotFound     = errors.New("diagnostic not found")
  ErrPaymentRequired        = errors.New("diagnostic awaiting payment")
  ErrDiagnosticNotCompleted = errors.New("diagnostic not completed")
  ErrInvalidBloc            = errors.New("bloc out of range")
  ErrReportNotReady         = errors.New("report not generated yet")
  ErrPaymentNotFound        = errors.New("payment not found")
  ErrUnknownOperator        = errors.New("unknown or inactive mobile operator")
  ErrInvalidProvider        = errors.New("unsupported payment provider")
  ErrMissingPhone           = errors.New("phone number is required")
)

// PaymentInitiationError reports a provider-side refusal or transport
// failure during checkout creation. The diagnostic that triggered the
// attempt has already been rolled back when this error is returned.
type PaymentInitiationError struct {
  Provider string
  Reason   string
}

func (e *PaymentInitiationError) Error() string {
  return fmt.Sprintf("payment initiation failed (%s): %s", e.Provider, e.Reason)
}
