package services

import (
  "context"
  "sort"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/requestdata"
  "github.com/orienta-app/orienta-backend/internal/types"
)

const defaultCountryCode = "CI"

// MobileOperatorService lists the mobile money operators offered on the
// payment page, grouped by country so the frontend can preselect the
// caller's own operators first.
type MobileOperatorService interface {
  ListActiveGrouped(ctx context.Context) (map[string][]*types.MobileOperator, []string, error)
  DetectCountry(ctx context.Context) string
}

type mobileOperatorService struct {
  log          *logger.Logger
  operatorRepo repos.MobileOperatorRepo
}

func NewMobileOperatorService(baseLog *logger.Logger, operatorRepo repos.MobileOperatorRepo) MobileOperatorService {
  return &mobileOperatorService{
    log:          baseLog.With("service", "MobileOperatorService"),
    operatorRepo: operatorRepo,
  }
}

func (s *mobileOperatorService) DetectCountry(ctx context.Context) string {
  rd := requestdata.GetRequestData(ctx)
  if rd != nil && rd.Country != "" {
    return rd.Country
  }
  return defaultCountryCode
}

// ListActiveGrouped returns active operators keyed by country code plus the
// country ordering: the detected country first, then the rest alphabetically.
func (s *mobileOperatorService) ListActiveGrouped(ctx context.Context) (map[string][]*types.MobileOperator, []string, error) {
  operators, err := s.operatorRepo.GetActive(ctx, nil)
  if err != nil {
    s.log.Error("Failed to list active operators", "error", err)
    return nil, nil, err
  }

  grouped := map[string][]*types.MobileOperator{}
  for _, op := range operators {
    grouped[op.CountryCode] = append(grouped[op.CountryCode], op)
  }

  detected := s.DetectCountry(ctx)
  countries := make([]string, 0, len(grouped))
  for code := range grouped {
    if code != detected {
      countries = append(countries, code)
    }
  }
  sort.Strings(countries)
  if _, ok := grouped[detected]; ok {
    countries = append([]string{detected}, countries...)
  }
  return grouped, countries, nil
}
