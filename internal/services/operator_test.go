package services

import (
  "context"
  "testing"

  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/requestdata"
  "github.com/orienta-app/orienta-backend/internal/types"
)

func operatorCtx(country string) context.Context {
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
    UserID:  uuid.New(),
    Country: country,
  })
}

func TestListActiveGrouped(t *testing.T) {
  repo := &fakeOperatorRepo{operators: []*types.MobileOperator{
    {ID: uuid.New(), Name: "Orange Money", Code: "ORANGE_CIV", CountryCode: "CI", Active: true},
    {ID: uuid.New(), Name: "Wave", Code: "WAVE_CIV", CountryCode: "CI", Active: true},
    {ID: uuid.New(), Name: "Orange Money", Code: "ORANGE_SEN", CountryCode: "SN", Active: true},
    {ID: uuid.New(), Name: "MTN", Code: "MTN_BEN", CountryCode: "BJ", Active: true},
    {ID: uuid.New(), Name: "Defunct", Code: "OLD_CIV", CountryCode: "CI", Active: false},
  }}
  svc := NewMobileOperatorService(newTestLogger(t), repo)

  grouped, countries, err := svc.ListActiveGrouped(operatorCtx("SN"))
  if err != nil {
    t.Fatalf("ListActiveGrouped: %v", err)
  }
  if len(grouped["CI"]) != 2 || len(grouped["SN"]) != 1 || len(grouped["BJ"]) != 1 {
    t.Fatalf("grouped = %v", grouped)
  }
  for _, op := range grouped["CI"] {
    if !op.Active {
      t.Fatalf("inactive operator listed: %+v", op)
    }
  }

  // Detected country first, then the rest alphabetically.
  want := []string{"SN", "BJ", "CI"}
  if len(countries) != len(want) {
    t.Fatalf("countries = %v", countries)
  }
  for i := range want {
    if countries[i] != want[i] {
      t.Fatalf("countries = %v, want %v", countries, want)
    }
  }
}

func TestListActiveGroupedUnknownDetectedCountry(t *testing.T) {
  repo := &fakeOperatorRepo{operators: []*types.MobileOperator{
    {ID: uuid.New(), Code: "ORANGE_CIV", CountryCode: "CI", Active: true},
  }}
  svc := NewMobileOperatorService(newTestLogger(t), repo)

  _, countries, err := svc.ListActiveGrouped(operatorCtx("FR"))
  if err != nil {
    t.Fatalf("ListActiveGrouped: %v", err)
  }
  if len(countries) != 1 || countries[0] != "CI" {
    t.Fatalf("countries = %v, a country with no operators is not listed", countries)
  }
}

func TestDetectCountry(t *testing.T) {
  svc := NewMobileOperatorService(newTestLogger(t), &fakeOperatorRepo{})

  if got := svc.DetectCountry(operatorCtx("SN")); got != "SN" {
    t.Fatalf("DetectCountry = %q", got)
  }
  if got := svc.DetectCountry(context.Background()); got != defaultCountryCode {
    t.Fatalf("DetectCountry = %q, want default", got)
  }
  if got := svc.DetectCountry(operatorCtx("")); got != defaultCountryCode {
    t.Fatalf("DetectCountry = %q, want default for empty header", got)
  }
}
