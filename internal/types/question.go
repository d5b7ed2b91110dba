package types

import (
  "encoding/json"
  "fmt"
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

const (
  QuestionKindLikert = "likert"
  QuestionKindMCQ    = "mcq"

  // Blocs are the five fixed question groups of the questionnaire.
  FirstBloc = 1
  LastBloc  = 5

  // Ties on the top score are re-scored against this bloc only.
  TieBreakBloc = 2
)

// QuestionOption is one selectable answer: the raw value submitted by the
// client, the profile dimension it scores toward (empty for unscored
// questions) and the points it awards.
type QuestionOption struct {
  Value       string `json:"value"`
  ProfileSlug string `json:"profile_slug"`
  Points      int    `json:"points"`
}

type Question struct {
  ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Bloc      int            `gorm:"not null;index:idx_question_bloc_position;column:bloc" json:"bloc"`
  Text      string         `gorm:"not null;column:text" json:"text"`
  Kind      string         `gorm:"not null;default:'mcq';column:kind" json:"kind"`
  Options   datatypes.JSON `gorm:"type:jsonb;column:options" json:"options"`
  Scored    bool           `gorm:"not null;default:false;column:scored" json:"scored"`
  Position  int            `gorm:"not null;default:0;index:idx_question_bloc_position;column:position" json:"position"`
  Active    bool           `gorm:"not null;default:true;column:active" json:"active"`
  CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Question) TableName() string {
  return "question"
}

func (q *Question) OptionList() ([]QuestionOption, error) {
  var opts []QuestionOption
  if len(q.Options) == 0 {
    return opts, nil
  }
  if err := json.Unmarshal(q.Options, &opts); err != nil {
    return nil, err
  }
  return opts, nil
}

// FindOption resolves a submitted raw value against the option list by exact
// match. A nil result means the value is stale or invalid client input.
func (q *Question) FindOption(value string) (*QuestionOption, error) {
  opts, err := q.OptionList()
  if err != nil {
    return nil, err
  }
  for i := range opts {
    if opts[i].Value == value {
      return &opts[i], nil
    }
  }
  return nil, nil
}

// SetOptions serializes the option list, rejecting duplicate values so that
// FindOption stays unambiguous.
func (q *Question) SetOptions(opts []QuestionOption) error {
  seen := map[string]bool{}
  for _, o := range opts {
    if seen[o.Value] {
      return fmt.Errorf("duplicate option value %q", o.Value)
    }
    seen[o.Value] = true
  }
  raw, err := json.Marshal(opts)
  if err != nil {
    return err
  }
  q.Options = datatypes.JSON(raw)
  return nil
}
