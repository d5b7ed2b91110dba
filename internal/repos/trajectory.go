package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/types"
)

type TrajectoryRepo interface {
  Create(ctx context.Context, tx *gorm.DB, trajectories []*types.Trajectory) ([]*types.Trajectory, error)
  // GetActiveByProfileID returns the most recently created active
  // trajectory, which is the one the report renders.
  GetActiveByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) (*types.Trajectory, error)
}

type trajectoryRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTrajectoryRepo(db *gorm.DB, baseLog *logger.Logger) TrajectoryRepo {
  repoLog := baseLog.With("repo", "TrajectoryRepo")
  return &trajectoryRepo{db: db, log: repoLog}
}

func (r *trajectoryRepo) Create(ctx context.Context, tx *gorm.DB, trajectories []*types.Trajectory) ([]*types.Trajectory, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(trajectories) == 0 {
    return []*types.Trajectory{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&trajectories).Error; err != nil {
    return nil, err
  }
  return trajectories, nil
}

func (r *trajectoryRepo) GetActiveByProfileID(ctx context.Context, tx *gorm.DB, profileID uuid.UUID) (*types.Trajectory, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if profileID == uuid.Nil {
    return nil, nil
  }

  var trajectory types.Trajectory
  err := transaction.WithContext(ctx).
    Where("profile_id = ? AND active = ?", profileID, true).
    Order("created_at DESC").
    Limit(1).
    Find(&trajectory).Error
  if err != nil {
    return nil, err
  }
  if trajectory.ID == uuid.Nil {
    return nil, nil
  }
  return &trajectory, nil
}
