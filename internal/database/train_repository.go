package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// TrainRepository handles database operations for the trains table
type TrainRepository struct {
	db *sqlx.DB
}

// NewTrainRepository creates a new TrainRepository
func NewTrainRepository(db *sqlx.DB) *TrainRepository {
	return &TrainRepository{db: db}
}

// Create creates a new train
func (r *TrainRepository) Create(train *models.Train) error {
	query := `
		INSERT INTO trains (
			id, train_name, train_number,
			total_seats_sleeper, total_seats_ac,
			fare_sleeper, fare_ac
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	if train.ID == "" {
		train.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		train.ID, train.TrainName, train.TrainNumber,
		train.TotalSeatsSleeper, train.TotalSeatsAC,
		train.FareSleeper, train.FareAC,
	).Scan(&train.CreatedAt, &train.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err, "trains_train_number_key") {
			return fmt.Errorf("%w: train number %d already exists", models.ErrDuplicateKey, train.TrainNumber)
		}
		return fmt.Errorf("failed to create train: %w", err)
	}

	return nil
}

// GetByID retrieves a train by ID
func (r *TrainRepository) GetByID(trainID string) (*models.Train, error) {
	query := `
		SELECT id, train_name, train_number,
			   total_seats_sleeper, total_seats_ac,
			   fare_sleeper, fare_ac, created_at, updated_at
		FROM trains
		WHERE id = $1
	`

	var train models.Train
	if err := r.db.Get(&train, query, trainID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTrainNotFound
		}
		return nil, fmt.Errorf("failed to get train: %w", err)
	}

	return &train, nil
}

// GetByNumber retrieves a train by its public train number
func (r *TrainRepository) GetByNumber(trainNumber int) (*models.Train, error) {
	query := `
		SELECT id, train_name, train_number,
			   total_seats_sleeper, total_seats_ac,
			   fare_sleeper, fare_ac, created_at, updated_at
		FROM trains
		WHERE train_number = $1
	`

	var train models.Train
	if err := r.db.Get(&train, query, trainNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTrainNotFound
		}
		return nil, fmt.Errorf("failed to get train by number: %w", err)
	}

	return &train, nil
}

// List retrieves all trains ordered by train number
func (r *TrainRepository) List() ([]models.Train, error) {
	query := `
		SELECT id, train_name, train_number,
			   total_seats_sleeper, total_seats_ac,
			   fare_sleeper, fare_ac, created_at, updated_at
		FROM trains
		ORDER BY train_number
	`

	trains := []models.Train{}
	if err := r.db.Select(&trains, query); err != nil {
		return nil, fmt.Errorf("failed to list trains: %w", err)
	}

	return trains, nil
}
