package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// StationRepository handles database operations for the stations table
type StationRepository struct {
	db *sqlx.DB
}

// NewStationRepository creates a new StationRepository
func NewStationRepository(db *sqlx.DB) *StationRepository {
	return &StationRepository{db: db}
}

// Create creates a new station
func (r *StationRepository) Create(station *models.Station) error {
	query := `
		INSERT INTO stations (id, station_name, station_code)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	if station.ID == "" {
		station.ID = uuid.New().String()
	}

	err := r.db.QueryRow(query, station.ID, station.StationName, station.StationCode).
		Scan(&station.CreatedAt, &station.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err, "stations_station_code_key") {
			return fmt.Errorf("%w: station code %s already exists", models.ErrDuplicateKey, station.StationCode)
		}
		return fmt.Errorf("failed to create station: %w", err)
	}

	return nil
}

// GetByID retrieves a station by ID
func (r *StationRepository) GetByID(stationID string) (*models.Station, error) {
	query := `
		SELECT id, station_name, station_code, created_at, updated_at
		FROM stations
		WHERE id = $1
	`

	var station models.Station
	if err := r.db.Get(&station, query, stationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to get station: %w", err)
	}

	return &station, nil
}
