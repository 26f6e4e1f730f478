package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// RouteRepository handles database operations for the routes table. A route
// row is one scheduled stop of a train, not a physical path.
type RouteRepository struct {
	db *sqlx.DB
}

// NewRouteRepository creates a new RouteRepository
func NewRouteRepository(db *sqlx.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create creates a new route stop
func (r *RouteRepository) Create(route *models.Route) error {
	query := `
		INSERT INTO routes (id, train_id, station_id, arrival_time, departure_time, stop_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	if route.ID == "" {
		route.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		route.ID, route.TrainID, route.StationID,
		route.ArrivalTime, route.DepartureTime, route.StopNumber,
	).Scan(&route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create route stop: %w", err)
	}

	return nil
}

// GetStopsByTrainID retrieves a train's schedule with station details,
// ordered by stop number ascending.
func (r *RouteRepository) GetStopsByTrainID(trainID string) ([]models.RouteStop, error) {
	query := `
		SELECT r.stop_number, r.arrival_time, r.departure_time,
			   s.station_name, s.station_code
		FROM routes r
		JOIN stations s ON s.id = r.station_id
		WHERE r.train_id = $1
		ORDER BY r.stop_number ASC
	`

	stops := []models.RouteStop{}
	if err := r.db.Select(&stops, query, trainID); err != nil {
		return nil, fmt.Errorf("failed to get route stops: %w", err)
	}

	return stops, nil
}
