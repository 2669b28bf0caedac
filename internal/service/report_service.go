package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gatewatch/internal/domain/anpr"
	"gatewatch/internal/regions"
	"gatewatch/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// ReportService serves read-only views of the ledger plus the maintenance
// operations, for the HTTP consumers. It never writes detection state; the
// tracker owns that.
type ReportService struct {
	repo *repository.ANPRRepository
	log  zerolog.Logger
}

func NewReportService(repo *repository.ANPRRepository, log zerolog.Logger) *ReportService {
	return &ReportService{
		repo: repo,
		log:  log,
	}
}

type StatsInfo struct {
	Detections     int64 `json:"detections"`
	Entries        int64 `json:"entries"`
	Exits          int64 `json:"exits"`
	UniqueVehicles int64 `json:"unique_vehicles"`
	Inside         int64 `json:"inside"`
}

type DetectionInfo struct {
	EventID    string    `json:"event_id"`
	Plate      string    `json:"plate"`
	RegionCode *string   `json:"region_code,omitempty"`
	RegionName *string   `json:"region_name,omitempty"`
	Direction  string    `json:"direction"`
	Confidence float64   `json:"confidence"`
	ObservedAt time.Time `json:"observed_at"`
}

type VehicleInfo struct {
	Plate         string     `json:"plate"`
	RegionCode    *string    `json:"region_code,omitempty"`
	RegionName    *string    `json:"region_name,omitempty"`
	FirstSeen     time.Time  `json:"first_seen"`
	LastSeen      time.Time  `json:"last_seen"`
	EntryCount    int        `json:"entry_count"`
	ExitCount     int        `json:"exit_count"`
	Status        string     `json:"status"`
	LastDirection *string    `json:"last_direction,omitempty"`
}

type VehicleDetail struct {
	VehicleInfo
	Detections []DetectionInfo `json:"detections"`
}

func (s *ReportService) Stats(ctx context.Context) (*StatsInfo, error) {
	counters, err := s.repo.LoadCounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load counters: %w", err)
	}
	unique, err := s.repo.CountVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count vehicles: %w", err)
	}
	inside, err := s.repo.CountInside(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count vehicles inside: %w", err)
	}
	return &StatsInfo{
		Detections:     counters.Detections,
		Entries:        counters.Entries,
		Exits:          counters.Exits,
		UniqueVehicles: unique,
		Inside:         inside,
	}, nil
}

func (s *ReportService) RecentDetections(ctx context.Context, limit int) ([]DetectionInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	events, err := s.repo.FindRecentDetections(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent detections: %w", err)
	}
	return detectionInfos(events), nil
}

func (s *ReportService) Vehicles(ctx context.Context, status *string, limit, offset int) ([]VehicleInfo, error) {
	if status != nil {
		normalized := strings.ToUpper(strings.TrimSpace(*status))
		if normalized != string(anpr.StatusInside) && normalized != string(anpr.StatusOutside) {
			return nil, fmt.Errorf("%w: status must be INSIDE or OUTSIDE", ErrInvalidInput)
		}
		status = &normalized
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.repo.FindVehicles(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicles: %w", err)
	}

	result := make([]VehicleInfo, 0, len(rows))
	for _, row := range rows {
		result = append(result, vehicleInfo(row))
	}
	return result, nil
}

func (s *ReportService) Vehicle(ctx context.Context, plate string) (*VehicleDetail, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}

	row, err := s.repo.GetVehicle(ctx, plate)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, plate)
	}

	events, err := s.repo.FindDetectionsForPlate(ctx, plate, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to find detections for plate: %w", err)
	}

	return &VehicleDetail{
		VehicleInfo: vehicleInfo(*row),
		Detections:  detectionInfos(events),
	}, nil
}

func (s *ReportService) Search(ctx context.Context, query string) ([]VehicleInfo, error) {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidInput)
	}

	rows, err := s.repo.SearchVehicles(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search vehicles: %w", err)
	}

	result := make([]VehicleInfo, 0, len(rows))
	for _, row := range rows {
		result = append(result, vehicleInfo(row))
	}
	return result, nil
}

// Backfill manually propagates a region to all null-region rows sharing a
// plate prefix, the same operation the resolver performs on discovery.
func (s *ReportService) Backfill(ctx context.Context, prefix, code string) (int64, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if len(prefix) != 3 {
		return 0, fmt.Errorf("%w: prefix must be 3 letters", ErrInvalidInput)
	}
	region, ok := regions.Lookup(strings.ToUpper(strings.TrimSpace(code)))
	if !ok {
		return 0, fmt.Errorf("%w: unknown region code %q", ErrInvalidInput, code)
	}

	changed, err := s.repo.BackfillRegion(ctx, prefix, region)
	if err != nil {
		s.log.Error().Err(err).Str("prefix", prefix).Msg("manual backfill failed")
		return 0, fmt.Errorf("failed to backfill region: %w", err)
	}

	s.log.Info().
		Str("prefix", prefix).
		Str("region", region.Name).
		Int64("rows", changed).
		Msg("manual region backfill")
	return changed, nil
}

func vehicleInfo(row repository.VehicleRecord) VehicleInfo {
	return VehicleInfo{
		Plate:         row.Plate,
		RegionCode:    row.RegionCode,
		RegionName:    row.RegionName,
		FirstSeen:     row.FirstSeen,
		LastSeen:      row.LastSeen,
		EntryCount:    row.EntryCount,
		ExitCount:     row.ExitCount,
		Status:        row.Status,
		LastDirection: row.LastDirection,
	}
}

func detectionInfos(events []repository.DetectionEvent) []DetectionInfo {
	result := make([]DetectionInfo, 0, len(events))
	for _, e := range events {
		result = append(result, DetectionInfo{
			EventID:    e.EventID,
			Plate:      e.Plate,
			RegionCode: e.RegionCode,
			RegionName: e.RegionName,
			Direction:  e.Direction,
			Confidence: e.Confidence,
			ObservedAt: e.ObservedAt,
		})
	}
	return result
}
