package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gatewatch/internal/domain/anpr"
)

type ANPRRepository struct {
	db *gorm.DB
}

func NewANPRRepository(db *gorm.DB) *ANPRRepository {
	return &ANPRRepository{db: db}
}

type DetectionEvent struct {
	ID           int64  `gorm:"primaryKey"`
	EventID      string `gorm:"not null;uniqueIndex"`
	Plate        string `gorm:"not null;index"`
	RegionCode   *string
	RegionName   *string
	Direction    string    `gorm:"not null"`
	Confidence   float64   `gorm:"not null"`
	ObservedAt   time.Time `gorm:"not null"`
	Observations datatypes.JSON
	CreatedAt    time.Time
}

type VehicleRecord struct {
	ID            int64  `gorm:"primaryKey"`
	Plate         string `gorm:"not null;uniqueIndex"`
	RegionCode    *string
	RegionName    *string
	FirstSeen     time.Time `gorm:"not null"`
	LastSeen      time.Time
	EntryCount    int    `gorm:"not null;default:0"`
	ExitCount     int    `gorm:"not null;default:0"`
	Status        string `gorm:"not null;default:OUTSIDE"`
	LastDirection *string
	CreatedAt     time.Time
}

// RegionSeed is one persisted plate-to-region mapping used to warm the
// resolver cache at startup.
type RegionSeed struct {
	Plate  string
	Region anpr.Region
}

func (r *ANPRRepository) InsertDetection(ctx context.Context, det *anpr.Detection) error {
	row := DetectionEvent{
		EventID:    det.EventID,
		Plate:      det.Plate,
		Direction:  string(det.Direction),
		Confidence: det.Confidence,
		ObservedAt: det.ObservedAt,
		CreatedAt:  time.Now(),
	}
	if det.Region != nil {
		row.RegionCode = &det.Region.Code
		row.RegionName = &det.Region.Name
	}
	if len(det.Observations) > 0 {
		if raw, err := json.Marshal(det.Observations); err == nil {
			row.Observations = datatypes.JSON(raw)
		}
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *ANPRRepository) UpsertVehicle(ctx context.Context, det *anpr.Detection) error {
	direction := string(det.Direction)
	status := string(anpr.StatusOutside)
	if det.Direction == anpr.DirectionIn {
		status = string(anpr.StatusInside)
	}

	var row VehicleRecord
	err := r.db.WithContext(ctx).Where("plate = ?", det.Plate).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		row = VehicleRecord{
			Plate:         det.Plate,
			FirstSeen:     det.ObservedAt,
			LastSeen:      det.ObservedAt,
			Status:        status,
			LastDirection: &direction,
			CreatedAt:     time.Now(),
		}
		if det.Direction == anpr.DirectionIn {
			row.EntryCount = 1
		} else {
			row.ExitCount = 1
		}
		if det.Region != nil {
			row.RegionCode = &det.Region.Code
			row.RegionName = &det.Region.Name
		}
		return r.db.WithContext(ctx).Create(&row).Error
	}
	if err != nil {
		return err
	}

	if det.Direction == anpr.DirectionIn {
		row.EntryCount++
	} else {
		row.ExitCount++
	}
	row.LastSeen = det.ObservedAt
	row.Status = status
	row.LastDirection = &direction
	if det.Region != nil {
		row.RegionCode = &det.Region.Code
		row.RegionName = &det.Region.Name
	}
	return r.db.WithContext(ctx).Save(&row).Error
}

// BackfillRegion fills null regions on every vehicle row and detection event
// whose plate shares the 3-letter prefix. Returns the total number of rows
// changed across both tables.
func (r *ANPRRepository) BackfillRegion(ctx context.Context, prefix string, region anpr.Region) (int64, error) {
	pattern := prefix + "-%"
	updates := map[string]interface{}{
		"region_code": region.Code,
		"region_name": region.Name,
	}

	vehicles := r.db.WithContext(ctx).
		Model(&VehicleRecord{}).
		Where("region_code IS NULL AND plate LIKE ?", pattern).
		Updates(updates)
	if vehicles.Error != nil {
		return 0, vehicles.Error
	}

	events := r.db.WithContext(ctx).
		Model(&DetectionEvent{}).
		Where("region_code IS NULL AND plate LIKE ?", pattern).
		Updates(updates)
	if events.Error != nil {
		return vehicles.RowsAffected, events.Error
	}

	return vehicles.RowsAffected + events.RowsAffected, nil
}

// LoadKnownRegions returns every persisted plate with a non-null region, in
// insertion order.
func (r *ANPRRepository) LoadKnownRegions(ctx context.Context) ([]RegionSeed, error) {
	var rows []VehicleRecord
	err := r.db.WithContext(ctx).
		Where("region_code IS NOT NULL").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	seeds := make([]RegionSeed, 0, len(rows))
	for _, row := range rows {
		seed := RegionSeed{Plate: row.Plate}
		seed.Region.Code = *row.RegionCode
		if row.RegionName != nil {
			seed.Region.Name = *row.RegionName
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

// LoadLastDirections returns the persisted last direction per plate.
func (r *ANPRRepository) LoadLastDirections(ctx context.Context) (map[string]anpr.Direction, error) {
	var rows []VehicleRecord
	err := r.db.WithContext(ctx).
		Where("last_direction IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	dirs := make(map[string]anpr.Direction, len(rows))
	for _, row := range rows {
		dirs[row.Plate] = anpr.Direction(*row.LastDirection)
	}
	return dirs, nil
}

// LoadCounters returns the aggregate totals persisted so far.
func (r *ANPRRepository) LoadCounters(ctx context.Context) (anpr.Counters, error) {
	var counters anpr.Counters

	if err := r.db.WithContext(ctx).
		Model(&DetectionEvent{}).
		Count(&counters.Detections).Error; err != nil {
		return anpr.Counters{}, err
	}

	var sums struct {
		Entries int64
		Exits   int64
	}
	err := r.db.WithContext(ctx).
		Model(&VehicleRecord{}).
		Select("COALESCE(SUM(entry_count),0) as entries, COALESCE(SUM(exit_count),0) as exits").
		Scan(&sums).Error
	if err != nil {
		return anpr.Counters{}, err
	}
	counters.Entries = sums.Entries
	counters.Exits = sums.Exits
	return counters, nil
}

// CountInside returns how many vehicles are currently marked INSIDE.
func (r *ANPRRepository) CountInside(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&VehicleRecord{}).
		Where("status = ?", string(anpr.StatusInside)).
		Count(&count).Error
	return count, err
}

// CountVehicles returns the number of distinct plates tracked.
func (r *ANPRRepository) CountVehicles(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&VehicleRecord{}).
		Count(&count).Error
	return count, err
}

func (r *ANPRRepository) FindRecentDetections(ctx context.Context, limit int) ([]DetectionEvent, error) {
	var events []DetectionEvent
	err := r.db.WithContext(ctx).
		Order("observed_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *ANPRRepository) FindVehicles(ctx context.Context, status *string, limit, offset int) ([]VehicleRecord, error) {
	query := r.db.WithContext(ctx).Model(&VehicleRecord{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	query = query.Order("last_seen DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []VehicleRecord
	err := query.Find(&rows).Error
	return rows, err
}

func (r *ANPRRepository) GetVehicle(ctx context.Context, plate string) (*VehicleRecord, error) {
	var row VehicleRecord
	err := r.db.WithContext(ctx).Where("plate = ?", plate).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ANPRRepository) FindDetectionsForPlate(ctx context.Context, plate string, limit int) ([]DetectionEvent, error) {
	var events []DetectionEvent
	err := r.db.WithContext(ctx).
		Where("plate = ?", plate).
		Order("observed_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *ANPRRepository) SearchVehicles(ctx context.Context, query string) ([]VehicleRecord, error) {
	var rows []VehicleRecord
	err := r.db.WithContext(ctx).
		Where("plate LIKE ?", "%"+query+"%").
		Order("last_seen DESC").
		Limit(50).
		Find(&rows).Error
	return rows, err
}
