package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	domain "github.com/oshokin/room-automation/internal/domain/booking"
	"github.com/oshokin/room-automation/internal/logger"
)

// bookingRecord is the gorm model of the bookings table.
type bookingRecord struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	RoomID      string    `gorm:"not null;uniqueIndex:idx_bookings_room_start,priority:1"`
	LecturerID  string    `gorm:"not null"`
	CourseTitle string    `gorm:"not null"`
	StartTime   time.Time `gorm:"not null;uniqueIndex:idx_bookings_room_start,priority:2;index"`
	EndTime     time.Time `gorm:"not null"`
}

func (bookingRecord) TableName() string {
	return "bookings"
}

// announcementRecord is the gorm model of the announcement ledger.
type announcementRecord struct {
	BookingID   string    `gorm:"primaryKey;type:uuid"`
	PublishedAt time.Time `gorm:"not null"`
}

func (announcementRecord) TableName() string {
	return "announcements"
}

// PostgresStore is the Store implementation for a shared PostgreSQL database.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to dsn and migrates the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	return newPostgresStore(ctx, db)
}

func newPostgresStore(ctx context.Context, db *gorm.DB) (*PostgresStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&bookingRecord{}, &announcementRecord{}); err != nil {
		return nil, fmt.Errorf("migrate postgres store: %w", err)
	}

	logger.Debug(ctx, "postgres store opened")

	return &PostgresStore{db: db}, nil
}

// GetBookingsForRoomOnDate implements Store.
func (s *PostgresStore) GetBookingsForRoomOnDate(
	ctx context.Context,
	roomID string,
	date time.Time,
) ([]domain.Booking, error) {
	from, to := dayBounds(date)

	var records []bookingRecord

	err := s.db.WithContext(ctx).
		Where("room_id = ? AND start_time >= ? AND start_time < ?", roomID, from, to).
		Order("start_time").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query bookings for room %s: %w", roomID, err)
	}

	return lo.Map(records, toDomainBooking), nil
}

// CreateBooking implements Store.
func (s *PostgresStore) CreateBooking(ctx context.Context, details domain.Details) (domain.Booking, error) {
	record := bookingRecord{
		ID:          uuid.NewString(),
		RoomID:      details.RoomID,
		LecturerID:  details.LecturerID,
		CourseTitle: details.CourseTitle,
		StartTime:   details.StartTime.UTC(),
		EndTime:     details.EndTime.UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing bookingRecord

		err := tx.Model(&bookingRecord{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ?", record.RoomID).
			Where("start_time < ? AND end_time > ?", record.EndTime, record.StartTime).
			Take(&existing).Error

		switch {
		case err == nil:
			return &domain.ConflictError{RoomID: details.RoomID, StartTime: details.StartTime}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("check overlapping bookings: %w", err)
		}

		return tx.Create(&record).Error
	})

	switch {
	case err == nil:
		return toDomainBooking(record, 0), nil
	case errors.Is(err, domain.ErrConflict):
		return domain.Booking{}, err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Booking{}, &domain.ConflictError{
			RoomID:    details.RoomID,
			StartTime: details.StartTime,
			Err:       err,
		}
	default:
		return domain.Booking{}, fmt.Errorf("insert booking: %w", err)
	}
}

// FindUpcomingBookings implements Store.
func (s *PostgresStore) FindUpcomingBookings(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	var records []bookingRecord

	err := s.db.WithContext(ctx).
		Model(&bookingRecord{}).
		Select("bookings.*").
		Joins("LEFT JOIN announcements ON announcements.booking_id = bookings.id").
		Where("bookings.start_time >= ? AND bookings.start_time < ?", from, to).
		Where("announcements.booking_id IS NULL").
		Order("bookings.start_time").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query upcoming bookings: %w", err)
	}

	return lo.Map(records, toDomainBooking), nil
}

// RecordAnnounced implements Store.
func (s *PostgresStore) RecordAnnounced(ctx context.Context, bookingID string, at time.Time) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&announcementRecord{BookingID: bookingID, PublishedAt: at.UTC()}).Error
	if err != nil {
		return fmt.Errorf("record announcement of %s: %w", bookingID, err)
	}

	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get postgres handle: %w", err)
	}

	if err = sqlDB.Close(); err != nil {
		return fmt.Errorf("close postgres store: %w", err)
	}

	return nil
}

func toDomainBooking(r bookingRecord, _ int) domain.Booking {
	return domain.Booking{
		ID:          r.ID,
		RoomID:      r.RoomID,
		LecturerID:  r.LecturerID,
		CourseTitle: r.CourseTitle,
		StartTime:   r.StartTime.UTC(),
		EndTime:     r.EndTime.UTC(),
	}
}
