package booking

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	domain "github.com/oshokin/room-automation/internal/domain/booking"
	"github.com/oshokin/room-automation/internal/logger"
)

// Times are stored as Unix milliseconds so that comparisons and ordering are numeric.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bookings (
	id           TEXT PRIMARY KEY,
	room_id      TEXT NOT NULL,
	lecturer_id  TEXT NOT NULL,
	course_title TEXT NOT NULL,
	start_time   INTEGER NOT NULL,
	end_time     INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_room_start ON bookings (room_id, start_time);
CREATE INDEX IF NOT EXISTS idx_bookings_start ON bookings (start_time);

CREATE TABLE IF NOT EXISTS announcements (
	booking_id   TEXT PRIMARY KEY,
	published_at INTEGER NOT NULL
);
`

const sqliteBookingColumns = `id, room_id, lecturer_id, course_title, start_time, end_time`

var sqlitePragmas = []string{
	"PRAGMA busy_timeout=5000",
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
}

// SQLiteStore is the embedded Store implementation.
type SQLiteStore struct {
	// pool hands out one connection per operation.
	pool *sqlitex.Pool
	// path is the database file, kept for logging.
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path and applies the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store path is empty")
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    max(runtime.NumCPU(), 4), //nolint:mnd // Writes are serialized anyway.
		PrepareConn: prepareSQLiteConn,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %s: %w", path, err)
	}

	store := &SQLiteStore{
		pool: pool,
		path: path,
	}

	if err = store.migrate(ctx); err != nil {
		_ = pool.Close()

		return nil, err
	}

	logger.DebugKV(ctx, "sqlite store opened", "path", path)

	return store, nil
}

func prepareSQLiteConn(conn *sqlite.Conn) error {
	for _, pragma := range sqlitePragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("take sqlite connection: %w", err)
	}
	defer s.pool.Put(conn)

	if err = sqlitex.ExecuteScript(conn, sqliteSchema, nil); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}

	return nil
}

// GetBookingsForRoomOnDate implements Store.
func (s *SQLiteStore) GetBookingsForRoomOnDate(
	ctx context.Context,
	roomID string,
	date time.Time,
) ([]domain.Booking, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("take sqlite connection: %w", err)
	}
	defer s.pool.Put(conn)

	from, to := dayBounds(date)

	var bookings []domain.Booking

	err = sqlitex.Execute(conn,
		`SELECT `+sqliteBookingColumns+` FROM bookings
		WHERE room_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time`,
		&sqlitex.ExecOptions{
			Args: []any{roomID, from.UnixMilli(), to.UnixMilli()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				bookings = append(bookings, scanSQLiteBooking(stmt))

				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("query bookings for room %s: %w", roomID, err)
	}

	return bookings, nil
}

// CreateBooking implements Store.
func (s *SQLiteStore) CreateBooking(ctx context.Context, details domain.Details) (b domain.Booking, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("take sqlite connection: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer endTransaction(&err)

	var overlapping bool

	err = sqlitex.Execute(conn,
		`SELECT 1 FROM bookings WHERE room_id = ? AND start_time < ? AND end_time > ? LIMIT 1`,
		&sqlitex.ExecOptions{
			Args: []any{details.RoomID, details.EndTime.UnixMilli(), details.StartTime.UnixMilli()},
			ResultFunc: func(*sqlite.Stmt) error {
				overlapping = true

				return nil
			},
		})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("check overlapping bookings: %w", err)
	}

	if overlapping {
		return domain.Booking{}, &domain.ConflictError{
			RoomID:    details.RoomID,
			StartTime: details.StartTime,
		}
	}

	b = domain.Booking{
		ID:          uuid.NewString(),
		RoomID:      details.RoomID,
		LecturerID:  details.LecturerID,
		CourseTitle: details.CourseTitle,
		StartTime:   details.StartTime.UTC(),
		EndTime:     details.EndTime.UTC(),
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO bookings (`+sqliteBookingColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				b.ID,
				b.RoomID,
				b.LecturerID,
				b.CourseTitle,
				b.StartTime.UnixMilli(),
				b.EndTime.UnixMilli(),
			},
		})
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
			return domain.Booking{}, &domain.ConflictError{
				RoomID:    details.RoomID,
				StartTime: details.StartTime,
				Err:       err,
			}
		}

		return domain.Booking{}, fmt.Errorf("insert booking: %w", err)
	}

	return b, nil
}

// FindUpcomingBookings implements Store.
func (s *SQLiteStore) FindUpcomingBookings(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("take sqlite connection: %w", err)
	}
	defer s.pool.Put(conn)

	var bookings []domain.Booking

	err = sqlitex.Execute(conn,
		`SELECT b.id, b.room_id, b.lecturer_id, b.course_title, b.start_time, b.end_time
		FROM bookings b
		LEFT JOIN announcements a ON a.booking_id = b.id
		WHERE b.start_time >= ? AND b.start_time < ? AND a.booking_id IS NULL
		ORDER BY b.start_time`,
		&sqlitex.ExecOptions{
			Args: []any{from.UnixMilli(), to.UnixMilli()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				bookings = append(bookings, scanSQLiteBooking(stmt))

				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("query upcoming bookings: %w", err)
	}

	return bookings, nil
}

// RecordAnnounced implements Store.
func (s *SQLiteStore) RecordAnnounced(ctx context.Context, bookingID string, at time.Time) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("take sqlite connection: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO announcements (booking_id, published_at) VALUES (?, ?)
		ON CONFLICT (booking_id) DO NOTHING`,
		&sqlitex.ExecOptions{
			Args: []any{bookingID, at.UnixMilli()},
		})
	if err != nil {
		return fmt.Errorf("record announcement of %s: %w", bookingID, err)
	}

	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("close sqlite store %s: %w", s.path, err)
	}

	return nil
}

func scanSQLiteBooking(stmt *sqlite.Stmt) domain.Booking {
	return domain.Booking{
		ID:          stmt.ColumnText(0),
		RoomID:      stmt.ColumnText(1),
		LecturerID:  stmt.ColumnText(2),
		CourseTitle: stmt.ColumnText(3),
		StartTime:   time.UnixMilli(stmt.ColumnInt64(4)).UTC(),
		EndTime:     time.UnixMilli(stmt.ColumnInt64(5)).UTC(),
	}
}
