package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tradeplanner/internal/watcher"
)

// Ошибки репозитория лизинга
var (
	ErrLeaseNotHeld = errors.New("lease not held by this owner")
)

// LeaseRepository - работа с таблицей watcher_lock
//
// Таблица всегда содержит не больше одной строки (id=1): лизинг
// единственного наблюдателя. Реализует watcher.LeaseStore.
type LeaseRepository struct {
	db *sql.DB
}

// NewLeaseRepository создает новый экземпляр репозитория
func NewLeaseRepository(db *sql.DB) *LeaseRepository {
	return &LeaseRepository{db: db}
}

// TryAcquire атомарно захватывает лизинг
//
// Захват проходит если строки нет, лизинг уже принадлежит этому
// владельцу, или держатель не продлевал его дольше staleness.
// При отказе возвращается текущий держатель.
func (r *LeaseRepository) TryAcquire(ctx context.Context, lease *watcher.Lease, staleness time.Duration) (*watcher.Lease, bool, error) {
	staleCutoff := lease.AcquiredAt.Add(-staleness)

	query := `
		INSERT INTO watcher_lock (id, owner, hostname, pid, acquired_at, renewed_at)
		VALUES (1, $1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE
		SET owner = EXCLUDED.owner,
		    hostname = EXCLUDED.hostname,
		    pid = EXCLUDED.pid,
		    acquired_at = EXCLUDED.acquired_at,
		    renewed_at = EXCLUDED.renewed_at
		WHERE watcher_lock.owner = EXCLUDED.owner
		   OR watcher_lock.renewed_at < $5
		RETURNING owner`

	var owner string
	err := r.db.QueryRowContext(ctx, query,
		lease.Owner,
		lease.Hostname,
		lease.PID,
		lease.AcquiredAt,
		staleCutoff,
	).Scan(&owner)

	if err == nil {
		return lease, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	// Лизинг живой и чужой: показываем держателя
	current, err := r.Current(ctx)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// Renew продлевает лизинг текущего владельца
func (r *LeaseRepository) Renew(ctx context.Context, owner string) error {
	query := `
		UPDATE watcher_lock
		SET renewed_at = $2
		WHERE id = 1 AND owner = $1`

	result, err := r.db.ExecContext(ctx, query, owner, time.Now())
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrLeaseNotHeld
	}

	return nil
}

// Release освобождает лизинг владельца
//
// Отсутствие строки не считается ошибкой: лизинг мог быть
// перехвачен другим процессом после протухания.
func (r *LeaseRepository) Release(ctx context.Context, owner string) error {
	query := `DELETE FROM watcher_lock WHERE id = 1 AND owner = $1`

	_, err := r.db.ExecContext(ctx, query, owner)
	return err
}

// Current возвращает текущий лизинг, nil если никто не держит
func (r *LeaseRepository) Current(ctx context.Context) (*watcher.Lease, error) {
	query := `
		SELECT owner, hostname, pid, acquired_at, renewed_at
		FROM watcher_lock
		WHERE id = 1`

	lease := &watcher.Lease{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&lease.Owner,
		&lease.Hostname,
		&lease.PID,
		&lease.AcquiredAt,
		&lease.RenewedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return lease, nil
}

// EnsureSchema создает таблицу лизинга если ее еще нет
func (r *LeaseRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS watcher_lock (
			id INTEGER PRIMARY KEY,
			owner TEXT NOT NULL,
			hostname TEXT NOT NULL,
			pid INTEGER NOT NULL,
			acquired_at TIMESTAMPTZ NOT NULL,
			renewed_at TIMESTAMPTZ NOT NULL
		)`

	_, err := r.db.ExecContext(ctx, query)
	return err
}
