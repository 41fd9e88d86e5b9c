// Package watcher реализует фоновый наблюдатель первого тейка:
// одиночный цикл опроса позиций с межпроцессной блокировкой через лизинг.
package watcher

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Lease - запись о владении наблюдателем
//
// Единственный долговечный артефакт подсистемы: хранит владельца
// и временные метки, по которым решается перехват при рестарте.
type Lease struct {
	Owner      string    // идентичность владельца (hostname:pid)
	Hostname   string
	PID        int
	AcquiredAt time.Time // момент захвата
	RenewedAt  time.Time // последнее продление, по нему считается протухание
}

// Age возвращает возраст лизинга от момента захвата
func (l *Lease) Age(now time.Time) time.Duration {
	return now.Sub(l.AcquiredAt)
}

// Stale сообщает протух ли лизинг: владелец не продлевал его
// дольше порога и считается умершим
func (l *Lease) Stale(now time.Time, staleness time.Duration) bool {
	return now.Sub(l.RenewedAt) > staleness
}

// LeaseStore - хранилище лизинга наблюдателя
//
// Абстракция внедряется в наблюдатель, чтобы тесты подменяли
// её фейком вместо реальных межпроцессных примитивов.
// Реализация: repository.LeaseRepository поверх Postgres.
type LeaseStore interface {
	// TryAcquire пытается захватить лизинг для owner.
	// Чужой протухший лизинг перехватывается. Возвращает актуальный
	// лизинг и признак успеха: false означает что живой лизинг
	// держит другой владелец.
	TryAcquire(ctx context.Context, lease *Lease, staleness time.Duration) (*Lease, bool, error)

	// Renew продлевает лизинг владельца, сдвигая RenewedAt
	Renew(ctx context.Context, owner string) error

	// Release освобождает лизинг владельца; чужой лизинг не трогается
	Release(ctx context.Context, owner string) error

	// Current возвращает текущий лизинг, nil если никто не владеет
	Current(ctx context.Context) (*Lease, error)
}

// OwnerIdentity возвращает идентичность текущего процесса для лизинга
func OwnerIdentity() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s:%d", hostname, os.Getpid())
}

// NewLease создаёт лизинг текущего процесса
func NewLease(now time.Time) *Lease {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &Lease{
		Owner:      OwnerIdentity(),
		Hostname:   hostname,
		PID:        os.Getpid(),
		AcquiredAt: now,
		RenewedAt:  now,
	}
}
