// Package service holds the lost-and-found workflows: item intake, the claim
// review cycle, notifications and reporting. Handlers resolve the caller and
// hand it in; every permission check happens here.
package service

import (
	"database/sql"
	"time"

	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/photos"
)

// DefaultStudentEmailDomain is where student addresses live unless
// configured otherwise.
const DefaultStudentEmailDomain = "student.roundrockisd.org"

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Publisher          notify.Publisher
	Photos             photos.Store
	StudentEmailDomain string
	Now                func() time.Time
}

// Service runs workflows against the database.
type Service struct {
	db            *sql.DB
	pub           notify.Publisher
	photos        photos.Store
	studentDomain string
	clock         func() time.Time
}

// New returns a Service backed by database.
func New(database *sql.DB, opts Options) *Service {
	s := &Service{
		db:            database,
		pub:           opts.Publisher,
		photos:        opts.Photos,
		studentDomain: opts.StudentEmailDomain,
		clock:         opts.Now,
	}
	if s.pub == nil {
		s.pub = notify.Discard
	}
	if s.studentDomain == "" {
		s.studentDomain = DefaultStudentEmailDomain
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// DB returns the underlying database handle.
func (s *Service) DB() *sql.DB {
	return s.db
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}
