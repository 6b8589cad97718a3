package audit

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("audit store closed")

// MaxRecent bounds one Recent call.
const MaxRecent = 1000

// Config selects and configures a driver.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Actions recorded by the planner.
const (
	ActionAdd    = "add"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionGen    = "gen"
	ActionExtend = "extend"
	ActionRemind = "remind"
)

// Record is one audit line. Index is the positional id at the time of the
// mutation; it is not stable across later deletes.
type Record struct {
	ID     string    `json:"id" yaml:"id"`
	At     time.Time `json:"at" yaml:"at"`
	Action string    `json:"action" yaml:"action"`
	Index  int       `json:"index" yaml:"index"`
	Count  int       `json:"count,omitempty" yaml:"count,omitempty"`
	Task   string    `json:"task,omitempty" yaml:"task,omitempty"`
	Detail string    `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Store is the persistence API used by the planner and the reminder daemon.
type Store interface {
	Append(ctx context.Context, r Record) error
	// Recent returns up to min(n, MaxRecent) records, oldest first.
	Recent(ctx context.Context, n int) ([]Record, error)

	PutDedup(ctx context.Context, key string, until time.Time) error
	GetDedup(ctx context.Context, key string) (until time.Time, ok bool, err error)

	Close() error
}
