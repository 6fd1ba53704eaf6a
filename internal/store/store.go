// Package store persists subscriptions keyed by email.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/i474232898/umbrella-agent/internal/subscription"
)

var (
	// ErrNotFound is returned when no subscription exists for an email.
	ErrNotFound = errors.New("subscription not found")
)

// Store is the contract the in-memory and SQLite stores satisfy.
type Store interface {
	// Upsert inserts or replaces the subscription for sub.Email. An existing
	// record keeps its CreatedAt.
	Upsert(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error)
	// List returns all subscriptions ordered by CreatedAt, then Email.
	List(ctx context.Context) ([]subscription.Subscription, error)
	Get(ctx context.Context, email string) (subscription.Subscription, error)
	Delete(ctx context.Context, email string) error
	Close() error
}

func sortSubscriptions(subs []subscription.Subscription) {
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.Before(subs[j].CreatedAt)
		}
		return subs[i].Email < subs[j].Email
	})
}
