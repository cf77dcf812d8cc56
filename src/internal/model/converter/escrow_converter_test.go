package converter

import (
	"testing"
	"time"

	"ledger-service/src/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestEscrowIsOverdue(t *testing.T) {
	now := time.Now()

	open := &entity.EscrowHold{
		Status:          entity.EscrowStatusHeld,
		DisputeDeadline: now.Add(-time.Hour),
	}
	assert.True(t, EscrowIsOverdue(open, now))

	within := &entity.EscrowHold{
		Status:          entity.EscrowStatusHeld,
		DisputeDeadline: now.Add(time.Hour),
	}
	assert.False(t, EscrowIsOverdue(within, now))

	released := &entity.EscrowHold{
		Status:          entity.EscrowStatusReleased,
		DisputeDeadline: now.Add(-time.Hour),
	}
	assert.False(t, EscrowIsOverdue(released, now))

	disputed := &entity.EscrowHold{
		Status:          entity.EscrowStatusDisputed,
		DisputeDeadline: now.Add(-time.Hour),
	}
	assert.True(t, EscrowIsOverdue(disputed, now))
}

func TestPayoutIsOverdue(t *testing.T) {
	now := time.Now()

	stale := &entity.PayoutRequest{
		Status:      entity.PayoutStatusProcessing,
		RequestedAt: now.Add(-96 * time.Hour),
	}
	assert.True(t, PayoutIsOverdue(stale, now))

	fresh := &entity.PayoutRequest{
		Status:      entity.PayoutStatusRequested,
		RequestedAt: now.Add(-time.Hour),
	}
	assert.False(t, PayoutIsOverdue(fresh, now))

	completed := &entity.PayoutRequest{
		Status:      entity.PayoutStatusCompleted,
		RequestedAt: now.Add(-96 * time.Hour),
	}
	assert.False(t, PayoutIsOverdue(completed, now))
}

func TestPayoutToResponseHighPriority(t *testing.T) {
	urgent := PayoutToResponse(&entity.PayoutRequest{Urgent: true, Priority: 50})
	assert.True(t, urgent.HighPriority)

	scored := PayoutToResponse(&entity.PayoutRequest{Priority: 80})
	assert.True(t, scored.HighPriority)

	ordinary := PayoutToResponse(&entity.PayoutRequest{Priority: 50})
	assert.False(t, ordinary.HighPriority)
}
