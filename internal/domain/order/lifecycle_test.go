package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)

func TestApplyTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		req     TransitionRequest
		wantErr error
	}{
		{
			name: "pending to confirmed",
			from: StatusPending,
			req:  TransitionRequest{To: StatusConfirmed, Actor: ActorAdmin},
		},
		{
			name:    "pending to completed is rejected",
			from:    StatusPending,
			req:     TransitionRequest{To: StatusCompleted, Actor: ActorAdmin},
			wantErr: ErrInvalidTransition,
		},
		{
			name: "confirmed to completed",
			from: StatusConfirmed,
			req:  TransitionRequest{To: StatusCompleted, Actor: ActorAdmin},
		},
		{
			name: "pending to cancelled with reason",
			from: StatusPending,
			req:  TransitionRequest{To: StatusCancelled, Actor: ActorCustomer, Reason: "Change of plans"},
		},
		{
			name: "confirmed to cancelled with reason",
			from: StatusConfirmed,
			req:  TransitionRequest{To: StatusCancelled, Actor: ActorAdmin, Reason: "Out of stock"},
		},
		{
			name:    "completed is terminal",
			from:    StatusCompleted,
			req:     TransitionRequest{To: StatusCancelled, Actor: ActorAdmin, Reason: "too late"},
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "cancelled is terminal",
			from:    StatusCancelled,
			req:     TransitionRequest{To: StatusConfirmed, Actor: ActorAdmin},
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "cancellation without reason is rejected",
			from:    StatusPending,
			req:     TransitionRequest{To: StatusCancelled, Actor: ActorCustomer},
			wantErr: ErrMissingCancellationReason,
		},
		{
			name:    "whitespace reason is rejected",
			from:    StatusPending,
			req:     TransitionRequest{To: StatusCancelled, Actor: ActorCustomer, Reason: "   "},
			wantErr: ErrMissingCancellationReason,
		},
		{
			name:    "backwards move is rejected",
			from:    StatusConfirmed,
			req:     TransitionRequest{To: StatusPending, Actor: ActorAdmin},
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.from}
			tt.req.Now = fixedNow

			err := ApplyTransition(o, tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, o.Status, "failed transition must not mutate the order")
				assert.Nil(t, o.CancellationDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.req.To, o.Status)
		})
	}
}

func TestApplyTransition_CustomerCancellationStampsFields(t *testing.T) {
	o := &Order{ID: "ORD-004", Status: StatusPending}

	err := ApplyTransition(o, TransitionRequest{
		To:     StatusCancelled,
		Actor:  ActorCustomer,
		Reason: "Change of plans",
		Action: ActionRefund,
		Now:    fixedNow,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, ActorCustomer, o.CancelledBy)
	assert.Equal(t, "Change of plans", o.CancellationReason)
	assert.Equal(t, ActionRefund, o.CancellationAction)
	require.NotNil(t, o.CancellationDate)
	assert.Equal(t, fixedNow, *o.CancellationDate)
}

func TestApplyTransition_AdminCancellationSkipsAction(t *testing.T) {
	o := &Order{Status: StatusConfirmed}

	err := ApplyTransition(o, TransitionRequest{
		To:     StatusCancelled,
		Actor:  ActorAdmin,
		Reason: "Kitchen closed",
		Action: ActionRefund, // ignored for admin cancellations
		Now:    fixedNow,
	})

	require.NoError(t, err)
	assert.Equal(t, ActorAdmin, o.CancelledBy)
	assert.Empty(t, o.CancellationAction)
}

func TestAppendMessage(t *testing.T) {
	o := &Order{
		Status: StatusCompleted,
		UpdateRequests: []UpdateRequest{
			{ID: "m1", From: ActorCustomer, Message: "Can I pick up earlier?"},
		},
	}

	msg, err := AppendMessage(o, ActorAdmin, "Sure, 5pm works.", fixedNow)

	require.NoError(t, err)
	require.Len(t, o.UpdateRequests, 2)
	assert.Equal(t, "m1", o.UpdateRequests[0].ID, "prior entries keep their order")
	assert.Equal(t, msg, o.UpdateRequests[1])
	assert.Equal(t, ActorAdmin, msg.From)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, fixedNow, msg.Timestamp)
}

func TestAppendMessage_EmptyRejected(t *testing.T) {
	o := &Order{Status: StatusPending}

	_, err := AppendMessage(o, ActorCustomer, "  ", fixedNow)

	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, o.UpdateRequests)
}
