package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePushFrameComplete(t *testing.T) {
	raw := []byte(`{
		"id": "n-1",
		"title": "Stock disponible",
		"message": "Tu medicamento está disponible",
		"notification_type": "alert",
		"priority": 2,
		"created_at": "2026-08-30T10:00:00Z",
		"data": {"pharmacy_id": "ph-9"}
	}`)

	n, err := ParsePushFrame(raw)
	require.NoError(t, err)

	assert.Equal(t, "n-1", n.ID)
	assert.Equal(t, NotificationTypeAlert, n.Type)
	assert.Equal(t, "Stock disponible", n.Title)
	assert.Equal(t, "Tu medicamento está disponible", n.Message)
	assert.Equal(t, 2, n.Priority)
	assert.False(t, n.IsRead)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), n.CreatedAt)

	data, err := n.GetDataMap()
	require.NoError(t, err)
	assert.Equal(t, "ph-9", data["pharmacy_id"])
}

func TestParsePushFrameDefaultsTitle(t *testing.T) {
	n, err := ParsePushFrame([]byte(`{"id": "n-2", "message": "hola"}`))
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, n.Title)
	assert.Equal(t, NotificationTypeNormal, n.Type)
}

func TestParsePushFrameTypeAliases(t *testing.T) {
	// La categoría puede venir bajo "type"
	n, err := ParsePushFrame([]byte(`{"id": "n-3", "message": "m", "type": "reminder"}`))
	require.NoError(t, err)
	assert.Equal(t, NotificationTypeReminder, n.Type)

	// Si vienen ambas, "notification_type" gana
	n, err = ParsePushFrame([]byte(`{"id": "n-4", "message": "m", "type": "reminder", "notification_type": "message"}`))
	require.NoError(t, err)
	assert.Equal(t, NotificationTypeMessage, n.Type)

	// Las categorías desconocidas se conservan tal cual
	n, err = ParsePushFrame([]byte(`{"id": "n-5", "message": "m", "type": "promo"}`))
	require.NoError(t, err)
	assert.Equal(t, NotificationType("promo"), n.Type)
}

func TestParsePushFrameNumericID(t *testing.T) {
	n, err := ParsePushFrame([]byte(`{"id": 4812, "message": "m"}`))
	require.NoError(t, err)
	assert.Equal(t, "4812", n.ID)
}

func TestParsePushFrameMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		err  error
	}{
		{"missing id", `{"message": "m"}`, ErrFrameMissingID},
		{"empty id", `{"id": "", "message": "m"}`, ErrFrameMissingID},
		{"non scalar id", `{"id": {"x": 1}, "message": "m"}`, ErrFrameMissingID},
		{"missing message", `{"id": "n-1"}`, ErrFrameMissingMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePushFrame([]byte(tc.raw))
			assert.ErrorIs(t, err, tc.err)
		})
	}

	_, err := ParsePushFrame([]byte(`not json`))
	assert.Error(t, err)
}

func TestParsePushFrameBadCreatedAt(t *testing.T) {
	// Una fecha ilegible no invalida el frame
	n, err := ParsePushFrame([]byte(`{"id": "n-6", "message": "m", "created_at": "ayer"}`))
	require.NoError(t, err)
	assert.True(t, n.CreatedAt.IsZero())
}

func TestNotificationClone(t *testing.T) {
	original := &Notification{
		ID:      "n-7",
		Type:    NotificationTypeNormal,
		Message: "m",
		Data:    []byte(`{"a":1}`),
	}

	clone := original.Clone()
	clone.IsRead = true
	clone.Data[2] = 'x'

	assert.False(t, original.IsRead)
	assert.Equal(t, byte('a'), original.Data[2])
}

func TestConnectionStateValid(t *testing.T) {
	assert.True(t, StateDisconnected.Valid())
	assert.True(t, StateConnecting.Valid())
	assert.True(t, StateConnected.Valid())
	assert.False(t, ConnectionState("zombie").Valid())
}
