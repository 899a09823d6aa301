package uid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// GenerateMatchID randomly generates a unique match ID.
func GenerateMatchID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GenerateRoomID randomly generates a unique room ID.
func GenerateRoomID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GenerateGuestID returns a synthetic negative user ID for guest sessions,
// so guests can never collide with persisted accounts.
func GenerateGuestID() int64 {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	n := int64(binary.BigEndian.Uint64(bytes) >> 1) // keep it positive first
	if n == 0 {
		n = 1
	}
	return -n
}

// GuestUsername derives a display name from a guest ID.
func GuestUsername(guestID int64) string {
	return fmt.Sprintf("guest-%04d", (-guestID)%10000)
}
