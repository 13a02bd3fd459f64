package utils

import (
	"strings"

	"github.com/google/uuid"
)

// CodeGenerator produces the opaque identifiers handed out by the engine.
// Codes must be unique within their namespace; the tickets.code,
// baggage.tag_code and seat_holds.hold_token columns carry unique indexes
// as a backstop.
type CodeGenerator interface {
	TicketCode() string
	BaggageTag() string
	HoldToken() string
}

// UUIDCodes generates codes from random (version 4) UUIDs.
type UUIDCodes struct{}

// NewUUIDCodes returns the production CodeGenerator.
func NewUUIDCodes() UUIDCodes { return UUIDCodes{} }

// TicketCode returns a printable ticket code such as "TK-3F2A9C...".
func (UUIDCodes) TicketCode() string { return "TK-" + compact(uuid.New()) }

// BaggageTag returns a baggage tag code such as "BG-7D01E4...".
func (UUIDCodes) BaggageTag() string { return "BG-" + compact(uuid.New()) }

// HoldToken returns an opaque token for a seat hold.
func (UUIDCodes) HoldToken() string { return uuid.NewString() }

func compact(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
}
