package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAuditLine(t *testing.T) {
	sold, _ := json.Marshal(TicketSoldEvent{TicketID: 7, Code: "TK-1", TripID: 1, PassengerID: 5, SeatNumber: 10,
		FromStopID: 101, ToStopID: 103, Price: "50000.00", BaggageFee: "35000.00", PaymentMethod: "CASH", SoldAt: "2026-03-01T08:00:00Z"})
	line, err := FormatAuditLine(TicketSoldQueue, sold)
	require.NoError(t, err)
	assert.Equal(t, "[2026-03-01T08:00:00Z] Ticket sold | ticket_id=7 | code=TK-1 | trip_id=1 | passenger_id=5 | seat=10 | stops=101->103 | price=50000.00 | payment=CASH | baggage_fee=35000.00\n", line)

	cancelled, _ := json.Marshal(TicketCancelledEvent{TicketID: 7, Code: "TK-1", RefundAmount: "35000.00", RefundPercent: 70, CancelledAt: "x"})
	line, err = FormatAuditLine(TicketCancelledQueue, cancelled)
	require.NoError(t, err)
	assert.Contains(t, line, "refund=35000.00 (70%)")

	_, err = FormatAuditLine(TicketNoShowQueue, []byte("{"))
	assert.Error(t, err)
	_, err = FormatAuditLine("booking.confirmed", []byte("{}"))
	assert.Error(t, err)
}

func TestRecordAppendsToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "tickets.log")
	c := NewAuditConsumer("amqp://unused", path)

	body, _ := json.Marshal(NoShowSweptEvent{Count: 2, WindowStart: "a", WindowEnd: "b", SweptAt: "a"})
	require.NoError(t, c.record(TicketNoShowQueue, body))
	require.NoError(t, c.record(TicketNoShowQueue, body))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[a] No-show sweep | tickets=2 | window=(a, b]\n[a] No-show sweep | tickets=2 | window=(a, b]\n", string(raw))
}
