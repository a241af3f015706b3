package clients

import (
	"context"
	"fmt"

	"duestrack/internal/domain"
	ws "duestrack/internal/transport/websocket"
)

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func departmentChannel(department string) string {
	return fmt.Sprintf("notify_department_dues#%s", department)
}

// NotifyPaymentConfirmed pushes a payment-confirmed event to the dashboards
// of the due's owning department.
func (c *WebSocketClient) NotifyPaymentConfirmed(ctx context.Context, due *domain.Due) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "payment_confirmed",
		Channel: departmentChannel(due.Department),
		Data: map[string]interface{}{
			"id":             due.ID,
			"person_id":      due.PersonID,
			"amount":         due.Amount,
			"payment_status": due.PaymentStatus,
		},
	}

	c.hub.Broadcast(due.Department, message)
	return nil
}

// NotifyDueCleared pushes a due-cleared event to the owning department.
func (c *WebSocketClient) NotifyDueCleared(ctx context.Context, due *domain.Due) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "due_cleared",
		Channel: departmentChannel(due.Department),
		Data: map[string]interface{}{
			"id":         due.ID,
			"person_id":  due.PersonID,
			"amount":     due.Amount,
			"status":     due.Status,
			"clear_date": due.ClearDate,
		},
	}

	c.hub.Broadcast(due.Department, message)
	return nil
}

// NotifyBulkImported announces a finished bulk import to the department the
// rows were imported for.
func (c *WebSocketClient) NotifyBulkImported(ctx context.Context, department string, imported, skipped int) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "bulk_imported",
		Channel: departmentChannel(department),
		Data: map[string]interface{}{
			"department": department,
			"imported":   imported,
			"skipped":    skipped,
		},
	}

	c.hub.Broadcast(department, message)
	return nil
}
