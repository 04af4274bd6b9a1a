package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

type fakeChannel struct {
	key       string
	mandatory bool
	messages  []amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.key = key
	f.mandatory = mandatory
	f.messages = append(f.messages, msg)
	return nil
}

func TestNotifyShiftAutoClosed(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ch := &fakeChannel{}
	p := NewMailPublisher(ch, "email_queue", time.Second, loc)

	start := time.Date(2024, 3, 4, 18, 0, 0, 0, loc)
	end := time.Date(2024, 3, 4, 23, 59, 59, 0, loc)
	shift := &domain.Shift{
		ID:            12,
		StartTime:     start,
		EndTime:       &end,
		CloseReason:   domain.CloseReasonEndOfDay,
		EmployeeName:  "张三",
		EmployeeEmail: "zhangsan@example.com",
	}

	if err := p.NotifyShiftAutoClosed(context.Background(), shift); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.key != "email_queue" || len(ch.messages) != 1 {
		t.Fatalf("expected one message on email_queue, got %d on %q", len(ch.messages), ch.key)
	}
	if ch.mandatory {
		t.Fatal("messages must not be published as mandatory without a return handler")
	}
	if ch.messages[0].DeliveryMode != amqp.Persistent {
		t.Fatalf("expected persistent delivery, got %d", ch.messages[0].DeliveryMode)
	}

	var got struct {
		Type string                         `json:"type"`
		To   string                         `json:"to"`
		Data domain.ShiftAutoClosedMailData `json:"data"`
	}
	if err := json.Unmarshal(ch.messages[0].Body, &got); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.Type != domain.MailTypeShiftAutoClosed || got.To != "zhangsan@example.com" {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if got.Data.StartTime != "2024-03-04 18:00" || got.Data.EndTime != "2024-03-04 23:59" || got.Data.Reason != domain.CloseReasonEndOfDay {
		t.Fatalf("unexpected data: %+v", got.Data)
	}
}

func TestNotifySkipsEmployeesWithoutEmail(t *testing.T) {
	ch := &fakeChannel{}
	p := NewMailPublisher(ch, "email_queue", time.Second, time.UTC)

	if err := p.NotifyShiftAutoClosed(context.Background(), &domain.Shift{ID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ch.messages) != 0 {
		t.Fatalf("expected no message, got %d", len(ch.messages))
	}
}
