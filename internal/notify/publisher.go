package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
)

// Channel 是 *amqp.Channel 中发布消息所需的部分
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// MailPublisher 把邮件投递到 mail worker 消费的队列
type MailPublisher struct {
	ch      Channel
	queue   string
	timeout time.Duration
	loc     *time.Location
}

func NewMailPublisher(ch Channel, queue string, timeout time.Duration, loc *time.Location) *MailPublisher {
	if loc == nil {
		loc = time.Local
	}
	return &MailPublisher{ch: ch, queue: queue, timeout: timeout, loc: loc}
}

func (p *MailPublisher) Publish(ctx context.Context, message *domain.MailMessage) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("序列化邮件失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		false, // 不处理退回消息，所以不设置 mandatory
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("投递邮件失败: %w", err)
	}

	return nil
}

// NotifyShiftAutoClosed 通知员工班次已被自动关闭，员工没有邮箱时直接跳过
func (p *MailPublisher) NotifyShiftAutoClosed(ctx context.Context, shift *domain.Shift) error {
	if shift.EmployeeEmail == "" {
		return nil
	}

	data := domain.ShiftAutoClosedMailData{
		FullName:  shift.EmployeeName,
		ShiftID:   shift.ID,
		StartTime: shift.StartTime.In(p.loc).Format("2006-01-02 15:04"),
		Reason:    shift.CloseReason,
	}
	if shift.EndTime != nil {
		data.EndTime = shift.EndTime.In(p.loc).Format("2006-01-02 15:04")
	}

	return p.Publish(ctx, &domain.MailMessage{
		Type: domain.MailTypeShiftAutoClosed,
		To:   shift.EmployeeEmail,
		Data: data,
	})
}
