package mail

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// transport описывает контракт доставки писем, используемый уведомителем.
type transport interface {
	Send(ctx context.Context, msg Message) error
	Configured() bool
}

// Notifier формирует письма по заказам и заявкам и отправляет их.
type Notifier struct {
	sender     transport
	notifyAddr string
	logger     *zap.Logger
}

// NewNotifier создаёт уведомитель. notifyAddr — внутренний адрес, на который
// дублируются заявки с планировками; пустое значение отключает копию.
func NewNotifier(sender transport, notifyAddr string, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender:     sender,
		notifyAddr: notifyAddr,
		logger:     logger,
	}
}

// Configured сообщает, настроена ли доставка почты.
func (n *Notifier) Configured() bool {
	return n.sender.Configured()
}

// SendOrderConfirmation отправляет покупателю письмо-подтверждение заказа.
func (n *Notifier) SendOrderConfirmation(ctx context.Context, to string, data OrderEmailData) error {
	html, err := RenderOrderConfirmation(data)
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, Message{
		To:      to,
		Subject: fmt.Sprintf("Order Confirmation - %s | House In Meta", data.OrderID),
		HTML:    html,
		Headers: map[string]string{
			"X-Order-ID":       data.OrderID,
			"X-Customer-Email": to,
		},
	})
}

// SendFloorPlanAck отправляет подтверждение заявки с вложениями и дублирует
// его на внутренний адрес. Самоуведомление подавляется, чтобы не слать
// одно письмо дважды; сбой копии только логируется.
func (n *Notifier) SendFloorPlanAck(ctx context.Context, data FloorPlanEmailData, attachments []Attachment) error {
	html, err := RenderFloorPlanAck(data)
	if err != nil {
		return err
	}

	msg := Message{
		To:          data.Email,
		Subject:     fmt.Sprintf("Floor Plan Submission Received - %s", data.ProjectName),
		HTML:        html,
		Attachments: attachments,
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		return err
	}

	if n.notifyAddr != "" && !strings.EqualFold(n.notifyAddr, data.Email) {
		copyMsg := msg
		copyMsg.To = n.notifyAddr
		if copyErr := n.sender.Send(ctx, copyMsg); copyErr != nil {
			n.logger.Warn("internal copy delivery failed",
				zap.String("project", data.ProjectName), zap.Error(copyErr))
		}
	}

	return nil
}
