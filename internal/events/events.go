// Package events publishes committed sales to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"shopdesk/internal/metrics"
	"shopdesk/internal/receipt"
)

const TypeSaleCommitted = "sale.committed"

type SaleLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type SaleCommitted struct {
	Type          string     `json:"type"`
	OrderID       string     `json:"order_id"`
	BusinessID    string     `json:"business_id"`
	BranchID      string     `json:"branch_id"`
	StaffID       string     `json:"staff_id,omitempty"`
	Subtotal      string     `json:"subtotal"`
	Discount      string     `json:"discount"`
	Tax           string     `json:"tax"`
	Total         string     `json:"total"`
	Currency      string     `json:"currency"`
	PaymentMethod string     `json:"payment_method"`
	Lines         []SaleLine `json:"lines"`
	CommittedAt   time.Time  `json:"committed_at"`
}

func NewSaleCommitted(r receipt.Receipt) SaleCommitted {
	o := r.Order
	ev := SaleCommitted{
		Type:          TypeSaleCommitted,
		OrderID:       o.ID,
		BusinessID:    o.BusinessID,
		BranchID:      o.BranchID,
		StaffID:       o.StaffID,
		Subtotal:      o.Subtotal.StringFixed(2),
		Discount:      o.DiscountAmount.StringFixed(2),
		Tax:           o.TaxAmount.StringFixed(2),
		Total:         o.Total.StringFixed(2),
		Currency:      r.Business.Currency,
		PaymentMethod: string(o.PaymentMethod),
		CommittedAt:   o.CreatedAt,
	}
	for _, l := range r.Lines {
		ev.Lines = append(ev.Lines, SaleLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			LineTotal: l.LineTotal.StringFixed(2),
		})
	}
	return ev
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per sale, keyed by branch so a
// branch's sales stay ordered within a partition.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w, timeout: 5 * time.Second}
}

func (p *KafkaPublisher) PublishSaleCommitted(ctx context.Context, r receipt.Receipt) error {
	payload, err := json.Marshal(NewSaleCommitted(r))
	if err != nil {
		return fmt.Errorf("marshal sale event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(r.Order.BranchID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(TypeSaleCommitted)},
			{Key: "business_id", Value: []byte(r.Order.BusinessID)},
		},
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish sale event: %w", err)
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// Nop discards events; used when no broker is configured.
type Nop struct{}

func (Nop) PublishSaleCommitted(context.Context, receipt.Receipt) error { return nil }
