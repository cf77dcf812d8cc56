package messaging

import (
	"ledger-service/src/internal/model"
	kafka "ledger-service/src/pkg/kafka/confluent"
	"ledger-service/src/pkg/log"
)

// LedgerProducer publishes ledger state changes for downstream modules
// (session billing, notifications, reporting).
type LedgerProducer struct {
	TransactionProducer Producer[*model.TransactionEvent]
	EscrowProducer      Producer[*model.EscrowEvent]
	PayoutProducer      Producer[*model.PayoutEvent]
}

func NewLedgerProducer(producer kafka.Producer, log log.Log) *LedgerProducer {
	return &LedgerProducer{
		TransactionProducer: Producer[*model.TransactionEvent]{
			Producer: producer,
			Topic:    "wallet-transaction",
			Log:      log,
		},
		EscrowProducer: Producer[*model.EscrowEvent]{
			Producer: producer,
			Topic:    "escrow-status",
			Log:      log,
		},
		PayoutProducer: Producer[*model.PayoutEvent]{
			Producer: producer,
			Topic:    "payout-status",
			Log:      log,
		},
	}
}

func (l *LedgerProducer) SendTransaction(event *model.TransactionEvent) error {
	return l.TransactionProducer.Send(event)
}

func (l *LedgerProducer) SendEscrow(event *model.EscrowEvent) error {
	return l.EscrowProducer.Send(event)
}

func (l *LedgerProducer) SendPayout(event *model.PayoutEvent) error {
	return l.PayoutProducer.Send(event)
}
