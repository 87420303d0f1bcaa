package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/caudal-erp/caudal-erp/internal/expenses"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeExpensePaid carries a paid expense to the ledger bridge.
	TaskTypeExpensePaid = "ledger:expense_paid"
)

// ExpensePaidPayload is the wire form of the expense-paid event. Amounts
// travel as fixed-point strings to survive JSON untouched.
type ExpensePaidPayload struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	ExpenseID  int64     `json:"expense_id"`
	Number     string    `json:"number"`
	Category   string    `json:"category"`
	AccountID  int64     `json:"account_id"`
	SupplierID *int64    `json:"supplier_id,omitempty"`
	Subtotal   string    `json:"subtotal"`
	Tax        string    `json:"tax"`
	ReteFuente string    `json:"rete_fuente"`
	Total      string    `json:"total"`
	PaidAt     time.Time `json:"paid_at"`
}

// NewExpensePaidTask constructs an Asynq task.
func NewExpensePaidTask(payload ExpensePaidPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeExpensePaid, data), nil
}

// LedgerNotifier enqueues expense-paid events for the worker. It is the
// asynq-backed implementation of the expenses notifier port.
type LedgerNotifier struct {
	client *asynq.Client
}

// NewLedgerNotifier constructs a notifier over the given Redis options.
func NewLedgerNotifier(redisOpts asynq.RedisClientOpt) *LedgerNotifier {
	return &LedgerNotifier{client: asynq.NewClient(redisOpts)}
}

// ExpensePaid enqueues the event; delivery is best effort and the caller
// treats errors as log-only.
func (n *LedgerNotifier) ExpensePaid(ctx context.Context, evt expenses.ExpensePaidEvent) error {
	task, err := NewExpensePaidTask(ExpensePaidPayload{
		TenantID:   evt.TenantID,
		ExpenseID:  evt.ExpenseID,
		Number:     evt.Number,
		Category:   string(evt.Category),
		AccountID:  evt.AccountID,
		SupplierID: evt.SupplierID,
		Subtotal:   evt.Subtotal.StringFixed(2),
		Tax:        evt.Tax.StringFixed(2),
		ReteFuente: evt.ReteFuente.StringFixed(2),
		Total:      evt.Total.StringFixed(2),
		PaidAt:     evt.PaidAt,
	})
	if err != nil {
		return err
	}
	_, err = n.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (n *LedgerNotifier) Close() error {
	return n.client.Close()
}
