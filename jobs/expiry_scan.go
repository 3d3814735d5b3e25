package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MailEnqueuer queues notification mail. Satisfied by *Client.
type MailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// expiryMailPayload builds the lapse notice for one quotation.
func expiryMailPayload(ref, company, email string, validity time.Time) SendEmailPayload {
	return SendEmailPayload{
		To:      email,
		Subject: fmt.Sprintf("Quotation %s has expired", ref),
		Body: fmt.Sprintf("Quotation %s for %s was valid until %s and has now lapsed. Please request a revised quotation if still required.",
			ref, company, validity.Format("02 Jan 2006")),
	}
}

// NewExpiryScanHandler flags open quotations whose validity date has passed:
// each lapse is logged and a notification mail is queued for the client.
// Statuses are left untouched; open and hold belong to the owner, running and
// closed to the fulfillment workflow. Quotations on hold are skipped entirely.
func NewExpiryScanHandler(pool *pgxpool.Pool, mail MailEnqueuer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		rows, err := pool.Query(ctx, `
			SELECT q.reference_number, q.validity_date, c.email, c.company_name
			FROM quotations q
			JOIN clients c ON c.id = q.client_id
			WHERE q.status = 'open' AND q.validity_date < CURRENT_DATE
		`)
		if err != nil {
			logger.Error("expiry scan failed", slog.Any("error", err))
			return err
		}
		defer rows.Close()

		var lapsed int
		for rows.Next() {
			var (
				ref, email, company string
				validity            time.Time
			)
			if err := rows.Scan(&ref, &validity, &email, &company); err != nil {
				return err
			}
			lapsed++
			logger.Info("quotation validity lapsed",
				slog.String("reference", ref),
				slog.Time("validity_date", validity))
			if mail == nil || email == "" {
				continue
			}
			if _, err := mail.EnqueueSendEmail(ctx, expiryMailPayload(ref, company, email, validity)); err != nil {
				logger.Error("enqueue lapse notice failed",
					slog.String("reference", ref), slog.Any("error", err))
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if lapsed > 0 {
			logger.Info("expiry scan finished", slog.Int("lapsed", lapsed))
		}
		return nil
	}
}
