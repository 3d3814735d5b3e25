package sales

import (
	"fmt"
	"time"
)

// purposeQuotation keys the document sequence used for quotation numbers.
const purposeQuotation = "quotation"

// formatReferenceNumber builds Q-<YYMMDD>-<seq>. The sequence is allocated
// atomically per owner and purpose, so the allocator never hands out the same
// number twice even under concurrent calls within one second. Uniqueness of
// caller-supplied numbers is still enforced by the upsert path.
func formatReferenceNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("Q-%s-%06d", date.Format("060102"), seq)
}
