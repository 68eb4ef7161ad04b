package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds for statement reconstruction. A debit increases the
// counterpart balance (invoice), a credit decreases it (settlement or
// return).
const (
	EntryDebit  = "DEBIT"
	EntryCredit = "CREDIT"
)

// Transaction is one signed balance event replayed from the document
// collections. No stored ledger backs these; they are rebuilt on every
// statement request.
type Transaction struct {
	Date        time.Time       `json:"date"`
	Kind        string          `json:"kind"` // DEBIT, CREDIT
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"` // document number
	Description string          `json:"description"`
}

// StatementEntry is an in-range transaction with the running balance
// after it was applied.
type StatementEntry struct {
	Transaction
	Balance decimal.Decimal `json:"balance"`
}

// Statement is the reconstructed running-balance view for one party and
// date range.
type Statement struct {
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	Entries        []StatementEntry `json:"entries"`
	ClosingBalance decimal.Decimal  `json:"closing_balance"`
}

// BuildStatement reconstructs a chronological statement from the full
// transaction list. Opening balance is the signed sum of everything
// strictly before the range; entries cover [from, to] inclusive with a
// running balance; closing is opening plus the in-range net. The result
// is a pure function of its inputs.
func BuildStatement(txs []Transaction, from, to time.Time) Statement {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	stmt := Statement{OpeningBalance: decimal.Zero}
	for _, tx := range sorted {
		if tx.Date.Before(from) {
			stmt.OpeningBalance = stmt.OpeningBalance.Add(signed(tx))
		}
	}

	balance := stmt.OpeningBalance
	for _, tx := range sorted {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		balance = balance.Add(signed(tx))
		stmt.Entries = append(stmt.Entries, StatementEntry{Transaction: tx, Balance: balance})
	}

	stmt.ClosingBalance = balance
	return stmt
}

func signed(tx Transaction) decimal.Decimal {
	if tx.Kind == EntryCredit {
		return tx.Amount.Neg()
	}
	return tx.Amount
}
