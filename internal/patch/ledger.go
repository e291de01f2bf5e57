package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/dshills/healthaudit/internal/fsguard"
)

const DefaultLedgerMaxBytes int64 = 5 << 20

var debtIDPattern = regexp.MustCompile(`^DEBT-(\d+)$`)

// MaxDebtNumber scans a ledger for the highest DEBT-<n>. Lines that do not
// parse are skipped. A missing ledger yields 0.
func MaxDebtNumber(path string, maxBytes int64) (int64, error) {
	data, err := fsguard.ReadLimited(path, maxBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	var highest int64
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rec struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(line, &rec) != nil {
			continue
		}
		m := debtIDPattern.FindStringSubmatch(rec.ID)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}

// NextDebtID returns the next unused debt id. When the ledger cannot be read
// it falls back to a millisecond timestamp so ids stay unique.
func (g *Generator) NextDebtID() string {
	highest, err := MaxDebtNumber(g.ledgerPath, g.maxBytes)
	var n int64
	if err != nil {
		g.logger.Printf("Warning: debt ledger %s unreadable, using timestamp id: %v", g.ledgerPath, err)
		n = g.now().UnixMilli()
	} else {
		n = highest + 1
	}
	if n <= g.issued {
		n = g.issued + 1
	}
	g.issued = n
	return fmt.Sprintf("DEBT-%d", n)
}

// AppendDebt writes e as one line at the end of the ledger.
func (g *Generator) AppendDebt(e DebtEntry) error {
	if !g.guard.Allows(g.ledgerPath) {
		return fmt.Errorf("patch.AppendDebt: %s: %w", g.ledgerPath, fsguard.ErrBlocked)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("patch.AppendDebt: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(g.ledgerPath), 0755); err != nil {
		return fmt.Errorf("patch.AppendDebt: %w", err)
	}
	if err := fsguard.AppendLine(g.ledgerPath, data, g.guard); err != nil {
		return fmt.Errorf("patch.AppendDebt: %w", err)
	}
	return nil
}
