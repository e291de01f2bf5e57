package patch

import (
	"fmt"
	"os"
	"strings"

	"github.com/dshills/healthaudit/internal/fsguard"
)

// WritePatchFile writes every patch preview to outPath once guard approves it.
// If there are no patches, no file is created.
func WritePatchFile(patches []Patch, outPath string, guard fsguard.Guard) error {
	if len(patches) == 0 {
		return nil
	}
	if !guard.Allows(outPath) {
		return fmt.Errorf("patch.WritePatchFile: %s: %w", outPath, fsguard.ErrBlocked)
	}

	var b strings.Builder
	for _, p := range patches {
		fmt.Fprintf(&b, "# %s: %s\n", p.Type, p.Description)
		b.WriteString(p.Preview)
		if !strings.HasSuffix(p.Preview, "\n") {
			b.WriteString("\n")
		}
	}

	if err := os.WriteFile(outPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("patch.WritePatchFile: %w", err)
	}
	return nil
}
