package statement

import "fmt"

const (
	receiptMaxRunes  = 12
	receiptKeepRunes = 6
)

// TruncateReference shortens long receipt references to their first six
// characters plus a count of the omitted six-character chunks ("ABCDEF, +1").
func TruncateReference(ref string) string {
	r := []rune(ref)
	if len(r) <= receiptMaxRunes {
		return ref
	}
	head := string(r[:receiptKeepRunes])
	more := (len(r) - receiptKeepRunes) / receiptKeepRunes
	if more == 0 {
		return head
	}
	return fmt.Sprintf("%s, +%d", head, more)
}
