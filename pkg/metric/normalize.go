package metric

import "golang.org/x/text/unicode/norm"

// NormalizeOption applies NFKC normalization to an option string before it
// is used as a dedup key. Without this, two options that differ only by a
// unicode compatibility variant (e.g. a fullwidth letter or a ligature) would
// be recorded as distinct options, defeating the per-symbol option cap.
// Look-alike letters from different scripts are not merged by NFKC.
// Grounded on the teacher's NormalizeUnicode, minus the "was it changed"
// bookkeeping this call site has no use for.
func NormalizeOption(value string) string {
	return norm.NFKC.String(value)
}
