package serpscope

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a stable hash of the outline content. Two outlines
// with the same headings in the same order share a fingerprint.
func (o Outline) Fingerprint() string {
	d := xxhash.New()
	for i, texts := range o.levels {
		for _, text := range texts {
			_, _ = d.WriteString(strconv.Itoa(i + 1))
			_, _ = d.WriteString("\x1f")
			_, _ = d.WriteString(text)
			_, _ = d.WriteString("\x1e")
		}
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
