package render

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	valuePolicyOnce sync.Once
	valuePolicy     *bluemonday.Policy
)

// SanitizeValue cleans platform display HTML (links, images, line breaks)
// with a user-generated-content policy.
func SanitizeValue(raw string) string {
	if raw == "" {
		return ""
	}
	return valueSanitizer().Sanitize(raw)
}

// DisplayValue returns the display HTML as it should be emitted.
func (o RenderOptions) DisplayValue(raw string) string {
	if !o.Sanitize {
		return raw
	}
	return SanitizeValue(raw)
}

func valueSanitizer() *bluemonday.Policy {
	valuePolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		policy.AllowAttrs("target").OnElements("a")
		valuePolicy = policy
	})
	return valuePolicy
}
