package anthropic

// CachedSystem returns a single system block with a prompt cache breakpoint.
// Stage instructions are identical across runs, so repeated enrichments
// read them from the cache.
func CachedSystem(text string) []SystemBlock {
	if text == "" {
		return nil
	}
	return []SystemBlock{{Text: text, CacheControl: &CacheControl{TTL: "5m"}}}
}
