package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithSeed preloads ids, for example completions restored from disk.
func WithSeed(ids ...string) Option {
	return func(d *inMemoryDeduper) {
		for _, id := range ids {
			d.seen[id] = struct{}{}
		}
	}
}
