package facade

import (
	"github.com/pkg/errors"
	"github.com/xlatefs/xlatefs/internal/store"
)

// AddTranslation records a new original->translated mapping, per
// spec.md §4.5. The write is serialized through the mutation
// serializer so the store and the in-memory index never observe
// interleaved updates.
func (f *Facade) AddTranslation(original, translated string) error {
	return f.ser.Submit(func() error {
		if err := f.st.Upsert(original, translated); err != nil {
			return errors.Wrap(err, "persist translation")
		}
		f.mu.Lock()
		f.idx.Add(original, translated)
		f.resolveCache.Purge()
		f.mu.Unlock()
		f.updateMetrics()
		f.watch.Notify()
		return nil
	})
}

// RemoveTranslation retracts a mapping, per spec.md §4.6, including
// the ancestor virtual-directory retraction logic in internal/pathutil.
func (f *Facade) RemoveTranslation(original string) error {
	return f.ser.Submit(func() error {
		if err := f.st.Delete(original); err != nil {
			return errors.Wrap(err, "delete translation")
		}
		f.mu.Lock()
		f.idx.Remove(original)
		f.resolveCache.Purge()
		f.mu.Unlock()
		f.updateMetrics()
		f.watch.Notify()
		return nil
	})
}

// PurgeAll drops every translation, per spec.md §4.7.
func (f *Facade) PurgeAll() error {
	return f.ser.Submit(func() error {
		if err := f.st.DeleteAll(); err != nil {
			return errors.Wrap(err, "purge translations")
		}
		f.mu.Lock()
		f.idx.Purge()
		f.resolveCache.Purge()
		f.handles.CloseAll()
		f.mu.Unlock()
		f.updateMetrics()
		f.watch.Notify()
		return nil
	})
}

// ListTranslations returns a snapshot of every current mapping.
func (f *Facade) ListTranslations() ([]store.Translation, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	originals := f.idx.Originals()

	out := make([]store.Translation, 0, len(originals))
	for original, translated := range originals {
		out = append(out, store.Translation{Original: original, Translated: translated})
	}
	return out, nil
}

// Destroy stops the background workers, closes the store, and drops
// every cached handle, in the order original_source/translation_fs.py's
// destroy() uses: signal, join, then close resources.
func (f *Facade) Destroy() {
	f.shutdownOnce.Do(func() {
		f.watch.Stop()
		if f.snap != nil {
			f.snap.Stop()
		}
		f.ser.Stop()

		f.mu.Lock()
		f.handles.CloseAll()
		f.mu.Unlock()

		if err := f.st.Close(); err != nil {
			f.log.WithError(err).Warn("error closing store on shutdown")
		}
	})
}
