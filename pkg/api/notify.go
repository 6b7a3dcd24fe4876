package api

import (
	"context"
	"sync"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
)

// changeNotifier is implemented by stores that announce writes
type changeNotifier interface {
	OnChange(fn func())
}

// notifyingStore announces successful catalogue writes for stores that do
// not do so themselves
type notifyingStore struct {
	catalog.Store

	mu        sync.RWMutex
	listeners []func()
}

// withChangeNotifier returns store unchanged when it already notifies
func withChangeNotifier(store catalog.Store) catalog.Store {
	if _, ok := store.(changeNotifier); ok {
		return store
	}
	return &notifyingStore{Store: store}
}

func (n *notifyingStore) OnChange(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

func (n *notifyingStore) changed() {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, fn := range n.listeners {
		fn()
	}
}

func (n *notifyingStore) CreateRecipe(ctx context.Context, in *catalog.CreateRecipeInput) (*catalog.RecipeDetail, error) {
	detail, err := n.Store.CreateRecipe(ctx, in)
	if err != nil {
		return nil, err
	}
	n.changed()
	return detail, nil
}

func (n *notifyingStore) DeleteRecipe(ctx context.Context, id int64) error {
	if err := n.Store.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	n.changed()
	return nil
}

func (n *notifyingStore) DeleteCategory(ctx context.Context, id int64) error {
	if err := n.Store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	n.changed()
	return nil
}

func (n *notifyingStore) DeleteSkillLevel(ctx context.Context, id int64) error {
	if err := n.Store.DeleteSkillLevel(ctx, id); err != nil {
		return err
	}
	n.changed()
	return nil
}
