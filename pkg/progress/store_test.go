package progress_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/progress"
)

func sampleSchema(t *testing.T) model.FormSchema {
	t.Helper()
	schema, err := model.Parse([]byte(`{"pages":[
		{"fields":[{"id":"name","label":"Name","type":"text","required":true,"value":"Ada"}]},
		{"fields":[
			{"id":"plan","label":"Plan","type":"select","options":[{"value":"a","label":"A"},{"value":"b","label":"B"}],"value":"b"},
			{"id":"agree","label":"Agree","type":"checkbox","value":false},
			{"id":"dob","label":"Birthday","type":"date"}
		]}
	]}`))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return schema
}

func newStore(t *testing.T, storage progress.Storage) *progress.Store {
	t.Helper()
	store, err := progress.NewStore(storage, "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, progress.NewMemory())

	want := progress.Snapshot{CurrentPageIndex: 1, FormData: sampleSchema(t)}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok := store.Load(ctx)
	if !ok {
		t.Fatalf("expected snapshot to load")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_DefaultKey(t *testing.T) {
	store := newStore(t, progress.NewMemory())
	if store.Key() != progress.DefaultSessionKey {
		t.Fatalf("expected default key, got %q", store.Key())
	}
}

func TestStore_LoadTreatsBadEntriesAsAbsent(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{currentPage"},
		{name: "no index", data: `{"formData":{"pages":[]}}`},
		{name: "bad schema", data: `{"currentPageIndex":0,"formData":{"pages":"x"}}`},
		{name: "index out of range", data: `{"currentPageIndex":3,"formData":{"pages":[{"fields":[]}]}}`},
		{name: "negative index", data: `{"currentPageIndex":-1,"formData":{"pages":[{"fields":[]}]}}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			memory := progress.NewMemory()
			if err := memory.Set(ctx, progress.DefaultSessionKey, []byte(tc.data)); err != nil {
				t.Fatalf("seed: %v", err)
			}
			store := newStore(t, memory)
			if _, ok := store.Load(ctx); ok {
				t.Fatalf("expected entry to be treated as absent")
			}
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := newStore(t, progress.NewMemory())
	if _, ok := store.Load(context.Background()); ok {
		t.Fatalf("expected no snapshot")
	}
}

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("boom")
}

func (failingStorage) Set(context.Context, string, []byte) error {
	return errors.New("boom")
}

func (failingStorage) Delete(context.Context, string) error {
	return errors.New("boom")
}

func TestStore_StorageErrors(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, failingStorage{})

	if _, ok := store.Load(ctx); ok {
		t.Fatalf("read failure should report absent")
	}
	if err := store.Save(ctx, progress.Snapshot{FormData: model.Empty()}); err == nil {
		t.Fatalf("expected write failure to surface from Save")
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	memory := progress.NewMemory()
	store := newStore(t, memory)

	if err := store.Save(ctx, progress.Snapshot{FormData: model.Empty()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if memory.Len() != 0 {
		t.Fatalf("expected entry removed")
	}
}

func TestNewStore_RequiresStorage(t *testing.T) {
	if _, err := progress.NewStore(nil, "k"); !errors.Is(err, progress.ErrStorageRequired) {
		t.Fatalf("expected ErrStorageRequired, got %v", err)
	}
}
