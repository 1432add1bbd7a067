package repokit

import (
	"context"
	"testing"

	"citypulse/internal/platform/store"
	"citypulse/internal/platform/testkit"
)

type fakeQueryer struct{}

func (fakeQueryer) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return nil, nil
}
func (fakeQueryer) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (fakeQueryer) QueryRow(context.Context, string, ...any) store.Row        { return nil }

type fakeRepo struct{ q Queryer }

func TestBindFunc_Binds(t *testing.T) {
	t.Parallel()

	b := BindFunc[*fakeRepo](func(q Queryer) *fakeRepo { return &fakeRepo{q: q} })
	q := fakeQueryer{}
	r := b.Bind(q)
	if r == nil || r.q == nil {
		t.Fatalf("expected bound repo with queryer")
	}
}

func TestMustBind_PanicsOnNil(t *testing.T) {
	t.Parallel()

	b := BindFunc[*fakeRepo](func(q Queryer) *fakeRepo { return &fakeRepo{q: q} })
	testkit.MustPanic(t, func() { MustBind[*fakeRepo](b, nil) })
}

func TestRequireQueryer_PassesThrough(t *testing.T) {
	t.Parallel()

	q := fakeQueryer{}
	if got := RequireQueryer(q); got != Queryer(q) {
		t.Fatalf("expected same queryer back")
	}
}
