package ledger_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jmerrifield20/walletd/internal/accounts"
	"github.com/jmerrifield20/walletd/internal/ledger"
	"go.uber.org/zap"
)

// ── Stub store ────────────────────────────────────────────────────────────

type stubWriter struct {
	writes int
	last   []accounts.Entry
	err    error
}

func (w *stubWriter) Update(_ context.Context, a *accounts.Account) error {
	if w.err != nil {
		return w.err
	}
	w.writes++
	w.last = append([]accounts.Entry(nil), a.Entries...)
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────

func newTestLedger(w *stubWriter) *ledger.Service {
	return ledger.NewService(w, zap.NewNop())
}

func entry(key string, value float64) ledger.EntryInput {
	return ledger.EntryInput{Key: &key, Value: &value}
}

func ptrFloat(v float64) *float64 { return &v }
func ptrString(s string) *string  { return &s }

// ── Tests ─────────────────────────────────────────────────────────────────

func TestList_emptyIsNonNil(t *testing.T) {
	svc := newTestLedger(&stubWriter{})
	got := svc.List(&accounts.Account{})
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestAdd_appendsAtEnd(t *testing.T) {
	w := &stubWriter{}
	svc := newTestLedger(w)
	a := &accounts.Account{Entries: []accounts.Entry{{Key: "EUR", Value: 1}}}

	if err := svc.Add(context.Background(), a, entry("USD", 100)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got := svc.List(a)
	if got[len(got)-1] != (accounts.Entry{Key: "USD", Value: 100}) {
		t.Errorf("expected new entry at end, got %#v", got)
	}
	if w.writes != 1 || !reflect.DeepEqual(w.last, got) {
		t.Errorf("expected one full-record write, got %d writes of %#v", w.writes, w.last)
	}
}

func TestAdd_duplicateKeys(t *testing.T) {
	svc := newTestLedger(&stubWriter{})
	a := &accounts.Account{}
	ctx := context.Background()

	svc.Add(ctx, a, entry("USD", 100))
	svc.Add(ctx, a, entry("USD", 50))

	want := []accounts.Entry{{Key: "USD", Value: 100}, {Key: "USD", Value: 50}}
	if got := svc.List(a); !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestAdd_missingField(t *testing.T) {
	w := &stubWriter{}
	svc := newTestLedger(w)
	a := &accounts.Account{}

	cases := []ledger.EntryInput{
		{},
		{Key: ptrString("USD")},
		{Value: ptrFloat(1)},
	}
	for _, in := range cases {
		if err := svc.Add(context.Background(), a, in); !errors.Is(err, ledger.ErrMissingField) {
			t.Errorf("Add(%+v): expected ErrMissingField, got %v", in, err)
		}
	}
	if w.writes != 0 || len(a.Entries) != 0 {
		t.Error("rejected input must not mutate or persist")
	}
}

func TestAdd_zeroValuesArePresent(t *testing.T) {
	svc := newTestLedger(&stubWriter{})
	a := &accounts.Account{}

	if err := svc.Add(context.Background(), a, entry("", 0)); err != nil {
		t.Fatalf("empty key and zero value are present fields: %v", err)
	}
	if len(a.Entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(a.Entries))
	}
}

func TestSetByKey_firstMatchOnly(t *testing.T) {
	w := &stubWriter{}
	svc := newTestLedger(w)
	a := &accounts.Account{Entries: []accounts.Entry{
		{Key: "EUR", Value: 5},
		{Key: "USD", Value: 100},
		{Key: "USD", Value: 50},
	}}

	if err := svc.SetByKey(context.Background(), a, "USD", 200); err != nil {
		t.Fatalf("SetByKey: %v", err)
	}

	want := []accounts.Entry{{Key: "EUR", Value: 5}, {Key: "USD", Value: 200}, {Key: "USD", Value: 50}}
	if !reflect.DeepEqual(a.Entries, want) {
		t.Errorf("got %#v, want %#v", a.Entries, want)
	}
	if w.writes != 1 {
		t.Errorf("expected 1 write, got %d", w.writes)
	}
}

func TestSetByKey_notFound(t *testing.T) {
	w := &stubWriter{}
	svc := newTestLedger(w)
	a := &accounts.Account{Entries: []accounts.Entry{{Key: "EUR", Value: 5}}}

	if err := svc.SetByKey(context.Background(), a, "USD", 1); !errors.Is(err, ledger.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
	if w.writes != 0 {
		t.Error("missing key must not persist")
	}
}

func TestRemoveByKey_removesAll(t *testing.T) {
	svc := newTestLedger(&stubWriter{})
	a := &accounts.Account{Entries: []accounts.Entry{
		{Key: "USD", Value: 100},
		{Key: "EUR", Value: 5},
		{Key: "USD", Value: 50},
	}}

	if err := svc.RemoveByKey(context.Background(), a, "USD"); err != nil {
		t.Fatalf("RemoveByKey: %v", err)
	}

	want := []accounts.Entry{{Key: "EUR", Value: 5}}
	if !reflect.DeepEqual(a.Entries, want) {
		t.Errorf("got %#v, want %#v", a.Entries, want)
	}
}

func TestRemoveByKey_absentKeySucceeds(t *testing.T) {
	w := &stubWriter{}
	svc := newTestLedger(w)
	a := &accounts.Account{Entries: []accounts.Entry{{Key: "EUR", Value: 5}}}

	if err := svc.RemoveByKey(context.Background(), a, "USD"); err != nil {
		t.Fatalf("RemoveByKey of absent key: %v", err)
	}
	if len(a.Entries) != 1 || w.writes != 1 {
		t.Errorf("expected entries untouched and one write, got %#v / %d", a.Entries, w.writes)
	}
}

func TestWorkedExample(t *testing.T) {
	svc := newTestLedger(&stubWriter{})
	a := &accounts.Account{Handle: "alice"}
	ctx := context.Background()

	svc.Add(ctx, a, entry("USD", 100))
	svc.Add(ctx, a, entry("USD", 50))
	want := []accounts.Entry{{Key: "USD", Value: 100}, {Key: "USD", Value: 50}}
	if got := svc.List(a); !reflect.DeepEqual(got, want) {
		t.Fatalf("after adds: got %#v", got)
	}

	svc.SetByKey(ctx, a, "USD", 200)
	want = []accounts.Entry{{Key: "USD", Value: 200}, {Key: "USD", Value: 50}}
	if got := svc.List(a); !reflect.DeepEqual(got, want) {
		t.Fatalf("after set: got %#v", got)
	}

	svc.RemoveByKey(ctx, a, "USD")
	if got := svc.List(a); len(got) != 0 {
		t.Fatalf("after remove: got %#v", got)
	}
}

func TestSave_accountGone(t *testing.T) {
	svc := newTestLedger(&stubWriter{err: accounts.ErrNotFound})
	err := svc.Add(context.Background(), &accounts.Account{}, entry("USD", 1))
	if !errors.Is(err, accounts.ErrUnknownHandle) {
		t.Errorf("expected ErrUnknownHandle, got %v", err)
	}
}

func TestSave_storeFailure(t *testing.T) {
	boom := errors.New("write failed")
	svc := newTestLedger(&stubWriter{err: boom})

	err := svc.RemoveByKey(context.Background(), &accounts.Account{}, "USD")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestWithMemoryStore(t *testing.T) {
	store := accounts.NewMemoryStore()
	svc := ledger.NewService(store, zap.NewNop())
	ctx := context.Background()

	a := &accounts.Account{Handle: "alice", Contact: "a@x.com"}
	store.Create(ctx, a)

	if err := svc.Add(ctx, a, entry("USD", 100)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	fresh, _ := store.GetByHandle(ctx, "alice")
	if len(fresh.Entries) != 1 || fresh.Entries[0].Value != 100 {
		t.Errorf("entry not persisted: %#v", fresh.Entries)
	}
}
