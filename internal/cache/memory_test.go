package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// Промах на пустом хранилище
	_, ok, err := store.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if ok {
		t.Fatal("ожидали промах для отсутствующего ключа")
	}

	if err := store.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	value, ok, err := store.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("ожидали попадание: ok=%v, err=%v", ok, err)
	}
	if string(value) != "value" {
		t.Errorf("значение %q, ожидали %q", value, "value")
	}
}

func TestMemoryStore_EmptyValueIsHit(t *testing.T) {
	// Закешированный пустой результат отличим от отсутствия записи
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "empty", []byte("[]"), 0); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	value, ok, _ := store.Get(ctx, "empty")
	if !ok {
		t.Fatal("закешированное пустое значение должно быть попаданием")
	}
	if string(value) != "[]" {
		t.Errorf("значение %q, ожидали %q", value, "[]")
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "key", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "key"); !ok {
		t.Fatal("запись должна быть жива до истечения TTL")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "key"); ok {
		t.Fatal("запись должна исчезнуть после истечения TTL")
	}
}

func TestMemoryStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Set(ctx, "a", []byte("1"), 0)
	store.Set(ctx, "b", []byte("2"), 0)
	store.Set(ctx, "c", []byte("3"), 0)

	if err := store.Invalidate(ctx, "a", "b"); err != nil {
		t.Fatalf("ошибка инвалидации: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Error("ключ a должен быть удален")
	}
	if _, ok, _ := store.Get(ctx, "b"); ok {
		t.Error("ключ b должен быть удален")
	}
	if _, ok, _ := store.Get(ctx, "c"); !ok {
		t.Error("ключ c должен остаться")
	}
}

func TestUserKeys(t *testing.T) {
	keys := UserKeys("user-1")
	if len(keys) != 5 {
		t.Fatalf("ожидали 5 ключей, получили %d", len(keys))
	}
	seen := make(map[string]bool)
	for _, k := range keys {
		if seen[k] {
			t.Errorf("ключ %q повторяется", k)
		}
		seen[k] = true
	}
}
