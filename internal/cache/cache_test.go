package cache

import "testing"

func TestMemoGetSet(t *testing.T) {
	m := New[string]()
	if _, ok := m.Get("a"); ok {
		t.Fatal("empty memo returned a value")
	}
	m.Set("a", "1")
	v, ok := m.Get("a")
	if !ok || v != "1" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	if m.Len() != 1 || m.Hits() != 1 {
		t.Errorf("Len=%d Hits=%d", m.Len(), m.Hits())
	}
}

func TestGenerateKey(t *testing.T) {
	a := GenerateKey("https://x.test", "hello")
	if a != GenerateKey("https://x.test", "hello") {
		t.Error("same input produced different keys")
	}
	if a == GenerateKey("https://x.testh", "ello") {
		t.Error("part boundary ignored")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64", len(a))
	}
}
