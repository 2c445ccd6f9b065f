package key

import "testing"

func TestNormalize(t *testing.T) {
	normalized := Normalize("  El Gato \r\n")
	expected := "el gato"
	if normalized != expected {
		t.Errorf("Expected normalized term to be '%s', but got '%s'", expected, normalized)
	}
}

func TestDerive(t *testing.T) {
	t.Run("generates correct key", func(t *testing.T) {
		// SHA-256 of "hola"
		expected := "b221d9dbb083a7f33428d7c2a3c3198ae925614d70210e28716ccaa7cd4ddb79"
		k := Derive("hola")
		if k != expected {
			t.Errorf("Expected key '%s', but got '%s'", expected, k)
		}
	})

	t.Run("key is deterministic", func(t *testing.T) {
		if Derive("perro") != Derive("perro") {
			t.Error("Expected keys for identical terms to be the same")
		}
	})

	t.Run("normalization produces same key", func(t *testing.T) {
		if Derive("  El Gato ") != Derive("el gato") {
			t.Error("Expected keys to be the same after normalization, but they were different.")
		}
	})

	t.Run("different terms have different keys", func(t *testing.T) {
		if Derive("gato") == Derive("perro") {
			t.Error("Expected keys for different terms to be different")
		}
	})
}
