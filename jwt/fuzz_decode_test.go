package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
)

// FuzzCodecDecode feeds arbitrary strings to Decode. It must never panic and
// must never return nil claims without an error.
func FuzzCodecDecode(f *testing.F) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		f.Fatal(err)
	}
	codec, err := NewCodec(Config{
		Algorithm:  "EdDSA",
		SigningKey: StaticKey(priv),
		PublicKey:  pub,
		KeyID:      "k1",
	})
	if err != nil {
		f.Fatal(err)
	}

	valid, err := codec.Encode(map[string]any{"sub": "u1"})
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid)
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("eyJhbGciOiJFZERTQSJ9.eyJzdWIiOiJ0ZXN0In0.invalid")
	f.Add("eyJhbGciOiJub25lIn0.eyJzdWIiOiJ0ZXN0In0.")

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := codec.Decode(input, DecodeOptions{VerifyExpiration: true})
		if err != nil {
			return
		}
		if claims == nil {
			t.Fatal("Decode returned nil claims without error")
		}
	})
}
