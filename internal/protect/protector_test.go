package protect

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

func pemPublicKey(t *testing.T, key interface{}) []byte {
	t.Helper()

	der, err := x509.MarshalPKIXPublicKey(key)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func keyServer(t *testing.T, pemBytes []byte, requests *int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		atomic.AddInt32(requests, 1)
		_, _ = writer.Write(pemBytes)
	}))
}

func TestKeyProtector(t *testing.T) {
	t.Parallel()
	t.Run("encrypts with the fetched key", func(t *testing.T) {
		t.Parallel()

		private, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		var requests int32

		server := keyServer(t, pemPublicKey(t, &private.PublicKey), &requests)
		defer server.Close()

		protector, err := New(Config{KeyURL: server.URL})
		require.NoError(t, err)

		ciphertext, err := protector.Protect(context.Background(), "hunter2")
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(ciphertext)
		require.NoError(t, err)

		plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, private, raw, nil)
		require.NoError(t, err)
		assert.Equal(t, "hunter2", string(plaintext))
	})

	t.Run("key material reused through the cache", func(t *testing.T) {
		t.Parallel()

		private, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		var requests int32

		server := keyServer(t, pemPublicKey(t, &private.PublicKey), &requests)
		defer server.Close()

		protector, err := New(Config{KeyURL: server.URL, Cache: exo.NewMemoryCache(10)})
		require.NoError(t, err)

		_, err = protector.Protect(context.Background(), "one")
		require.NoError(t, err)
		_, err = protector.Protect(context.Background(), "two")
		require.NoError(t, err)

		assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	})

	t.Run("refetches every time without a cache", func(t *testing.T) {
		t.Parallel()

		private, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		var requests int32

		server := keyServer(t, pemPublicKey(t, &private.PublicKey), &requests)
		defer server.Close()

		protector, err := New(Config{KeyURL: server.URL})
		require.NoError(t, err)

		_, err = protector.Protect(context.Background(), "one")
		require.NoError(t, err)
		_, err = protector.Protect(context.Background(), "two")
		require.NoError(t, err)

		assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
	})

	t.Run("missing key url rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New(Config{})
		require.ErrorIs(t, err, constants.ErrNoProtectionKey)
	})

	t.Run("empty key response rejected", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		protector, err := New(Config{KeyURL: server.URL})
		require.NoError(t, err)

		_, err = protector.Protect(context.Background(), "x")
		require.ErrorIs(t, err, constants.ErrNoProtectionKey)
	})

	t.Run("key endpoint failure rejected", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		protector, err := New(Config{KeyURL: server.URL})
		require.NoError(t, err)

		_, err = protector.Protect(context.Background(), "x")
		require.ErrorIs(t, err, constants.ErrNoProtectionKey)
	})

	t.Run("non-pem payload rejected", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_, _ = writer.Write([]byte("not a key"))
		}))
		defer server.Close()

		protector, err := New(Config{KeyURL: server.URL})
		require.NoError(t, err)

		_, err = protector.Protect(context.Background(), "x")
		require.ErrorIs(t, err, constants.ErrNoProtectionKey)
	})

	t.Run("non-rsa key rejected", func(t *testing.T) {
		t.Parallel()

		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		var requests int32

		server := keyServer(t, pemPublicKey(t, &ecKey.PublicKey), &requests)
		defer server.Close()

		protector, err := New(Config{KeyURL: server.URL})
		require.NoError(t, err)

		_, err = protector.Protect(context.Background(), "x")
		require.ErrorIs(t, err, constants.ErrUnsupportedKeyType)
	})
}
