package client

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GreyCorbel/ExoHelper/internal/engine"
	transport "github.com/GreyCorbel/ExoHelper/internal/http"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// makeToken builds an unsigned JWT carrying the given claims, enough for the
// unverified claim reads the connection builder performs.
func makeToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	encode := base64.RawURLEncoding.EncodeToString

	return encode(header) + "." + encode(payload) + "."
}

// fakeProvider returns a fixed token and counts calls.
type fakeProvider struct {
	token string
	calls int32
}

func (p *fakeProvider) GetToken(ctx context.Context, scope string) (string, error) {
	atomic.AddInt32(&p.calls, 1)

	return p.token, nil
}

func (p *fakeProvider) RefreshToken(ctx context.Context, scope string) error {
	return nil
}

// reportingProvider additionally knows its tenant.
type reportingProvider struct {
	fakeProvider
	tenant string
}

func (p *reportingProvider) TenantID() string {
	return p.tenant
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestNewConnection(t *testing.T) {
	t.Parallel()
	t.Run("nil config rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewConnection(context.Background(), nil)
		require.Error(t, err)
	})

	t.Run("missing credentials rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewConnection(context.Background(), &exo.Config{TenantID: "contoso.onmicrosoft.com"})
		require.Error(t, err)
		assert.True(t, exo.IsMissingAuthenticationFactory(err))
	})

	t.Run("unknown flavor rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewConnection(context.Background(), &exo.Config{
			Flavor:        exo.Flavor("bogus"),
			TenantID:      "contoso.onmicrosoft.com",
			TokenProvider: &fakeProvider{token: makeToken(t, map[string]interface{}{})},
		})
		require.Error(t, err)
	})

	t.Run("explicit tenant wins and endpoint is derived", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{token: makeToken(t, map[string]interface{}{"tid": "other-tenant"})}

		conn, err := NewConnection(context.Background(), &exo.Config{
			TenantID:      "contoso.onmicrosoft.com",
			TokenProvider: provider,
		})
		require.NoError(t, err)
		assert.Equal(t, "contoso.onmicrosoft.com", conn.TenantID)
		assert.Equal(t,
			"https://outlook.office365.com/adminapi/beta/contoso.onmicrosoft.com/InvokeCommand",
			conn.URI)
		assert.NotEmpty(t, conn.ID)
		// Token acquisition is eager so bad credentials fail at connect time.
		assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
	})

	t.Run("provider reported tenant used when config is silent", func(t *testing.T) {
		t.Parallel()

		provider := &reportingProvider{
			fakeProvider: fakeProvider{token: makeToken(t, map[string]interface{}{})},
			tenant:       "reported.onmicrosoft.com",
		}

		conn, err := NewConnection(context.Background(), &exo.Config{TokenProvider: provider})
		require.NoError(t, err)
		assert.Equal(t, "reported.onmicrosoft.com", conn.TenantID)
	})

	t.Run("tenant claim fallback for standard flavor", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{token: makeToken(t, map[string]interface{}{"tid": "claimed-tenant"})}

		conn, err := NewConnection(context.Background(), &exo.Config{TokenProvider: provider})
		require.NoError(t, err)
		assert.Equal(t, "claimed-tenant", conn.TenantID)
		// The claim read reuses the eagerly acquired token.
		assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
	})

	t.Run("compliance flavor never resolves tenant over the network", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{token: makeToken(t, map[string]interface{}{"tid": "claimed-tenant"})}

		_, err := NewConnection(context.Background(), &exo.Config{
			Flavor:        exo.FlavorCompliance,
			TokenProvider: provider,
		})
		require.Error(t, err)
		assert.True(t, exo.IsMissingTenant(err))
		assert.Equal(t, int32(0), atomic.LoadInt32(&provider.calls))
	})

	t.Run("token without tenant claim rejected", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{token: makeToken(t, map[string]interface{}{"upn": "admin@contoso.com"})}

		_, err := NewConnection(context.Background(), &exo.Config{TokenProvider: provider})
		require.Error(t, err)
		assert.True(t, exo.IsMissingTenant(err))
	})

	t.Run("client credentials require explicit tenant", func(t *testing.T) {
		t.Parallel()

		_, err := NewConnection(context.Background(), &exo.Config{
			ClientID:     "client-id",
			ClientSecret: "secret",
		})
		require.Error(t, err)
		assert.True(t, exo.IsMissingTenant(err))
	})

	t.Run("anchor mailbox resolution", func(t *testing.T) {
		t.Parallel()

		appToken := makeToken(t, map[string]interface{}{"tid": "contoso.onmicrosoft.com"})
		userToken := makeToken(t, map[string]interface{}{
			"tid": "contoso.onmicrosoft.com",
			"upn": "admin@contoso.onmicrosoft.com",
		})

		tests := []struct {
			name   string
			anchor string
			token  string
			want   string
		}{
			{
				name:   "explicit with prefix passes verbatim",
				anchor: "SMTP:shared@contoso.onmicrosoft.com",
				token:  appToken,
				want:   "SMTP:shared@contoso.onmicrosoft.com",
			},
			{
				name:   "bare address marked as user hint",
				anchor: "shared@contoso.onmicrosoft.com",
				token:  appToken,
				want:   "UPN:shared@contoso.onmicrosoft.com",
			},
			{
				name:  "caller upn claim",
				token: userToken,
				want:  "UPN:admin@contoso.onmicrosoft.com",
			},
			{
				name:  "app only falls back to system mailbox",
				token: appToken,
				want:  "UPN:SystemMailbox{bb558c35-97f1-4cb9-8ff7-d53741dc928c}@contoso.onmicrosoft.com",
			},
		}

		for _, testCase := range tests {
			testCase := testCase
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				conn, err := NewConnection(context.Background(), &exo.Config{
					TenantID:      "contoso.onmicrosoft.com",
					AnchorMailbox: testCase.anchor,
					TokenProvider: &fakeProvider{token: testCase.token},
				})
				require.NoError(t, err)
				assert.Equal(t, testCase.want, conn.AnchorMailbox)
			})
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		t.Parallel()

		conn, err := NewConnection(context.Background(), &exo.Config{
			TenantID:       "contoso.onmicrosoft.com",
			TokenProvider:  &fakeProvider{token: makeToken(t, map[string]interface{}{})},
			DefaultRetries: -3,
		})
		require.NoError(t, err)
		assert.Equal(t, exo.FlavorStandard, conn.Flavor)
		assert.Equal(t, 60*time.Second, conn.DefaultTimeout)
		assert.Equal(t, 0, conn.DefaultRetries)
		assert.Equal(t, "ExoHelper", conn.ClientApplication)
		assert.NotNil(t, conn.Transport)
		assert.Nil(t, conn.Protector)
	})
}

// newKeyServer serves a PEM-encoded RSA public key the way the protection key
// endpoint does.
func newKeyServer(t *testing.T, key *rsa.PublicKey) *httptest.Server {
	t.Helper()

	der, err := x509.MarshalPKIXPublicKey(key)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	return httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write(pemBytes)
	}))
}

// passthroughProtector marks values without encrypting, for wiring assertions.
type passthroughProtector struct{}

func (p *passthroughProtector) Protect(ctx context.Context, plaintext string) (string, error) {
	return "marked:" + plaintext, nil
}

func TestConnectionProtector(t *testing.T) {
	t.Parallel()
	t.Run("built-in protector wired from key url", func(t *testing.T) {
		t.Parallel()

		private, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		server := newKeyServer(t, &private.PublicKey)
		defer server.Close()

		conn, err := NewConnection(context.Background(), &exo.Config{
			TenantID:         "contoso.onmicrosoft.com",
			TokenProvider:    &fakeProvider{token: makeToken(t, map[string]interface{}{})},
			ProtectionKeyURL: server.URL,
		})
		require.NoError(t, err)
		require.NotNil(t, conn.Protector)

		ciphertext, err := conn.Protector.Protect(context.Background(), "hunter2")
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(ciphertext)
		require.NoError(t, err)

		plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, private, raw, nil)
		require.NoError(t, err)
		assert.Equal(t, "hunter2", string(plaintext))
	})

	t.Run("explicit protector wins over key url", func(t *testing.T) {
		t.Parallel()

		explicit := &passthroughProtector{}

		conn, err := NewConnection(context.Background(), &exo.Config{
			TenantID:         "contoso.onmicrosoft.com",
			TokenProvider:    &fakeProvider{token: makeToken(t, map[string]interface{}{})},
			Protector:        explicit,
			ProtectionKeyURL: "http://unused.invalid",
		})
		require.NoError(t, err)
		assert.Same(t, explicit, conn.Protector)
	})

	t.Run("invalid protection cache rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewConnection(context.Background(), &exo.Config{
			TenantID:         "contoso.onmicrosoft.com",
			TokenProvider:    &fakeProvider{token: makeToken(t, map[string]interface{}{})},
			ProtectionKeyURL: "http://unused.invalid",
			ProtectionCache:  &exo.CacheConfig{Type: exo.CacheType("bogus")},
		})
		require.Error(t, err)
	})

	t.Run("secret parameter travels encrypted", func(t *testing.T) {
		t.Parallel()

		private, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		keyServer := newKeyServer(t, &private.PublicKey)
		defer keyServer.Close()

		var sentPassword string

		invocations := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			var body struct {
				CmdletInput struct {
					Parameters map[string]interface{} `json:"Parameters"`
				} `json:"CmdletInput"`
			}
			require.NoError(t, json.NewDecoder(request.Body).Decode(&body))

			sentPassword, _ = body.CmdletInput.Parameters["Password"].(string)

			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"value": []}`))
		}))
		defer invocations.Close()

		conn, err := NewConnection(context.Background(), &exo.Config{
			TenantID:         "contoso.onmicrosoft.com",
			TokenProvider:    &fakeProvider{token: makeToken(t, map[string]interface{}{})},
			ProtectionKeyURL: keyServer.URL,
		})
		require.NoError(t, err)

		conn.URI = invocations.URL
		cli := &Client{conn: conn, invoker: engine.New(conn, transport.NewClient())}

		_, err = cli.Invoke(context.Background(), "Set-Mailbox", exo.Parameters{
			"Identity": exo.Scalar("user@contoso.onmicrosoft.com"),
			"Password": exo.Secret("hunter2"),
		}, nil)
		require.NoError(t, err)

		// The wire carries ciphertext, never the plaintext secret.
		require.NotEmpty(t, sentPassword)
		assert.NotEqual(t, "hunter2", sentPassword)

		raw, err := base64.StdEncoding.DecodeString(sentPassword)
		require.NoError(t, err)

		plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, private, raw, nil)
		require.NoError(t, err)
		assert.Equal(t, "hunter2", string(plaintext))
	})
}
