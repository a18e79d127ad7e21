package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// fakeProtector encrypts by prefixing, enough to observe substitution.
type fakeProtector struct {
	err error
}

func (p *fakeProtector) Protect(ctx context.Context, plaintext string) (string, error) {
	if p.err != nil {
		return "", p.err
	}

	return "enc:" + plaintext, nil
}

func TestDecorateParameters(t *testing.T) {
	t.Parallel()
	t.Run("scalars pass through untouched", func(t *testing.T) {
		t.Parallel()

		wire, err := decorateParameters(context.Background(), exo.Parameters{
			"Identity": exo.Scalar("user@contoso.com"),
			"Force":    exo.Scalar(true),
			"Limit":    exo.Scalar(42),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "user@contoso.com", wire["Identity"])
		assert.Equal(t, true, wire["Force"])
		assert.Equal(t, 42, wire["Limit"])
	})

	t.Run("structured values get the discriminator", func(t *testing.T) {
		t.Parallel()

		original := map[string]interface{}{"Region": "NAM"}

		wire, err := decorateParameters(context.Background(), exo.Parameters{
			"MailboxRegion": exo.Struct(original),
		}, nil)
		require.NoError(t, err)

		decorated, ok := wire["MailboxRegion"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "#Exchange.GenericHashTable", decorated["@odata.type"])
		assert.Equal(t, "NAM", decorated["Region"])

		// The caller's map must not be mutated.
		assert.NotContains(t, original, "@odata.type")
	})

	t.Run("secrets replaced by ciphertext", func(t *testing.T) {
		t.Parallel()

		wire, err := decorateParameters(context.Background(), exo.Parameters{
			"Password": exo.Secret("hunter2"),
			"Name":     exo.Scalar("svc"),
		}, &fakeProtector{})
		require.NoError(t, err)
		assert.Equal(t, "enc:hunter2", wire["Password"])
		assert.Equal(t, "svc", wire["Name"])
	})

	t.Run("secret without protector fails fast", func(t *testing.T) {
		t.Parallel()

		_, err := decorateParameters(context.Background(), exo.Parameters{
			"Password": exo.Secret("hunter2"),
		}, nil)
		require.Error(t, err)

		typed := &exo.Error{}
		require.ErrorAs(t, err, &typed)
		assert.Equal(t, exo.CodeValueProtection, typed.Code)
	})

	t.Run("protector failure surfaces as protection error", func(t *testing.T) {
		t.Parallel()

		_, err := decorateParameters(context.Background(), exo.Parameters{
			"Password": exo.Secret("hunter2"),
		}, &fakeProtector{err: errors.New("no key material")})
		require.Error(t, err)

		typed := &exo.Error{}
		require.ErrorAs(t, err, &typed)
		assert.Equal(t, exo.CodeValueProtection, typed.Code)
	})
}

func TestClampPageSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100, clampPageSize(0))
	assert.Equal(t, 100, clampPageSize(-5))
	assert.Equal(t, 100, clampPageSize(1))
	assert.Equal(t, 100, clampPageSize(100))
	assert.Equal(t, 500, clampPageSize(500))
	assert.Equal(t, 1000, clampPageSize(1000))
	assert.Equal(t, 1000, clampPageSize(100000))
}

func TestProjector(t *testing.T) {
	t.Parallel()

	records := []exo.Record{
		{"Name": "a", "@odata.id": "1", "Prop@odata.type": "#String"},
		{"Name": "b", "@odata.id": "2", "Prop@odata.type": "#String"},
	}

	newProjector(true).apply(records)

	assert.Equal(t, exo.Record{"Name": "a"}, records[0])
	assert.Equal(t, exo.Record{"Name": "b"}, records[1])

	untouched := []exo.Record{{"Name": "a", "@odata.id": "1"}}
	newProjector(false).apply(untouched)
	assert.Contains(t, untouched[0], "@odata.id")
}
