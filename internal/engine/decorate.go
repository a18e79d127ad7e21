package engine

import (
	"context"
	"fmt"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// decorateParameters rewrites the caller-supplied parameter bag into its wire
// form: structured values get the service's type discriminator, secret values
// are replaced by ciphertext, scalars pass through untouched. Only top-level
// values are decorated.
func decorateParameters(ctx context.Context, params exo.Parameters, protector exo.Protector) (map[string]interface{}, error) {
	wire := make(map[string]interface{}, len(params))

	for name, value := range params {
		switch value.Kind() {
		case exo.KindStruct:
			fields := make(map[string]interface{}, len(value.Fields())+1)
			for key, val := range value.Fields() {
				fields[key] = val
			}

			fields["@odata.type"] = constants.GenericHashTableType
			wire[name] = fields

		case exo.KindSecret:
			if protector == nil {
				return nil, &exo.Error{
					Code:    exo.CodeValueProtection,
					Message: fmt.Sprintf("parameter %q is secret but no protector is configured", name),
					Err:     constants.ErrNoProtector,
				}
			}

			ciphertext, err := protector.Protect(ctx, value.Plaintext())
			if err != nil {
				return nil, &exo.Error{
					Code:    exo.CodeValueProtection,
					Message: fmt.Sprintf("encrypting parameter %q", name),
					Err:     err,
				}
			}

			wire[name] = ciphertext

		default:
			wire[name] = value.ScalarValue()
		}
	}

	return wire, nil
}
