package config

import (
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/team302/mechcore/mechanism"
	"github.com/team302/mechcore/mechanism/climber"
	"github.com/team302/mechcore/mechanism/intake"
)

// AttributeMap is a free-form set of mechanism attributes as read from the description.
type AttributeMap map[string]interface{}

// Has reports whether key is set.
func (am AttributeMap) Has(key string) bool {
	_, ok := am[key]
	return ok
}

// TransformAttributeMap decodes attributes into a T using T's json tags. Attributes that T
// does not have are an error.
func TransformAttributeMap[T any](attributes AttributeMap) (T, error) {
	var out T
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		Metadata:         &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return out, err
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return out, errors.Errorf("unknown attributes %q", md.Unused)
	}
	return out, nil
}

// ConvertAttributes returns the typed, validated attributes of a mechanism type:
// *climber.Config or *intake.Config.
func ConvertAttributes(t mechanism.Type, attributes AttributeMap) (interface{}, error) {
	switch t {
	case mechanism.TypeClimber:
		cfg, err := TransformAttributeMap[climber.Config](attributes)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(string(t)); err != nil {
			return nil, err
		}
		return &cfg, nil
	case mechanism.TypeIntakeLeft, mechanism.TypeIntakeRight:
		cfg, err := TransformAttributeMap[intake.Config](attributes)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(string(t)); err != nil {
			return nil, err
		}
		return &cfg, nil
	default:
		return nil, NewUnknownMechanismTypeError(t)
	}
}
